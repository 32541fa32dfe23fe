package imagenet

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeLabels(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synset_words.txt")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetLabelsOrder(t *testing.T) {
	path := writeLabels(t, "n01440764 tench, Tinca tinca\nn01443537 goldfish, Carassius auratus\nn01484850 great white shark\n")
	labels, err := GetLabels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}
	if labels[1] != "n01443537 goldfish, Carassius auratus" {
		t.Errorf("labels[1] = %q", labels[1])
	}
}

func TestGetLabelsMissing(t *testing.T) {
	if _, err := GetLabels(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing label file")
	}
}

func TestFindTopK(t *testing.T) {
	labels := []string{
		"n0 zero",
		"n1 one, unity",
		"n2 two, pair, couple",
		"n3 three",
	}
	prob := []float32{0.1, 0.5, 0.15, 0.25}

	res, err := FindTopK(prob, labels, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("got %d entries, want 3", len(res))
	}

	// the three largest probabilities, keyed by class index
	for _, k := range []int{1, 3, 2} {
		entry, ok := res[k]
		if !ok {
			t.Fatalf("missing index %d in %v", k, res)
		}
		if entry.Prob != prob[k] {
			t.Errorf("res[%d].Prob = %v, want %v", k, entry.Prob, prob[k])
		}
	}
	if _, ok := res[0]; ok {
		t.Error("lowest-probability index 0 should not be present")
	}

	if res[2].Name != "n2" {
		t.Errorf("res[2].Name = %q, want n2", res[2].Name)
	}
	if !reflect.DeepEqual(res[2].Aliases, []string{"two", "pair", "couple"}) {
		t.Errorf("res[2].Aliases = %v", res[2].Aliases)
	}
	if !reflect.DeepEqual(res[1].Aliases, []string{"one", "unity"}) {
		t.Errorf("res[1].Aliases = %v", res[1].Aliases)
	}
}

func TestFindTopKDefaultCount(t *testing.T) {
	labels := []string{"a x", "b y", "c z", "d w", "e v"}
	prob := []float32{0.05, 0.3, 0.25, 0.2, 0.2}
	res, err := FindTopK(prob, labels, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != DefaultTopK {
		t.Errorf("got %d entries, want default %d", len(res), DefaultTopK)
	}
}

func TestFindTopKLengthMismatch(t *testing.T) {
	if _, err := FindTopK([]float32{0.5, 0.5}, []string{"a x"}, 1); err == nil {
		t.Error("expected error for probability/label length mismatch")
	}
}
