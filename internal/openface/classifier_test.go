package openface

import (
	"path/filepath"
	"testing"
)

func TestNewClassifierSelection(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"RF", "RF"},
		{"Neighbors", "Neighbors"},
		{"SVC", "SVC"},
		{"anything-else", "SVC"},
		{"rf", "SVC"},
		{"neighbors", "SVC"},
		{"", "SVC"},
	}
	for _, tt := range tests {
		if got := NewClassifier(tt.method).Kind(); got != tt.want {
			t.Errorf("NewClassifier(%q).Kind() = %q, want %q", tt.method, got, tt.want)
		}
	}
}

// separable two-class training data in 4 dimensions
func trainingData() ([][]float64, []int) {
	x := [][]float64{
		{1, 0.1, 0, 0}, {0.9, 0, 0.1, 0}, {1.1, 0.05, 0, 0.1},
		{0, 0.1, 1, 0.9}, {0.1, 0, 0.9, 1}, {0, 0.05, 1.1, 1},
	}
	y := []int{0, 0, 0, 1, 1, 1}
	return x, y
}

func TestSVCTrainPredict(t *testing.T) {
	x, y := trainingData()
	c := NewClassifier("SVC")
	if err := c.Train(x, y, 2); err != nil {
		t.Fatal(err)
	}
	for i, xi := range x {
		pred, err := c.Predict(xi)
		if err != nil {
			t.Fatal(err)
		}
		if pred != y[i] {
			t.Errorf("sample %d predicted %d, want %d", i, pred, y[i])
		}
	}
	if _, ok := c.Probabilities(x[0]); ok {
		t.Error("SVC should not report probabilities")
	}
}

func TestNeighborsTrainPredict(t *testing.T) {
	x, y := trainingData()
	c := NewClassifier("Neighbors")
	if err := c.Train(x, y, 2); err != nil {
		t.Fatal(err)
	}
	pred, err := c.Predict([]float64{0.95, 0.05, 0.05, 0})
	if err != nil {
		t.Fatal(err)
	}
	if pred != 0 {
		t.Errorf("predicted %d, want 0", pred)
	}
	pred, err = c.Predict([]float64{0.05, 0, 1, 0.95})
	if err != nil {
		t.Fatal(err)
	}
	if pred != 1 {
		t.Errorf("predicted %d, want 1", pred)
	}
	if _, ok := c.Probabilities(x[0]); ok {
		t.Error("Neighbors should not report probabilities")
	}
}

func TestRFTrainPredict(t *testing.T) {
	x, y := trainingData()
	c := NewClassifier("RF")
	if err := c.Train(x, y, 2); err != nil {
		t.Fatal(err)
	}
	probs, ok := c.Probabilities(x[0])
	if !ok {
		t.Fatal("RF should report probabilities")
	}
	if len(probs) != 2 {
		t.Fatalf("got %d class probabilities, want 2", len(probs))
	}
}

func TestClassifierPersistence(t *testing.T) {
	x, y := trainingData()
	for _, kind := range []string{"SVC", "Neighbors"} {
		c := NewClassifier(kind)
		if err := c.Train(x, y, 2); err != nil {
			t.Fatal(err)
		}

		path := filepath.Join(t.TempDir(), kind+".pkl")
		if err := SaveClassifier(c, path); err != nil {
			t.Fatal(err)
		}
		loaded, err := LoadClassifier(kind, path)
		if err != nil {
			t.Fatal(err)
		}
		if loaded.Kind() != kind {
			t.Errorf("loaded kind = %q, want %q", loaded.Kind(), kind)
		}
		for i, xi := range x {
			pred, err := loaded.Predict(xi)
			if err != nil {
				t.Fatal(err)
			}
			if pred != y[i] {
				t.Errorf("%s: loaded model predicted %d for sample %d, want %d", kind, pred, i, y[i])
			}
		}
	}
}

func TestLoadClassifierMissingFile(t *testing.T) {
	if _, err := LoadClassifier("SVC", filepath.Join(t.TempDir(), "SVC.pkl")); err == nil {
		t.Error("expected error for missing model file")
	}
}

func TestUntrainedPredict(t *testing.T) {
	for _, kind := range []string{"SVC", "Neighbors"} {
		if _, err := NewClassifier(kind).Predict([]float64{1, 2}); err == nil {
			t.Errorf("%s: expected error predicting with untrained model", kind)
		}
	}
}
