// Package imagenet resolves network output distributions against the
// synset label file used by the classify head.
package imagenet

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultLabelFile is the conventional name of the synset label file: one
// line per class, synset id first, comma-joined display names after.
const DefaultLabelFile = "synset_words.txt"

// DefaultTopK is how many top categories FindTopK reports when ntop is
// not positive.
const DefaultTopK = 3

// TopK describes one of the highest-probability classes for a prediction.
// Name is the first token of the label line, Aliases the remaining ones
// with commas stripped.
type TopK struct {
	Prob    float32
	Name    string
	Aliases []string
}

// GetLabels loads the label file into an ordered list of raw label lines.
// Line order defines the class index correspondence.
func GetLabels(fname string) ([]string, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find %s", fname)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	return labels, nil
}

// FindTopK returns the ntop highest-probability classes of prob, keyed by
// class index. labels may be nil, in which case DefaultLabelFile is
// loaded. Results come out in descending probability order when iterated
// via sorted keys of the probabilities; ties fall wherever the sort puts
// them.
func FindTopK(prob []float32, labels []string, ntop int) (map[int]TopK, error) {
	if labels == nil {
		var err error
		if labels, err = GetLabels(DefaultLabelFile); err != nil {
			return nil, err
		}
	}
	if len(prob) != len(labels) {
		return nil, errors.Errorf("probability vector has %d entries, label table has %d", len(prob), len(labels))
	}
	if ntop <= 0 {
		ntop = DefaultTopK
	}
	if ntop > len(prob) {
		ntop = len(prob)
	}

	order := make([]int, len(prob))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return prob[order[a]] > prob[order[b]]
	})

	results := make(map[int]TopK, ntop)
	for _, k := range order[:ntop] {
		fields := strings.Fields(strings.ReplaceAll(labels[k], ",", ""))
		entry := TopK{Prob: prob[k]}
		if len(fields) > 0 {
			entry.Name = fields[0]
			entry.Aliases = fields[1:]
		}
		results[k] = entry
	}
	return results, nil
}
