package openface

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const neighborsK = 5

// Neighbors is a k-nearest-neighbor classifier over stored embeddings.
// The fitted model is the training table itself. It produces no
// probability output.
type Neighbors struct {
	X        [][]float64
	Y        []int
	NClasses int
}

func (n *Neighbors) Kind() string { return "Neighbors" }

func (n *Neighbors) Train(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return errors.New("no training data")
	}
	n.X = x
	n.Y = y
	n.NClasses = classes
	return nil
}

func (n *Neighbors) Predict(rep []float64) (int, error) {
	if len(n.X) == 0 {
		return 0, errors.New("nearest-neighbor classifier is not trained")
	}

	type hit struct {
		dist  float64
		class int
	}
	hits := make([]hit, len(n.X))
	for i, x := range n.X {
		hits[i] = hit{dist: floats.Distance(x, rep, 2), class: n.Y[i]}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].dist < hits[b].dist })

	k := neighborsK
	if k > len(hits) {
		k = len(hits)
	}
	counts := make([]int, n.NClasses)
	for _, h := range hits[:k] {
		counts[h.class]++
	}
	best := 0
	for c, cnt := range counts {
		if cnt > counts[best] {
			best = c
		}
	}
	return best, nil
}

func (n *Neighbors) Probabilities(rep []float64) ([]float64, bool) {
	return nil, false
}
