package openface

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	svcEpochs = 200
	svcEta    = 0.1
	svcLambda = 1e-4
)

// SVC is a linear one-vs-rest support-vector classifier fitted with
// full-batch subgradient descent on the hinge loss. Deterministic for a
// given training table; no probability output.
type SVC struct {
	W        [][]float64
	B        []float64
	NClasses int
}

func (s *SVC) Kind() string { return "SVC" }

func (s *SVC) Train(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return errors.New("no training data")
	}
	dim := len(x[0])
	s.NClasses = classes
	s.W = make([][]float64, classes)
	s.B = make([]float64, classes)

	for c := 0; c < classes; c++ {
		w := make([]float64, dim)
		b := 0.0
		for epoch := 0; epoch < svcEpochs; epoch++ {
			eta := svcEta / (1 + svcEta*svcLambda*float64(epoch))
			for i, xi := range x {
				target := -1.0
				if y[i] == c {
					target = 1.0
				}
				margin := target * (floats.Dot(w, xi) + b)
				floats.Scale(1-eta*svcLambda, w)
				if margin < 1 {
					floats.AddScaled(w, eta*target, xi)
					b += eta * target
				}
			}
		}
		s.W[c] = w
		s.B[c] = b
	}
	return nil
}

func (s *SVC) Predict(rep []float64) (int, error) {
	if len(s.W) == 0 {
		return 0, errors.New("support-vector classifier is not trained")
	}
	best, bestScore := 0, floats.Dot(s.W[0], rep)+s.B[0]
	for c := 1; c < len(s.W); c++ {
		if score := floats.Dot(s.W[c], rep) + s.B[c]; score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, nil
}

func (s *SVC) Probabilities(rep []float64) ([]float64, bool) {
	return nil, false
}
