package openface

import (
	randomforest "github.com/malaschitz/randomForest"
	"github.com/pkg/errors"
)

const rfTrees = 100

// RF is the random-forest classifier. Its per-class vote fractions serve
// as the probability output.
type RF struct {
	Forest   randomforest.Forest
	NClasses int
}

func (r *RF) Kind() string { return "RF" }

func (r *RF) Train(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return errors.New("no training data")
	}
	r.NClasses = classes
	r.Forest = randomforest.Forest{
		Data: randomforest.ForestData{X: x, Class: y},
	}
	r.Forest.Train(rfTrees)
	return nil
}

func (r *RF) Predict(rep []float64) (int, error) {
	votes := r.Forest.Vote(rep)
	if len(votes) == 0 {
		return 0, errors.New("random forest is not trained")
	}
	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	return best, nil
}

func (r *RF) Probabilities(rep []float64) ([]float64, bool) {
	return r.Forest.Vote(rep), true
}
