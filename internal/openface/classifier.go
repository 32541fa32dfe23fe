package openface

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// Classifier is a trainable identity classifier over embedding vectors.
// Probabilities reports per-class scores when the underlying method
// produces them; ok is false for methods with no probability output.
type Classifier interface {
	Kind() string
	Train(x [][]float64, y []int, classes int) error
	Predict(rep []float64) (int, error)
	Probabilities(rep []float64) ([]float64, bool)
}

var makers = map[string]func() Classifier{
	"RF":        func() Classifier { return &RF{} },
	"Neighbors": func() Classifier { return &Neighbors{} },
	"SVC":       func() Classifier { return &SVC{} },
}

// NewClassifier returns the classifier for method. "RF" and "Neighbors"
// match exactly; every other value selects SVC.
func NewClassifier(method string) Classifier {
	if method != "RF" && method != "Neighbors" {
		method = "SVC"
	}
	return makers[method]()
}

// SaveClassifier persists a fitted classifier to path.
func SaveClassifier(c Classifier, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create model file %s", path)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(c); err != nil {
		return errors.Wrapf(err, "cannot encode %s model", c.Kind())
	}
	return nil
}

// LoadClassifier reads the persisted model of the given kind from path.
func LoadClassifier(kind, path string) (Classifier, error) {
	mk, ok := makers[kind]
	if !ok {
		return nil, errors.Errorf("unknown classifier kind %q", kind)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open model file %s", path)
	}
	defer f.Close()

	c := mk()
	if err := gob.NewDecoder(f).Decode(c); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s model from %s", kind, path)
	}
	return c, nil
}
