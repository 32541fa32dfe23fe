package openface

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects the rows of data onto their first ncomp principal
// components.
func PCA(data *mat.Dense, ncomp int) (*mat.Dense, error) {
	rows, cols := data.Dims()
	if rows < 2 {
		return nil, errors.Errorf("need at least 2 samples for PCA, have %d", rows)
	}
	if ncomp < 1 || ncomp > cols {
		return nil, errors.Errorf("cannot keep %d components of %d-dimensional data", ncomp, cols)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, errors.New("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var proj mat.Dense
	proj.Mul(data, vecs.Slice(0, cols, 0, ncomp))
	return &proj, nil
}

// repMatrix stacks embedding vectors into a dense matrix.
func repMatrix(reps [][]float64) *mat.Dense {
	if len(reps) == 0 {
		return nil
	}
	dim := len(reps[0])
	m := mat.NewDense(len(reps), dim, nil)
	for i, r := range reps {
		m.SetRow(i, r)
	}
	return m
}
