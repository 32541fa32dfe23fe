package openface

import (
	face "github.com/Kagami/go-face"
	"github.com/pkg/errors"
)

// DescriptorSize is the length of a face embedding vector.
const DescriptorSize = 128

// Embedder produces face embeddings for image files. It wraps a dlib
// recognizer, which needs its model files on disk.
type Embedder struct {
	rec *face.Recognizer
}

// NewEmbedder loads the recognizer models from modelDir.
func NewEmbedder(modelDir string) (*Embedder, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load face models from %s", modelDir)
	}
	return &Embedder{rec: rec}, nil
}

// Close releases the recognizer.
func (e *Embedder) Close() {
	if e.rec != nil {
		e.rec.Close()
	}
}

// RepFor embeds the largest face in the image at path. ok is false when
// the image contains no face.
func (e *Embedder) RepFor(path string) (Rep, bool, error) {
	f, err := e.rec.RecognizeSingleFile(path)
	if err != nil {
		return Rep{}, false, errors.Wrapf(err, "cannot embed %s", path)
	}
	if f == nil {
		return Rep{}, false, nil
	}

	rep := make([]float64, DescriptorSize)
	for i, v := range f.Descriptor {
		rep[i] = float64(v)
	}
	return Rep{
		Path:  path,
		Class: ClassToken(path),
		Rep:   rep,
		Pos:   [4]int{f.Rectangle.Min.X, f.Rectangle.Min.Y, f.Rectangle.Max.X, f.Rectangle.Max.Y},
	}, true, nil
}
