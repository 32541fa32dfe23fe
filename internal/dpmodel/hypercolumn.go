package dpmodel

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// HypercolumnSide is the spatial resolution every feature channel is
// resized to before stacking, regardless of its source layer.
const HypercolumnSide = 224

// ExtractHypercolumns evaluates the network at the listed layers for one
// CHW input and stacks every output channel, bilinearly resized to
// HypercolumnSide squared, into a single (channels, side, side) tensor
// ordered by (layer index, channel index).
func ExtractHypercolumns(net *Network, layerIdx []int, input []float32) (*tensor.Dense, error) {
	maps, err := net.ActivationsAt(layerIdx, input)
	if err != nil {
		return nil, err
	}
	return Hypercolumns(maps)
}

// Hypercolumns stacks the channels of the given feature maps into one
// hypercolumn tensor. Exposed separately from ExtractHypercolumns so the
// resize/stack step can run on activations from any source.
func Hypercolumns(maps []FeatureMap) (*tensor.Dense, error) {
	total := 0
	for i, m := range maps {
		if len(m.Data) != m.Channels*m.Rows*m.Cols {
			return nil, errors.Errorf("feature map %d has %d values, want %dx%dx%d",
				i, len(m.Data), m.Channels, m.Rows, m.Cols)
		}
		total += m.Channels
	}
	if total == 0 {
		return nil, errors.New("no feature channels to stack")
	}

	side := HypercolumnSide
	backing := make([]float32, total*side*side)
	out := 0
	for _, m := range maps {
		plane := m.Rows * m.Cols
		for ch := 0; ch < m.Channels; ch++ {
			src := m.Data[ch*plane : (ch+1)*plane]
			resizeBilinear(src, m.Rows, m.Cols, backing[out*side*side:(out+1)*side*side], side, side)
			out++
		}
	}

	return tensor.New(
		tensor.WithShape(total, side, side),
		tensor.WithBacking(backing),
	), nil
}

// resizeBilinear interpolates a single float32 plane to the destination
// size. Image-file resizers in the stack only accept image.Image, which
// would force feature values through 8-bit channels, so raw planes are
// interpolated directly.
func resizeBilinear(src []float32, srcR, srcC int, dst []float32, dstR, dstC int) {
	var rScale, cScale float64
	if dstR > 1 {
		rScale = float64(srcR-1) / float64(dstR-1)
	}
	if dstC > 1 {
		cScale = float64(srcC-1) / float64(dstC-1)
	}

	for y := 0; y < dstR; y++ {
		fy := float64(y) * rScale
		y0 := int(fy)
		y1 := y0 + 1
		if y1 >= srcR {
			y1 = srcR - 1
		}
		wy := float32(fy - float64(y0))

		for x := 0; x < dstC; x++ {
			fx := float64(x) * cScale
			x0 := int(fx)
			x1 := x0 + 1
			if x1 >= srcC {
				x1 = srcC - 1
			}
			wx := float32(fx - float64(x0))

			top := src[y0*srcC+x0]*(1-wx) + src[y0*srcC+x1]*wx
			bot := src[y1*srcC+x0]*(1-wx) + src[y1*srcC+x1]*wx
			dst[y*dstC+x] = top*(1-wy) + bot*wy
		}
	}
}
