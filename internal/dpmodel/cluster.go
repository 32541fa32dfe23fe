package dpmodel

import (
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// hypercolumn pixels are always split into exactly two clusters
const hcClusters = 2

// ClusterHypercolumns reshapes a (channels, side, side) hypercolumn stack
// into one observation per pixel and partitions the pixels with k-means.
// The result is a (side, side) label image over {0, 1}. Initialization is
// random, so the two label identities may swap between calls; the
// partition itself is what is meaningful.
func ClusterHypercolumns(stack *tensor.Dense) ([][]int, error) {
	shape := stack.Shape()
	if len(shape) != 3 || shape[1] != shape[2] {
		return nil, errors.Errorf("expected a (channels, side, side) stack, got %v", shape)
	}
	channels, side := shape[0], shape[1]
	plane := side * side

	backing, ok := stack.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("expected float32 stack, got %T", stack.Data())
	}

	obs := make(clusters.Observations, plane)
	for p := 0; p < plane; p++ {
		coords := make(clusters.Coordinates, channels)
		for ch := 0; ch < channels; ch++ {
			coords[ch] = float64(backing[ch*plane+p])
		}
		obs[p] = coords
	}

	km := kmeans.New()
	partition, err := km.Partition(obs, hcClusters)
	if err != nil {
		return nil, errors.Wrap(err, "k-means partition failed")
	}

	labels := make([][]int, side)
	for y := 0; y < side; y++ {
		labels[y] = make([]int, side)
		for x := 0; x < side; x++ {
			labels[y][x] = partition.Nearest(obs[y*side+x])
		}
	}
	return labels, nil
}
