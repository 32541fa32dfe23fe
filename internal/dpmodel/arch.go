package dpmodel

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// LayerSpec describes one layer of a feed-forward architecture. The
// concrete types below carry only the parameters the layer kind needs.
type LayerSpec interface {
	Kind() string
}

type ZeroPad struct {
	Size int
}

type Conv struct {
	Filters    int
	Size       int
	Activation string
}

type MaxPool struct {
	Size   int
	Stride int
}

type Flatten struct{}

type Dense struct {
	Units      int
	Activation string
}

type Dropout struct {
	Ratio float64
}

func (ZeroPad) Kind() string { return "zeropad" }
func (Conv) Kind() string    { return "conv" }
func (MaxPool) Kind() string { return "maxpool" }
func (Flatten) Kind() string { return "flatten" }
func (Dense) Kind() string   { return "dense" }
func (Dropout) Kind() string { return "dropout" }

// LayerGroup is a named, ordered run of layer specs. Groups are
// concatenated in declaration order to form the full network.
type LayerGroup struct {
	Name   string
	Layers []LayerSpec
}

// Layer is one entry of the flattened architecture with its resolved
// output shape. Names are "<group>_<n>" with n counting within the group;
// they double as the tensor names used when tapping activations.
type Layer struct {
	Name     string
	Spec     LayerSpec
	Channels int
	Rows     int
	Cols     int
}

// Arch is an assembled architecture: ordered groups plus the flattened
// per-layer shape table. Immutable after construction.
type Arch struct {
	Name       string
	InChannels int
	InRows     int
	InCols     int
	Groups     []LayerGroup

	layers []Layer
}

func newArch(name string, channels, rows, cols int, groups ...LayerGroup) Arch {
	a := Arch{
		Name:       name,
		InChannels: channels,
		InRows:     rows,
		InCols:     cols,
		Groups:     groups,
	}
	c, r, w := channels, rows, cols
	for _, g := range groups {
		for i, spec := range g.Layers {
			switch l := spec.(type) {
			case ZeroPad:
				r += 2 * l.Size
				w += 2 * l.Size
			case Conv:
				c = l.Filters
				r = r - l.Size + 1
				w = w - l.Size + 1
			case MaxPool:
				r = (r-l.Size)/l.Stride + 1
				w = (w-l.Size)/l.Stride + 1
			case Flatten:
				c = c * r * w
				r, w = 1, 1
			case Dense:
				c = l.Units
				r, w = 1, 1
			case Dropout:
				// shape unchanged
			}
			a.layers = append(a.layers, Layer{
				Name:     fmt.Sprintf("%s_%d", g.Name, i+1),
				Spec:     spec,
				Channels: c,
				Rows:     r,
				Cols:     w,
			})
		}
	}
	return a
}

// Layers returns the flattened layer table in network order.
func (a Arch) Layers() []Layer { return a.layers }

// Layer returns the flattened layer at index i.
func (a Arch) Layer(i int) (Layer, error) {
	if i < 0 || i >= len(a.layers) {
		return Layer{}, errors.Errorf("layer index %d out of range (network has %d layers)", i, len(a.layers))
	}
	return a.layers[i], nil
}

// OutputSize is the width of the network's final layer.
func (a Arch) OutputSize() int {
	if len(a.layers) == 0 {
		return 0
	}
	return a.layers[len(a.layers)-1].Channels
}

// WeightLayers counts the layers that carry trainable weights.
func (a Arch) WeightLayers() int {
	n := 0
	for _, l := range a.layers {
		switch l.Spec.(type) {
		case Conv, Dense:
			n++
		}
	}
	return n
}

func (a Arch) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: input %dx%dx%d\n", a.Name, a.InChannels, a.InRows, a.InCols)
	for _, l := range a.layers {
		fmt.Fprintf(&b, "  %-12s %-8s => %dx%dx%d\n", l.Name, l.Spec.Kind(), l.Channels, l.Rows, l.Cols)
	}
	return b.String()
}

// convGroup builds one VGG convolution group: nconv zero-padded 3x3 relu
// convolutions followed by a 2x2/2 max pool.
func convGroup(name string, filters, nconv int) LayerGroup {
	g := LayerGroup{Name: name}
	for i := 0; i < nconv; i++ {
		g.Layers = append(g.Layers,
			ZeroPad{Size: 1},
			Conv{Filters: filters, Size: 3, Activation: "relu"},
		)
	}
	g.Layers = append(g.Layers, MaxPool{Size: 2, Stride: 2})
	return g
}

func fcGroup() LayerGroup {
	return LayerGroup{Name: "fc", Layers: []LayerSpec{
		Flatten{},
		Dense{Units: 4096, Activation: "relu"},
		Dropout{Ratio: 0.5},
		Dense{Units: 4096, Activation: "relu"},
		Dropout{Ratio: 0.5},
	}}
}

func classifyGroup(cats int) LayerGroup {
	return LayerGroup{Name: "classify", Layers: []LayerSpec{
		Dense{Units: cats, Activation: "softmax"},
	}}
}

// VGG16 assembles the 16 weight-layer VGG variant for 3x224x224 input and
// a 1000-way softmax head.
func VGG16() Arch {
	return newArch("vgg16", 3, 224, 224,
		convGroup("conv1", 64, 2),
		convGroup("conv2", 128, 2),
		convGroup("conv3", 256, 3),
		convGroup("conv4", 512, 3),
		convGroup("conv5", 512, 3),
		fcGroup(),
		classifyGroup(1000),
	)
}

// VGG19 assembles the 19 weight-layer VGG variant.
func VGG19() Arch {
	return newArch("vgg19", 3, 224, 224,
		convGroup("conv1", 64, 2),
		convGroup("conv2", 128, 2),
		convGroup("conv3", 256, 4),
		convGroup("conv4", 512, 4),
		convGroup("conv5", 512, 4),
		fcGroup(),
		classifyGroup(1000),
	)
}

// SimpleConfig parameterizes the small convolutional variant.
type SimpleConfig struct {
	Cats       int // number of output categories
	ImgRow     int
	ImgCol     int
	ConvSize   int // convolution window side
	Colors     int // input channels, 3 for RGB
	FilterSize int // filters of the first convolution
}

// DefaultSimpleConfig mirrors the historical defaults apart from Cats,
// which has no sensible default.
func DefaultSimpleConfig(cats int) SimpleConfig {
	return SimpleConfig{
		Cats:       cats,
		ImgRow:     224,
		ImgCol:     224,
		ConvSize:   3,
		Colors:     3,
		FilterSize: 32,
	}
}

// Simple assembles a small two-convolution network sized by cfg.
func Simple(cfg SimpleConfig) Arch {
	return newArch("simple", cfg.Colors, cfg.ImgRow, cfg.ImgCol,
		LayerGroup{Name: "conv1", Layers: []LayerSpec{
			Conv{Filters: cfg.FilterSize, Size: cfg.ConvSize, Activation: "relu"},
			Conv{Filters: cfg.FilterSize * 2, Size: cfg.ConvSize, Activation: "relu"},
			MaxPool{Size: 2, Stride: 1},
			Dropout{Ratio: 0.25},
		}},
		LayerGroup{Name: "fc", Layers: []LayerSpec{
			Flatten{},
			Dense{Units: 128, Activation: "relu"},
			Dropout{Ratio: 0.5},
		}},
		classifyGroup(cfg.Cats),
	)
}
