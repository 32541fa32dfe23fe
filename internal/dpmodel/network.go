package dpmodel

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Network is a built architecture bound to an optional weights file. With
// weights it is ready for inference; without, only the shape table is
// usable and evaluation calls fail.
type Network struct {
	Arch        Arch
	weightsPath string

	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Build constructs a Network for arch. weightsPath may be empty; when set
// it must point to an ONNX export of the same architecture whose node
// outputs are named after the flattened layer table. Errors from an
// unreadable or mismatched weights file surface from the runtime
// unmodified apart from context.
func Build(arch Arch, weightsPath string) (*Network, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	n := &Network{Arch: arch, weightsPath: weightsPath}
	if weightsPath == "" {
		return n, nil
	}

	inputShape := ort.NewShape(1, int64(arch.InChannels), int64(arch.InRows), int64(arch.InCols))
	outputShape := ort.NewShape(1, int64(arch.OutputSize()))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	last := arch.Layers()[len(arch.Layers())-1]
	session, err := ort.NewAdvancedSession(weightsPath,
		[]string{"input"}, []string{last.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to load weights %s: %w", weightsPath, err)
	}

	n.session = session
	n.inputTensor = inputTensor
	n.outputTensor = outputTensor
	return n, nil
}

// Predict runs the full network on one CHW input image and returns the
// output distribution.
func (n *Network) Predict(input []float32) ([]float32, error) {
	if n.session == nil {
		return nil, fmt.Errorf("network %s was built without weights", n.Arch.Name)
	}
	want := n.Arch.InChannels * n.Arch.InRows * n.Arch.InCols
	if len(input) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(input))
	}

	copy(n.inputTensor.GetData(), input)
	if err := n.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := make([]float32, n.Arch.OutputSize())
	copy(out, n.outputTensor.GetData())
	return out, nil
}

// FeatureMap is the activation volume produced by one layer.
type FeatureMap struct {
	Channels int
	Rows     int
	Cols     int
	Data     []float32
}

// ActivationsAt evaluates the network once and returns the activation
// volumes of the listed flattened layer indices, in the given order. A
// fresh session is created per call; nothing is cached.
func (n *Network) ActivationsAt(layerIdx []int, input []float32) ([]FeatureMap, error) {
	if n.weightsPath == "" {
		return nil, fmt.Errorf("network %s was built without weights", n.Arch.Name)
	}

	names := make([]string, len(layerIdx))
	outputs := make([]ort.ArbitraryTensor, len(layerIdx))
	tensors := make([]*ort.Tensor[float32], len(layerIdx))
	maps := make([]FeatureMap, len(layerIdx))

	destroy := func() {
		for _, t := range tensors {
			if t != nil {
				t.Destroy()
			}
		}
	}

	for i, li := range layerIdx {
		layer, err := n.Arch.Layer(li)
		if err != nil {
			destroy()
			return nil, err
		}
		shape := ort.NewShape(1, int64(layer.Channels), int64(layer.Rows), int64(layer.Cols))
		t, err := ort.NewEmptyTensor[float32](shape)
		if err != nil {
			destroy()
			return nil, fmt.Errorf("failed to create output tensor for %s: %w", layer.Name, err)
		}
		names[i] = layer.Name
		outputs[i] = t
		tensors[i] = t
		maps[i] = FeatureMap{Channels: layer.Channels, Rows: layer.Rows, Cols: layer.Cols}
	}

	inputShape := ort.NewShape(1, int64(n.Arch.InChannels), int64(n.Arch.InRows), int64(n.Arch.InCols))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		destroy()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()
	defer destroy()

	session, err := ort.NewAdvancedSession(n.weightsPath,
		[]string{"input"}, names,
		[]ort.ArbitraryTensor{inputTensor}, outputs,
		nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load weights %s: %w", n.weightsPath, err)
	}
	defer session.Destroy()

	copy(inputTensor.GetData(), input)
	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	for i, t := range tensors {
		data := make([]float32, len(t.GetData()))
		copy(data, t.GetData())
		maps[i].Data = data
	}
	return maps, nil
}

// Close releases the session and the runtime environment.
func (n *Network) Close() {
	if n.inputTensor != nil {
		n.inputTensor.Destroy()
	}
	if n.outputTensor != nil {
		n.outputTensor.Destroy()
	}
	if n.session != nil {
		n.session.Destroy()
	}
	ort.DestroyEnvironment()
}
