package nn

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidConfig = errors.New("invalid network config")
	ErrIncompatible  = errors.New("incompatible parent networks")
	ErrSizeMismatch  = errors.New("parameter size mismatch")
)

// Config describes a uniform fully connected network.
type Config struct {
	Inputs           int
	Outputs          int
	HiddenLayers     int
	NeuronsPerHidden int
	UseBias          bool
	Hidden           Activation
	Output           Activation
}

func (c Config) Validate() error {
	if c.Inputs < 0 || c.Outputs < 0 || c.HiddenLayers < 0 || c.NeuronsPerHidden < 0 {
		return fmt.Errorf("%w: negative count in %+v", ErrInvalidConfig, c)
	}
	if c.HiddenLayers > 0 && c.NeuronsPerHidden < 1 {
		return fmt.Errorf("%w: hidden layers require at least one neuron each", ErrInvalidConfig)
	}
	if _, err := lookupActivation(c.Hidden); err != nil {
		return fmt.Errorf("%w: hidden: %v", ErrInvalidConfig, err)
	}
	if _, err := lookupActivation(c.Output); err != nil {
		return fmt.Errorf("%w: output: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NeuronCount is the number of hidden plus output neurons.
func (c Config) NeuronCount() int {
	return c.Outputs + c.HiddenLayers*c.NeuronsPerHidden
}

// WeightCount sums inputs*outputs over every layer.
func (c Config) WeightCount() int {
	total := 0
	in := c.Inputs
	for i := 0; i < c.HiddenLayers; i++ {
		total += in * c.NeuronsPerHidden
		in = c.NeuronsPerHidden
	}
	return total + in*c.Outputs
}

// Layer is a view over one layer's region of the network buffers. Weights are
// stored row-major: row = output neuron, column = input neuron.
type Layer struct {
	Inputs  int
	Outputs int
	Weights []float32
	Biases  []float32

	outputs    []float32
	deltas     []float32
	activate   ActivationFunc
	derivative DerivativeFunc
}

// Network owns flat parameter buffers; layers slice into them.
type Network struct {
	cfg Config

	weights []float32
	biases  []float32
	outputs []float32
	deltas  []float32

	layers []Layer
}

// New builds a network and draws every weight and bias uniformly from [-1, 1].
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	net, err := allocate(cfg)
	if err != nil {
		return nil, err
	}
	net.Randomize(rng)
	return net, nil
}

func allocate(cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hidden, _ := lookupActivation(cfg.Hidden)
	output, _ := lookupActivation(cfg.Output)

	neurons := cfg.NeuronCount()
	net := &Network{
		cfg:     cfg,
		weights: make([]float32, cfg.WeightCount()),
		outputs: make([]float32, neurons),
		deltas:  make([]float32, neurons),
		layers:  make([]Layer, 0, cfg.HiddenLayers+1),
	}
	if cfg.UseBias {
		net.biases = make([]float32, neurons)
	}

	weightOffset, neuronOffset := 0, 0
	in := cfg.Inputs
	for i := 0; i <= cfg.HiddenLayers; i++ {
		out, spec := cfg.NeuronsPerHidden, hidden
		if i == cfg.HiddenLayers {
			out, spec = cfg.Outputs, output
		}
		layer := Layer{
			Inputs:     in,
			Outputs:    out,
			Weights:    net.weights[weightOffset : weightOffset+in*out : weightOffset+in*out],
			outputs:    net.outputs[neuronOffset : neuronOffset+out : neuronOffset+out],
			deltas:     net.deltas[neuronOffset : neuronOffset+out : neuronOffset+out],
			activate:   spec.Func,
			derivative: spec.Derivative,
		}
		if cfg.UseBias {
			layer.Biases = net.biases[neuronOffset : neuronOffset+out : neuronOffset+out]
		}
		net.layers = append(net.layers, layer)

		weightOffset += in * out
		neuronOffset += out
		in = out
	}
	return net, nil
}

func (n *Network) Config() Config   { return n.cfg }
func (n *Network) NeuronCount() int { return len(n.outputs) }
func (n *Network) WeightCount() int { return len(n.weights) }

// Layers exposes the layer descriptors. The slices alias the network buffers.
func (n *Network) Layers() []Layer { return n.layers }

// Weights returns a copy of the flat weight buffer.
func (n *Network) Weights() []float32 {
	return append([]float32(nil), n.weights...)
}

// Biases returns a copy of the flat bias buffer, nil when bias is disabled.
func (n *Network) Biases() []float32 {
	if n.biases == nil {
		return nil
	}
	return append([]float32(nil), n.biases...)
}

func (n *Network) SetWeights(weights []float32) error {
	if len(weights) != len(n.weights) {
		return fmt.Errorf("%w: weights got=%d want=%d", ErrSizeMismatch, len(weights), len(n.weights))
	}
	copy(n.weights, weights)
	return nil
}

func (n *Network) SetBiases(biases []float32) error {
	if len(biases) != len(n.biases) {
		return fmt.Errorf("%w: biases got=%d want=%d", ErrSizeMismatch, len(biases), len(n.biases))
	}
	copy(n.biases, biases)
	return nil
}

// Run propagates input through every layer and returns the output layer's
// activations. The returned slice is reused by the next Run or Train call, so
// a Network must not be run from several goroutines at once.
func (n *Network) Run(input []float32) []float32 {
	for i := range n.layers {
		layer := &n.layers[i]
		layer.forward(input)
		input = layer.outputs
	}
	return input
}

func (l *Layer) forward(input []float32) {
	for i := 0; i < l.Outputs; i++ {
		var sum float64
		if l.Biases != nil {
			sum = float64(l.Biases[i])
		}
		row := l.Weights[i*l.Inputs : (i+1)*l.Inputs]
		for j, w := range row {
			sum += float64(w) * float64(input[j])
		}
		l.outputs[i] = float32(l.activate(sum))
	}
}

// Compatible reports whether two networks share every configuration field.
func Compatible(a, b *Network) bool {
	return a != nil && b != nil && a.cfg == b.cfg
}

// Produce builds a child whose every weight and bias is copied from a or b
// with equal probability.
func Produce(rng *rand.Rand, a, b *Network) (*Network, error) {
	if !Compatible(a, b) {
		return nil, ErrIncompatible
	}
	child, err := allocate(a.cfg)
	if err != nil {
		return nil, err
	}
	rng = ensureRNG(rng)
	for i := range child.biases {
		if rng.Intn(2) == 1 {
			child.biases[i] = a.biases[i]
		} else {
			child.biases[i] = b.biases[i]
		}
	}
	for i := range child.weights {
		if rng.Intn(2) == 1 {
			child.weights[i] = a.weights[i]
		} else {
			child.weights[i] = b.weights[i]
		}
	}
	return child, nil
}

// Duplicate returns an independent deep copy, or nil for a nil network.
func Duplicate(n *Network) *Network {
	if n == nil {
		return nil
	}
	clone, err := allocate(n.cfg)
	if err != nil {
		return nil
	}
	copy(clone.weights, n.weights)
	copy(clone.biases, n.biases)
	return clone
}
