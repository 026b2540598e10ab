package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Activation selects the transfer function of a layer. The numeric values are
// part of the on-disk format.
type Activation int32

const (
	ActivationIdentity Activation = iota
	ActivationSigmoid
	ActivationTanh
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
)

// ActivationFunc maps a pre-activation sum to a neuron output.
type ActivationFunc func(x float64) float64

// DerivativeFunc returns the activation slope expressed in terms of the
// neuron's already activated output.
type DerivativeFunc func(output float64) float64

type ActivationSpec struct {
	Kind       Activation
	Name       string
	Func       ActivationFunc
	Derivative DerivativeFunc
}

var activationRegistry = struct {
	mu     sync.RWMutex
	byKind map[Activation]ActivationSpec
}{
	byKind: make(map[Activation]ActivationSpec),
}

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	MustRegisterActivation(ActivationSpec{
		Kind:       ActivationIdentity,
		Name:       "identity",
		Func:       func(x float64) float64 { return x },
		Derivative: func(float64) float64 { return 1 },
	})
	MustRegisterActivation(ActivationSpec{
		Kind: ActivationSigmoid,
		Name: "sigmoid",
		Func: func(x float64) float64 {
			return 1.0 / (1.0 + math.Exp(-x))
		},
		Derivative: func(y float64) float64 { return y * (1 - y) },
	})
	MustRegisterActivation(ActivationSpec{
		Kind:       ActivationTanh,
		Name:       "tanh",
		Func:       math.Tanh,
		Derivative: func(y float64) float64 { return 1 - y*y },
	})
}

func RegisterActivation(spec ActivationSpec) error {
	if spec.Name == "" {
		return errors.New("activation name is required")
	}
	if spec.Func == nil {
		return errors.New("activation function is required")
	}
	if spec.Derivative == nil {
		return errors.New("activation derivative is required")
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.byKind[spec.Kind]; exists {
		return fmt.Errorf("%w: %d", ErrActivationExists, spec.Kind)
	}
	for _, existing := range activationRegistry.byKind {
		if existing.Name == spec.Name {
			return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
		}
	}
	activationRegistry.byKind[spec.Kind] = spec
	return nil
}

func MustRegisterActivation(spec ActivationSpec) {
	if err := RegisterActivation(spec); err != nil {
		panic(err)
	}
}

func lookupActivation(kind Activation) (ActivationSpec, error) {
	activationRegistry.mu.RLock()
	spec, ok := activationRegistry.byKind[kind]
	activationRegistry.mu.RUnlock()
	if !ok {
		return ActivationSpec{}, fmt.Errorf("%w: %d", ErrActivationNotFound, kind)
	}
	return spec, nil
}

// ParseActivation resolves a registered activation by name.
func ParseActivation(name string) (Activation, error) {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	for kind, spec := range activationRegistry.byKind {
		if spec.Name == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
}

func (a Activation) String() string {
	spec, err := lookupActivation(a)
	if err != nil {
		return fmt.Sprintf("activation(%d)", int32(a))
	}
	return spec.Name
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.byKind))
	for _, spec := range activationRegistry.byKind {
		names = append(names, spec.Name)
	}
	sort.Strings(names)
	return names
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.byKind = make(map[Activation]ActivationSpec)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
