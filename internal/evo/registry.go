package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// OperatorFactory builds a mutation operator from a magnitude and a
// per-parameter rate.
type OperatorFactory func(magnitude, rate float64) Operator

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]OperatorFactory
}{
	m: make(map[string]OperatorFactory),
}

func init() {
	initializeBuiltInOperators()
}

func initializeBuiltInOperators() {
	MustRegisterOperator("randomize", func(magnitude, rate float64) Operator {
		return RandomizeByRate{Scale: magnitude, Rate: rate}
	})
	MustRegisterOperator("perturb", func(magnitude, rate float64) Operator {
		return PerturbByRate{Spread: magnitude, Rate: rate}
	})
}

func RegisterOperator(name string, factory OperatorFactory) error {
	if name == "" {
		return errors.New("operator name is required")
	}
	if factory == nil {
		return errors.New("operator factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = factory
	return nil
}

func MustRegisterOperator(name string, factory OperatorFactory) {
	if err := RegisterOperator(name, factory); err != nil {
		panic(err)
	}
}

// ResolveOperator builds the named operator.
func ResolveOperator(name string, magnitude, rate float64) (Operator, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return factory(magnitude, rate), nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]OperatorFactory)
	operatorRegistry.mu.Unlock()
	initializeBuiltInOperators()
}
