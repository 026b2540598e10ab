package evo

import (
	"math/rand"

	"neurosnake/internal/nn"
)

// Operator mutates a freshly bred network in place.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, net *nn.Network) error
}
