package evo

import (
	"fmt"
	"math/rand"

	"neurosnake/internal/nn"
)

// RandomizeByRate replaces each parameter with probability Rate by a fresh
// value in [-Scale, Scale].
type RandomizeByRate struct {
	Scale float64
	Rate  float64
}

func (o RandomizeByRate) Name() string {
	return "randomize"
}

func (o RandomizeByRate) Apply(rng *rand.Rand, net *nn.Network) error {
	if net == nil {
		return fmt.Errorf("%s: network is required", o.Name())
	}
	if o.Scale == 1 {
		net.RandomizeByRate(rng, o.Rate)
		return nil
	}
	net.RandomizeWithScaleByRate(rng, o.Scale, o.Rate)
	return nil
}

// PerturbByRate shifts each parameter with probability Rate by a value in
// [-Spread, Spread].
type PerturbByRate struct {
	Spread float64
	Rate   float64
}

func (o PerturbByRate) Name() string {
	return "perturb"
}

func (o PerturbByRate) Apply(rng *rand.Rand, net *nn.Network) error {
	if net == nil {
		return fmt.Errorf("%s: network is required", o.Name())
	}
	net.PlusRandomizeByRate(rng, o.Spread, o.Rate)
	return nil
}
