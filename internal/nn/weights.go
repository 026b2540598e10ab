package nn

import (
	"math/rand"
	"time"
)

// Randomize replaces every parameter with a fresh value in [-1, 1].
func (n *Network) Randomize(rng *rand.Rand) {
	n.RandomizeWithScaleByRate(rng, 1, 1)
}

// RandomizeWithScale replaces every parameter with a fresh value in [-scale, scale].
func (n *Network) RandomizeWithScale(rng *rand.Rand, scale float64) {
	n.RandomizeWithScaleByRate(rng, scale, 1)
}

// RandomizeByRate replaces each parameter independently with probability rate.
func (n *Network) RandomizeByRate(rng *rand.Rand, rate float64) {
	n.RandomizeWithScaleByRate(rng, 1, rate)
}

func (n *Network) RandomizeWithScaleByRate(rng *rand.Rand, scale, rate float64) {
	rng = ensureRNG(rng)
	n.eachParam(func(p *float32) {
		if pick(rng, rate) {
			*p = float32(randomCentered(rng) * 2 * scale)
		}
	})
}

// PlusRandomize adds a perturbation in [-spread, spread] to every parameter.
func (n *Network) PlusRandomize(rng *rand.Rand, spread float64) {
	n.PlusRandomizeByRate(rng, spread, 1)
}

func (n *Network) PlusRandomizeByRate(rng *rand.Rand, spread, rate float64) {
	rng = ensureRNG(rng)
	n.eachParam(func(p *float32) {
		if pick(rng, rate) {
			*p += float32(randomCentered(rng) * 2 * spread)
		}
	})
}

// eachParam visits biases first, then weights.
func (n *Network) eachParam(fn func(p *float32)) {
	for i := range n.biases {
		fn(&n.biases[i])
	}
	for i := range n.weights {
		fn(&n.weights[i])
	}
}

func pick(rng *rand.Rand, rate float64) bool {
	if rate >= 1 {
		return true
	}
	return rng.Float64() < rate
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func randomCentered(rng *rand.Rand) float64 {
	return rng.Float64() - 0.5
}
