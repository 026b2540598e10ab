package scape

import "context"

type Fitness float64

type Trace map[string]any

// Controller maps a feature vector to output activations, one per move.
type Controller interface {
	Run(input []float32) []float32
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, controller Controller) (Fitness, Trace, error)
}

// Trace keys reported by SnakeScape.
const (
	TraceScore    = "score"
	TraceEpisodes = "episodes"
	TraceReasons  = "reasons"
)
