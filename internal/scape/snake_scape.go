package scape

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultWidth          = 32
	DefaultHeight         = 16
	DefaultMaxStep        = 500
	DefaultSeed           = 1128
	DefaultTicksPerSecond = 8
	DefaultRandomEpisodes = 10
	DefaultShowcaseDelay  = time.Second / 16
)

const defaultFixedSeedEpisodes = 1

type SnakeConfig struct {
	Width          int
	Height         int
	MaxStep        int
	TicksPerSecond int
	Seed           int64
	// RandomMap draws every episode seed from a generator seeded with Seed
	// instead of replaying Seed itself.
	RandomMap bool
	// Episodes defaults to 10 with RandomMap and 1 otherwise.
	Episodes int
}

// SnakeScape evaluates a controller by averaging snake episodes. It is safe
// for concurrent use.
type SnakeScape struct {
	cfg SnakeConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSnakeScape(cfg SnakeConfig) (*SnakeScape, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, cfg.Width, cfg.Height)
	}
	if cfg.MaxStep < 1 {
		return nil, fmt.Errorf("max step must be positive, got %d", cfg.MaxStep)
	}
	if cfg.Episodes < 0 {
		return nil, fmt.Errorf("episodes must be non-negative, got %d", cfg.Episodes)
	}
	if cfg.Episodes == 0 {
		cfg.Episodes = defaultFixedSeedEpisodes
		if cfg.RandomMap {
			cfg.Episodes = DefaultRandomEpisodes
		}
	}
	return &SnakeScape{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (s *SnakeScape) Name() string {
	return "snake"
}

func (s *SnakeScape) Config() SnakeConfig {
	return s.cfg
}

// NewEpisode creates a game with the next episode seed.
func (s *SnakeScape) NewEpisode() (*Game, error) {
	seed := s.cfg.Seed
	if s.cfg.RandomMap {
		s.mu.Lock()
		seed = s.rng.Int63()
		s.mu.Unlock()
	}
	return NewGame(GameConfig{
		Width:          s.cfg.Width,
		Height:         s.cfg.Height,
		TicksPerSecond: s.cfg.TicksPerSecond,
		MaxStep:        s.cfg.MaxStep,
		Seed:           seed,
	})
}

// Evaluate plays the configured number of episodes without rendering and
// returns the average performance. The trace carries the average score and
// the termination reason of each episode.
func (s *SnakeScape) Evaluate(ctx context.Context, controller Controller) (Fitness, Trace, error) {
	if controller == nil {
		return 0, nil, errors.New("snake scape requires a controller")
	}

	var performance, score float64
	reasons := make([]string, 0, s.cfg.Episodes)
	for i := 0; i < s.cfg.Episodes; i++ {
		game, err := s.NewEpisode()
		if err != nil {
			return 0, nil, err
		}
		if err := Play(ctx, game, controller, PlayOptions{}); err != nil {
			return 0, nil, err
		}
		performance += game.Performance()
		score += float64(game.Score())
		reasons = append(reasons, game.Reason())
	}

	n := float64(s.cfg.Episodes)
	return Fitness(performance / n), Trace{
		TraceScore:    score / n,
		TraceEpisodes: s.cfg.Episodes,
		TraceReasons:  reasons,
	}, nil
}

type PlayOptions struct {
	// Render draws every tick to the game's terminal and shows the full frame
	// before the first one.
	Render bool
	// FrameDelay pauses between ticks.
	FrameDelay time.Duration
	// OnTick runs after every tick.
	OnTick func(game *Game)
}

// Play drives game with controller until the game is over. Every tick feeds
// the features to the controller, turns toward the strongest output without
// allowing reversal and forces an update. Cancelling ctx stops between ticks.
func Play(ctx context.Context, game *Game, controller Controller, opts PlayOptions) error {
	if opts.Render {
		if err := game.Show(); err != nil {
			return err
		}
	}

	input := make([]float32, 0, FeatureCount)
	for !game.IsOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		input = game.AppendFeatures(input[:0])
		game.SetDirection(Decide(controller.Run(input)), true)
		game.Update(true, opts.Render)
		if opts.OnTick != nil {
			opts.OnTick(game)
		}
		if opts.FrameDelay > 0 {
			timer := time.NewTimer(opts.FrameDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

// Decide maps the first four outputs to up, down, left and right and picks
// the largest. Ties go to the lower index.
func Decide(outputs []float32) Direction {
	n := min(len(outputs), 4)
	if n == 0 {
		return DirectionNone
	}
	best := 0
	for i := 1; i < n; i++ {
		if outputs[i] > outputs[best] {
			best = i
		}
	}
	return Direction(best)
}
