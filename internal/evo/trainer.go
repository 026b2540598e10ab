package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"neurosnake/internal/model"
	"neurosnake/internal/nn"
	"neurosnake/internal/scape"
	"neurosnake/internal/storage"
)

// ShowcaseFunc plays a private copy of the current best network. It runs
// without the session lock and should return when ctx ends.
type ShowcaseFunc func(ctx context.Context, net *nn.Network) error

type TrainerHooks struct {
	OnGeneration    func(record model.GenerationRecord)
	OnEliteAdded    func(performance float64, eliteCount int)
	OnShowcaseStart func(summary Summary)
	OnShowcaseError func(err error)
}

type TrainerConfig struct {
	Scape scape.Scape
	// Network shapes the random networks bred while no elite exists.
	Network  nn.Config
	Mutation Operator
	// EliteThreshold admits a candidate whose performance exceeds this
	// fraction of the best performance.
	EliteThreshold float64
	Seed           int64
	// MaxIterations bounds Run; 0 runs until stopped.
	MaxIterations int64
	Showcase      ShowcaseFunc
	Hooks         TrainerHooks
	// Clock stamps history records and defaults to time.Now.
	Clock func() time.Time
}

type StepResult struct {
	Iteration     int64
	Performance   float64
	Score         float64
	NewGeneration bool
	Admitted      bool
}

// Trainer breeds candidates from the session's elites and evaluates them.
// Step and Run must be driven from a single goroutine.
type Trainer struct {
	cfg     TrainerConfig
	session *Session
	rng     *rand.Rand

	iterations atomic.Int64
	history    []model.GenerationRecord
}

func NewTrainer(cfg TrainerConfig, session *Session) (*Trainer, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if cfg.Mutation == nil {
		return nil, fmt.Errorf("mutation operator is required")
	}
	if err := cfg.Network.Validate(); err != nil {
		return nil, err
	}
	if cfg.EliteThreshold < 0 {
		return nil, fmt.Errorf("elite threshold must be >= 0")
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations must be >= 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Trainer{
		cfg:     cfg,
		session: session,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (t *Trainer) Session() *Session { return t.session }

func (t *Trainer) Iterations() int64 { return t.iterations.Load() }

// History returns the generation records produced so far.
func (t *Trainer) History() []model.GenerationRecord {
	return append([]model.GenerationRecord(nil), t.history...)
}

// Stop asks Run to return after the current step.
func (t *Trainer) Stop() { t.session.Stop() }

// Step breeds one candidate, evaluates it and updates the status.
func (t *Trainer) Step(ctx context.Context) (StepResult, error) {
	candidate, err := t.breed()
	if err != nil {
		return StepResult{}, err
	}

	fitness, trace, err := t.cfg.Scape.Evaluate(ctx, candidate)
	if err != nil {
		return StepResult{}, err
	}
	result := StepResult{
		Iteration:   t.iterations.Add(1),
		Performance: float64(fitness),
	}
	if score, ok := trace[scape.TraceScore].(float64); ok {
		result.Score = score
	}

	performance := float32(result.Performance)
	var (
		record     model.GenerationRecord
		eliteCount int
	)
	t.session.mu.Lock()
	status := &t.session.status
	if performance > status.BestPerformance {
		status.Generation++
		status.BestPerformance = performance
		status.BestScore = float32(result.Score)
		result.NewGeneration = true
		record = model.GenerationRecord{
			VersionedRecord: storage.CurrentVersion(),
			Generation:      status.Generation,
			Iteration:       result.Iteration,
			Performance:     result.Performance,
			Score:           result.Score,
		}
	}
	if performance > status.BestPerformance*float32(t.cfg.EliteThreshold) {
		status.Elites.Add(candidate, performance)
		result.Admitted = true
		t.session.markReady()
	}
	eliteCount = status.Elites.Count()
	t.session.mu.Unlock()

	if result.NewGeneration {
		record.EliteCount = eliteCount
		record.RecordedAt = t.cfg.Clock()
		t.history = append(t.history, record)
		if t.cfg.Hooks.OnGeneration != nil {
			t.cfg.Hooks.OnGeneration(record)
		}
	}
	if result.Admitted && t.cfg.Hooks.OnEliteAdded != nil {
		t.cfg.Hooks.OnEliteAdded(result.Performance, eliteCount)
	}
	return result, nil
}

// breed returns a random network while no elite exists, otherwise a mutated
// crossover of the best elite with another one.
func (t *Trainer) breed() (*nn.Network, error) {
	t.session.mu.Lock()
	defer t.session.mu.Unlock()

	best := t.session.status.Elites.Best()
	if best == nil {
		return nn.New(t.cfg.Network, t.rng)
	}
	mate := t.session.status.Elites.PickRandom(t.rng, best)
	child, err := nn.Produce(t.rng, best, mate)
	if err != nil {
		return nil, fmt.Errorf("breeding: %w", err)
	}
	if err := t.cfg.Mutation.Apply(t.rng, child); err != nil {
		return nil, fmt.Errorf("mutation %s: %w", t.cfg.Mutation.Name(), err)
	}
	return child, nil
}

// Run steps until the session stops, ctx ends or MaxIterations is reached,
// showcasing the best network concurrently. On return the showcase loop has
// finished. Stopping through ctx or Stop is not an error.
func (t *Trainer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if t.cfg.Showcase != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.showcase(ctx)
		}()
	}

	var runErr error
	for !t.session.Stopping() && ctx.Err() == nil {
		if t.cfg.MaxIterations > 0 && t.iterations.Load() >= t.cfg.MaxIterations {
			break
		}
		if _, err := t.Step(ctx); err != nil {
			if ctx.Err() == nil || !errors.Is(err, ctx.Err()) {
				runErr = err
			}
			break
		}
	}

	t.session.Stop()
	cancel()
	wg.Wait()
	return runErr
}

func (t *Trainer) showcase(ctx context.Context) {
	for {
		if err := t.session.WaitReady(ctx); err != nil {
			return
		}
		if t.session.Stopping() || ctx.Err() != nil {
			return
		}
		net := t.session.DuplicateBest()
		if net == nil {
			return
		}
		if t.cfg.Hooks.OnShowcaseStart != nil {
			t.cfg.Hooks.OnShowcaseStart(t.session.Summary())
		}
		if err := t.cfg.Showcase(ctx, net); err != nil {
			if ctx.Err() != nil {
				return
			}
			if t.cfg.Hooks.OnShowcaseError != nil {
				t.cfg.Hooks.OnShowcaseError(err)
			}
			return
		}
	}
}
