package evo

import (
	"context"
	"errors"
	"sync"

	"neurosnake/internal/elite"
	"neurosnake/internal/model"
	"neurosnake/internal/nn"
)

var ErrStopped = errors.New("session stopped")

// Session is the state shared by the evolution loop and the showcase loop.
// Every read or write of the status goes through mu.
type Session struct {
	mu     sync.Mutex
	status model.Status

	ready     chan struct{}
	readyOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewSession takes ownership of status. A nil elite list is replaced by an
// empty one of the default capacity.
func NewSession(status model.Status) *Session {
	if status.Elites == nil {
		status.Elites = elite.NewList(elite.DefaultCapacity)
	}
	s := &Session{
		status: status,
		ready:  make(chan struct{}),
		stop:   make(chan struct{}),
	}
	if status.Elites.Best() != nil {
		s.markReady()
	}
	return s
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Stop asks both loops to finish. It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Session) Done() <-chan struct{} {
	return s.stop
}

func (s *Session) Stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Ready is closed once the elite list holds a network.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until an elite exists, the session stops or ctx ends.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DuplicateBest copies the best elite under the lock, or returns nil.
func (s *Session) DuplicateBest() *nn.Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nn.Duplicate(s.status.Elites.Best())
}

// Snapshot returns a deep copy of the status.
func (s *Session) Snapshot() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	elites := elite.NewList(s.status.Elites.MaxLen())
	for _, entry := range s.status.Elites.Entries() {
		elites.Add(nn.Duplicate(entry.Network), entry.Fitness)
	}
	status := s.status
	status.Elites = elites
	return status
}

// Summary is a lock-free view of the status for display.
type Summary struct {
	Generation      int32
	BestPerformance float32
	BestScore       float32
	Fitness         []float32
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.status.Elites.Entries()
	fitness := make([]float32, len(entries))
	for i, entry := range entries {
		fitness[i] = entry.Fitness
	}
	return Summary{
		Generation:      s.status.Generation,
		BestPerformance: s.status.BestPerformance,
		BestScore:       s.status.BestScore,
		Fitness:         fitness,
	}
}
