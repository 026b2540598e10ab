package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neurosnake/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps statuses in their binary form so callers never share
// networks with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	statuses    map[string][]byte
	history     map[string][]model.GenerationRecord
	runs        map[string]model.RunSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.statuses = make(map[string][]byte)
	s.history = make(map[string][]model.GenerationRecord)
	s.runs = make(map[string]model.RunSummary)
	return nil
}

func (s *MemoryStore) SaveStatus(_ context.Context, id string, status model.Status) error {
	payload, err := MarshalStatus(status)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.statuses[id] = payload
	return nil
}

func (s *MemoryStore) LoadStatus(_ context.Context, id string) (model.Status, bool, error) {
	s.mu.RLock()
	payload, ok := s.statuses[id]
	s.mu.RUnlock()
	if !ok {
		return model.Status{}, false, nil
	}

	status, err := UnmarshalStatus(payload)
	if err != nil {
		return model.Status{}, false, err
	}
	return status, true, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, runID string, history []model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.history[runID] = append([]model.GenerationRecord(nil), history...)
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationRecord(nil), history...), true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	runs := make([]model.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sortRuns(runs)
	return runs, nil
}

// sortRuns orders runs oldest first.
func sortRuns(runs []model.RunSummary) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
