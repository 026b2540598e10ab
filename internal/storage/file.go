package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"neurosnake/internal/model"
)

const runsFileName = "runs.json"

// FileStore keeps each status in its own binary file under dir, named by the
// status id. History and run summaries are JSON files alongside.
type FileStore struct {
	dir string

	mu sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("file store directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

// StatusPath is the file holding the status with the given id.
func (s *FileStore) StatusPath(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *FileStore) SaveStatus(_ context.Context, id string, status model.Status) error {
	if err := validateID(id); err != nil {
		return err
	}
	payload, err := MarshalStatus(status)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.StatusPath(id), payload)
}

func (s *FileStore) LoadStatus(_ context.Context, id string) (model.Status, bool, error) {
	if err := validateID(id); err != nil {
		return model.Status{}, false, err
	}
	payload, ok, err := s.read(s.StatusPath(id))
	if err != nil || !ok {
		return model.Status{}, false, err
	}
	status, err := UnmarshalStatus(payload)
	if err != nil {
		return model.Status{}, false, fmt.Errorf("decode status %s: %w", id, err)
	}
	return status, true, nil
}

func (s *FileStore) SaveHistory(_ context.Context, runID string, history []model.GenerationRecord) error {
	if err := validateID(runID); err != nil {
		return err
	}
	payload, err := EncodeHistory(history)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.historyPath(runID), payload)
}

func (s *FileStore) GetHistory(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	if err := validateID(runID); err != nil {
		return nil, false, err
	}
	payload, ok, err := s.read(s.historyPath(runID))
	if err != nil || !ok {
		return nil, false, err
	}
	history, err := DecodeHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *FileStore) SaveRun(_ context.Context, run model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.loadRuns()
	if err != nil {
		return err
	}
	replaced := false
	for i := range runs {
		if runs[i].ID == run.ID {
			runs[i] = run
			replaced = true
			break
		}
	}
	if !replaced {
		runs = append(runs, run)
	}
	sortRuns(runs)

	payload, err := encodeRuns(runs)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, runsFileName), payload)
}

func (s *FileStore) ListRuns(_ context.Context) ([]model.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRuns()
}

func (s *FileStore) loadRuns() ([]model.RunSummary, error) {
	payload, ok, err := s.read(filepath.Join(s.dir, runsFileName))
	if err != nil || !ok {
		return nil, err
	}
	runs, err := decodeRuns(payload)
	if err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

func (s *FileStore) historyPath(runID string) string {
	return filepath.Join(s.dir, runID+".history.json")
}

func (s *FileStore) read(path string) ([]byte, bool, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func validateID(id string) error {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return fmt.Errorf("invalid record id %q", id)
	}
	return nil
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
