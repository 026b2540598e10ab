package storage

import (
	"context"

	"neurosnake/internal/model"
)

const (
	KindFile   = "file"
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// Store persists training status, per-run fitness history and run summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveStatus(ctx context.Context, id string, status model.Status) error
	LoadStatus(ctx context.Context, id string) (model.Status, bool, error)
	SaveHistory(ctx context.Context, runID string, history []model.GenerationRecord) error
	GetHistory(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunSummary) error
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
}
