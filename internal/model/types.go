package model

import (
	"time"

	"neurosnake/internal/elite"
)

// VersionedRecord captures schema and codec evolution for JSON records.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Status is the training state carried between runs. Its binary layout is
// generation, best performance, best score, then the elite list.
type Status struct {
	Generation      int32
	BestPerformance float32
	BestScore       float32
	Elites          *elite.List
}

// NewStatus returns an empty status whose elite list holds capacity members.
func NewStatus(capacity int) Status {
	return Status{Elites: elite.NewList(capacity)}
}

// GenerationRecord is appended to a run's history whenever a candidate beats
// the all-time best performance.
type GenerationRecord struct {
	VersionedRecord
	Generation  int32     `json:"generation"`
	Iteration   int64     `json:"iteration"`
	Performance float64   `json:"performance"`
	Score       float64   `json:"score"`
	EliteCount  int       `json:"elite_count"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type RunSummary struct {
	VersionedRecord
	ID              string    `json:"id"`
	StatusID        string    `json:"status_id"`
	Seed            int64     `json:"seed"`
	RandomMap       bool      `json:"random_map"`
	MutationRate    float64   `json:"mutation_rate"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Iterations      int64     `json:"iterations"`
	Generations     int       `json:"generations"`
	BestPerformance float64   `json:"best_performance"`
	BestScore       float64   `json:"best_score"`
}
