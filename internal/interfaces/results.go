package interfaces

import (
	"context"
	"time"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	ID        string        `json:"id" badgerhold:"key"`
	RunID     string        `json:"run_id" badgerhold:"index"`
	Scenario  string        `json:"scenario"`
	Step      string        `json:"step"`
	Status    string        `json:"status"` // "passed" or "failed"
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunSummary aggregates one runner invocation.
type RunSummary struct {
	ID         string    `json:"id" badgerhold:"key"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// ResultStorage persists run history.
type ResultStorage interface {
	StoreStep(ctx context.Context, result *StepResult) error
	StoreRun(ctx context.Context, run *RunSummary) error
	GetRun(ctx context.Context, runID string) (*RunSummary, error)
	GetSteps(ctx context.Context, runID string) ([]*StepResult, error)
	ListRuns(ctx context.Context, limit int) ([]*RunSummary, error)
	Close() error
}
