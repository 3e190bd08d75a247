// Package storage persists run history in Badger.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
)

// ResultStore implements interfaces.ResultStorage on badgerhold.
type ResultStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewResultStore opens the run history database.
func NewResultStore(logger arbor.ILogger, config *common.ResultsConfig) (*ResultStore, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.HistoryPath); err == nil {
			logger.Debug().Str("path", config.HistoryPath).Msg("Deleting existing run history (reset_on_startup=true)")
			if err := os.RemoveAll(config.HistoryPath); err != nil {
				logger.Warn().Err(err).Str("path", config.HistoryPath).Msg("Failed to delete run history directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.HistoryPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	// Disable the default badger logger to use arbor
	options.Options = badger.DefaultOptions(config.HistoryPath).WithLogger(nil)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history database: %w", err)
	}

	logger.Debug().Str("path", config.HistoryPath).Msg("Run history database initialized")
	return &ResultStore{store: store, logger: logger}, nil
}

// StoreStep records one step result.
func (s *ResultStore) StoreStep(ctx context.Context, result *interfaces.StepResult) error {
	if err := s.store.Upsert(result.ID, result); err != nil {
		return fmt.Errorf("failed to store step result: %w", err)
	}
	return nil
}

// StoreRun records a run summary.
func (s *ResultStore) StoreRun(ctx context.Context, run *interfaces.RunSummary) error {
	if err := s.store.Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to store run summary: %w", err)
	}
	return nil
}

// GetRun retrieves a run summary by ID.
func (s *ResultStore) GetRun(ctx context.Context, runID string) (*interfaces.RunSummary, error) {
	var run interfaces.RunSummary
	err := s.store.Get(runID, &run)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}
	return &run, nil
}

// GetSteps returns all step results for a run in insertion order.
func (s *ResultStore) GetSteps(ctx context.Context, runID string) ([]*interfaces.StepResult, error) {
	var results []*interfaces.StepResult
	if err := s.store.Find(&results, badgerhold.Where("RunID").Eq(runID).Index("RunID")); err != nil {
		return nil, fmt.Errorf("failed to list step results: %w", err)
	}
	return results, nil
}

// ListRuns returns the most recent run summaries, newest first.
func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]*interfaces.RunSummary, error) {
	var runs []*interfaces.RunSummary
	if err := s.store.Find(&runs, nil); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close closes the database.
func (s *ResultStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
