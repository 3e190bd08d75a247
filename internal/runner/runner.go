package runner

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/app"
	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/report"
)

// Runner executes scenarios against a wired application and records run
// history.
type Runner struct {
	app    *app.App
	logger arbor.ILogger
}

func New(a *app.App, logger arbor.ILogger) *Runner {
	return &Runner{app: a, logger: logger}
}

// Run executes the scenarios in order and returns the run summary. A
// failed step fails its scenario but the run continues with the next
// scenario; scenario-level variables are loaded into the store before the
// first step.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) (*interfaces.RunSummary, error) {
	run := &interfaces.RunSummary{
		ID:        common.NewRunID(),
		StartedAt: time.Now(),
	}
	r.logger.Info().Str("run", run.ID).Int("scenarios", len(scenarios)).Msg("Starting run")

	results := make([]*interfaces.StepResult, 0)
	for _, scenario := range scenarios {
		scenarioResults, failed := r.runScenario(ctx, run.ID, scenario)
		results = append(results, scenarioResults...)
		if failed {
			run.Failed++
		} else {
			run.Passed++
		}
		if ctx.Err() != nil {
			break
		}
	}

	run.FinishedAt = time.Now()
	if err := r.app.Results.StoreRun(ctx, run); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to record run summary")
	}

	if dir, err := r.app.Sink.RunDir(); err == nil {
		if _, err := report.WriteSummaryPDF(dir, run, results); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to write run summary PDF")
		}
	}

	r.logger.Info().
		Str("run", run.ID).
		Int("passed", run.Passed).
		Int("failed", run.Failed).
		Str("duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()).
		Msg("Run complete")
	return run, nil
}

func (r *Runner) runScenario(ctx context.Context, runID string, scenario *Scenario) ([]*interfaces.StepResult, bool) {
	r.logger.Info().Str("scenario", scenario.Name).Msg("Running scenario")
	r.app.Store.MergeEntries(scenario.Variables)

	results := make([]*interfaces.StepResult, 0, len(scenario.Steps))
	failed := false
	for _, step := range scenario.Steps {
		if failed {
			// Later steps usually depend on earlier ones; skip the rest
			// of the scenario after the first failure.
			break
		}
		result := r.executeStep(ctx, runID, scenario.Name, step)
		results = append(results, result)
		if result.Status == "failed" {
			failed = true
		}
	}
	return results, failed
}

func (r *Runner) executeStep(ctx context.Context, runID, scenario, step string) *interfaces.StepResult {
	started := time.Now()
	err := r.app.Executor.Execute(ctx, step)

	result := &interfaces.StepResult{
		ID:        common.NewStepID(),
		RunID:     runID,
		Scenario:  scenario,
		Step:      step,
		Status:    "passed",
		Duration:  time.Since(started),
		Timestamp: started,
	}
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		r.logger.Error().Err(err).Str("step", step).Msg("Step failed")
	}

	if storeErr := r.app.Results.StoreStep(ctx, result); storeErr != nil {
		r.logger.Warn().Err(storeErr).Msg("Failed to record step result")
	}
	return result
}
