// Package app wires the toolkit together for the runner and MCP entry
// points.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/actions"
	"github.com/ternarybob/playq/internal/browser"
	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/engines"
	"github.com/ternarybob/playq/internal/locator"
	"github.com/ternarybob/playq/internal/report"
	"github.com/ternarybob/playq/internal/secrets"
	"github.com/ternarybob/playq/internal/steps"
	"github.com/ternarybob/playq/internal/storage"
	"github.com/ternarybob/playq/internal/vars"
)

// App holds the wired toolkit components.
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Store    *vars.Store
	Registry *locator.Registry
	Resolver *locator.Resolver
	Driver   *browser.Driver
	Web      *actions.Web
	Executor *steps.Executor
	Sink     *report.FileSink
	Results  *storage.ResultStore
}

// New builds the application: variable store with its layered init, the
// capability registry with the enabled engines, the browser session, and
// the action layer on top.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger, seed map[string]string) (*App, error) {
	store := vars.NewStore(logger,
		vars.WithStaticFile(config.Variables.StaticFile),
		vars.WithPatternSource(vars.NewDirPatternSource(config.Variables.PatternsDir, logger)),
		vars.WithDecrypter(secrets.NewAESDecrypter(os.Getenv("PLAYQ_SECRET_KEY"))),
	)
	store.Init(config, seed)

	registry := locator.NewRegistry()
	if config.Engines.PatternEnabled {
		registry.RegisterEngine(locator.EnginePattern, engines.NewPatternEngine(store, logger))
	}
	if config.Engines.SemanticEnabled {
		semantic, err := engines.NewSemanticEngine(&config.Engines, logger)
		if err != nil {
			// Configured-but-unavailable engines degrade; the resolver
			// falls through to later strategies.
			logger.Warn().Err(err).Msg("Semantic engine unavailable - continuing without it")
		} else {
			registry.RegisterEngine(locator.EngineSemantic, semantic)
		}
	}

	sink := report.NewFileSink(config.Results.Dir, logger)

	results, err := storage.NewResultStore(logger, &config.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	driver, err := browser.New(ctx, config, logger)
	if err != nil {
		results.Close()
		return nil, err
	}

	files := locator.NewFileNamespace(config.Locators.Dir, store)
	resolver := locator.NewResolver(driver, store, registry, files, config, logger)
	web := actions.NewWeb(driver, resolver, store, sink, config, logger)
	executor := steps.NewExecutor(web, store, logger)

	return &App{
		Config:   config,
		Logger:   logger,
		Store:    store,
		Registry: registry,
		Resolver: resolver,
		Driver:   driver,
		Web:      web,
		Executor: executor,
		Sink:     sink,
		Results:  results,
	}, nil
}

// Close releases the browser and the history database.
func (a *App) Close() {
	if a.Driver != nil {
		if err := a.Driver.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}
	if a.Results != nil {
		if err := a.Results.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close run history")
		}
	}
}
