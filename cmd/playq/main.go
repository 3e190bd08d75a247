package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/app"
	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/runner"
)

// seedVars is a custom flag type that allows multiple -var key=value flags
type seedVars map[string]string

func (s seedVars) String() string {
	return fmt.Sprintf("%v", map[string]string(s))
}

func (s seedVars) Set(value string) error {
	key, val, found := strings.Cut(value, "=")
	if !found || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	s[key] = val
	return nil
}

var (
	// Command-line flags
	seed         = seedVars{}
	configPath   = flag.String("config", "", "Configuration file path")
	configPathC  = flag.String("c", "", "Configuration file path (shorthand)")
	scenarioDir  = flag.String("scenarios", "./scenarios", "Directory of scenario TOML files")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(seed, "var", "Seed variable as key=value (can be specified multiple times)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("PlayQ version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Merge config path flags (shorthand takes precedence)
	path := *configPath
	if *configPathC != "" {
		path = *configPathC
	}
	// Auto-discover config file if not specified
	if path == "" {
		if _, err := os.Stat("playq.toml"); err == nil {
			path = "playq.toml"
		}
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Initialize logger
	// 3. Print banner
	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Str("path", path).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Positional arguments name individual scenario files; otherwise the
	// scenario directory is loaded.
	var scenarios []*runner.Scenario
	if args := flag.Args(); len(args) > 0 {
		for _, arg := range args {
			scenario, err := runner.LoadScenario(arg)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to load scenario")
				os.Exit(1)
			}
			scenarios = append(scenarios, scenario)
		}
	} else {
		scenarios, err = runner.LoadScenarios(*scenarioDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load scenarios")
			os.Exit(1)
		}
	}

	if config.Schedule.Enabled {
		runScheduled(ctx, config, logger, scenarios)
		return
	}

	failed, err := runOnce(ctx, config, logger, scenarios)
	if err != nil {
		logger.Fatal().Err(err).Msg("Run failed")
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runOnce wires a fresh application (new browser, new run directory),
// executes the scenarios and tears everything down.
func runOnce(ctx context.Context, config *common.Config, logger arbor.ILogger, scenarios []*runner.Scenario) (int, error) {
	a, err := app.New(ctx, config, logger, seed)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	run, err := runner.New(a, logger).Run(ctx, scenarios)
	if err != nil {
		return 0, err
	}
	return run.Failed, nil
}

func runScheduled(ctx context.Context, config *common.Config, logger arbor.ILogger, scenarios []*runner.Scenario) {
	scheduler := cron.New(cron.WithSeconds())
	_, err := scheduler.AddFunc(config.Schedule.Cron, func() {
		if _, err := runOnce(ctx, config, logger, scenarios); err != nil {
			logger.Error().Err(err).Msg("Scheduled run failed")
		}
	})
	if err != nil {
		logger.Fatal().Str("cron", config.Schedule.Cron).Err(err).Msg("Invalid cron schedule")
		os.Exit(1)
	}

	logger.Info().Str("cron", config.Schedule.Cron).Msg("Scheduler started")
	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Scheduler stopped")
}
