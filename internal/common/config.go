package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the toolkit configuration loaded from playq.toml.
// JSON tags define the dotted key names the config is flattened under
// when seeded into the variable store (config.browser.headless etc.).
type Config struct {
	Environment   string              `toml:"environment" json:"environment"` // "development" or "production"
	Browser       BrowserConfig       `toml:"browser" json:"browser"`
	TestExecution TestExecutionConfig `toml:"test_execution" json:"testExecution"`
	Variables     VariablesConfig     `toml:"variables" json:"variables"`
	Locators      LocatorsConfig      `toml:"locators" json:"locators"`
	Engines       EnginesConfig       `toml:"engines" json:"engines"`
	Logging       LoggingConfig       `toml:"logging" json:"logging"`
	Results       ResultsConfig       `toml:"results" json:"results"`
	Schedule      ScheduleConfig      `toml:"schedule" json:"schedule"`
}

// BrowserConfig controls the chromedp browser session.
type BrowserConfig struct {
	BrowserType  string `toml:"browser_type" json:"browserType"` // "chromium" (only supported engine)
	Headless     bool   `toml:"headless" json:"headless"`
	WindowWidth  int    `toml:"window_width" json:"windowWidth" validate:"gt=0"`
	WindowHeight int    `toml:"window_height" json:"windowHeight" validate:"gt=0"`
	UserAgent    string `toml:"user_agent" json:"userAgent"`
	ExecPath     string `toml:"exec_path" json:"execPath"` // Optional explicit Chrome binary path
	SlowMo       string `toml:"slow_mo" json:"slowMo"`     // Minimum delay between actions, e.g. "250ms" ("" = no throttle)
}

// TestExecutionConfig controls timeouts and evidence capture.
type TestExecutionConfig struct {
	ActionTimeout       string `toml:"action_timeout" json:"actionTimeout"` // Default wait timeout in milliseconds
	PollInterval        string `toml:"poll_interval" json:"pollInterval"`   // Wait poll interval, e.g. "250ms"
	ScreenshotOnAction  bool   `toml:"screenshot_on_action" json:"screenshotOnAction"`
	ScreenshotOnFailure bool   `toml:"screenshot_on_failure" json:"screenshotOnFailure"`
}

// VariablesConfig controls variable store file locations.
type VariablesConfig struct {
	StaticFile  string `toml:"static_file" json:"staticFile"`   // Persisted var.static.* side-file (JSON)
	PatternsDir string `toml:"patterns_dir" json:"patternsDir"` // Directory of pattern files (.json/.toml), flattened under pattern.<base>.*
}

// LocatorsConfig controls resource-locator namespace sources.
type LocatorsConfig struct {
	Dir              string `toml:"dir" json:"dir"`                             // Directory of JSON locator files for loc.json.<file> references
	DefaultFieldType string `toml:"default_field_type" json:"defaultFieldType"` // Field type assumed when a reference omits one
}

// EnginesConfig enables the optional delegated matching engines.
type EnginesConfig struct {
	SemanticEnabled bool   `toml:"semantic_enabled" json:"semanticEnabled"`
	SemanticModel   string `toml:"semantic_model" json:"semanticModel"`
	SemanticAPIKey  string `toml:"semantic_api_key" json:"semanticApiKey"`
	PatternEnabled  bool   `toml:"pattern_enabled" json:"patternEnabled"`
	PatternTimeout  string `toml:"pattern_timeout" json:"patternTimeout"` // e.g. "10s"
}

// LoggingConfig mirrors the arbor writer setup.
type LoggingConfig struct {
	Level      string   `toml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string   `toml:"format" json:"format"` // "json" or "text"
	Output     []string `toml:"output" json:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format" json:"timeFormat"`
}

// ResultsConfig controls run evidence and history storage.
type ResultsConfig struct {
	Dir            string `toml:"dir" json:"dir"`                         // Base directory for timestamped run directories
	HistoryPath    string `toml:"history_path" json:"historyPath"`        // Badger database directory for run history
	ResetOnStartup bool   `toml:"reset_on_startup" json:"resetOnStartup"` // Delete run history on startup
}

// ScheduleConfig allows repeated suite execution from the runner.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Cron    string `toml:"cron" json:"cron"` // Cron schedule, e.g. "0 0 6 * * *"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in playq.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Browser: BrowserConfig{
			BrowserType:  "chromium",
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		TestExecution: TestExecutionConfig{
			ActionTimeout:       "30000", // milliseconds, matches driver default
			PollInterval:        "250ms",
			ScreenshotOnFailure: true,
		},
		Variables: VariablesConfig{
			StaticFile:  "./var.static.json",
			PatternsDir: "./patterns",
		},
		Locators: LocatorsConfig{
			Dir:              "./locators",
			DefaultFieldType: "field",
		},
		Engines: EnginesConfig{
			SemanticModel:  "claude-haiku-3-5-20241022",
			PatternTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Results: ResultsConfig{
			Dir:         "./results",
			HistoryPath: "./data/history",
		},
		Schedule: ScheduleConfig{},
	}
}

// LoadFromFile loads configuration from a TOML file, applies defaults for
// missing values, applies environment overrides and validates the result.
// A missing config file is not an error - defaults are used.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, validateConfig(config)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies well-known environment overrides to the config
// struct. The generic PLAYQ__<dotted.path> contract is handled by the
// variable store at lookup time; these cover the settings needed before the
// store exists (logging, browser startup).
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PLAYQ_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("PLAYQ_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if headless := os.Getenv("PLAYQ_BROWSER_HEADLESS"); headless != "" {
		if v, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = v
		}
	}
	if execPath := os.Getenv("PLAYQ_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if resultsDir := os.Getenv("PLAYQ_RESULTS_DIR"); resultsDir != "" {
		config.Results.Dir = resultsDir
	}
}

func validateConfig(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ActionTimeout returns the default action timeout as a duration.
// The stored value is in milliseconds to match the wire format used by
// authored test options.
func (c *Config) ActionTimeout() time.Duration {
	ms, err := strconv.Atoi(c.TestExecution.ActionTimeout)
	if err != nil || ms <= 0 {
		return 30 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// PollInterval returns the wait poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.TestExecution.PollInterval)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}

// SlowMo returns the minimum delay between browser actions, or zero when
// throttling is disabled.
func (c *Config) SlowMo() time.Duration {
	if c.Browser.SlowMo == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Browser.SlowMo)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// PatternTimeout returns the delegated pattern engine timeout.
func (c *Config) PatternTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engines.PatternTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
