// Package vars implements the flat key/value runtime store with layered
// initialization, #{...} placeholder substitution and loose option parsing.
//
// Keys are dotted strings (config.browser.browserType, var.static.centre.code,
// pattern.d365crm.loginUrl). The store is built once per process from a fixed
// layer order: seed map, static variable file, configuration, pattern files,
// then defaults. Earlier layers win, except pattern files which are reloaded
// afresh and simply assign.
package vars

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
)

// StaticPrefix marks keys persisted to the static variable side-file.
// The file is the durable ownership boundary for these keys; the in-memory
// store is a cache over it.
const StaticPrefix = "var.static."

// envKeyPrefix marks keys resolved from the process environment instead of
// the store.
const envKeyPrefix = "env."

// configEnvPrefix and configEnvSeparator form the PLAYQ__a__b__c hard
// override contract for config.a.b.c lookups.
const (
	configEnvPrefix    = "PLAYQ__"
	configEnvSeparator = "__"
)

// PatternSource supplies pattern file entries on demand. Implementations
// reload from disk on every call; the store assigns the result under
// pattern.<fileBase>.* at defined refresh points.
type PatternSource interface {
	// LoadAll returns flat entries keyed by file base name. Partial results
	// are acceptable - unloadable files are logged and skipped.
	LoadAll() (map[string]map[string]string, error)
}

// Store is the process-wide flat key/value store. Construct one per process
// (or per test) and inject it into every component that needs variable
// resolution.
type Store struct {
	mu         sync.RWMutex
	values     map[string]string
	warned     map[string]struct{}
	staticFile string
	patterns   PatternSource
	decrypter  interfaces.Decrypter
	logger     arbor.ILogger
}

// Option configures a Store.
type Option func(*Store)

// WithStaticFile sets the path of the persisted var.static.json side-file.
func WithStaticFile(path string) Option {
	return func(s *Store) { s.staticFile = path }
}

// WithPatternSource sets the pattern file source.
func WithPatternSource(ps PatternSource) Option {
	return func(s *Store) { s.patterns = ps }
}

// WithDecrypter sets the decrypter used by pwd./enc. placeholders.
func WithDecrypter(d interfaces.Decrypter) Option {
	return func(s *Store) { s.decrypter = d }
}

// NewStore creates an empty store. Call Init to populate the layers.
func NewStore(logger arbor.ILogger, opts ...Option) *Store {
	if logger == nil {
		logger = common.GetLogger()
	}
	s := &Store{
		values: make(map[string]string),
		warned: make(map[string]struct{}),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init performs the layered initialization:
//
//  1. externally supplied seed map
//  2. static variable file, flattened under var.static.*
//  3. configuration, flattened under config.*
//  4. pattern files, flattened under pattern.<fileBase>.*
//  5. defaults that only fill keys not already present
//
// File load failures are logged as warnings, never fatal - the store
// continues with whatever layers succeeded.
func (s *Store) Init(config *common.Config, seed map[string]string) {
	// Layer 1: seed
	s.merge(seed, false)

	// Layer 2: static variable file
	if s.staticFile == "" && config != nil {
		s.staticFile = config.Variables.StaticFile
	}
	if s.staticFile != "" {
		entries, err := loadStaticFile(s.staticFile)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", s.staticFile).Msg("Failed to load static variable file - continuing without it")
		} else {
			prefixed := make(map[string]string, len(entries))
			for k, v := range entries {
				prefixed[StaticPrefix+k] = v
			}
			s.merge(prefixed, false)
		}
	}

	// Layer 3: configuration
	if config != nil {
		entries, err := flattenConfig(config)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to flatten configuration into store")
		} else {
			s.merge(entries, false)
		}
	}

	// Layer 4: pattern files
	s.RefreshPatterns()

	// Layer 5: defaults (env var -> stored value -> hardcoded default)
	s.applyDefaults()

	s.mu.RLock()
	count := len(s.values)
	s.mu.RUnlock()
	s.logger.Debug().Int("count", count).Msg("Variable store initialized")
}

// RefreshPatterns reloads all pattern files and assigns their entries under
// pattern.<fileBase>.*. Pattern entries always overwrite - the last loaded
// file wins on key collision.
func (s *Store) RefreshPatterns() {
	if s.patterns == nil {
		return
	}
	files, err := s.patterns.LoadAll()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load pattern files - continuing without them")
		return
	}
	for base, entries := range files {
		prefixed := make(map[string]string, len(entries))
		for k, v := range entries {
			prefixed["pattern."+base+"."+k] = v
		}
		s.merge(prefixed, true)
	}
}

// GetValue returns the value for a key. Keys with the env. prefix resolve
// from the process environment. On miss the key text itself is returned,
// unless emptyOnMiss is true (then the empty string is returned and the
// missing-key warning is suppressed). The warning is logged exactly once per
// distinct key for the lifetime of the store.
func (s *Store) GetValue(key string, emptyOnMiss bool) string {
	key = strings.TrimSpace(key)

	if name, ok := strings.CutPrefix(key, envKeyPrefix); ok {
		if v, found := os.LookupEnv(name); found {
			return v
		}
		if emptyOnMiss {
			return ""
		}
		return key
	}

	s.mu.RLock()
	v, found := s.values[key]
	s.mu.RUnlock()
	if found {
		return v
	}

	if emptyOnMiss {
		return ""
	}
	s.warnMissing(key)
	return key
}

// Has reports whether a key is present without logging a missing-key warning.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.values[strings.TrimSpace(key)]
	return found
}

// GetConfigValue resolves a config.<key> lookup with environment override.
// The environment variable PLAYQ__<key with . replaced by __> wins
// unconditionally over anything stored, which is the one wire-format
// contract reproduced exactly. Otherwise config.<key> is looked up with
// GetValue semantics.
func (s *Store) GetConfigValue(key string, emptyOnMiss bool) string {
	key = strings.TrimSpace(key)

	envName := configEnvPrefix + strings.ReplaceAll(key, ".", configEnvSeparator)
	if v, found := os.LookupEnv(envName); found {
		return v
	}

	return s.GetValue("config."+key, emptyOnMiss)
}

// SetValue stores a value, always overwriting. Keys under var.static. are
// also upserted into the persisted JSON side-file so they survive the
// process.
func (s *Store) SetValue(key, value string) error {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	if suffix, ok := strings.CutPrefix(key, StaticPrefix); ok {
		if err := s.persistStatic(suffix, value); err != nil {
			return fmt.Errorf("failed to persist static variable %s: %w", key, err)
		}
	}
	return nil
}

// Snapshot returns a copy of all current entries. Used by diagnostics and
// the MCP variable tools.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// merge assigns entries into the store. With overwrite false, existing keys
// are preserved.
func (s *Store) merge(entries map[string]string, overwrite bool) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		if !overwrite {
			if _, exists := s.values[k]; exists {
				continue
			}
		}
		s.values[k] = v
	}
}

// warnMissing logs the missing-key warning once per distinct key. Repeated
// resolution attempts for the same key stay quiet to avoid log flooding.
func (s *Store) warnMissing(key string) {
	s.mu.Lock()
	if _, seen := s.warned[key]; seen {
		s.mu.Unlock()
		return
	}
	s.warned[key] = struct{}{}
	s.mu.Unlock()

	s.logger.Warn().Str("key", key).Msg("Variable not found in store - returning key text as literal")
}

// persistStatic upserts one entry into the static side-file with
// read-modify-write, creating the file and directory if absent.
func (s *Store) persistStatic(key, value string) error {
	if s.staticFile == "" {
		return nil
	}

	entries, err := loadStaticFile(s.staticFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	entries[key] = value

	if dir := filepath.Dir(s.staticFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", s.staticFile, err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.staticFile, data, 0644)
}

// loadStaticFile reads the flat string map from the static side-file.
func loadStaticFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("malformed static variable file %s: %w", path, err)
	}
	return entries, nil
}

// flattenConfig converts the config struct into dotted config.* entries.
// The JSON tags on common.Config define the key segments.
func flattenConfig(config *common.Config) (map[string]string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return Flatten(tree, "config"), nil
}
