package vars

import "os"

// DefaultValue is a key seeded during the defaults layer of initialization.
// Resolution order: environment variable, already-stored value, hardcoded
// fallback - first match wins. The defaults layer never overwrites a key
// that an earlier layer already set.
type DefaultValue struct {
	Key         string
	EnvVar      string
	Value       string
	Description string
}

// defaultValues is the single source of truth for seeded defaults.
func defaultValues() []DefaultValue {
	return []DefaultValue{
		{
			Key:         "config.browser.browserType",
			EnvVar:      "PLAYQ_BROWSER",
			Value:       "chromium",
			Description: "Browser engine used for the session",
		},
		{
			Key:         "config.testExecution.actionTimeout",
			EnvVar:      "PLAYQ_ACTION_TIMEOUT",
			Value:       "30000",
			Description: "Default wait timeout in milliseconds",
		},
		{
			Key:         "config.testExecution.pollInterval",
			EnvVar:      "PLAYQ_POLL_INTERVAL",
			Value:       "250ms",
			Description: "Wait poll interval",
		},
		{
			Key:         "config.locators.defaultFieldType",
			EnvVar:      "",
			Value:       "field",
			Description: "Field type assumed when a reference omits one",
		},
	}
}

func (s *Store) applyDefaults() {
	for _, d := range defaultValues() {
		if s.Has(d.Key) {
			continue
		}
		value := d.Value
		if d.EnvVar != "" {
			if v, found := os.LookupEnv(d.EnvVar); found {
				value = v
			}
		}
		s.merge(map[string]string{d.Key: value}, false)
	}
}
