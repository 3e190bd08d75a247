// Package actions implements the "Web:" action vocabulary over the locator
// resolver, the wait layer and the browser driver.
package actions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/vars"
)

// Options is the typed form of the per-step options bag. Authored steps
// supply either a loose option string or a parsed map; both are resolved
// into this struct exactly once at the action boundary.
type Options struct {
	// Timeout bounds the step's wait. Authored as milliseconds.
	Timeout time.Duration
	// Interval is the wait poll interval. Not usually authored; defaults
	// from configuration.
	Interval time.Duration
	// PartialMatch makes text comparisons substring-based.
	PartialMatch bool
	// Pattern names an override pattern for the pattern engine, or the
	// -no-check- escape hatch.
	Pattern string
	// Refresh tells the semantic engine when to refresh its page snapshot.
	Refresh interfaces.RefreshHint
	// Locator overrides the field reference with an explicit raw selector.
	Locator string
	// Screenshot captures evidence after the action regardless of the
	// configured default.
	Screenshot bool
}

// ParseOptions resolves the authored options input against defaults.
// Accepted inputs: nil, a loose option string ("timeout: 5000,
// partialMatch: True"), or an already-parsed map. Placeholders in string
// input are substituted before parsing.
func ParseOptions(input any, store *vars.Store, defaults Options) (Options, error) {
	opts := defaults

	var bag map[string]any
	switch v := input.(type) {
	case nil:
		return opts, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return opts, nil
		}
		parsed, err := vars.ParseLooseOptions(store.ReplaceVariables(v))
		if err != nil {
			return opts, err
		}
		bag = parsed
	case map[string]any:
		bag = v
	default:
		return opts, fmt.Errorf("unsupported options type %T", input)
	}

	if raw, found := bag["timeout"]; found {
		ms, err := toMilliseconds(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid timeout option: %w", err)
		}
		opts.Timeout = ms
	}
	if raw, found := bag["partialMatch"]; found {
		opts.PartialMatch = toBool(raw)
	}
	if raw, found := bag["pattern"]; found {
		opts.Pattern = fmt.Sprintf("%v", raw)
	}
	if raw, found := bag["refresh"]; found {
		opts.Refresh = interfaces.RefreshHint(fmt.Sprintf("%v", raw))
	}
	if raw, found := bag["locator"]; found {
		opts.Locator = fmt.Sprintf("%v", raw)
	}
	if raw, found := bag["screenshot"]; found {
		opts.Screenshot = toBool(raw)
	}

	return opts, nil
}

func toMilliseconds(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case float64:
		return time.Duration(v) * time.Millisecond, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case string:
		ms, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("unsupported timeout type %T", raw)
	}
}

func toBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}
