package locator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/vars"
)

// NoCheckToken disables resolution entirely when passed as the override
// pattern. The resolver signals "no locator" with a nil handle.
const NoCheckToken = "-no-check-"

// resourcePrefix marks resource-locator namespace references.
const resourcePrefix = "loc."

// Request carries one resolution call.
type Request struct {
	// FieldType is the free-form field-category hint ("button", "input", ...).
	// Consumed only by the delegated engines.
	FieldType string
	// Selector is the symbolic reference the author wrote.
	Selector string
	// Pattern is an optional override pattern name, or NoCheckToken.
	Pattern string
	// Timeout bounds delegated engine lookups; zero uses the configured
	// pattern engine timeout.
	Timeout time.Duration
	// Refresh tells engine A when to refresh its page snapshot.
	Refresh interfaces.RefreshHint
}

// Resolver decides among the resolution strategies for a symbolic field
// reference and returns a ready-to-use handle. Strategies are mutually
// exclusive and tried in a fixed order; exactly one resolves per call.
type Resolver struct {
	driver   interfaces.Driver
	store    *vars.Store
	registry *Registry
	files    *FileNamespace
	config   *common.Config
	logger   arbor.ILogger
}

// NewResolver wires a resolver. registry and files may be shared across
// resolvers; the store is applied to every reference before strategy
// selection so placeholders work in any branch.
func NewResolver(driver interfaces.Driver, store *vars.Store, registry *Registry, files *FileNamespace, config *common.Config, logger arbor.ILogger) *Resolver {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Resolver{
		driver:   driver,
		store:    store,
		registry: registry,
		files:    files,
		config:   config,
		logger:   logger,
	}
}

// enginePrefixPattern matches an explicit engine prefix, tolerant of case
// and surrounding spaces: "xpath=...", " CSS = ...", "chain=...".
var enginePrefixPattern = regexp.MustCompile(`(?i)^\s*(xpath|css|chain)\s*=\s*(.*)$`)

// Resolve runs the strategy chain:
//
//	-no-check- escape hatch
//	explicit engine prefix (xpath=/css=/chain=)
//	raw selector heuristics (XPath or CSS shaped)
//	resource-locator namespace (loc.*)
//	delegated semantic engine (if enabled)
//	delegated pattern engine (if enabled)
//	default raw pass-through
//
// A nil handle with a nil error is only returned for the escape hatch.
func (r *Resolver) Resolve(ctx context.Context, req Request) (interfaces.Handle, error) {
	if strings.TrimSpace(req.Pattern) == NoCheckToken {
		return nil, nil
	}

	selector := req.Selector
	if r.store != nil {
		selector = r.store.ReplaceVariables(selector)
	}
	selector = strings.TrimSpace(selector)

	// Explicit engine prefix wins over everything else, including
	// resource-locator shaped strings.
	if m := enginePrefixPattern.FindStringSubmatch(selector); m != nil {
		return r.driver.Locator(unescapeSelector(m[2])), nil
	}

	if isRawSelector(selector) {
		return r.driver.Locator(selector), nil
	}

	if strings.HasPrefix(selector, resourcePrefix) {
		handle, resolved, err := r.resolveResource(selector)
		if err != nil {
			return nil, err
		}
		if resolved {
			return handle, nil
		}
		// Bare loc. miss: fall through to the delegated engines.
	}

	semanticEnabled := r.config != nil && r.config.Engines.SemanticEnabled
	patternEnabled := r.config != nil && r.config.Engines.PatternEnabled
	if handle := r.tryEngine(ctx, EngineSemantic, semanticEnabled, req, selector); handle != nil {
		return handle, nil
	}
	if handle := r.tryEngine(ctx, EnginePattern, patternEnabled, req, selector); handle != nil {
		return handle, nil
	}

	// Default fallback: hand the raw symbolic string to the driver. If the
	// element cannot be found, that failure belongs to the driver.
	return r.driver.Locator(selector), nil
}

// resolveResource handles loc.<...> references. resolved is false only for
// the bare loc.<file>.<page>.<field> form with no matching entry, which
// falls through to later strategies. Explicit loc.ts./loc.json. misses and
// malformed references fail hard.
func (r *Resolver) resolveResource(ref string) (interfaces.Handle, bool, error) {
	parts := strings.Split(ref, ".")
	// parts[0] is "loc"; an optional source marker precedes the minimum
	// three trailing segments <file>.<page>.<field>.
	switch {
	case len(parts) == 4:
		return r.resolveBareResource(ref, parts[1], parts[2], parts[3])
	case len(parts) >= 5:
		// Field keys may themselves contain dots; everything past the page
		// segment is the field key.
		source, file, page, field := parts[1], parts[2], parts[3], strings.Join(parts[4:], ".")
		switch source {
		case "json":
			return r.resolveJSONResource(ref, file, page, field)
		case "ts", "code":
			return r.resolveCodeResource(ref, file, page, field)
		default:
			return nil, false, fmt.Errorf("unsupported locator source %q in reference %q", source, ref)
		}
	default:
		return nil, false, fmt.Errorf("invalid resource locator reference %q: expected loc.[source.]<file>.<page>.<field>", ref)
	}
}

func (r *Resolver) resolveJSONResource(ref, file, page, field string) (interfaces.Handle, bool, error) {
	if r.files == nil {
		return nil, false, fmt.Errorf("no locator directory configured for reference %q", ref)
	}
	selector, found, err := r.files.Lookup(file, page, field)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, fmt.Errorf("locator reference %q not found in json namespace", ref)
	}
	return r.driver.Locator(selector), true, nil
}

func (r *Resolver) resolveCodeResource(ref, file, page, field string) (interfaces.Handle, bool, error) {
	fn, found := r.registry.LookupFunc(file, page, field)
	if !found {
		return nil, false, fmt.Errorf("locator reference %q not found in code namespace", ref)
	}
	handle, err := fn(r.driver)
	if err != nil {
		return nil, false, fmt.Errorf("locator function for %q failed: %w", ref, err)
	}
	return handle, true, nil
}

// resolveBareResource tries the code namespace, then the json files. A miss
// is not an error - the caller falls through to the next strategy.
func (r *Resolver) resolveBareResource(ref, file, page, field string) (interfaces.Handle, bool, error) {
	if fn, found := r.registry.LookupFunc(file, page, field); found {
		handle, err := fn(r.driver)
		if err != nil {
			return nil, false, fmt.Errorf("locator function for %q failed: %w", ref, err)
		}
		return handle, true, nil
	}
	if r.files != nil {
		selector, found, err := r.files.Lookup(file, page, field)
		if err != nil {
			return nil, false, err
		}
		if found {
			return r.driver.Locator(selector), true, nil
		}
	}
	r.logger.Debug().Str("reference", ref).Msg("Bare resource locator reference unresolved - falling through")
	return nil, false, nil
}

// tryEngine invokes a delegated engine when enabled. A configured engine
// missing from the registry logs a warning and falls through; engine
// failures and misses fall through as well - delegated-engine absence is
// never fatal.
func (r *Resolver) tryEngine(ctx context.Context, name string, enabled bool, req Request, selector string) interfaces.Handle {
	if !enabled {
		return nil
	}
	engine, found := r.registry.Engine(name)
	if !found {
		r.logger.Warn().Str("engine", name).Msg("Matching engine enabled by configuration but not registered - skipping")
		return nil
	}

	timeout := req.Timeout
	if timeout <= 0 && r.config != nil {
		timeout = r.config.PatternTimeout()
	}

	handle, err := engine.Resolve(ctx, r.driver, interfaces.MatchRequest{
		FieldType: req.FieldType,
		Text:      selector,
		Pattern:   req.Pattern,
		Refresh:   req.Refresh,
		Timeout:   timeout,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("engine", name).Str("text", selector).Msg("Matching engine failed - trying next strategy")
		return nil
	}
	return handle
}

// isRawSelector reports whether the string looks like an XPath or CSS
// selector rather than a symbolic reference. Resource-locator references
// are excluded even when they contain structural markers.
func isRawSelector(s string) bool {
	if strings.HasPrefix(s, resourcePrefix) {
		return false
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(") {
		return true
	}
	if strings.Contains(s, ">>") || strings.Contains(s, ">") {
		return true
	}
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "#") {
		return true
	}
	return false
}

// unescapeSelector removes the quote escaping that survives loose option
// parsing of prefixed raw selectors.
func unescapeSelector(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.TrimSpace(s)
}
