package interfaces

import (
	"context"
	"time"
)

// RefreshHint tells a delegated matching engine when to refresh its internal
// page snapshot relative to the action being performed.
type RefreshHint string

const (
	RefreshNone   RefreshHint = ""
	RefreshBefore RefreshHint = "before"
	RefreshAfter  RefreshHint = "after"
)

// MatchRequest carries the symbolic field reference handed to a delegated
// matching engine.
type MatchRequest struct {
	// FieldType is the free-form field category hint ("button", "input", ...).
	FieldType string
	// Text is the raw symbolic reference the author wrote.
	Text string
	// Pattern is an optional override pattern name (pattern engine only).
	Pattern string
	// Refresh indicates when the engine should refresh its cache.
	Refresh RefreshHint
	// Timeout bounds the engine's own lookups.
	Timeout time.Duration
}

// MatchEngine is an optional, externally supplied locator strategy.
// Engines resolve a symbolic field reference to a concrete handle using
// heuristics outside the resolver's direct control (semantic matching,
// learned patterns). A nil handle with a nil error means "no match" and the
// resolver moves to the next strategy.
type MatchEngine interface {
	Resolve(ctx context.Context, driver Driver, req MatchRequest) (Handle, error)
}
