// Package waitfor provides bounded fixed-interval polling around locator
// resolution. No backoff - UI settling windows are short and a fixed
// interval keeps failure timing predictable.
package waitfor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/playq/internal/interfaces"
)

// Options bounds one wait. Zero values fall back to the defaults the caller
// sourced from configuration.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

const (
	defaultTimeout  = 30 * time.Second
	defaultInterval = 250 * time.Millisecond
)

func (o Options) normalized() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	return o
}

// Check evaluates the current state once. done reports success; observed is
// the actual value seen, carried into the timeout error for diagnosability.
// A non-nil error is treated as "not yet" and retried until the deadline.
type Check func(ctx context.Context) (done bool, observed string, err error)

// For polls check at a fixed interval until it succeeds or the timeout
// elapses. The timeout error names what was awaited and reports the last
// observed value - every wait failure says what was actually found.
func For(ctx context.Context, what string, opts Options, check Check) error {
	opts = opts.normalized()
	deadline := time.Now().Add(opts.Timeout)
	lastObserved := "<nothing observed>"

	for {
		done, observed, err := check(ctx)
		if err == nil && done {
			return nil
		}
		if err != nil {
			lastObserved = err.Error()
		} else if observed != "" {
			lastObserved = observed
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %dms waiting for %s (last observed: %q)",
				opts.Timeout.Milliseconds(), what, lastObserved)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s cancelled: %w (last observed: %q)", what, ctx.Err(), lastObserved)
		case <-time.After(opts.Interval):
		}
	}
}

// Resolve produces a fresh handle for each poll iteration. Waits re-resolve
// on every tick so references to elements that get re-rendered keep working.
type Resolve func(ctx context.Context) (interfaces.Handle, error)

// Text waits until the resolved element's inner text equals expected, or
// contains it when partial is true.
func Text(ctx context.Context, resolve Resolve, expected string, partial bool, opts Options) error {
	what := fmt.Sprintf("text %q", expected)
	return For(ctx, what, opts, func(ctx context.Context) (bool, string, error) {
		handle, err := resolve(ctx)
		if err != nil {
			return false, "", err
		}
		if handle == nil {
			return true, "", nil
		}
		actual, err := handle.InnerText(ctx)
		if err != nil {
			return false, "", err
		}
		if partial {
			return strings.Contains(actual, expected), actual, nil
		}
		return actual == expected, actual, nil
	})
}

// Visible waits until the resolved element is visible (or hidden when
// visible is false).
func Visible(ctx context.Context, resolve Resolve, visible bool, opts Options) error {
	what := "element visible"
	if !visible {
		what = "element hidden"
	}
	return For(ctx, what, opts, func(ctx context.Context) (bool, string, error) {
		handle, err := resolve(ctx)
		if err != nil {
			return false, "", err
		}
		if handle == nil {
			return true, "", nil
		}
		actual, err := handle.IsVisible(ctx)
		if err != nil {
			return false, "", err
		}
		return actual == visible, fmt.Sprintf("visible=%t", actual), nil
	})
}

// Count waits until the resolved selector matches exactly want elements.
func Count(ctx context.Context, resolve Resolve, want int, opts Options) error {
	what := fmt.Sprintf("%d matching elements", want)
	return For(ctx, what, opts, func(ctx context.Context) (bool, string, error) {
		handle, err := resolve(ctx)
		if err != nil {
			return false, "", err
		}
		if handle == nil {
			return true, "", nil
		}
		actual, err := handle.Count(ctx)
		if err != nil {
			return false, "", err
		}
		return actual == want, fmt.Sprintf("count=%d", actual), nil
	})
}
