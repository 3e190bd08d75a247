// Package interfaces provides capability interfaces for dependency injection.
package interfaces

import (
	"context"
	"time"
)

// ElementState is a waitable element state understood by Handle.WaitFor.
type ElementState string

const (
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
	StateAttached ElementState = "attached"
	StateDetached ElementState = "detached"
	StateEnabled  ElementState = "enabled"
)

// Handle is an element handle returned by the driver for a selector.
// A handle is lazy - obtaining one never touches the page; every method
// evaluates the selector at call time.
type Handle interface {
	// Selector returns the raw selector string this handle evaluates.
	Selector() string

	// Actions
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	Check(ctx context.Context, checked bool) error
	Hover(ctx context.Context) error

	// Queries
	Count(ctx context.Context) (int, error)
	IsVisible(ctx context.Context) (bool, error)
	InnerText(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, error)

	// WaitFor blocks until the element reaches the given state or the
	// timeout elapses.
	WaitFor(ctx context.Context, state ElementState, timeout time.Duration) error

	// Screenshot captures the element as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Driver is the browser automation capability consumed by the resolver and
// the action layer. The core only depends on "given a selector string, get
// a handle; given a handle, query/act on it" - never on driver internals.
type Driver interface {
	// Locator returns a handle for a raw selector string. The selector may
	// be XPath (starts with // or (), CSS, or a >> chain of either.
	Locator(selector string) Handle

	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// URL returns the current page URL.
	URL(ctx context.Context) (string, error)

	// Title returns the current page title.
	Title(ctx context.Context) (string, error)

	// HTML returns the serialized DOM of the current page. Used by the
	// delegated matching engines.
	HTML(ctx context.Context) (string, error)

	// Screenshot captures the full page as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close tears down the browser session.
	Close() error
}
