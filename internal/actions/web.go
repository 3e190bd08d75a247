package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/locator"
	"github.com/ternarybob/playq/internal/vars"
	"github.com/ternarybob/playq/internal/waitfor"
)

// Web exposes the browser action vocabulary. Every action resolves its
// symbolic field reference through the locator resolver, performs one
// browser operation and reports the outcome through the attachment sink.
type Web struct {
	driver   interfaces.Driver
	resolver *locator.Resolver
	store    *vars.Store
	sink     interfaces.AttachmentSink
	config   *common.Config
	logger   arbor.ILogger
}

// NewWeb wires the action layer.
func NewWeb(driver interfaces.Driver, resolver *locator.Resolver, store *vars.Store, sink interfaces.AttachmentSink, config *common.Config, logger arbor.ILogger) *Web {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Web{
		driver:   driver,
		resolver: resolver,
		store:    store,
		sink:     sink,
		config:   config,
		logger:   logger,
	}
}

// defaults builds the per-step option defaults from the variable store so
// the PLAYQ__testExecution__actionTimeout override applies to every wait.
func (w *Web) defaults() Options {
	opts := Options{
		Timeout:  30 * time.Second,
		Interval: 250 * time.Millisecond,
	}
	if w.config != nil {
		opts.Interval = w.config.PollInterval()
	}
	if w.store != nil {
		if raw := w.store.GetConfigValue("testExecution.actionTimeout", true); raw != "" {
			if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
				opts.Timeout = time.Duration(ms) * time.Millisecond
			}
		}
	}
	return opts
}

// resolveField returns a wait-compatible resolve closure for a field
// reference. The options' explicit locator wins over the field reference.
func (w *Web) resolveField(fieldType, field string, opts Options) waitfor.Resolve {
	selector := field
	if opts.Locator != "" {
		selector = opts.Locator
	}
	return func(ctx context.Context) (interfaces.Handle, error) {
		return w.resolver.Resolve(ctx, locator.Request{
			FieldType: fieldType,
			Selector:  selector,
			Pattern:   opts.Pattern,
			Timeout:   opts.Timeout,
			Refresh:   opts.Refresh,
		})
	}
}

// Navigate loads a URL. Placeholders in the URL are substituted.
func (w *Web) Navigate(ctx context.Context, url string) error {
	url = w.store.ReplaceVariables(url)
	w.logger.Info().Str("url", url).Msg("Web: Navigate")
	if err := w.driver.Navigate(ctx, url); err != nil {
		return w.fail(ctx, fmt.Sprintf("navigate to %s", url), err)
	}
	w.attachText(fmt.Sprintf("Navigated to %s", url))
	return nil
}

// Click resolves a field and clicks it.
func (w *Web) Click(ctx context.Context, fieldType, field string, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	w.logger.Info().Str("type", fieldType).Str("field", field).Msg("Web: Click")

	resolve := w.resolveField(fieldType, field, opts)
	handle, err := resolve(ctx)
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("click %s", field), err)
	}
	if handle == nil {
		w.attachText(fmt.Sprintf("Click skipped for %s (no locator)", field))
		return nil
	}
	if err := handle.WaitFor(ctx, interfaces.StateVisible, opts.Timeout); err != nil {
		return w.fail(ctx, fmt.Sprintf("click %s", field), err)
	}
	if err := handle.Click(ctx); err != nil {
		return w.fail(ctx, fmt.Sprintf("click %s", field), err)
	}

	w.attachText(fmt.Sprintf("Clicked %s", field))
	w.evidence(ctx, opts, "click_"+field)
	return nil
}

// Fill resolves a field and types a value into it. Placeholders in the
// value are substituted.
func (w *Web) Fill(ctx context.Context, fieldType, field, value string, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	value = w.store.ReplaceVariables(value)
	w.logger.Info().Str("type", fieldType).Str("field", field).Msg("Web: Fill")

	handle, err := w.resolveField(fieldType, field, opts)(ctx)
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("fill %s", field), err)
	}
	if handle == nil {
		w.attachText(fmt.Sprintf("Fill skipped for %s (no locator)", field))
		return nil
	}
	if err := handle.WaitFor(ctx, interfaces.StateVisible, opts.Timeout); err != nil {
		return w.fail(ctx, fmt.Sprintf("fill %s", field), err)
	}
	if err := handle.Fill(ctx, value); err != nil {
		return w.fail(ctx, fmt.Sprintf("fill %s", field), err)
	}

	w.attachText(fmt.Sprintf("Filled %s", field))
	w.evidence(ctx, opts, "fill_"+field)
	return nil
}

// Check resolves a checkbox field and sets its state.
func (w *Web) Check(ctx context.Context, field string, checked bool, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	w.logger.Info().Str("field", field).Bool("checked", checked).Msg("Web: Check")

	handle, err := w.resolveField("checkbox", field, opts)(ctx)
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("check %s", field), err)
	}
	if handle == nil {
		return nil
	}
	if err := handle.Check(ctx, checked); err != nil {
		return w.fail(ctx, fmt.Sprintf("check %s", field), err)
	}

	w.attachText(fmt.Sprintf("Set %s checked=%t", field, checked))
	return nil
}

// Hover resolves a field and hovers it.
func (w *Web) Hover(ctx context.Context, fieldType, field string, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	w.logger.Info().Str("type", fieldType).Str("field", field).Msg("Web: Hover")

	handle, err := w.resolveField(fieldType, field, opts)(ctx)
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("hover %s", field), err)
	}
	if handle == nil {
		return nil
	}
	if err := handle.Hover(ctx); err != nil {
		return w.fail(ctx, fmt.Sprintf("hover %s", field), err)
	}
	return nil
}

// GetText resolves a field and returns its inner text.
func (w *Web) GetText(ctx context.Context, fieldType, field string, options any) (string, error) {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return "", err
	}

	handle, err := w.resolveField(fieldType, field, opts)(ctx)
	if err != nil {
		return "", w.fail(ctx, fmt.Sprintf("get text of %s", field), err)
	}
	if handle == nil {
		return "", nil
	}
	text, err := handle.InnerText(ctx)
	if err != nil {
		return "", w.fail(ctx, fmt.Sprintf("get text of %s", field), err)
	}
	return text, nil
}

// WaitForText polls until the field's text equals (or contains, with
// partialMatch) the expected string. The timeout error reports the last
// observed text.
func (w *Web) WaitForText(ctx context.Context, fieldType, field, expected string, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	expected = w.store.ReplaceVariables(expected)
	w.logger.Info().Str("field", field).Str("expected", expected).Msg("Web: WaitForText")

	err = waitfor.Text(ctx, w.resolveField(fieldType, field, opts), expected, opts.PartialMatch, waitfor.Options{
		Timeout:  opts.Timeout,
		Interval: opts.Interval,
	})
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("wait for text on %s", field), err)
	}

	w.attachText(fmt.Sprintf("Text %q present on %s", expected, field))
	return nil
}

// WaitForVisible polls until the field is visible (or hidden).
func (w *Web) WaitForVisible(ctx context.Context, fieldType, field string, visible bool, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	w.logger.Info().Str("field", field).Bool("visible", visible).Msg("Web: WaitForVisible")

	err = waitfor.Visible(ctx, w.resolveField(fieldType, field, opts), visible, waitfor.Options{
		Timeout:  opts.Timeout,
		Interval: opts.Interval,
	})
	if err != nil {
		return w.fail(ctx, fmt.Sprintf("wait for visibility of %s", field), err)
	}
	return nil
}

// AssertText reads the field's text once and compares. Unlike WaitForText
// this does not poll - it is meant for post-condition checks after an
// explicit wait.
func (w *Web) AssertText(ctx context.Context, fieldType, field, expected string, options any) error {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return err
	}
	expected = w.store.ReplaceVariables(expected)

	actual, err := w.GetText(ctx, fieldType, field, nil)
	if err != nil {
		return err
	}
	matched := actual == expected
	if opts.PartialMatch {
		matched = strings.Contains(actual, expected)
	}
	if !matched {
		err := fmt.Errorf("text assertion failed on %s: expected %q, found %q", field, expected, actual)
		return w.fail(ctx, fmt.Sprintf("assert text on %s", field), err)
	}

	w.attachText(fmt.Sprintf("Asserted text %q on %s", expected, field))
	return nil
}

// ElementCount returns how many elements the field's selector matches.
func (w *Web) ElementCount(ctx context.Context, fieldType, field string, options any) (int, error) {
	opts, err := ParseOptions(options, w.store, w.defaults())
	if err != nil {
		return 0, err
	}

	handle, err := w.resolveField(fieldType, field, opts)(ctx)
	if err != nil {
		return 0, err
	}
	if handle == nil {
		return 0, nil
	}
	return handle.Count(ctx)
}

// Screenshot captures the page and attaches it under the given label.
func (w *Web) Screenshot(ctx context.Context, label string) error {
	data, err := w.driver.Screenshot(ctx)
	if err != nil {
		return err
	}
	if w.sink != nil {
		return w.sink.Attach(data, "image/png", label)
	}
	return nil
}

// fail reports a step failure through the sink, captures failure evidence
// when configured and returns the error for the step to surface.
func (w *Web) fail(ctx context.Context, what string, err error) error {
	wrapped := fmt.Errorf("failed to %s: %w", what, err)
	w.logger.Error().Err(err).Msg("Web action failed")
	w.attachText(wrapped.Error())
	if w.config != nil && w.config.TestExecution.ScreenshotOnFailure {
		if data, shotErr := w.driver.Screenshot(ctx); shotErr == nil && w.sink != nil {
			_ = w.sink.Attach(data, "image/png", "failure_"+what)
		}
	}
	return wrapped
}

func (w *Web) attachText(message string) {
	if w.sink == nil {
		return
	}
	_ = w.sink.Attach([]byte(message), "text/plain", "step")
}

// evidence captures an after-action screenshot when asked for by the step
// options or the configured default.
func (w *Web) evidence(ctx context.Context, opts Options, label string) {
	wantShot := opts.Screenshot
	if w.config != nil && w.config.TestExecution.ScreenshotOnAction {
		wantShot = true
	}
	if !wantShot || w.sink == nil {
		return
	}
	if data, err := w.driver.Screenshot(ctx); err == nil {
		_ = w.sink.Attach(data, "image/png", label)
	}
}
