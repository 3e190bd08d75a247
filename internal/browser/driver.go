// Package browser implements the automation driver capability on chromedp.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
)

// Driver owns one headless Chrome session. It implements
// interfaces.Driver; the rest of the toolkit never sees chromedp types.
type Driver struct {
	ctx     context.Context
	cancels []context.CancelFunc
	limiter *rate.Limiter // slow-mo throttle for actions, nil when disabled
	logger  arbor.ILogger
}

// New launches a browser session from configuration. The returned driver
// must be closed with Close.
func New(parent context.Context, config *common.Config, logger arbor.ILogger) (*Driver, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(config.Browser.WindowWidth, config.Browser.WindowHeight),
	)
	if config.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.Browser.UserAgent))
	}
	if config.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.Browser.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser process now so startup failures surface here
	// instead of on the first action.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	// Surface in-page errors in the run log; silent console errors make
	// locator failures hard to diagnose.
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if ev.Type != runtime.APITypeError {
				return
			}
			args := make([]string, len(ev.Args))
			for i, arg := range ev.Args {
				args[i] = string(arg.Value)
			}
			logger.Debug().Str("console", strings.Join(args, " ")).Msg("Browser console error")
		case *runtime.EventExceptionThrown:
			logger.Debug().Str("exception", ev.ExceptionDetails.Text).Msg("Browser exception")
		}
	})

	var limiter *rate.Limiter
	if slowMo := config.SlowMo(); slowMo > 0 {
		limiter = rate.NewLimiter(rate.Every(slowMo), 1)
		logger.Debug().Str("slow_mo", slowMo.String()).Msg("Browser action throttle enabled")
	}

	logger.Info().
		Bool("headless", config.Browser.Headless).
		Int("width", config.Browser.WindowWidth).
		Int("height", config.Browser.WindowHeight).
		Msg("Browser session started")

	return &Driver{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Locator returns a lazy handle for a raw selector string.
func (d *Driver) Locator(selector string) interfaces.Handle {
	return &handle{driver: d, selector: strings.TrimSpace(selector)}
}

// Navigate loads a URL and waits for the document body.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// URL returns the current page URL.
func (d *Driver) URL(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, chromedp.Location(&url))
	return url, err
}

// Title returns the current page title.
func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, chromedp.Title(&title))
	return title, err
}

// HTML returns the serialized DOM, consumed by the matching engines.
func (d *Driver) HTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Screenshot captures the viewport as PNG bytes.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close tears down the browser session.
func (d *Driver) Close() error {
	if err := chromedp.Cancel(d.ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Browser cancel returned an error")
	}
	for i := len(d.cancels) - 1; i >= 0; i-- {
		d.cancels[i]()
	}
	return nil
}

// run executes chromedp actions against the session, honoring the caller's
// context for cancellation.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := d.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(d.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// throttle enforces the slow-mo delay before an action.
func (d *Driver) throttle(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}
