package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/playq/internal/interfaces"
)

// handle is a lazy element handle. Every method evaluates the selector at
// call time; queries go through JavaScript so a missing element is an
// immediate answer instead of an implicit wait, which the polling layer
// depends on.
type handle struct {
	driver   *Driver
	selector string
}

func (h *handle) Selector() string {
	return h.selector
}

// effective returns the evaluated selector and whether it is XPath.
// Chained selectors (a >> b) are supported for pure CSS chains, which
// flatten to a descendant combinator; for mixed chains the last segment
// decides.
func (h *handle) effective() (string, bool) {
	sel := h.selector
	if strings.Contains(sel, ">>") {
		segments := strings.Split(sel, ">>")
		allCSS := true
		for i := range segments {
			segments[i] = strings.TrimSpace(segments[i])
			if isXPath(segments[i]) {
				allCSS = false
			}
		}
		if allCSS {
			return strings.Join(segments, " "), false
		}
		last := segments[len(segments)-1]
		return last, isXPath(last)
	}
	return sel, isXPath(sel)
}

func isXPath(s string) bool {
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(")
}

func (h *handle) queryOption() (string, chromedp.QueryOption) {
	sel, xpath := h.effective()
	if xpath {
		return sel, chromedp.BySearch
	}
	return sel, chromedp.ByQuery
}

// elementExpr returns a JS expression evaluating to the element or null.
func (h *handle) elementExpr() string {
	sel, xpath := h.effective()
	quoted := strconv.Quote(sel)
	if xpath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, quoted)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, quoted)
}

func (h *handle) Click(ctx context.Context) error {
	if err := h.driver.throttle(ctx); err != nil {
		return err
	}
	sel, opt := h.queryOption()
	if err := h.driver.run(ctx, chromedp.Click(sel, opt)); err != nil {
		return fmt.Errorf("failed to click %q: %w", h.selector, err)
	}
	return nil
}

func (h *handle) Fill(ctx context.Context, text string) error {
	if err := h.driver.throttle(ctx); err != nil {
		return err
	}
	sel, opt := h.queryOption()
	if err := h.driver.run(ctx,
		chromedp.Clear(sel, opt),
		chromedp.SendKeys(sel, text, opt),
	); err != nil {
		return fmt.Errorf("failed to fill %q: %w", h.selector, err)
	}
	return nil
}

func (h *handle) Check(ctx context.Context, checked bool) error {
	if err := h.driver.throttle(ctx); err != nil {
		return err
	}
	expr := fmt.Sprintf(`(el => {
		if (!el) return false;
		if (!!el.checked !== %t) el.click();
		return true;
	})(%s)`, checked, h.elementExpr())

	var found bool
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("failed to set checkbox %q: %w", h.selector, err)
	}
	if !found {
		return fmt.Errorf("element %q not found", h.selector)
	}
	return nil
}

func (h *handle) Hover(ctx context.Context) error {
	if err := h.driver.throttle(ctx); err != nil {
		return err
	}
	expr := fmt.Sprintf(`(el => {
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
		return true;
	})(%s)`, h.elementExpr())

	var found bool
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("failed to hover %q: %w", h.selector, err)
	}
	if !found {
		return fmt.Errorf("element %q not found", h.selector)
	}
	return nil
}

func (h *handle) Count(ctx context.Context) (int, error) {
	sel, xpath := h.effective()
	quoted := strconv.Quote(sel)
	var expr string
	if xpath {
		expr = fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, quoted)
	} else {
		expr = fmt.Sprintf(`document.querySelectorAll(%s).length`, quoted)
	}

	var count int
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %q: %w", h.selector, err)
	}
	return count, nil
}

func (h *handle) IsVisible(ctx context.Context) (bool, error) {
	expr := fmt.Sprintf(`(el => !!el && !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length))(%s)`, h.elementExpr())

	var visible bool
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, fmt.Errorf("failed to check visibility of %q: %w", h.selector, err)
	}
	return visible, nil
}

func (h *handle) InnerText(ctx context.Context) (string, error) {
	expr := fmt.Sprintf(`(el => el ? el.innerText : null)(%s)`, h.elementExpr())

	var text *string
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &text)); err != nil {
		return "", fmt.Errorf("failed to read text of %q: %w", h.selector, err)
	}
	if text == nil {
		return "", fmt.Errorf("element %q not found", h.selector)
	}
	return *text, nil
}

func (h *handle) GetAttribute(ctx context.Context, name string) (string, error) {
	expr := fmt.Sprintf(`(el => el ? el.getAttribute(%s) : null)(%s)`, strconv.Quote(name), h.elementExpr())

	var value *string
	if err := h.driver.run(ctx, chromedp.Evaluate(expr, &value)); err != nil {
		return "", fmt.Errorf("failed to read attribute %q of %q: %w", name, h.selector, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (h *handle) WaitFor(ctx context.Context, state interfaces.ElementState, timeout time.Duration) error {
	sel, opt := h.queryOption()

	var action chromedp.Action
	switch state {
	case interfaces.StateVisible:
		action = chromedp.WaitVisible(sel, opt)
	case interfaces.StateHidden:
		action = chromedp.WaitNotVisible(sel, opt)
	case interfaces.StateAttached:
		action = chromedp.WaitReady(sel, opt)
	case interfaces.StateDetached:
		action = chromedp.WaitNotPresent(sel, opt)
	case interfaces.StateEnabled:
		action = chromedp.WaitEnabled(sel, opt)
	default:
		return fmt.Errorf("unsupported wait state %q", state)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := h.driver.run(waitCtx, action); err != nil {
		return fmt.Errorf("element %q did not reach state %q within %dms: %w",
			h.selector, state, timeout.Milliseconds(), err)
	}
	return nil
}

func (h *handle) Screenshot(ctx context.Context) ([]byte, error) {
	sel, opt := h.queryOption()
	var buf []byte
	if err := h.driver.run(ctx, chromedp.Screenshot(sel, &buf, opt)); err != nil {
		return nil, fmt.Errorf("failed to screenshot %q: %w", h.selector, err)
	}
	return buf, nil
}
