// Package engines provides reference implementations of the delegated
// matching engines. Both are optional: the resolver only sees them through
// the capability registry.
package engines

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/vars"
)

// PatternEngine resolves a symbolic reference from learned selector
// templates held in the variable store's pattern layer, with a DOM scan
// fallback when no template matches.
//
// Template lookup key: pattern.<patternName>.<fieldType>. The template may
// contain {text} and {type} tokens, replaced with the authored text and
// field type. Example pattern file entry:
//
//	button = "//button[normalize-space(.)='{text}']"
type PatternEngine struct {
	store  *vars.Store
	logger arbor.ILogger
}

// NewPatternEngine creates the pattern matching engine.
func NewPatternEngine(store *vars.Store, logger arbor.ILogger) *PatternEngine {
	return &PatternEngine{store: store, logger: logger}
}

// Resolve implements interfaces.MatchEngine. A nil handle with nil error
// means no match; the resolver then moves to the next strategy.
func (e *PatternEngine) Resolve(ctx context.Context, driver interfaces.Driver, req interfaces.MatchRequest) (interfaces.Handle, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	patternName := req.Pattern
	if patternName == "" {
		patternName = "default"
	}

	if selector := e.templateSelector(patternName, req); selector != "" {
		e.logger.Debug().
			Str("pattern", patternName).
			Str("type", req.FieldType).
			Str("selector", selector).
			Msg("Pattern template matched")
		return driver.Locator(selector), nil
	}

	return e.scanDOM(ctx, driver, req)
}

// templateSelector looks up pattern.<name>.<fieldType> and substitutes the
// {text} and {type} tokens.
func (e *PatternEngine) templateSelector(patternName string, req interfaces.MatchRequest) string {
	key := fmt.Sprintf("pattern.%s.%s", patternName, req.FieldType)
	template := e.store.GetValue(key, true)
	if template == "" {
		return ""
	}
	selector := strings.ReplaceAll(template, "{text}", req.Text)
	return strings.ReplaceAll(selector, "{type}", req.FieldType)
}

// fieldTypeTags maps field-category hints to the tags worth scanning.
var fieldTypeTags = map[string][]string{
	"button":   {"button", "a", "input"},
	"link":     {"a"},
	"input":    {"input", "textarea", "select"},
	"checkbox": {"input"},
	"text":     {"label", "span", "div", "p", "td", "th", "h1", "h2", "h3"},
}

// scanDOM parses the current page and looks for an element whose visible
// text or naming attributes match the authored text. The match is returned
// as a stable CSS path so the driver can re-query it later.
func (e *PatternEngine) scanDOM(ctx context.Context, driver interfaces.Driver, req interfaces.MatchRequest) (interfaces.Handle, error) {
	html, err := driver.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page for pattern scan: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page for pattern scan: %w", err)
	}

	tags, ok := fieldTypeTags[strings.ToLower(req.FieldType)]
	if !ok {
		tags = []string{"*"}
	}

	want := strings.TrimSpace(strings.ToLower(req.Text))
	var match *goquery.Selection
	doc.Find(strings.Join(tags, ", ")).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if elementMatches(sel, want) {
			match = sel
			return false
		}
		return true
	})

	if match == nil {
		e.logger.Debug().Str("type", req.FieldType).Str("text", req.Text).Msg("Pattern scan found no match")
		return nil, nil
	}

	return driver.Locator(cssPath(match)), nil
}

// elementMatches compares the element's text and naming attributes against
// the wanted text, case-insensitively.
func elementMatches(sel *goquery.Selection, want string) bool {
	if want == "" {
		return false
	}
	if strings.TrimSpace(strings.ToLower(sel.Text())) == want {
		return true
	}
	for _, attr := range []string{"aria-label", "placeholder", "name", "id", "value", "title"} {
		if v, exists := sel.Attr(attr); exists && strings.ToLower(strings.TrimSpace(v)) == want {
			return true
		}
	}
	return false
}

// cssPath builds a selector for a matched node: the nearest id wins,
// otherwise tag:nth-of-type segments up from the closest id-bearing
// ancestor (or the root).
func cssPath(sel *goquery.Selection) string {
	var segments []string
	for current := sel; current.Length() > 0; current = current.Parent() {
		node := current.Get(0)
		if node.Data == "" || node.Data == "html" || node.Data == "body" {
			break
		}
		if id, exists := current.Attr("id"); exists && id != "" {
			segments = append([]string{"#" + id}, segments...)
			return strings.Join(segments, " > ")
		}

		index := 1
		for prev := current.Prev(); prev.Length() > 0; prev = prev.Prev() {
			if prev.Get(0).Data == node.Data {
				index++
			}
		}
		segments = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", node.Data, index)}, segments...)
	}
	return strings.Join(segments, " > ")
}
