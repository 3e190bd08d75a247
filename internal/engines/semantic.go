package engines

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
)

const semanticSystemPrompt = `You are a web test automation assistant. Given a page's HTML, a field type and a human description of a target element, answer with exactly one CSS selector (or XPath starting with //) that uniquely matches the described element. Answer with the selector only - no explanation, no markdown.`

// maxPageBytes bounds the HTML snippet sent per request.
const maxPageBytes = 60000

// SemanticEngine resolves a symbolic reference by asking a Claude model to
// pick a selector from the page HTML. The page snapshot is cached per
// navigation and refreshed according to the request's refresh hint.
type SemanticEngine struct {
	client anthropic.Client
	model  string
	logger arbor.ILogger

	mu       sync.Mutex
	snapshot string
}

// NewSemanticEngine creates the AI-assisted matching engine.
func NewSemanticEngine(config *common.EnginesConfig, logger arbor.ILogger) (*SemanticEngine, error) {
	if config.SemanticAPIKey == "" {
		return nil, fmt.Errorf("semantic engine enabled but no API key configured")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(config.SemanticAPIKey),
	)
	return &SemanticEngine{
		client: client,
		model:  config.SemanticModel,
		logger: logger,
	}, nil
}

// Resolve implements interfaces.MatchEngine.
func (e *SemanticEngine) Resolve(ctx context.Context, driver interfaces.Driver, req interfaces.MatchRequest) (interfaces.Handle, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	html, err := e.pageSnapshot(ctx, driver, req.Refresh)
	if err != nil {
		return nil, err
	}
	if len(html) > maxPageBytes {
		html = html[:maxPageBytes]
	}

	prompt := fmt.Sprintf("Field type: %s\nTarget description: %s\n\nPage HTML:\n%s", req.FieldType, req.Text, html)

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: semanticSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic engine request failed: %w", err)
	}

	var selector strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			selector.WriteString(block.Text)
		}
	}

	answer := strings.TrimSpace(selector.String())
	if answer == "" {
		return nil, nil
	}

	e.logger.Debug().
		Str("type", req.FieldType).
		Str("text", req.Text).
		Str("selector", answer).
		Msg("Semantic engine proposed selector")

	if req.Refresh == interfaces.RefreshAfter {
		e.invalidate()
	}
	return driver.Locator(answer), nil
}

// pageSnapshot returns the cached page HTML, refreshing it when asked to
// refresh before the action or when no snapshot exists yet.
func (e *SemanticEngine) pageSnapshot(ctx context.Context, driver interfaces.Driver, refresh interfaces.RefreshHint) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == "" || refresh == interfaces.RefreshBefore {
		html, err := driver.HTML(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to snapshot page for semantic engine: %w", err)
		}
		e.snapshot = html
	}
	return e.snapshot, nil
}

func (e *SemanticEngine) invalidate() {
	e.mu.Lock()
	e.snapshot = ""
	e.mu.Unlock()
}
