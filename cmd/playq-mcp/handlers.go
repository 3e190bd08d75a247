package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/app"
	"github.com/ternarybob/playq/internal/locator"
)

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleRunStep implements the run_step tool
func handleRunStep(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		step, err := request.RequireString("step")
		if err != nil || step == "" {
			return errorResult("Error: step parameter is required"), nil
		}

		if err := a.Executor.Execute(ctx, step); err != nil {
			logger.Error().Err(err).Str("step", step).Msg("Step failed")
			return errorResult("Step failed: %v", err), nil
		}
		return textResult(fmt.Sprintf("Step passed: %s", step)), nil
	}
}

// handleResolveLocator implements the resolve_locator tool
func handleResolveLocator(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		field, err := request.RequireString("field")
		if err != nil || field == "" {
			return errorResult("Error: field parameter is required"), nil
		}
		fieldType := request.GetString("field_type", a.Config.Locators.DefaultFieldType)

		handle, err := a.Resolver.Resolve(ctx, locator.Request{FieldType: fieldType, Selector: field})
		if err != nil {
			logger.Error().Err(err).Str("field", field).Msg("Resolve failed")
			return errorResult("Resolve error: %v", err), nil
		}
		if handle == nil {
			return textResult("Resolved to the no-check handle; actions against it are skipped"), nil
		}

		var report strings.Builder
		fmt.Fprintf(&report, "Selector: %s\n", handle.Selector())
		if visible, err := handle.IsVisible(ctx); err == nil {
			fmt.Fprintf(&report, "Visible: %v\n", visible)
		}
		if text, err := handle.InnerText(ctx); err == nil && text != "" {
			fmt.Fprintf(&report, "Text: %s\n", text)
		}
		return textResult(report.String()), nil
	}
}

// handleScreenshot implements the take_screenshot tool
func handleScreenshot(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label := request.GetString("label", "screenshot")

		if err := a.Web.Screenshot(ctx, label); err != nil {
			logger.Error().Err(err).Msg("Screenshot failed")
			return errorResult("Screenshot error: %v", err), nil
		}
		dir, _ := a.Sink.RunDir()
		return textResult(fmt.Sprintf("Screenshot saved under %s", dir)), nil
	}
}

// handleGetVariable implements the get_variable tool
func handleGetVariable(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil || key == "" {
			return errorResult("Error: key parameter is required"), nil
		}

		if !a.Store.Has(key) && !strings.HasPrefix(key, "env.") {
			return errorResult("Variable %s is not set", key), nil
		}
		return textResult(a.Store.GetValue(key, true)), nil
	}
}

// handleSetVariable implements the set_variable tool
func handleSetVariable(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil || key == "" {
			return errorResult("Error: key parameter is required"), nil
		}
		value, err := request.RequireString("value")
		if err != nil {
			return errorResult("Error: value parameter is required"), nil
		}

		if err := a.Store.SetValue(key, value); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("SetValue failed")
			return errorResult("Set error: %v", err), nil
		}
		return textResult(fmt.Sprintf("Set %s", key)), nil
	}
}

// handleListRuns implements the list_runs tool
func handleListRuns(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)

		runs, err := a.Results.ListRuns(ctx, limit)
		if err != nil {
			logger.Error().Err(err).Msg("ListRuns failed")
			return errorResult("History error: %v", err), nil
		}
		if len(runs) == 0 {
			return textResult("No runs recorded"), nil
		}

		var report strings.Builder
		for _, run := range runs {
			fmt.Fprintf(&report, "%s  started=%s  passed=%d  failed=%d\n",
				run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Passed, run.Failed)
		}
		return textResult(report.String()), nil
	}
}
