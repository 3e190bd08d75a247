package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRunStepTool returns the run_step tool definition
func createRunStepTool() mcp.Tool {
	return mcp.NewTool("run_step",
		mcp.WithDescription("Execute a single step line against the live browser session, e.g. 'Web: Click button -field: Submit'"),
		mcp.WithString("step",
			mcp.Required(),
			mcp.Description("Step line (format: 'Namespace: Action [type] -field: ... -value: ... -options: ...')"),
		),
	)
}

// createResolveLocatorTool returns the resolve_locator tool definition
func createResolveLocatorTool() mcp.Tool {
	return mcp.NewTool("resolve_locator",
		mcp.WithDescription("Resolve a field reference to an element and report its selector, visibility and text"),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field reference: engine-prefixed selector, raw selector, loc.* resource or plain text"),
		),
		mcp.WithString("field_type",
			mcp.Description("Field type hint: button, field, link, checkbox (default: field)"),
		),
	)
}

// createScreenshotTool returns the take_screenshot tool definition
func createScreenshotTool() mcp.Tool {
	return mcp.NewTool("take_screenshot",
		mcp.WithDescription("Capture a full-page screenshot into the current run directory"),
		mcp.WithString("label",
			mcp.Description("Label used in the attachment filename (default: screenshot)"),
		),
	)
}

// createGetVariableTool returns the get_variable tool definition
func createGetVariableTool() mcp.Tool {
	return mcp.NewTool("get_variable",
		mcp.WithDescription("Read a variable from the store, including config.* and env.* keys"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Dotted variable key, e.g. var.static.username or config.browser.browserType"),
		),
	)
}

// createSetVariableTool returns the set_variable tool definition
func createSetVariableTool() mcp.Tool {
	return mcp.NewTool("set_variable",
		mcp.WithDescription("Set a variable; var.static.* keys persist to the static file"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Dotted variable key"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Value to store"),
		),
	)
}

// createListRunsTool returns the list_runs tool definition
func createListRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List recent run summaries from the history database"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (default: 10)"),
		),
	)
}
