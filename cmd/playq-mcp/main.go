package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/playq/internal/app"
	"github.com/ternarybob/playq/internal/common"
)

func main() {
	// Load configuration
	configPath := os.Getenv("PLAYQ_CONFIG")
	if configPath == "" {
		configPath = "playq.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logger for the MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	ctx := context.Background()
	a, err := app.New(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer a.Close()

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"playq",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register browser tools
	mcpServer.AddTool(createRunStepTool(), handleRunStep(a, logger))
	mcpServer.AddTool(createResolveLocatorTool(), handleResolveLocator(a, logger))
	mcpServer.AddTool(createScreenshotTool(), handleScreenshot(a, logger))

	// Register variable tools
	mcpServer.AddTool(createGetVariableTool(), handleGetVariable(a, logger))
	mcpServer.AddTool(createSetVariableTool(), handleSetVariable(a, logger))

	// Register run history tools
	mcpServer.AddTool(createListRunsTool(), handleListRuns(a, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
