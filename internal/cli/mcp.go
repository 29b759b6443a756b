package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ktxref/ktxref/internal/config"
	"github.com/ktxref/ktxref/internal/gradle"
	"github.com/ktxref/ktxref/internal/indexer"
	"github.com/ktxref/ktxref/internal/mcp"
	"github.com/ktxref/ktxref/internal/source"
)

var mcpWatchFlag bool

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for symbol navigation",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered
coding assistants navigate the codebase.

The MCP server:
- Builds the symbol index on startup
- Provides find_definition, find_usages, dependency_tree, and reindex tools
- Communicates via stdio (standard MCP transport)

Example:
  ktxref mcp --project /path/to/project`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVarP(&mcpWatchFlag, "watch", "w", false, "Rebuild the index when source files change")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reader, err := source.NewReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	engine := indexer.New(cfg, reader)

	var runner *gradle.Runner
	if cfg.Gradle {
		runner = gradle.NewRunner(cfg.Root)
	}

	server := mcp.NewServer(engine, runner, reader, mcpWatchFlag)
	return server.Serve(context.Background())
}
