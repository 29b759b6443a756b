package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	quietFlag bool
	watchFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project and print statistics",
	Long: `Index walks the project root, parses every Kotlin and Java file with
tree-sitter, and builds the in-memory symbol index.

Examples:
  # Index the current directory
  ktxref index

  # Index a specific project
  ktxref index --project /path/to/project

  # Keep running and rebuild on changes
  ktxref index --watch`,
	RunE: runIndexCmd,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and rebuild")
}

func runIndexCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling...")
		cancel()
	}()

	engine, reader, _, err := buildEngine(ctx, quietFlag)
	if err != nil {
		return err
	}
	defer reader.Close()

	snap := engine.Snapshot()
	fmt.Println(snap.Stats())
	for _, fe := range snap.Errors() {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", fe.Path, fe.Err)
	}

	if watchFlag {
		fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl+C to stop)...")
		if err := engine.Watch(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	}

	return nil
}
