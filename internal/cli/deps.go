package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ktxref/ktxref/internal/config"
	"github.com/ktxref/ktxref/internal/gradle"
)

// depsCmd represents the deps command
var depsCmd = &cobra.Command{
	Use:   "deps [module]",
	Short: "Show the Gradle module dependency tree",
	Long: `Deps runs the project's Gradle wrapper. Without arguments it lists the
project modules; with a module path it shows the compile classpath tree.

Examples:
  ktxref deps
  ktxref deps :app`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	module := ""
	if len(args) == 1 {
		module = args[0]
	}

	runner := gradle.NewRunner(cfg.Root)
	out, err := runner.FormatTree(context.Background(), module)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
