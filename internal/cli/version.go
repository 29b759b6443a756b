package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ktxref/ktxref/internal/mcp"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ktxref version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ktxref", mcp.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
