package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ktxref/ktxref/internal/resolver"
)

var (
	usagesFileFlag    string
	usagesLineFlag    int
	usagesImportsFlag bool
)

// usagesCmd represents the usages command
var usagesCmd = &cobra.Command{
	Use:   "usages <symbol>",
	Short: "Find all usages of a symbol",
	Long: `Usages lists the use sites of a symbol across Kotlin and Java sources.
Lombok getter/setter calls count as usages of the underlying field. Import
statements are excluded unless --include-imports is set.

Examples:
  ktxref usages MAX_USERS
  ktxref usages com.example.core.LombokUser.username
  ktxref usages isAdmin --include-imports`,
	Args: cobra.ExactArgs(1),
	RunE: runUsages,
}

func init() {
	rootCmd.AddCommand(usagesCmd)
	usagesCmd.Flags().StringVar(&usagesFileFlag, "file", "", "file the symbol appears in, for precise resolution")
	usagesCmd.Flags().IntVar(&usagesLineFlag, "line", 0, "1-based line where the symbol appears")
	usagesCmd.Flags().BoolVar(&usagesImportsFlag, "include-imports", false, "include import statements")
}

func runUsages(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, reader, _, err := buildEngine(ctx, true)
	if err != nil {
		return err
	}
	defer reader.Close()

	usages := engine.Resolver().FindUsages(args[0], parseHint(usagesFileFlag, usagesLineFlag),
		resolver.Options{IncludeImports: usagesImportsFlag})
	if len(usages) == 0 {
		fmt.Println("no usages found")
		return nil
	}

	for _, u := range usages {
		line, col, err := reader.LineCol(u.Ref.Pos.File, u.Ref.Pos.StartByte)
		if err != nil {
			line, col = 0, 0
		}
		snippet, _ := reader.Snippet(u.Ref.Pos.File, u.Ref.Pos.StartByte, u.Ref.Pos.EndByte)
		marker := ""
		if !u.Resolved {
			marker = "\t(unresolved name match)"
		}
		fmt.Printf("%s:%d:%d\t%s%s\n", u.Ref.Pos.File, line, col, snippet, marker)
	}
	return nil
}
