package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	defFileFlag string
	defLineFlag int
)

// defCmd represents the def command
var defCmd = &cobra.Command{
	Use:   "def <symbol>",
	Short: "Find the definition of a symbol",
	Long: `Def resolves a symbol — a simple name, a qualified name, or a Lombok
accessor name — to its declaration sites.

Examples:
  ktxref def UserService
  ktxref def com.example.core.UserService.getUser
  ktxref def getUsername --file app/src/main/java/com/example/app/LombokConsumer.java`,
	Args: cobra.ExactArgs(1),
	RunE: runDef,
}

func init() {
	rootCmd.AddCommand(defCmd)
	defCmd.Flags().StringVar(&defFileFlag, "file", "", "file the symbol is referenced from, for precise resolution")
	defCmd.Flags().IntVar(&defLineFlag, "line", 0, "1-based line of the reference")
}

func runDef(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, reader, _, err := buildEngine(ctx, true)
	if err != nil {
		return err
	}
	defer reader.Close()

	defs := engine.Resolver().FindDefinition(args[0], parseHint(defFileFlag, defLineFlag))
	if len(defs) == 0 {
		fmt.Println("no definition found")
		return nil
	}

	for _, def := range defs {
		line, col, err := reader.LineCol(def.Decl.Pos.File, def.Decl.Pos.StartByte)
		if err != nil {
			line, col = 0, 0
		}
		fmt.Printf("%s:%d:%d\t%s\t%s\n", def.Decl.Pos.File, line, col, def.Decl.Kind, def.Decl.FQN)
	}
	return nil
}
