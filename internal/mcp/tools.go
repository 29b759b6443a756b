package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ktxref/ktxref/internal/gradle"
	"github.com/ktxref/ktxref/internal/indexer"
	"github.com/ktxref/ktxref/internal/resolver"
	"github.com/ktxref/ktxref/internal/source"
)

// Version is reported in the server handshake and by the CLI.
const Version = "0.1.0"

// AddFindDefinitionTool registers the find_definition tool.
func AddFindDefinitionTool(s *server.MCPServer, engine *indexer.Engine, reader *source.Reader) {
	tool := mcp.NewTool(
		"find_definition",
		mcp.WithDescription("Find the definition/declaration of a Kotlin or Java symbol. Accepts a simple name or a fully qualified name. Use 'file' and 'line' when calling from a specific reference location for precise resolution."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("The symbol to find (simple name like 'getUser' or qualified name like 'com.example.UserService')")),
		mcp.WithString("file",
			mcp.Description("Optional file path where the symbol is referenced")),
		mcp.WithNumber("line",
			mcp.Description("Optional 1-based line number of the reference")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, hint, err := symbolAndHint(request, engine)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := engine.Resolver()
		if res == nil {
			return mcp.NewToolResultError("index not built yet; call reindex first"), nil
		}

		defs := res.FindDefinition(symbol, hint)
		response := DefinitionResponse{Results: make([]Location, 0, len(defs)), Total: len(defs)}
		for _, def := range defs {
			line, col, lcErr := reader.LineCol(def.Decl.Pos.File, def.Decl.Pos.StartByte)
			if lcErr != nil {
				line, col = 0, 0
			}
			response.Results = append(response.Results, Location{
				File:   def.Decl.Pos.File,
				Line:   line,
				Column: col,
				FQN:    def.Decl.FQN,
				Kind:   string(def.Decl.Kind),
			})
		}

		return jsonResult(response)
	})
}

// AddFindUsagesTool registers the find_usages tool.
func AddFindUsagesTool(s *server.MCPServer, engine *indexer.Engine, reader *source.Reader) {
	tool := mcp.NewTool(
		"find_usages",
		mcp.WithDescription("Find all usages/references of a Kotlin or Java symbol across the project. Lombok getter/setter calls count as usages of the underlying field. Imports are excluded unless include_imports is set."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("The symbol to search for (simple name or fully qualified name)")),
		mcp.WithString("file",
			mcp.Description("Optional file path where the symbol appears")),
		mcp.WithNumber("line",
			mcp.Description("Optional 1-based line number where the symbol appears")),
		mcp.WithBoolean("include_imports",
			mcp.Description("Include import statements in the results (default: false)")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, hint, err := symbolAndHint(request, engine)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := engine.Resolver()
		if res == nil {
			return mcp.NewToolResultError("index not built yet; call reindex first"), nil
		}

		opts := resolver.Options{}
		if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
			if v, ok := args["include_imports"].(bool); ok {
				opts.IncludeImports = v
			}
		}

		usages := res.FindUsages(symbol, hint, opts)
		response := UsagesResponse{Results: make([]UsageLocation, 0, len(usages)), Total: len(usages), Resolved: true}
		for _, u := range usages {
			if !u.Resolved {
				response.Resolved = false
			}
			line, col, lcErr := reader.LineCol(u.Ref.Pos.File, u.Ref.Pos.StartByte)
			if lcErr != nil {
				line, col = 0, 0
			}
			snippet, _ := reader.Snippet(u.Ref.Pos.File, u.Ref.Pos.StartByte, u.Ref.Pos.EndByte)
			response.Results = append(response.Results, UsageLocation{
				File:    u.Ref.Pos.File,
				Line:    line,
				Column:  col,
				Context: snippet,
			})
		}

		return jsonResult(response)
	})
}

// AddReindexTool registers the reindex tool: a full rebuild with an atomic
// snapshot swap. The Gradle cache is invalidated alongside.
func AddReindexTool(s *server.MCPServer, engine *indexer.Engine, runner *gradle.Runner) {
	tool := mcp.NewTool(
		"reindex",
		mcp.WithDescription("Re-index all Kotlin and Java files in the project. Use after changing the codebase. Returns when the new snapshot is live."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := engine.Reindex(ctx)
		if err != nil {
			return nil, fmt.Errorf("reindex failed: %w", err)
		}
		if runner != nil {
			runner.InvalidateCache()
		}

		return jsonResult(ReindexResponse{
			Snapshot: engine.Snapshot().ID,
			Stats:    stats.String(),
			Skipped:  stats.SkippedFiles,
		})
	})
}

// AddDependencyTreeTool registers the dependency_tree tool.
func AddDependencyTreeTool(s *server.MCPServer, runner *gradle.Runner) {
	tool := mcp.NewTool(
		"dependency_tree",
		mcp.WithDescription("Show the Gradle module dependency tree. Without a module parameter, lists all project modules. With a module path (e.g. ':app'), shows the compile classpath including transitive dependencies and version conflicts."),
		mcp.WithString("module",
			mcp.Description("Optional Gradle module path (e.g. ':app', ':core')")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		module := ""
		if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
			if v, ok := args["module"].(string); ok {
				module = v
			}
		}

		out, err := runner.FormatTree(ctx, module)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Gradle error: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	})
}

// symbolAndHint parses the shared symbol/file/line arguments. Relative file
// hints are resolved against the project root so they match index paths.
func symbolAndHint(request mcp.CallToolRequest, engine *indexer.Engine) (string, *resolver.Hint, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("invalid arguments format")
	}

	symbol, ok := args["symbol"].(string)
	if !ok || symbol == "" {
		return "", nil, fmt.Errorf("symbol parameter is required")
	}

	var hint *resolver.Hint
	if file, ok := args["file"].(string); ok && file != "" {
		hint = &resolver.Hint{File: file, Line: 1}
		if !filepath.IsAbs(file) {
			snap := engine.Snapshot()
			resolved := file
			if snap != nil {
				for _, p := range snap.Files() {
					if p == file || filepath.Base(p) == file || hasSuffixPath(p, file) {
						resolved = p
						break
					}
				}
			}
			hint.File = resolved
		}
		if line, ok := args["line"].(float64); ok && line >= 1 {
			hint.Line = int(line)
		}
	}

	return symbol, hint, nil
}

// hasSuffixPath reports whether path ends with the relative path rel.
func hasSuffixPath(path, rel string) bool {
	path = filepath.ToSlash(path)
	rel = filepath.ToSlash(rel)
	return len(path) > len(rel) && path[len(path)-len(rel)-1] == '/' && path[len(path)-len(rel):] == rel
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
