package cli

import (
	"context"
	"fmt"

	"github.com/ktxref/ktxref/internal/config"
	"github.com/ktxref/ktxref/internal/indexer"
	"github.com/ktxref/ktxref/internal/resolver"
	"github.com/ktxref/ktxref/internal/source"
)

// buildEngine loads configuration, creates the engine, and runs the first
// index build. Shared by the query commands.
func buildEngine(ctx context.Context, quiet bool) (*indexer.Engine, *source.Reader, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	reader, err := source.NewReader()
	if err != nil {
		return nil, nil, nil, err
	}

	engine := indexer.New(cfg, reader)
	if !quiet {
		engine.SetProgress(newBarReporter())
	}

	if _, err := engine.Reindex(ctx); err != nil {
		reader.Close()
		return nil, nil, nil, fmt.Errorf("indexing failed: %w", err)
	}

	return engine, reader, cfg, nil
}

// parseHint builds a resolver hint from the --file/--line flags.
func parseHint(file string, line int) *resolver.Hint {
	if file == "" {
		return nil
	}
	if line < 1 {
		line = 1
	}
	return &resolver.Hint{File: file, Line: line}
}
