// Package indexer orchestrates the build: it discovers source files, runs
// extraction on a worker pool, merges the per-file facts into a sealed
// snapshot, and swaps it in atomically. Queries bind to whichever snapshot
// is current when they start.
package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ktxref/ktxref/internal/config"
	"github.com/ktxref/ktxref/internal/index"
	"github.com/ktxref/ktxref/internal/indexer/facts"
	"github.com/ktxref/ktxref/internal/indexer/lombok"
	"github.com/ktxref/ktxref/internal/indexer/parsers"
	"github.com/ktxref/ktxref/internal/resolver"
	"github.com/ktxref/ktxref/internal/source"
)

// fileResult carries one extracted file from a worker to the merger.
type fileResult struct {
	facts     *facts.FileFacts
	accessors map[string][]string
	err       error
	path      string
}

// Engine owns the index lifecycle. After a build the snapshot is frozen;
// reads never block and never observe a partial index.
type Engine struct {
	cfg      *config.Config
	reader   *source.Reader
	progress ProgressReporter
	snap     atomic.Pointer[index.Snapshot]
}

// New creates an engine. No index exists until the first Reindex.
func New(cfg *config.Config, reader *source.Reader) *Engine {
	return &Engine{
		cfg:      cfg,
		reader:   reader,
		progress: &NoOpProgressReporter{},
	}
}

// SetProgress installs a progress reporter for CLI feedback.
func (e *Engine) SetProgress(p ProgressReporter) {
	if p != nil {
		e.progress = p
	}
}

// Snapshot returns the current sealed snapshot, nil before the first build.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.snap.Load()
}

// Resolver returns a resolver bound to the current snapshot, nil before the
// first build.
func (e *Engine) Resolver() *resolver.Resolver {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	return resolver.New(snap, e.reader)
}

// Reindex performs a full rebuild and atomically swaps the new snapshot in.
// A cancelled build discards its partial result; the previous snapshot
// stays live until the swap.
func (e *Engine) Reindex(ctx context.Context) (index.Stats, error) {
	start := time.Now()

	e.progress.OnDiscoveryStart()
	fd, err := NewFileDiscovery(e.cfg.Root, e.cfg.SkipDirs, e.cfg.IgnorePatterns)
	if err != nil {
		return index.Stats{}, fmt.Errorf("failed to configure discovery: %w", err)
	}
	files, err := fd.DiscoverFiles()
	if err != nil {
		return index.Stats{}, fmt.Errorf("failed to discover files in %s: %w", e.cfg.Root, err)
	}
	e.progress.OnDiscoveryComplete(len(files))

	e.progress.OnExtractionStart(len(files))
	results := make(chan fileResult, e.cfg.Workers)

	// Extraction workers. Each worker owns its own extractors: grammar
	// instances are not shared across threads.
	g, gctx := errgroup.WithContext(ctx)
	paths := make(chan string)
	g.Go(func() error {
		defer close(paths)
		for _, path := range files {
			select {
			case paths <- path:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			extractors := map[facts.Language]parsers.Extractor{
				facts.LangKotlin: parsers.NewKotlinExtractor(),
				facts.LangJava:   parsers.NewJavaExtractor(),
			}
			for path := range paths {
				res := extractFile(path, extractors)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Single merger consumes completed facts. It is the sole writer.
	builder := index.NewBuilder()
	mergeDone := make(chan struct{})
	go func() {
		defer close(mergeDone)
		for res := range results {
			if res.err != nil {
				log.Printf("[INDEX] skipping %s: %v", res.path, res.err)
				builder.AddError(res.path, res.err)
			} else {
				builder.AddFile(res.facts, res.accessors)
			}
			e.progress.OnFileProcessed(res.path)
		}
	}()

	err = g.Wait()
	close(results)
	<-mergeDone
	if err != nil {
		return index.Stats{}, err
	}

	snap := builder.Seal()
	e.snap.Store(snap)
	e.reader.Invalidate()

	stats := snap.Stats()
	e.progress.OnComplete(stats, time.Since(start))
	log.Printf("[INDEX] %s in %v", stats, time.Since(start).Round(time.Millisecond))
	return stats, nil
}

// extractFile reads and extracts one file. Parse errors are not fatal:
// extraction is best-effort on partial trees. I/O errors skip the file.
func extractFile(path string, extractors map[facts.Language]parsers.Extractor) fileResult {
	lang, ok := parsers.DetectLanguage(path)
	if !ok {
		return fileResult{path: path, err: fmt.Errorf("unsupported language")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}

	ff, err := extractors[lang].Extract(path, data)
	if err != nil {
		return fileResult{path: path, err: err}
	}

	var accessors map[string][]string
	if lang == facts.LangJava {
		accessors = lombok.Expand(ff)
	}

	return fileResult{path: path, facts: ff, accessors: accessors}
}
