package indexer

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ktxref/ktxref/internal/indexer/parsers"
)

// watchDebounce batches rapid change bursts (saves, branch switches) into
// one rebuild.
const watchDebounce = 500 * time.Millisecond

// Watch observes the source tree and triggers a full rebuild when Kotlin or
// Java files change. There is no incremental reparse: a change event only
// schedules the next atomic rebuild. Blocks until the context is cancelled.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	skip := make(map[string]bool, len(e.cfg.SkipDirs))
	for _, name := range e.cfg.SkipDirs {
		skip[name] = true
	}

	addDirs := func() error {
		return filepath.WalkDir(e.cfg.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != e.cfg.Root && (skip[name] || len(name) > 1 && name[0] == '.') {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err := addDirs(); err != nil {
		return err
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// A new directory needs watching; re-walking is cheap
				// relative to the rebuild it precedes.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addDirs()
				}
			}
			if _, ok := parsers.DetectLanguage(event.Name); ok {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WATCH] %v", err)
		case <-pending:
			if _, err := e.Reindex(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[WATCH] reindex failed: %v", err)
			}
		}
	}
}
