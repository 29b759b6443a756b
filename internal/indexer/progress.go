package indexer

import (
	"time"

	"github.com/ktxref/ktxref/internal/index"
)

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnExtractionStart is called before extracting files.
	OnExtractionStart(totalFiles int)

	// OnFileProcessed is called after each file is merged.
	OnFileProcessed(fileName string)

	// OnComplete is called when the new snapshot is live.
	OnComplete(stats index.Stats, elapsed time.Duration)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart() {}

func (n *NoOpProgressReporter) OnDiscoveryComplete(files int) {}

func (n *NoOpProgressReporter) OnExtractionStart(totalFiles int) {}

func (n *NoOpProgressReporter) OnFileProcessed(fileName string) {}

func (n *NoOpProgressReporter) OnComplete(stats index.Stats, elapsed time.Duration) {}
