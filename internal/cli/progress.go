package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ktxref/ktxref/internal/index"
)

// barReporter renders indexing progress with a progress bar on stderr.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func newBarReporter() *barReporter {
	return &barReporter{}
}

func (r *barReporter) OnDiscoveryStart() {
	fmt.Fprintln(os.Stderr, "Discovering source files...")
}

func (r *barReporter) OnDiscoveryComplete(files int) {
	fmt.Fprintf(os.Stderr, "Found %d Kotlin/Java files\n", files)
}

func (r *barReporter) OnExtractionStart(totalFiles int) {
	r.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) OnFileProcessed(fileName string) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *barReporter) OnComplete(stats index.Stats, elapsed time.Duration) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintf(os.Stderr, "Done in %v: %s\n", elapsed.Round(time.Millisecond), stats)
}
