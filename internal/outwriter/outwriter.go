// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRunSummary prints the outcome of a populate run.
func (ow *OutWriter) WriteRunSummary(summary *schema.RunSummary, cfg *contract.Config) error {
	return PrintRunSummary(summary, cfg)
}

// WriteStatus prints the store status.
func (ow *OutWriter) WriteStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return PrintStoreStatus(status, cfg)
}

// WriteRuns prints recorded populate runs.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return PrintRuns(runs, cfg)
}

// WriteFileCommits prints the commits that touched path.
func (ow *OutWriter) WriteFileCommits(path string, commits []schema.CommitRecord, cfg *contract.Config) error {
	return PrintFileCommits(path, commits, cfg)
}

// WriteCommitFiles prints the files a commit touched.
func (ow *OutWriter) WriteCommitFiles(hash string, files []string, cfg *contract.Config) error {
	return PrintCommitFiles(hash, files, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for a path column
// given the width taken by the other columns of a table.
func GetMaxTablePathWidth(cfg *contract.Config, fixedWidth int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - fixedWidth - 10
	if available < 15 {
		return 15
	}
	if available > 100 {
		return 100
	}
	return available
}
