package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/huangsam/commitmap/core"
	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/iostore"
	"github.com/huangsam/commitmap/internal/logmirror"
	"github.com/huangsam/commitmap/internal/outwriter"
)

// populateCmd extracts the history of every file and persists it.
var populateCmd = &cobra.Command{
	Use:   "populate [repo-path]",
	Short: "Extract commits per file and persist the commit/file relation.",
	Long: `Populate lists the files of a repository, reads the history of each file
with git log and stores commits, files and the relation between them.

Files are split into chunks, chunks are grouped into tasks and a pool of
workers processes the tasks. Every chunk is written in batches of at most
--batch-size rows, one transaction per batch. A failed batch is reported in
the summary and does not stop the run.

Examples:
  # Populate the default SQLite store from the current repository
  commitmap populate

  # Start from an empty store, using 8 workers
  commitmap populate ~/src/project --reset --workers 8

  # Only Go files, keeping a copy of each raw log
  commitmap populate --include '**/*.go' --exclude vendor/ --mirror-dir /tmp/logs

  # Write into PostgreSQL and print the summary as JSON
  commitmap populate --store-backend postgresql \
    --store-db-connect 'host=localhost dbname=commitmap user=app' --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runPopulate(rootCtx)
	},
}

func runPopulate(ctx context.Context) error {
	if cfg.Ask {
		reset, err := confirmReset(cfg.Reset)
		if err != nil {
			return &contract.SetupFailure{Stage: "prompt", Err: err}
		}
		cfg.Reset = reset
	}

	var mirror contract.LogMirror
	if cfg.MirrorDir != "" {
		m, err := logmirror.New(cfg.MirrorDir)
		if err != nil {
			return &contract.SetupFailure{Stage: "log mirror", Err: err}
		}
		mirror = m
	}

	slog.Info("Populating store", "repo", cfg.RepoPath, "backend", cfg.StoreBackend, "workers", cfg.Workers, "reset", cfg.Reset)
	summary, err := core.Populate(ctx, cfg,
		contract.NewLocalGitClient(),
		core.FileListerFor(cfg.FileSource),
		iostore.Manager.GetRelationStore(),
		mirror,
	)
	if summary != nil {
		if werr := outwriter.NewOutWriter().WriteRunSummary(summary, cfg); werr != nil {
			contract.LogWarn("Failed to write run summary", werr)
		}
	}
	return err
}

// confirmReset asks whether to reset the store. Without a terminal the
// --reset value is kept.
func confirmReset(fallback bool) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		contract.LogWarn("Cannot prompt for reset", fmt.Errorf("stdin is not a terminal, using --reset=%t", fallback))
		return fallback, nil
	}
	reset := fallback
	prompt := &survey.Confirm{
		Message: "Reset the store before populating? This drops all commits, files and relations.",
		Default: fallback,
	}
	if err := survey.AskOne(prompt, &reset); err != nil {
		return false, err
	}
	return reset, nil
}
