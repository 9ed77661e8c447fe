package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/iostore"
	"github.com/huangsam/commitmap/internal/outwriter"
)

// storeCmd is the parent command for store maintenance.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the commit/file relation store.",
	Long:  `The store command provides subcommands to inspect, reset, migrate and export the relation store.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// storeStatusCmd prints row counts and the last run.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show relation store status.",
	Long: `Display the backend, row counts per table, estimated size and the most
recent populate run.

Examples:
  # Status of the default SQLite store
  commitmap store status

  # Status of a MySQL store as JSON
  commitmap store status --store-backend mysql \
    --store-db-connect 'user:pass@tcp(localhost:3306)/commitmap' --output json`,
	PreRunE: storeSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		return outwriter.NewOutWriter().WriteStatus(status, cfg)
	},
}

// storeResetCmd drops all commits, files and relations.
var storeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all commits, files and relations.",
	Long: `Reset empties the commits, files and relation tables. Recorded runs are kept.

Without --force the command asks for confirmation, and refuses to run when
stdin is not a terminal.`,
	PreRunE: storeSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			ok, err := confirmStoreReset()
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("Reset cancelled.")
				return nil
			}
		}
		store, err := requireStore()
		if err != nil {
			return err
		}
		if err := store.Reset(rootCtx); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
		cmd.Printf("Store reset (%s).\n", cfg.StoreBackend)
		return nil
	},
}

// storeMigrateCmd runs the embedded schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations on the relation store.",
	Long: `Apply the embedded schema migrations for the configured backend.

Examples:
  # Migrate to the latest version
  commitmap store migrate

  # Roll back every migration
  commitmap store migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return storeSetup(false)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		target := viper.GetInt("target-version")
		result, err := iostore.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, target)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if !result.Changed {
			cmd.Printf("Store already at version %d (%s).\n", result.ToVersion, cfg.StoreBackend)
			return nil
		}
		cmd.Printf("Migrated %s store from version %d to %d.\n", cfg.StoreBackend, result.FromVersion, result.ToVersion)
		return nil
	},
}

// storeExportCmd writes every table to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the relation store to Parquet files.",
	Long: `Write the commits, files, relation and runs tables to Parquet files named
<prefix>.<table>.parquet, where the prefix is given by --output-file.

Examples:
  commitmap store export --output-file /tmp/project`,
	PreRunE: storeSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := requireStore()
		if err != nil {
			return err
		}
		exported, err := iostore.ExportParquet(rootCtx, store, cfg.OutputFile)
		if err != nil {
			return err
		}
		for _, t := range exported {
			cmd.Printf("Wrote %d rows of %s to %s\n", t.Rows, t.Table, t.Path)
		}
		return nil
	},
}

// storeRunsCmd lists recorded populate runs.
var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded populate runs, newest first.",
	Long: `Show every recorded populate run with its outcome counters.

Examples:
  # The five most recent runs
  commitmap store runs --limit 5`,
	PreRunE: storeSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return fmt.Errorf("limit cannot be negative (received %d)", limit)
		}
		store, err := requireStore()
		if err != nil {
			return err
		}
		runs, err := store.AllRuns(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		slices.Reverse(runs)
		if limit > 0 && limit < len(runs) {
			runs = runs[:limit]
		}
		return outwriter.NewOutWriter().WriteRuns(runs, cfg)
	},
}

// requireStore returns the global relation store.
func requireStore() (contract.RelationStore, error) {
	store := iostore.Manager.GetRelationStore()
	if store == nil {
		return nil, errors.New("relation store is not initialized")
	}
	return store, nil
}

func confirmStoreReset() (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to reset without a terminal; pass --force")
	}
	var ok bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Delete all commits, files and relations from the %s store?", cfg.StoreBackend),
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
