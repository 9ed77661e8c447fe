// Package cmd defines the command-line interface for commitmap.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeResetCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeRunsCmd)

	// Add the query subcommands to the parent query command
	queryCmd.AddCommand(queryFileCmd)
	queryCmd.AddCommand(queryCommitCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql (mysql skips paths over 700 characters)")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string (sqlite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", string(schema.TextLog), "Log format: text or json")
	rootCmd.PersistentFlags().String("log-dir", "", "Also append logs to a dated file in this directory")
	rootCmd.PersistentFlags().String("output", string(schema.TableOut), "Output format: table or json or csv")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of populateCmd to Viper
	populateCmd.Flags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	populateCmd.Flags().Int("chunk-size", contract.DefaultChunkSize, "Files per chunk")
	populateCmd.Flags().Int("group-size", contract.DefaultGroupSize, "Chunks per worker task")
	populateCmd.Flags().Int("batch-size", contract.DefaultBatchSize, "Rows per store transaction")
	populateCmd.Flags().Int("retries", contract.DefaultRetries, "Attempts per batch when the store is locked")
	populateCmd.Flags().Bool("reset", false, "Drop all commits, files and relations before populating")
	populateCmd.Flags().Bool("ask", false, "Prompt whether to reset the store before populating")
	populateCmd.Flags().String("file-source", string(schema.TreeSource), "File source: tree (tracked files) or walk (working directory)")
	populateCmd.Flags().String("include", "", "Comma-separated list of glob patterns to keep")
	populateCmd.Flags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	populateCmd.Flags().String("mirror-dir", "", "Write each file's raw git log under this directory")
	if err := viper.BindPFlags(populateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding populate flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// Flags local to a single command are read directly
	storeResetCmd.Flags().Bool("force", false, "Reset without prompting")
	storeRunsCmd.Flags().Int("limit", 0, "Number of runs to display (0 = all)")
	queryFileCmd.Flags().IntP("limit", "l", 0, "Number of commits to display (0 = all)")
}
