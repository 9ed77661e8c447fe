package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/iostore"
	"github.com/huangsam/commitmap/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// closeLogger releases the dated log file, if one was opened.
var closeLogger = func() {}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "commitmap",
	Short: "Map which commits touched which files of a Git repository.",
	Long: `Commitmap walks the history of every file in a Git repository and stores
commits, files and the commit/file relation in SQLite, MySQL or PostgreSQL.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("COMMITMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("chunk-size", contract.DefaultChunkSize)
	viper.SetDefault("group-size", contract.DefaultGroupSize)
	viper.SetDefault("batch-size", contract.DefaultBatchSize)
	viper.SetDefault("retries", contract.DefaultRetries)
	viper.SetDefault("file-source", schema.TreeSource)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", schema.TextLog)
	viper.SetDefault("output", schema.TableOut)
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".commitmap") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// readInput merges defaults, config file, env and flags into input.
func readInput(args []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	// Positional arguments are not handled by Viper.
	if len(args) == 1 {
		input.RepoPathStr = args[0]
	} else {
		input.RepoPathStr = "."
	}

	useColor, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		return err
	}
	if !useColor {
		color.NoColor = true
	}
	return nil
}

// setupLogging installs the process logger from the validated config.
func setupLogging() error {
	closeFn, err := contract.SetupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogDir)
	if err != nil {
		return &contract.SetupFailure{Stage: "logging", Err: err}
	}
	closeLogger = closeFn
	return nil
}

// initStore opens the global relation store with the validated config.
func initStore() error {
	opts := []iostore.Option{iostore.WithRetries(cfg.Retries)}
	if cfg.BatchSize > 0 {
		opts = append(opts, iostore.WithMaxBatchSize(cfg.BatchSize))
	}
	if err := iostore.InitStores(cfg.StoreBackend, cfg.StoreDBConnect, opts...); err != nil {
		return &contract.SetupFailure{Stage: "store", Err: err}
	}
	return nil
}

// sharedSetup unmarshals config and runs validation for populate.
func sharedSetup(ctx context.Context, _ *cobra.Command, args []string) error {
	if err := readInput(args); err != nil {
		return err
	}

	client := contract.NewLocalGitClient()
	if err := contract.ProcessAndValidate(ctx, cfg, client, input); err != nil {
		return &contract.SetupFailure{Stage: "configuration", Err: err}
	}
	if err := setupLogging(); err != nil {
		return err
	}
	return initStore()
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// storeSetup validates store, logging and output settings without a repository.
// The store is only opened when openStore is set.
func storeSetup(openStore bool) error {
	if err := readInput(nil); err != nil {
		return err
	}
	if err := contract.ValidateStoreInputs(cfg, input); err != nil {
		return &contract.SetupFailure{Stage: "configuration", Err: err}
	}
	cfg.Retries = max(input.Retries, 1)
	if err := setupLogging(); err != nil {
		return err
	}
	if !openStore {
		return nil
	}
	return initStore()
}

// storeSetupWrapper opens the store for commands that read or write it.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup(true)
}

// Execute runs the root command with ctx as the root context.
func Execute(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown closes the store and the log file.
func Shutdown() {
	iostore.CloseStores()
	closeLogger()
}
