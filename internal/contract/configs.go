package contract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/commitmap/schema"
)

// Default values for configuration.
const (
	DefaultWorkers   = 5
	DefaultChunkSize = 1000
	DefaultGroupSize = 5
	DefaultBatchSize = 1000
	DefaultRetries   = 3

	// MaxBatchSize is the largest number of rows a single store call accepts.
	MaxBatchSize = 1000
)

// Config holds the runtime configuration for a populate run.
// This struct is the "final, validated" config.
type Config struct {
	RepoPath string

	Workers   int
	ChunkSize int // files per chunk
	GroupSize int // chunks per worker task
	BatchSize int // rows per store transaction
	Retries   int // attempts on lock contention

	Reset bool
	Ask   bool

	FileSource schema.FileSource
	Includes   []string
	Excludes   []string

	MirrorDir string // empty disables the log mirror

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	LogLevel  slog.Level
	LogFormat schema.LogFormat
	LogDir    string // empty disables the dated log file

	Output     schema.OutputFormat
	OutputFile string // empty means stdout
	Width      int    // terminal width override, 0 detects it
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	LogDir         string `mapstructure:"log-dir"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`

	// --- Fields from populateCmd.Flags() ---
	Workers    int    `mapstructure:"workers"`
	ChunkSize  int    `mapstructure:"chunk-size"`
	GroupSize  int    `mapstructure:"group-size"`
	BatchSize  int    `mapstructure:"batch-size"`
	Retries    int    `mapstructure:"retries"`
	Reset      bool   `mapstructure:"reset"`
	Ask        bool   `mapstructure:"ask"`
	FileSource string `mapstructure:"file-source"`
	Include    string `mapstructure:"include"`
	Exclude    string `mapstructure:"exclude"`
	MirrorDir  string `mapstructure:"mirror-dir"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := ValidateStoreInputs(cfg, input); err != nil {
		return err
	}
	if err := resolveGitPath(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// ValidateStoreInputs validates the store, logging and output fields only.
// Store subcommands use it without needing a repository.
func ValidateStoreInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = schema.LogFormat(strings.ToLower(input.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = schema.TextLog
	}
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}
	cfg.LogDir = input.LogDir

	cfg.Output = schema.OutputFormat(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TableOut
	}
	if _, ok := schema.ValidOutputFormats[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be table, json, csv", input.Output)
	}
	cfg.OutputFile = strings.TrimSpace(input.OutputFile)
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the pool, batching and file selection fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Reset = input.Reset
	cfg.Ask = input.Ask
	cfg.MirrorDir = strings.TrimSpace(input.MirrorDir)

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.ChunkSize <= 0 {
		return fmt.Errorf("chunk-size must be greater than 0 (received %d)", input.ChunkSize)
	}
	cfg.ChunkSize = input.ChunkSize

	if input.GroupSize <= 0 {
		return fmt.Errorf("group-size must be greater than 0 (received %d)", input.GroupSize)
	}
	cfg.GroupSize = input.GroupSize

	if input.BatchSize <= 0 || input.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch-size must be greater than 0 and cannot exceed %d (received %d)", MaxBatchSize, input.BatchSize)
	}
	cfg.BatchSize = input.BatchSize

	if input.Retries < 1 {
		return fmt.Errorf("retries must be at least 1 (received %d)", input.Retries)
	}
	cfg.Retries = input.Retries

	cfg.FileSource = schema.FileSource(strings.ToLower(input.FileSource))
	if cfg.FileSource == "" {
		cfg.FileSource = schema.TreeSource
	}
	if _, ok := schema.ValidFileSources[cfg.FileSource]; !ok {
		return fmt.Errorf("invalid file source '%s'. must be tree, walk", input.FileSource)
	}

	cfg.Includes = SplitList(input.Include)
	cfg.Excludes = SplitList(input.Exclude)
	return nil
}

// resolveGitPath resolves the Git repository root from the positional argument.
func resolveGitPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	if statErr != nil {
		return fmt.Errorf("repository path %q is not accessible: %w", searchPath, statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf("repository path %q is not a directory", searchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, absSearchPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}
