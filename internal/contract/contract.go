// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/commitmap/schema"
)

// GitClient defines the git operations needed to extract history.
// This allows the extraction logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its standard output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetLog returns the default-format `git log -- <path>` text for one path.
	// Use schema.RootPath for the history of the whole repository.
	GetLog(ctx context.Context, repoPath string, path string) (string, error)
}

// FileLister enumerates the files whose history should be extracted.
type FileLister interface {
	ListFiles(ctx context.Context, repoPath string) ([]string, error)
}

// LogMirror receives the raw log text of every processed file.
type LogMirror interface {
	Write(path string, text string) error
}

// StoreManager defines the interface for reaching the relation store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRelationStore() RelationStore
}

// RelationStore defines the persistence operations for commits, files and their relations.
type RelationStore interface {
	// UpsertCommits inserts commits in one transaction, ignoring hashes that already exist.
	UpsertCommits(ctx context.Context, batch []schema.CommitRecord) error

	// UpsertFiles inserts file paths in one transaction, ignoring paths that already exist.
	UpsertFiles(ctx context.Context, batch []string) error

	// UpsertRelations inserts commit/file pairs in one transaction, ignoring existing pairs.
	// Both endpoints must already exist.
	UpsertRelations(ctx context.Context, batch []schema.Relation) error

	// Reset drops and recreates the commits, files and relation tables.
	Reset(ctx context.Context) error

	// RecordRun stores the summary of a finished populate run.
	RecordRun(ctx context.Context, summary *schema.RunSummary) error

	// FileCommits returns the commits that touched a path, newest first by stored date.
	FileCommits(ctx context.Context, path string, limit int) ([]schema.CommitRecord, error)

	// CommitFiles returns the paths touched by a commit.
	CommitFiles(ctx context.Context, hash string) ([]string, error)

	// AllCommits, AllFiles, AllRelations and AllRuns read whole tables for export.
	AllCommits(ctx context.Context) ([]schema.CommitRecord, error)
	AllFiles(ctx context.Context) ([]string, error)
	AllRelations(ctx context.Context) ([]schema.Relation, error)
	AllRuns(ctx context.Context) ([]schema.RunRecord, error)

	// GetStatus returns row counts and connection information.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
