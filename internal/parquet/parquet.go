// Package parquet provides data structures and functions for exporting the commit/file
// relation store to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/commitmap/schema"
)

// Commit maps to the commits table.
type Commit struct {
	CommitHash string     `parquet:"commit_hash,snappy"`
	Author     string     `parquet:"author,snappy"`
	Date       string     `parquet:"date,snappy"`
	When       *time.Time `parquet:"when,optional,snappy"` // nil when the stored date is not RFC3339
	Message    string     `parquet:"message,snappy"`
}

// File maps to the files table.
type File struct {
	Path string `parquet:"path,snappy"`
}

// Relation maps to the commits_X_files table.
type Relation struct {
	CommitHash string `parquet:"commit_hash,snappy"`
	FilePath   string `parquet:"file_path,snappy"`
}

// Run represents one populate run.
// This struct maps to the commitmap_runs table.
type Run struct {
	RunID          string    `parquet:"run_id,snappy"`
	RepoPath       string    `parquet:"repo_path,snappy"`
	StartTime      time.Time `parquet:"start_time,snappy"`
	EndTime        time.Time `parquet:"end_time,snappy"`
	DurationMs     int64     `parquet:"duration_ms,snappy"`
	FilesTotal     int32     `parquet:"files_total,snappy"`
	FilesSucceeded int32     `parquet:"files_succeeded,snappy"`
	FilesSkipped   int32     `parquet:"files_skipped,snappy"`
	FilesFailed    int32     `parquet:"files_failed,snappy"`
	BatchesFailed  int32     `parquet:"batches_failed,snappy"`
}

// WriteParquet writes rows to a new Parquet file at outputPath.
// The schema is derived from the struct tags of T.
func WriteParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertCommits converts stored commits to Parquet rows.
func ConvertCommits(records []schema.CommitRecord) []Commit {
	result := make([]Commit, len(records))
	for i, r := range records {
		result[i] = Commit{
			CommitHash: r.Hash,
			Author:     r.Author,
			Date:       r.Date,
			Message:    r.Message,
		}
		if !r.When.IsZero() {
			when := r.When
			result[i].When = &when
		}
	}
	return result
}

// ConvertFiles converts stored paths to Parquet rows.
func ConvertFiles(paths []string) []File {
	result := make([]File, len(paths))
	for i, p := range paths {
		result[i] = File{Path: p}
	}
	return result
}

// ConvertRelations converts stored pairs to Parquet rows.
func ConvertRelations(records []schema.Relation) []Relation {
	result := make([]Relation, len(records))
	for i, r := range records {
		result[i] = Relation{CommitHash: r.CommitHash, FilePath: r.FilePath}
	}
	return result
}

// ConvertRuns converts schema.RunRecord to Run for Parquet export.
func ConvertRuns(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:          r.RunID,
			RepoPath:       r.RepoPath,
			StartTime:      r.StartTime,
			EndTime:        r.EndTime,
			DurationMs:     r.DurationMs,
			FilesTotal:     int32(r.FilesTotal),
			FilesSucceeded: int32(r.FilesSucceeded),
			FilesSkipped:   int32(r.FilesSkipped),
			FilesFailed:    int32(r.FilesFailed),
			BatchesFailed:  int32(r.BatchesFailed),
		}
	}
	return result
}
