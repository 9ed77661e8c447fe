package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/huangsam/commitmap/schema"
)

// Reset drops the relation, commit and file tables and creates them again empty.
// The runs table is left alone.
func (s *RelationStoreImpl) Reset(ctx context.Context) error {
	tables := []string{relationsTable, commitsTable, filesTable}
	recreate := []string{commitsTable, filesTable, relationsTable}

	drop := func(ex execer) error {
		for _, table := range tables {
			if _, err := ex.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table(table))); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return s.createTablesWith(ctx, ex, recreate)
	}

	// MySQL commits DDL implicitly, so a transaction buys nothing there.
	if s.backend == schema.MySQLBackend {
		return drop(s.db)
	}
	return s.runTx(ctx, func(tx *sql.Tx) error { return drop(tx) })
}

// RecordRun stores one row describing a finished populate run.
func (s *RelationStoreImpl) RecordRun(ctx context.Context, summary *schema.RunSummary) error {
	if summary == nil {
		return errors.New("run summary cannot be nil")
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, repo_path, start_time, end_time, duration_ms,
		files_total, files_succeeded, files_skipped, files_failed, batches_failed)
		VALUES (%s)`, s.table(runsTable), s.placeholders(10))

	_, err := s.db.ExecContext(ctx, query,
		summary.RunID, summary.RepoPath,
		formatTime(summary.StartTime, s.backend), formatTime(summary.EndTime, s.backend),
		summary.Duration().Milliseconds(),
		summary.FilesTotal, summary.FilesSucceeded, summary.FilesSkipped, summary.FilesFailed,
		summary.BatchesFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", summary.RunID, err)
	}
	return nil
}

// FileCommits returns the commits related to path, newest stored date first.
// A limit of zero or less returns every commit.
func (s *RelationStoreImpl) FileCommits(ctx context.Context, path string, limit int) ([]schema.CommitRecord, error) {
	query := fmt.Sprintf(`SELECT c.commit_hash, c.author, c.date, c.message
		FROM %s c JOIN %s r ON r.commit_hash = c.commit_hash
		WHERE r.file_path = %s
		ORDER BY c.date DESC, c.commit_hash`,
		s.table(commitsTable), s.table(relationsTable), s.placeholder(1))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits for %q: %w", path, err)
	}
	defer func() { _ = rows.Close() }()
	return scanCommits(rows)
}

// CommitFiles returns the paths related to hash in path order.
func (s *RelationStoreImpl) CommitFiles(ctx context.Context, hash string) ([]string, error) {
	query := fmt.Sprintf(`SELECT file_path FROM %s WHERE commit_hash = %s ORDER BY file_path`,
		s.table(relationsTable), s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query files for %s: %w", hash, err)
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

// AllCommits returns every stored commit ordered by hash.
func (s *RelationStoreImpl) AllCommits(ctx context.Context) ([]schema.CommitRecord, error) {
	query := fmt.Sprintf(`SELECT commit_hash, author, date, message FROM %s ORDER BY commit_hash`, s.table(commitsTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanCommits(rows)
}

// AllFiles returns every stored path in order.
func (s *RelationStoreImpl) AllFiles(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT path FROM %s ORDER BY path`, s.table(filesTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

// AllRelations returns every stored pair in insertion order.
func (s *RelationStoreImpl) AllRelations(ctx context.Context) ([]schema.Relation, error) {
	query := fmt.Sprintf(`SELECT commit_hash, file_path FROM %s ORDER BY id`, s.table(relationsTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Relation
	for rows.Next() {
		var r schema.Relation
		if err := rows.Scan(&r.CommitHash, &r.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relations: %w", err)
	}
	return results, nil
}

// AllRuns returns every recorded run, oldest first.
func (s *RelationStoreImpl) AllRuns(ctx context.Context) ([]schema.RunRecord, error) {
	query := fmt.Sprintf(`SELECT run_id, repo_path, start_time, end_time, duration_ms,
		files_total, files_succeeded, files_skipped, files_failed, batches_failed
		FROM %s ORDER BY start_time, run_id`, s.table(runsTable))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var r schema.RunRecord
		switch s.backend {
		case schema.SQLiteBackend:
			var startStr, endStr string
			if err := rows.Scan(&r.RunID, &r.RepoPath, &startStr, &endStr, &r.DurationMs,
				&r.FilesTotal, &r.FilesSucceeded, &r.FilesSkipped, &r.FilesFailed, &r.BatchesFailed); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if r.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if r.EndTime, err = time.Parse(time.RFC3339Nano, endStr); err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
		default: // MySQL and PostgreSQL store as native datetime
			if err := rows.Scan(&r.RunID, &r.RepoPath, &r.StartTime, &r.EndTime, &r.DurationMs,
				&r.FilesTotal, &r.FilesSucceeded, &r.FilesSkipped, &r.FilesFailed, &r.BatchesFailed); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetStatus returns row counts, the latest run and an approximate on-disk size.
func (s *RelationStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	counts := []struct {
		table string
		dest  *int64
	}{
		{commitsTable, &status.Commits},
		{filesTable, &status.Files},
		{relationsTable, &status.Relations},
		{runsTable, &status.Runs},
	}
	for _, c := range counts {
		row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table(c.table)))
		if err := row.Scan(c.dest); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", c.table, err)
		}
	}

	if status.Runs > 0 {
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", s.table(runsTable))
		row := s.db.QueryRowContext(ctx, lastRunQuery)
		switch s.backend {
		case schema.SQLiteBackend:
			var lastRunTimeStr string
			if err := row.Scan(&status.LastRunID, &lastRunTimeStr); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
			lastRunTime, err := time.Parse(time.RFC3339Nano, lastRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last run time: %w", err)
			}
			status.LastRunTime = lastRunTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastRunID, &status.LastRunTime); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
		}
	}

	status.TableSizeBytes = s.estimateSize(ctx, status)
	return status, nil
}

// estimateSize asks the database for its footprint, falling back to a rough per-row estimate.
func (s *RelationStoreImpl) estimateSize(ctx context.Context, status schema.StoreStatus) int64 {
	fallback := (status.Commits + status.Files + status.Relations) * 256
	var size sql.NullInt64

	switch s.backend {
	case schema.SQLiteBackend:
		row := s.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return fallback
		}

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		query := `SELECT SUM(data_length + index_length) FROM information_schema.tables
			WHERE table_schema = ? AND table_name IN (?, ?, ?)`
		row := s.db.QueryRowContext(ctx, query, cfg.DBName, commitsTable, filesTable, relationsTable)
		if err := row.Scan(&size); err != nil {
			return fallback
		}

	case schema.PostgreSQLBackend:
		query := `SELECT pg_total_relation_size($1) + pg_total_relation_size($2) + pg_total_relation_size($3)`
		row := s.db.QueryRowContext(ctx, query,
			s.table(commitsTable), s.table(filesTable), s.table(relationsTable))
		if err := row.Scan(&size); err != nil {
			return fallback
		}
	}

	if !size.Valid {
		return fallback
	}
	return size.Int64
}

func scanCommits(rows *sql.Rows) ([]schema.CommitRecord, error) {
	var results []schema.CommitRecord
	for rows.Next() {
		var c schema.CommitRecord
		if err := rows.Scan(&c.Hash, &c.Author, &c.Date, &c.Message); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		// Stored dates are RFC3339 when the original header was understood.
		if t, err := time.Parse(time.RFC3339, c.Date); err == nil {
			c.When = t
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commits: %w", err)
	}
	return results, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var results []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}
