package iostore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huangsam/commitmap/schema"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// createTables creates every table idempotently.
func (s *RelationStoreImpl) createTables(ctx context.Context) error {
	return s.createTablesWith(ctx, s.db, []string{commitsTable, filesTable, relationsTable, runsTable})
}

// createTablesWith runs CREATE TABLE IF NOT EXISTS for the named tables, in order.
func (s *RelationStoreImpl) createTablesWith(ctx context.Context, ex execer, tables []string) error {
	for _, table := range tables {
		if _, err := ex.ExecContext(ctx, s.createTableQuery(table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// createTableQuery returns the CREATE TABLE query for one table on this backend.
func (s *RelationStoreImpl) createTableQuery(table string) string {
	switch table {
	case commitsTable:
		return createCommitsQuery(s.backend)
	case filesTable:
		return createFilesQuery(s.backend)
	case relationsTable:
		return createRelationsQuery(s.backend)
	default:
		return createRunsQuery(s.backend)
	}
}

func createCommitsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(commitsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				commit_hash CHAR(40) NOT NULL PRIMARY KEY,
				author TEXT,
				date VARCHAR(64),
				message MEDIUMTEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				commit_hash CHAR(40) NOT NULL PRIMARY KEY,
				author TEXT,
				date TEXT,
				message TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				commit_hash TEXT NOT NULL PRIMARY KEY,
				author TEXT,
				date TEXT,
				message TEXT
			);
		`, quoted)
	}
}

func createFilesQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(filesTable, backend)
	switch backend {
	case schema.MySQLBackend:
		// 700 utf8mb4 chars keeps the relation unique key under the 3072 byte index limit.
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path VARCHAR(%d) NOT NULL PRIMARY KEY
			);
		`, quoted, schema.MySQLMaxPathLength)

	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path TEXT NOT NULL PRIMARY KEY
			);
		`, quoted)
	}
}

func createRelationsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(relationsTable, backend)
	commits := quoteTableName(commitsTable, backend)
	files := quoteTableName(filesTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				commit_hash CHAR(40) NOT NULL,
				file_path VARCHAR(%d) NOT NULL,
				UNIQUE KEY uq_commit_file (commit_hash, file_path),
				KEY idx_file_path (file_path),
				FOREIGN KEY (commit_hash) REFERENCES %s (commit_hash),
				FOREIGN KEY (file_path) REFERENCES %s (path)
			);
		`, quoted, schema.MySQLMaxPathLength, commits, files)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				commit_hash CHAR(40) NOT NULL REFERENCES %s (commit_hash),
				file_path TEXT NOT NULL REFERENCES %s (path),
				UNIQUE (commit_hash, file_path)
			);
		`, quoted, commits, files)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				commit_hash TEXT NOT NULL REFERENCES %s (commit_hash),
				file_path TEXT NOT NULL REFERENCES %s (path),
				UNIQUE (commit_hash, file_path)
			);
		`, quoted, commits, files)
	}
}

func createRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) NOT NULL PRIMARY KEY,
				repo_path TEXT NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6) NOT NULL,
				duration_ms BIGINT NOT NULL,
				files_total INT NOT NULL,
				files_succeeded INT NOT NULL,
				files_skipped INT NOT NULL,
				files_failed INT NOT NULL,
				batches_failed INT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) NOT NULL PRIMARY KEY,
				repo_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ NOT NULL,
				duration_ms BIGINT NOT NULL,
				files_total INT NOT NULL,
				files_succeeded INT NOT NULL,
				files_skipped INT NOT NULL,
				files_failed INT NOT NULL,
				batches_failed INT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL PRIMARY KEY,
				repo_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				files_total INTEGER NOT NULL,
				files_succeeded INTEGER NOT NULL,
				files_skipped INTEGER NOT NULL,
				files_failed INTEGER NOT NULL,
				batches_failed INTEGER NOT NULL
			);
		`, quoted)
	}
}
