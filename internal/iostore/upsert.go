package iostore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// UpsertCommits inserts commits in one transaction. Existing hashes keep their first-written values.
func (s *RelationStoreImpl) UpsertCommits(ctx context.Context, batch []schema.CommitRecord) error {
	return s.inBatch(ctx, schema.OpCommits, len(batch), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.upsertCommitQuery())
		if err != nil {
			return fmt.Errorf("failed to prepare commit insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, c := range batch {
			if _, err := stmt.ExecContext(ctx, c.Hash, c.Author, c.StoredDate(), c.Message); err != nil {
				return fmt.Errorf("failed to insert commit %s: %w", c.Hash, err)
			}
		}
		return nil
	})
}

// UpsertFiles inserts file paths in one transaction.
func (s *RelationStoreImpl) UpsertFiles(ctx context.Context, batch []string) error {
	return s.inBatch(ctx, schema.OpFiles, len(batch), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.upsertFileQuery())
		if err != nil {
			return fmt.Errorf("failed to prepare file insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range batch {
			if _, err := stmt.ExecContext(ctx, p); err != nil {
				return fmt.Errorf("failed to insert file %q: %w", p, err)
			}
		}
		return nil
	})
}

// UpsertRelations inserts commit/file pairs in one transaction.
// A pair whose commit or file is missing fails the whole batch.
func (s *RelationStoreImpl) UpsertRelations(ctx context.Context, batch []schema.Relation) error {
	return s.inBatch(ctx, schema.OpRelations, len(batch), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.upsertRelationQuery())
		if err != nil {
			return fmt.Errorf("failed to prepare relation insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range batch {
			if _, err := stmt.ExecContext(ctx, r.CommitHash, r.FilePath); err != nil {
				return fmt.Errorf("failed to insert relation %s -> %q: %w", r.CommitHash, r.FilePath, err)
			}
		}
		return nil
	})
}

// inBatch enforces the batch cap and runs fn in its own transaction, retrying on lock contention.
// Any failure is reported as a *contract.PersistenceFailure after the transaction rolled back.
func (s *RelationStoreImpl) inBatch(ctx context.Context, op string, size int, fn func(tx *sql.Tx) error) error {
	if size == 0 {
		return nil
	}
	if size > s.maxBatch {
		return fmt.Errorf("%w: %s batch of %d rows (max %d)", contract.ErrBatchTooLarge, op, size, s.maxBatch)
	}

	err := s.withRetry(ctx, func() error {
		return s.runTx(ctx, fn)
	})
	if err != nil {
		return &contract.PersistenceFailure{
			Op:      op,
			BatchID: contract.BatchIDFrom(ctx),
			Size:    size,
			Err:     err,
		}
	}
	return nil
}

// runTx begins a transaction, runs fn and commits. The transaction is rolled back on any error.
func (s *RelationStoreImpl) runTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *RelationStoreImpl) upsertCommitQuery() string {
	cols := "commit_hash, author, date, message"
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE commit_hash = commit_hash`,
			s.table(commitsTable), cols, s.placeholders(4))
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (commit_hash) DO NOTHING`,
			s.table(commitsTable), cols, s.placeholders(4))
	}
}

func (s *RelationStoreImpl) upsertFileQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (path) VALUES (%s) ON DUPLICATE KEY UPDATE path = path`,
			s.table(filesTable), s.placeholders(1))
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`INSERT INTO %s (path) VALUES (%s) ON CONFLICT (path) DO NOTHING`,
			s.table(filesTable), s.placeholders(1))
	}
}

func (s *RelationStoreImpl) upsertRelationQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (commit_hash, file_path) VALUES (%s) ON DUPLICATE KEY UPDATE commit_hash = commit_hash`,
			s.table(relationsTable), s.placeholders(2))
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`INSERT INTO %s (commit_hash, file_path) VALUES (%s) ON CONFLICT (commit_hash, file_path) DO NOTHING`,
			s.table(relationsTable), s.placeholders(2))
	}
}
