package iostore

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Error codes that mean another writer holds a lock; the batch is safe to try again.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

var pgRetryableCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// isLockError reports whether err is transient lock contention.
func isLockError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlock
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := pgRetryableCodes[pgErr.Code]
		return ok
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	return false
}

// withRetry runs op up to s.retries times, backing off between attempts that failed on a lock.
// Other errors stop immediately.
func (s *RelationStoreImpl) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryWait
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	attempt := func() error {
		err := op()
		if err == nil || isLockError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	retries := max(s.retries-1, 0)
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
}
