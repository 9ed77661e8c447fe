package iostore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"   // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// Table names for commit/file relations.
const (
	commitsTable   = "commits"
	filesTable     = "files"
	relationsTable = "commits_X_files"
	runsTable      = "commitmap_runs"
)

// sqliteBusyTimeoutMs is how long SQLite waits on a locked database before failing.
const sqliteBusyTimeoutMs = 5000

// RelationStoreImpl handles durable storage of commits, files and relations.
type RelationStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string

	maxBatch  int
	retries   int
	retryWait time.Duration
}

var _ contract.RelationStore = &RelationStoreImpl{} // Compile-time check

// Option customizes a RelationStoreImpl.
type Option func(*RelationStoreImpl)

// WithRetries sets how many attempts a batch gets when the database reports lock contention.
func WithRetries(n int) Option {
	return func(s *RelationStoreImpl) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithRetryWait sets the first wait between attempts.
func WithRetryWait(d time.Duration) Option {
	return func(s *RelationStoreImpl) {
		if d > 0 {
			s.retryWait = d
		}
	}
}

// WithMaxBatchSize lowers the per-call row cap.
func WithMaxBatchSize(n int) Option {
	return func(s *RelationStoreImpl) {
		if n > 0 && n <= contract.MaxBatchSize {
			s.maxBatch = n
		}
	}
}

// NewRelationStore opens the backend and creates the tables if needed.
func NewRelationStore(backend schema.DatabaseBackend, connStr string, opts ...Option) (*RelationStoreImpl, error) {
	for _, table := range []string{commitsTable, filesTable, relationsTable, runsTable} {
		if err := validateTableName(table); err != nil {
			return nil, err
		}
	}

	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err = sql.Open(driverName, sqliteDSN(dbPath))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		dsn, dsnErr := mysqlDSN(connStr)
		if dsnErr != nil {
			return nil, fmt.Errorf("failed to parse MySQL connection string: %w. Check connection string format: user:password@tcp(host:port)/dbname", dsnErr)
		}
		db, err = sql.Open(driverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql or postgresql", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	store := newStore(db, backend, driverName, opts...)
	store.connStr = connStr

	if err := store.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create relation tables: %w", err)
	}

	return store, nil
}

// newStore wraps an already-open handle.
func newStore(db *sql.DB, backend schema.DatabaseBackend, driverName string, opts ...Option) *RelationStoreImpl {
	store := &RelationStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		maxBatch:   contract.MaxBatchSize,
		retries:    contract.DefaultRetries,
		retryWait:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// sqliteDSN adds the connection pragmas every SQLite handle needs.
func sqliteDSN(path string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", sqliteBusyTimeoutMs),
	}
	if !strings.Contains(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// mysqlDSN turns on parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Close closes the underlying connection.
func (s *RelationStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Backend returns the backend this store talks to.
func (s *RelationStoreImpl) Backend() schema.DatabaseBackend {
	return s.backend
}

// placeholder returns the n-th (1-based) bind parameter for the backend.
func (s *RelationStoreImpl) placeholder(n int) string {
	if s.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// placeholders returns a comma-separated list of count bind parameters.
func (s *RelationStoreImpl) placeholders(count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// table returns the quoted name of a table.
func (s *RelationStoreImpl) table(name string) string {
	return quoteTableName(name, s.backend)
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
