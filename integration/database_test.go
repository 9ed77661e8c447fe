//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCommitmapWithMySQL tests the commitmap CLI with a MySQL backend.
func TestCommitmapWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "commitmap",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/commitmap", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestCommitmapWithPostgres tests the commitmap CLI with a PostgreSQL backend.
func TestCommitmapWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend migrates, populates twice with concurrent workers and queries the store.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	repo := fixtureRepo(t)
	env := []string{
		"HOME=" + t.TempDir(),
		"COMMITMAP_STORE_BACKEND=" + backend,
		"COMMITMAP_STORE_DB_CONNECT=" + connStr,
		"COMMITMAP_COLOR=no",
	}

	_, err := runCommitmap(t, repo, env, "store", "migrate")
	require.NoError(t, err)

	for range 2 {
		out, err := runCommitmap(t, repo, env, "populate", "--workers", "3", "--chunk-size", "1", "--batch-size", "2", "--output", "json")
		require.NoError(t, err)
		summary := decode[runSummary](t, out)
		assert.Zero(t, summary.BatchesFailed)
		assert.Equal(t, 3, summary.FilesSucceeded)
	}

	out, err := runCommitmap(t, repo, env, "store", "status", "--output", "json")
	require.NoError(t, err)
	status := decode[storeStatus](t, out)
	assert.Equal(t, int64(3), status.Commits)
	assert.Equal(t, int64(4), status.Relations)
	assert.Equal(t, int64(2), status.Runs)

	out, err = runCommitmap(t, repo, env, "query", "file", "a.txt", "--output", "json")
	require.NoError(t, err)
	assert.Len(t, decode[fileCommits](t, out).Commits, 2)

	_, err = runCommitmap(t, repo, env, "store", "reset", "--force")
	require.NoError(t, err)
	out, err = runCommitmap(t, repo, env, "store", "status", "--output", "json")
	require.NoError(t, err)
	assert.Zero(t, decode[storeStatus](t, out).Relations)
}
