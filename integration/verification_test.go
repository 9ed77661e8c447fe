//go:build basic

package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteEnv isolates the binary from the user's config and default store.
func sqliteEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	return []string{
		"HOME=" + home,
		"COMMITMAP_STORE_BACKEND=sqlite",
		"COMMITMAP_STORE_DB_CONNECT=" + filepath.Join(home, "store.db"),
		"COMMITMAP_COLOR=no",
	}
}

// TestPopulateVerification populates a fixture repository and checks every
// stored relation against git log.
func TestPopulateVerification(t *testing.T) {
	repo := fixtureRepo(t)
	env := sqliteEnv(t)

	out, err := runCommitmap(t, repo, env, "populate", "--workers", "2", "--chunk-size", "1", "--output", "json")
	require.NoError(t, err)
	summary := decode[runSummary](t, out)
	assert.Equal(t, 3, summary.FilesTotal)
	assert.Equal(t, 3, summary.FilesSucceeded)
	assert.Zero(t, summary.FilesFailed)
	assert.Zero(t, summary.BatchesFailed)
	assert.Equal(t, 4, summary.RelationsSeen)

	out, err = runCommitmap(t, repo, env, "store", "status", "--output", "json")
	require.NoError(t, err)
	status := decode[storeStatus](t, out)
	assert.Equal(t, int64(3), status.Commits)
	assert.Equal(t, int64(3), status.Files)
	assert.Equal(t, int64(4), status.Relations)
	assert.Equal(t, int64(1), status.Runs)

	for _, file := range []string{"a.txt", "b.txt", "sub/c.txt"} {
		t.Run(file, func(t *testing.T) {
			out, err := runCommitmap(t, repo, env, "query", "file", file, "--output", "json")
			require.NoError(t, err)
			got := decode[fileCommits](t, out)
			assert.Equal(t, file, got.Path)
			assert.Len(t, got.Commits, gitCommitCount(t, repo, file), "commit count mismatch for %s", file)
		})
	}
}

// TestPopulateIsIdempotent runs populate twice and expects no duplicate rows.
func TestPopulateIsIdempotent(t *testing.T) {
	repo := fixtureRepo(t)
	env := sqliteEnv(t)

	for range 2 {
		_, err := runCommitmap(t, repo, env, "populate", "--output", "json")
		require.NoError(t, err)
	}

	out, err := runCommitmap(t, repo, env, "store", "status", "--output", "json")
	require.NoError(t, err)
	status := decode[storeStatus](t, out)
	assert.Equal(t, int64(4), status.Relations)
	assert.Equal(t, int64(2), status.Runs)
}

// TestPopulateReset checks that --reset clears relations from an earlier repository.
func TestPopulateReset(t *testing.T) {
	first := fixtureRepo(t)
	second := fixtureRepo(t)
	git(t, second, "rm", "-q", "b.txt")
	git(t, second, "commit", "-q", "-m", "Drop b")
	env := sqliteEnv(t)

	_, err := runCommitmap(t, first, env, "populate", "--output", "json")
	require.NoError(t, err)
	_, err = runCommitmap(t, second, env, "populate", "--reset", "--output", "json")
	require.NoError(t, err)

	out, err := runCommitmap(t, second, env, "store", "status", "--output", "json")
	require.NoError(t, err)
	status := decode[storeStatus](t, out)
	// a.txt has 2 commits and sub/c.txt has 1; b.txt is no longer tracked.
	assert.Equal(t, int64(2), status.Files)
	assert.Equal(t, int64(3), status.Relations)
}

func TestInvalidFlagsExitNonZero(t *testing.T) {
	repo := fixtureRepo(t)
	_, err := runCommitmap(t, repo, sqliteEnv(t), "populate", "--workers", "0")
	assert.Error(t, err)
}
