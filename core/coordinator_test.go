package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/iostore"
	"github.com/huangsam/commitmap/internal/logmirror"
	"github.com/huangsam/commitmap/schema"
)

var (
	hash1 = strings.Repeat("1", 40)
	hash2 = strings.Repeat("2", 40)
	hash3 = strings.Repeat("3", 40)
)

const testRepo = "/test/repo"

// logText renders commits in the default git log format, newest first.
func logText(hashes ...string) string {
	var b strings.Builder
	day := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	for i, h := range hashes {
		fmt.Fprintf(&b, "commit %s\n", h)
		fmt.Fprintf(&b, "Author: Dev %d <dev%d@example.com>\n", i, i)
		fmt.Fprintf(&b, "Date:   %s\n\n", day.Add(time.Duration(i)*time.Hour).Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Fprintf(&b, "    change %s\n\n", h[:7])
	}
	return b.String()
}

func testConfig(workers, chunk, group int) *contract.Config {
	return &contract.Config{
		RepoPath:  testRepo,
		Workers:   workers,
		ChunkSize: chunk,
		GroupSize: group,
		BatchSize: contract.DefaultBatchSize,
		Retries:   contract.DefaultRetries,
	}
}

func newMemStore(t *testing.T) *iostore.RelationStoreImpl {
	t.Helper()
	store, err := iostore.NewRelationStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCoordinator_Run(t *testing.T) {
	ctx := context.Background()
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hash3, hash2, hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "a.txt").Return(logText(hash2, hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "b.txt").Return(logText(hash3), nil)
	client.On("GetLog", mock.Anything, testRepo, "c.txt").Return("", nil)
	store := newMemStore(t)

	coord := NewCoordinator(testConfig(2, 2, 1), client, store, nil)
	assert.Equal(t, schema.StateIdle, coord.State())

	summary, err := coord.Run(ctx, []string{"a.txt", "b.txt", "c.txt"})
	require.NoError(t, err)
	assert.Equal(t, schema.StateDone, coord.State())

	assert.NotEmpty(t, summary.RunID)
	assert.True(t, summary.RootHistoryLoaded)
	assert.Equal(t, 3, summary.FilesTotal)
	assert.Equal(t, 2, summary.FilesSucceeded)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Zero(t, summary.FilesFailed)
	assert.Equal(t, 3, summary.CommitsSeen)
	assert.Equal(t, 3, summary.RelationsSeen)
	assert.Equal(t, 5, summary.BatchesSucceeded) // root commits, chunk 0 x3, chunk 1 files
	assert.Zero(t, summary.BatchesFailed)
	assert.False(t, summary.EndTime.Before(summary.StartTime))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), status.Commits)
	assert.Equal(t, int64(3), status.Files)
	assert.Equal(t, int64(3), status.Relations)
	assert.Equal(t, int64(1), status.Runs)
	assert.Equal(t, summary.RunID, status.LastRunID)

	files, err := store.CommitFiles(ctx, hash2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, files)

	client.AssertExpectations(t)
}

func TestCoordinator_WorkerCountDoesNotChangeRelations(t *testing.T) {
	hashes := []string{hash1, hash2, hash3, strings.Repeat("4", 40), strings.Repeat("5", 40)}
	var files []string
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hashes...), nil)
	for i := range 13 {
		path := fmt.Sprintf("pkg%d/file%d.go", i%3, i)
		files = append(files, path)
		client.On("GetLog", mock.Anything, testRepo, path).Return(logText(hashes[:1+i%len(hashes)]...), nil)
	}

	relationsFor := func(workers int) []schema.Relation {
		store := newMemStore(t)
		summary, err := NewCoordinator(testConfig(workers, 2, 2), client, store, nil).Run(context.Background(), files)
		require.NoError(t, err)
		assert.Equal(t, len(files), summary.FilesSucceeded)

		rels, err := store.AllRelations(context.Background())
		require.NoError(t, err)
		slices.SortFunc(rels, func(a, b schema.Relation) int {
			if c := strings.Compare(a.FilePath, b.FilePath); c != 0 {
				return c
			}
			return strings.Compare(a.CommitHash, b.CommitHash)
		})
		return rels
	}

	serial := relationsFor(1)
	assert.Len(t, serial, 36)
	assert.Equal(t, serial, relationsFor(4))
	assert.Equal(t, serial, relationsFor(16))
}

func TestCoordinator_FileFailure(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "ok.txt").Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "gone.txt").
		Return("", &contract.ProcessFailure{Path: "gone.txt", ExitCode: 128, Stderr: "fatal: bad path"})
	store := newMemStore(t)

	summary, err := NewCoordinator(testConfig(1, 10, 1), client, store, nil).Run(context.Background(), []string{"ok.txt", "gone.txt"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesSucceeded)
	assert.Equal(t, 1, summary.FilesFailed)
	require.Len(t, summary.FileFailures, 1)
	assert.Equal(t, "gone.txt", summary.FileFailures[0].Path)
	assert.Contains(t, summary.FileFailures[0].Err, "status 128")

	files, err := store.AllFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.txt"}, files)
}

func TestCoordinator_RootHistoryFailure(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).
		Return("", &contract.ExecutionError{Path: ".", Cause: errors.New("git not found")})
	client.On("GetLog", mock.Anything, testRepo, "a.txt").Return(logText(hash1, hash2), nil)
	store := newMemStore(t)

	summary, err := NewCoordinator(testConfig(1, 10, 1), client, store, nil).Run(context.Background(), []string{"a.txt"})
	require.NoError(t, err)
	assert.False(t, summary.RootHistoryLoaded)
	assert.Equal(t, 1, summary.FilesSucceeded)

	rels, err := store.AllRelations(context.Background())
	require.NoError(t, err)
	assert.Len(t, rels, 2)
}

func TestCoordinator_EndpointFailureSkipsRelations(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return("", errors.New("boom"))
	client.On("GetLog", mock.Anything, testRepo, "a.txt").Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "b.txt").Return(logText(hash2), nil)

	store := &iostore.MockRelationStore{}
	store.On("UpsertCommits", mock.Anything, mock.Anything).Return(nil)
	store.On("UpsertFiles", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	store.On("RecordRun", mock.Anything, mock.Anything).Return(nil)

	summary, err := NewCoordinator(testConfig(1, 10, 1), client, store, nil).Run(context.Background(), []string{"a.txt", "b.txt"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesSkipped)
	assert.Zero(t, summary.FilesSucceeded)
	assert.Equal(t, 1, summary.BatchesSucceeded)
	assert.Equal(t, 1, summary.BatchesFailed)
	require.Len(t, summary.BatchFailures, 1)
	assert.Equal(t, schema.OpFiles, summary.BatchFailures[0].Op)
	assert.Equal(t, 2, summary.BatchFailures[0].Size)
	assert.Contains(t, summary.BatchFailures[0].Err, "disk full")

	store.AssertNotCalled(t, "UpsertRelations", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestCoordinator_BatchLabels(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hash1, hash2, hash3), nil)
	client.On("GetLog", mock.Anything, testRepo, "a.txt").Return(logText(hash1), nil)

	var ids []string
	capture := func(args mock.Arguments) {
		ids = append(ids, contract.BatchIDFrom(args.Get(0).(context.Context)))
	}
	store := &iostore.MockRelationStore{}
	store.On("UpsertCommits", mock.Anything, mock.Anything).Run(capture).Return(nil)
	store.On("UpsertFiles", mock.Anything, mock.Anything).Run(capture).Return(nil)
	store.On("UpsertRelations", mock.Anything, mock.Anything).Run(capture).Return(nil)
	store.On("RecordRun", mock.Anything, mock.Anything).Return(nil)

	cfg := testConfig(1, 10, 1)
	cfg.BatchSize = 2
	summary, err := NewCoordinator(cfg, client, store, nil).Run(context.Background(), []string{"a.txt"})
	require.NoError(t, err)

	run := summary.RunID[:8]
	assert.Equal(t, []string{
		run + "/root/commits-0",
		run + "/root/commits-1",
		run + "/0/commits-0",
		run + "/0/files-0",
		run + "/0/relations-0",
	}, ids)
	store.AssertNumberOfCalls(t, "UpsertCommits", 3)
}

func TestCoordinator_AlreadyRun(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return("", nil)
	coord := NewCoordinator(testConfig(1, 1, 1), client, newMemStore(t), nil)

	_, err := coord.Run(context.Background(), nil)
	require.NoError(t, err)

	summary, err := coord.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAlreadyRun)
	assert.Nil(t, summary)
}

func TestCoordinator_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &contract.MockGitClient{}
	store := newMemStore(t)

	coord := NewCoordinator(testConfig(2, 1, 1), client, store, nil)
	summary, err := coord.Run(ctx, []string{"a.txt", "b.txt"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.FilesTotal)
	assert.Zero(t, summary.FilesSucceeded+summary.FilesSkipped+summary.FilesFailed)
	assert.Equal(t, schema.StateDone, coord.State())

	client.AssertNotCalled(t, "GetLog", mock.Anything, mock.Anything, mock.Anything)

	// The partial run is still recorded.
	runs, err := store.AllRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCoordinator_CancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "a.txt").Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "b.txt").
		Run(func(mock.Arguments) { cancel() }).
		Return("", context.Canceled)

	summary, err := NewCoordinator(testConfig(1, 1, 1), client, newMemStore(t), nil).Run(ctx, []string{"a.txt", "b.txt", "c.txt"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.FilesSucceeded)
	assert.Zero(t, summary.FilesFailed)
	client.AssertNotCalled(t, "GetLog", mock.Anything, testRepo, "c.txt")
}

func TestCoordinator_Mirror(t *testing.T) {
	client := &contract.MockGitClient{}
	client.On("GetLog", mock.Anything, testRepo, schema.RootPath).Return(logText(hash1), nil)
	client.On("GetLog", mock.Anything, testRepo, "docs/readme.md").Return(logText(hash1), nil)

	mirror, err := logmirror.New(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, err)

	_, err = NewCoordinator(testConfig(1, 1, 1), client, newMemStore(t), mirror).Run(context.Background(), []string{"docs/readme.md"})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(mirror.Root(), "docs", "readme.md.log"))
	require.NoError(t, err)
	assert.Equal(t, logText(hash1), string(got))
}
