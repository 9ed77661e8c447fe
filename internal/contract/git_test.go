package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// runGit runs a git command in dir with a fixed identity.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir, "-c", "user.name=Test User", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// initTestRepo creates a repository with two commits touching two files.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0o644))
	runGit(t, dir, "add", "a.txt")
	runGit(t, dir, "commit", "-q", "-m", "add a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("two\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\nmore\n"), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "add b", "-m", "and touch a")
	return dir
}

func TestMockGitClient_GetLog(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	mockClient.On("GetLog", ctx, "/repo", "a.go").Return("commit text", nil).Once()

	text, err := mockClient.GetLog(ctx, "/repo", "a.go")
	assert.NoError(t, err)
	assert.Equal(t, "commit text", text)
	mockClient.AssertExpectations(t)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client, "NewLocalGitClient should return a non-nil client")
	assert.IsType(t, &LocalGitClient{}, client)
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	_, err := client.Run(ctx, filepath.Join(t.TempDir(), "missing"), "status")
	assert.Error(t, err, "Run should fail outside a repository")

	_, err = client.Run(ctx, repo, "invalid-command")
	assert.Error(t, err, "Run should fail for an unknown subcommand")

	out, err := client.Run(ctx, repo, "rev-parse", "HEAD")
	assert.NoError(t, err)
	assert.Len(t, string(out), 41)
}

func TestLocalGitClient_GetRepoRoot(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	root, err := client.GetRepoRoot(ctx, filepath.Join(repo, "sub"))
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(repo)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestLocalGitClient_GetLog(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	t.Run("file history", func(t *testing.T) {
		text, err := client.GetLog(ctx, repo, "a.txt")
		require.NoError(t, err)
		assert.Contains(t, text, "add a")
		assert.Contains(t, text, "add b")
	})

	t.Run("root history", func(t *testing.T) {
		text, err := client.GetLog(ctx, repo, ".")
		require.NoError(t, err)
		assert.Contains(t, text, "Author: Test User <test@example.com>")
	})

	t.Run("untracked path is empty", func(t *testing.T) {
		text, err := client.GetLog(ctx, repo, "nope.txt")
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := client.GetLog(ctx, t.TempDir(), "a.txt")
		var pf *ProcessFailure
		require.True(t, errors.As(err, &pf), "expected ProcessFailure, got %v", err)
		assert.NotZero(t, pf.ExitCode)
		assert.NotEmpty(t, pf.Stderr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.GetLog(cancelled, repo, "a.txt")
		assert.Error(t, err)
	})
}

func TestLocalGitClient_GetLog_LiteralPaths(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "ab.txt"), []byte("ab\n"), 0o644))
	runGit(t, repo, "add", "ab.txt")
	runGit(t, repo, "commit", "-q", "-m", "add ab only")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a[b].txt"), []byte("bracket\n"), 0o644))
	runGit(t, repo, "--literal-pathspecs", "add", "a[b].txt")
	runGit(t, repo, "commit", "-q", "-m", "add bracket file")

	t.Run("glob characters", func(t *testing.T) {
		text, err := client.GetLog(ctx, repo, "a[b].txt")
		require.NoError(t, err)
		assert.Contains(t, text, "add bracket file")
		assert.NotContains(t, text, "add ab only")
	})

	t.Run("wildcard is not expanded", func(t *testing.T) {
		text, err := client.GetLog(ctx, repo, "*.txt")
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("signature config is ignored", func(t *testing.T) {
		runGit(t, repo, "config", "log.showSignature", "true")
		runGit(t, repo, "config", "format.pretty", "oneline")
		text, err := client.GetLog(ctx, repo, "a.txt")
		require.NoError(t, err)
		assert.Contains(t, text, "Author: Test User <test@example.com>")
		assert.NotContains(t, text, "gpg:")
	})
}

func TestLocalGitClient_GetLog_DecomposedName(t *testing.T) {
	skipIfGitNotAvailable(t)
	if runtime.GOOS == "darwin" {
		t.Skip("filesystem may recompose unicode names")
	}
	ctx := context.Background()
	repo := initTestRepo(t)
	name := "cafe\u0301.txt"
	require.NoError(t, os.WriteFile(filepath.Join(repo, name), []byte("x\n"), 0o644))
	runGit(t, repo, "--literal-pathspecs", "add", name)
	runGit(t, repo, "commit", "-q", "-m", "add decomposed name")

	files, err := NewTreeFileLister().ListFiles(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, files, name)
	assert.NotContains(t, files, "caf\u00e9.txt")

	text, err := NewLocalGitClient().GetLog(ctx, repo, name)
	require.NoError(t, err)
	assert.Contains(t, text, "add decomposed name")
}

func TestDecodeLenient(t *testing.T) {
	assert.Equal(t, "plain", decodeLenient([]byte("plain")))
	out := decodeLenient([]byte{'a', 0xff, 'b'})
	assert.Equal(t, "a�b", out)
}
