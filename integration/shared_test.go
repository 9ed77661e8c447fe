//go:build basic || database

// Package integration runs the commitmap binary against real repositories and stores.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// With Docker available: go test -tags database ./integration
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a commitmap binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the commitmap binary, building it once if needed.
func getBinary() string {
	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "commitmap-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "commitmap")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build commitmap: %v\n%s", err, out))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// runCommitmap runs the binary in dir with extra environment and returns stdout.
func runCommitmap(t *testing.T, dir string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// git runs a git command in dir with a fixed identity.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	full := append([]string{"-c", "user.name=Test User", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

// fixtureRepo creates a repository with three commits over three files.
//
//	c1: a.txt, b.txt
//	c2: a.txt
//	c3: sub/c.txt
func fixtureRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	git(t, dir, "init", "-q")

	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("a.txt", "one\n")
	write("b.txt", "one\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "Add a and b")

	write("a.txt", "two\n")
	git(t, dir, "commit", "-q", "-am", "Update a")

	write("sub/c.txt", "three\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "Add c")

	return dir
}

// gitCommitCount counts the commits git log reports for path.
func gitCommitCount(t *testing.T, dir, path string) int {
	t.Helper()
	out := strings.TrimSpace(git(t, dir, "log", "--format=%H", "--", path))
	if out == "" {
		return 0
	}
	return len(strings.Split(out, "\n"))
}

type runSummary struct {
	FilesTotal     int `json:"files_total"`
	FilesSucceeded int `json:"files_succeeded"`
	FilesFailed    int `json:"files_failed"`
	RelationsSeen  int `json:"relations_seen"`
	BatchesFailed  int `json:"batches_failed"`
}

type storeStatus struct {
	Commits   int64 `json:"commits"`
	Files     int64 `json:"files"`
	Relations int64 `json:"relations"`
	Runs      int64 `json:"runs"`
}

type fileCommits struct {
	Path    string `json:"path"`
	Commits []struct {
		Hash string `json:"hash"`
	} `json:"commits"`
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}
