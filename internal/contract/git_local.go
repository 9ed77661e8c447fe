package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, strings.TrimSpace(stderr.String()))
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetLog implements the GitClient interface.
// Invalid UTF-8 in the output is replaced rather than rejected.
// The path is matched literally and the output format is pinned so that
// user configuration cannot alter what the parser sees.
func (c *LocalGitClient) GetLog(ctx context.Context, repoPath string, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "--literal-pathspecs", "-C", repoPath,
		"log", "--no-show-signature", "--pretty=medium", "--no-color", "--", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ProcessFailure{
				Path:     path,
				ExitCode: exitErr.ExitCode(),
				Stderr:   decodeLenient(bytes.TrimSpace(stderr.Bytes())),
			}
		}
		return "", &ExecutionError{Path: path, Cause: err}
	}
	return decodeLenient(out), nil
}

// decodeLenient decodes UTF-8, substituting U+FFFD for invalid byte sequences.
func decodeLenient(b []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(decoded)
}
