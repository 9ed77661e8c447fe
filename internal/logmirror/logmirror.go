// Package logmirror writes the raw git log text of each processed file to disk.
package logmirror

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/commitmap/internal/contract"
)

// Suffix is appended to every mirrored file path.
const Suffix = ".log"

// DirMirror mirrors per-file logs under a root directory as <root>/<path>.log.
type DirMirror struct {
	root string
}

var _ contract.LogMirror = &DirMirror{} // Compile-time check

// New clears root and returns a mirror writing into it.
func New(root string) (*DirMirror, error) {
	if root == "" {
		return nil, fmt.Errorf("mirror root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mirror root %q: %w", root, err)
	}
	if abs == filepath.Dir(abs) {
		return nil, fmt.Errorf("refusing to use filesystem root %q as mirror root", abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return nil, fmt.Errorf("failed to clear mirror root %q: %w", abs, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root %q: %w", abs, err)
	}
	return &DirMirror{root: abs}, nil
}

// Root returns the absolute mirror directory.
func (m *DirMirror) Root() string {
	return m.root
}

// PathFor returns where the log of a repository-relative path is written.
func (m *DirMirror) PathFor(path string) (string, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path %q escapes the mirror root", path)
	}
	return filepath.Join(m.root, local+Suffix), nil
}

// Write stores text for path, creating parent directories as needed.
func (m *DirMirror) Write(path string, text string) error {
	dest, err := m.PathFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory for %q: %w", path, err)
	}
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write mirror for %q: %w", path, err)
	}
	return nil
}
