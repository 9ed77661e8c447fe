package contract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TreeFileLister lists the files tracked in the HEAD tree.
type TreeFileLister struct{}

var _ FileLister = &TreeFileLister{} // Compile-time check

// NewTreeFileLister creates a lister backed by go-git.
func NewTreeFileLister() *TreeFileLister {
	return &TreeFileLister{}
}

// ListFiles implements the FileLister interface.
// A repository without commits yields an empty list.
func (l *TreeFileLister) ListFiles(ctx context.Context, repoPath string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", repoPath, err)
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit %s: %w", ref.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files = append(files, NormalizePath(f.Name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk HEAD tree: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

// WalkFileLister lists every regular file under the work tree, skipping .git.
type WalkFileLister struct{}

var _ FileLister = &WalkFileLister{} // Compile-time check

// NewWalkFileLister creates a filesystem walking lister.
func NewWalkFileLister() *WalkFileLister {
	return &WalkFileLister{}
}

// ListFiles implements the FileLister interface.
func (l *WalkFileLister) ListFiles(ctx context.Context, repoPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		files = append(files, NormalizePath(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", repoPath, err)
	}
	slices.Sort(files)
	return files, nil
}
