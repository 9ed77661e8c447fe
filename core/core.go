// Package core has core logic for extracting commit history and persisting file relations.
package core

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// FileListerFor returns the lister matching a file source.
func FileListerFor(source schema.FileSource) contract.FileLister {
	if source == schema.WalkSource {
		return contract.NewWalkFileLister()
	}
	return contract.NewTreeFileLister()
}

// CollectFiles lists the repository files and applies the include/exclude patterns.
func CollectFiles(ctx context.Context, cfg *contract.Config, lister contract.FileLister) ([]string, error) {
	files, err := lister.ListFiles(ctx, cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	filtered := contract.FilterFiles(files, cfg.Includes, cfg.Excludes)
	if cfg.StoreBackend == schema.MySQLBackend {
		filtered = dropLongPaths(filtered, schema.MySQLMaxPathLength)
	}
	slog.Debug("Collected files", "listed", len(files), "selected", len(filtered))
	return filtered, nil
}

// dropLongPaths removes paths wider than limit characters, logging each one.
func dropLongPaths(files []string, limit int) []string {
	kept := files[:0:0]
	for _, f := range files {
		if n := utf8.RuneCountInString(f); n > limit {
			slog.Warn("Skipping path too long for store", "path", contract.TruncatePath(f, 80), "length", n, "limit", limit)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// Populate resets the store when asked, collects files and runs a coordinator over them.
// Failures before dispatch are returned as *contract.SetupFailure.
func Populate(ctx context.Context, cfg *contract.Config, client contract.GitClient, lister contract.FileLister, store contract.RelationStore, mirror contract.LogMirror) (*schema.RunSummary, error) {
	if cfg.Reset {
		slog.Info("Resetting store", "backend", cfg.StoreBackend)
		if err := store.Reset(ctx); err != nil {
			return nil, &contract.SetupFailure{Stage: "reset", Err: err}
		}
	}

	files, err := CollectFiles(ctx, cfg, lister)
	if err != nil {
		return nil, &contract.SetupFailure{Stage: "file listing", Err: err}
	}

	return NewCoordinator(cfg, client, store, mirror).Run(ctx, files)
}
