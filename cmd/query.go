package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/outwriter"
)

var fullHashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// queryCmd is the parent command for relation lookups.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Look up the commit/file relation.",
	Long:  `The query command reads the relation store populated by 'commitmap populate'.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// queryFileCmd lists the commits that touched a file.
var queryFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "List the commits that touched a file, newest first.",
	Long: `Print every stored commit related to a repository-relative file path.

Examples:
  commitmap query file internal/core/agg.go --limit 10
  commitmap query file README.md --output csv --output-file readme.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: storeSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := contract.NormalizePath(args[0])
		if path == "" {
			return fmt.Errorf("path is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return fmt.Errorf("limit cannot be negative (received %d)", limit)
		}
		store, err := requireStore()
		if err != nil {
			return err
		}
		commits, err := store.FileCommits(rootCtx, path, limit)
		if err != nil {
			return fmt.Errorf("failed to query commits for %s: %w", path, err)
		}
		return outwriter.NewOutWriter().WriteFileCommits(path, commits, cfg)
	},
}

// queryCommitCmd lists the files touched by a commit.
var queryCommitCmd = &cobra.Command{
	Use:   "commit <hash>",
	Short: "List the files touched by a commit.",
	Long: `Print every stored file related to a full 40 character commit hash.

Examples:
  commitmap query commit 3f2c9a1e0b7d4c5a6e8f9b0a1c2d3e4f5a6b7c8d`,
	Args:    cobra.ExactArgs(1),
	PreRunE: storeSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		hash := strings.ToLower(strings.TrimSpace(args[0]))
		if !fullHashRe.MatchString(hash) {
			return fmt.Errorf("hash must be 40 hex characters (received %q)", args[0])
		}
		store, err := requireStore()
		if err != nil {
			return err
		}
		files, err := store.CommitFiles(rootCtx, hash)
		if err != nil {
			return fmt.Errorf("failed to query files for %s: %w", hash, err)
		}
		return outwriter.NewOutWriter().WriteCommitFiles(hash, files, cfg)
	},
}
