package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

const shortHashLen = 10

// PrintFileCommits outputs the commits that touched a file.
func PrintFileCommits(path string, commits []schema.CommitRecord, cfg *contract.Config) error {
	type jsonFileCommits struct {
		Path    string                `json:"path"`
		Commits []schema.CommitRecord `json:"commits"`
	}
	if commits == nil {
		commits = []schema.CommitRecord{}
	}

	var rows [][]string
	for _, c := range commits {
		rows = append(rows, []string{c.Hash, c.StoredDate(), c.Author, c.Message})
	}
	return writeResult(cfg, formatWriters{
		table: func(w io.Writer) error {
			return writeFileCommitsTable(w, path, commits, cfg)
		},
		json:      jsonFileCommits{Path: path, Commits: commits},
		csvHeader: []string{"hash", "date", "author", "message"},
		csvRows:   rows,
	})
}

func writeFileCommitsTable(w io.Writer, path string, commits []schema.CommitRecord, cfg *contract.Config) error {
	subjectWidth := GetMaxTablePathWidth(cfg, 70)
	var data [][]string
	for _, c := range commits {
		data = append(data, []string{
			shortHash(c.Hash),
			displayDate(c),
			c.Author,
			contract.TruncatePath(subject(c.Message), subjectWidth),
		})
	}
	if err := renderTable(w, []string{"Commit", "Date", "Author", "Subject"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d commits for %s\n", len(commits), path)
	return err
}

// PrintCommitFiles outputs the files a commit touched.
func PrintCommitFiles(hash string, files []string, cfg *contract.Config) error {
	type jsonCommitFiles struct {
		Hash  string   `json:"hash"`
		Files []string `json:"files"`
	}
	if files == nil {
		files = []string{}
	}

	var rows [][]string
	for _, f := range files {
		rows = append(rows, []string{f})
	}
	return writeResult(cfg, formatWriters{
		table: func(w io.Writer) error {
			return writeCommitFilesTable(w, hash, files, cfg)
		},
		json:      jsonCommitFiles{Hash: hash, Files: files},
		csvHeader: []string{"path"},
		csvRows:   rows,
	})
}

func writeCommitFilesTable(w io.Writer, hash string, files []string, cfg *contract.Config) error {
	pathWidth := GetMaxTablePathWidth(cfg, 8)
	var data [][]string
	for i, f := range files {
		data = append(data, []string{strconv.Itoa(i + 1), contract.TruncatePath(f, pathWidth)})
	}
	if err := renderTable(w, []string{"#", "Path"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d files for commit %s\n", len(files), shortHash(hash))
	return err
}

func shortHash(h string) string {
	if len(h) > shortHashLen {
		return h[:shortHashLen]
	}
	return h
}

// subject is the first line of a commit message.
func subject(msg string) string {
	first, _, _ := strings.Cut(msg, "\n")
	return first
}

// displayDate prefers the parsed timestamp and falls back to the raw header.
func displayDate(c schema.CommitRecord) string {
	if c.When.IsZero() {
		return c.Date
	}
	return c.When.UTC().Format(time.DateTime)
}
