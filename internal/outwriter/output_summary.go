package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// PrintRunSummary outputs a run summary, dispatching based on the output format configured.
func PrintRunSummary(summary *schema.RunSummary, cfg *contract.Config) error {
	type jsonRunSummary struct {
		*schema.RunSummary
		DurationMs int64 `json:"duration_ms"`
	}
	return writeResult(cfg, formatWriters{
		table: func(w io.Writer) error {
			return writeRunSummaryTable(w, summary, cfg)
		},
		json:      jsonRunSummary{RunSummary: summary, DurationMs: summary.Duration().Milliseconds()},
		csvHeader: []string{"metric", "value"},
		csvRows:   runSummaryRows(summary, false),
	})
}

// runSummaryRows lists the summary metrics. colored marks non-zero failure counts.
func runSummaryRows(s *schema.RunSummary, colored bool) [][]string {
	count := func(n int, c *color.Color) string {
		v := strconv.Itoa(n)
		if colored && n > 0 && c != nil {
			return c.Sprint(v)
		}
		return v
	}
	return [][]string{
		{"run_id", s.RunID},
		{"repo_path", s.RepoPath},
		{"root_history_loaded", strconv.FormatBool(s.RootHistoryLoaded)},
		{"files_total", strconv.Itoa(s.FilesTotal)},
		{"files_succeeded", count(s.FilesSucceeded, contract.SuccessColor)},
		{"files_skipped", count(s.FilesSkipped, contract.SkipColor)},
		{"files_failed", count(s.FilesFailed, contract.FailColor)},
		{"commits_seen", strconv.Itoa(s.CommitsSeen)},
		{"relations_seen", strconv.Itoa(s.RelationsSeen)},
		{"parse_skips", count(s.ParseSkips, contract.SkipColor)},
		{"batches_succeeded", count(s.BatchesSucceeded, contract.SuccessColor)},
		{"batches_failed", count(s.BatchesFailed, contract.FailColor)},
		{"duration", s.Duration().Round(time.Millisecond).String()},
	}
}

// writeRunSummaryTable renders the summary followed by any failure details.
func writeRunSummaryTable(w io.Writer, s *schema.RunSummary, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(runSummaryRows(s, true)); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(s.FileFailures) > 0 {
		pathWidth := GetMaxTablePathWidth(cfg, 40)
		var data [][]string
		for _, f := range s.FileFailures {
			data = append(data, []string{contract.TruncatePath(f.Path, pathWidth), f.Err})
		}
		if err := renderTable(w, []string{"Failed file", "Error"}, data); err != nil {
			return err
		}
	}

	if len(s.BatchFailures) > 0 {
		var data [][]string
		for _, b := range s.BatchFailures {
			data = append(data, []string{b.Op, b.BatchID, strconv.Itoa(b.Size), b.Err})
		}
		if err := renderTable(w, []string{"Op", "Batch", "Size", "Error"}, data); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Run %s completed in %v with %d workers. Store backend: %s\n",
		s.RunID, s.Duration().Round(time.Millisecond), cfg.Workers, cfg.StoreBackend)
	return err
}

// renderTable writes a left-aligned table.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
