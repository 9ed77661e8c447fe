package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// PrintStoreStatus outputs the store status in the configured format.
func PrintStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return writeResult(cfg, formatWriters{
		table: func(w io.Writer) error {
			return writeStatusTable(w, status)
		},
		json:      status,
		csvHeader: []string{"metric", "value"},
		csvRows:   statusRows(status, false),
	})
}

func statusRows(s schema.StoreStatus, colored bool) [][]string {
	connected := strconv.FormatBool(s.Connected)
	if colored {
		if s.Connected {
			connected = contract.SuccessColor.Sprint(connected)
		} else {
			connected = contract.FailColor.Sprint(connected)
		}
	}
	lastRun, lastRunTime := "-", "-"
	if s.LastRunID != "" {
		lastRun = s.LastRunID
		lastRunTime = s.LastRunTime.Local().Format(time.DateTime)
	}
	size := strconv.FormatInt(s.TableSizeBytes, 10)
	if colored {
		size = formatBytes(s.TableSizeBytes)
	}
	return [][]string{
		{"backend", s.Backend},
		{"connected", connected},
		{"commits", strconv.FormatInt(s.Commits, 10)},
		{"files", strconv.FormatInt(s.Files, 10)},
		{"relations", strconv.FormatInt(s.Relations, 10)},
		{"runs", strconv.FormatInt(s.Runs, 10)},
		{"last_run_id", lastRun},
		{"last_run_time", lastRunTime},
		{"size", size},
	}
}

func writeStatusTable(w io.Writer, s schema.StoreStatus) error {
	return renderTable(w, []string{"Metric", "Value"}, statusRows(s, true))
}

// PrintRuns outputs recorded runs in the order given.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	header := []string{"run_id", "repo_path", "start_time", "duration_ms", "files_total", "files_succeeded", "files_skipped", "files_failed", "batches_failed"}
	var rows [][]string
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			r.RepoPath,
			r.StartTime.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.DurationMs, 10),
			strconv.Itoa(r.FilesTotal),
			strconv.Itoa(r.FilesSucceeded),
			strconv.Itoa(r.FilesSkipped),
			strconv.Itoa(r.FilesFailed),
			strconv.Itoa(r.BatchesFailed),
		})
	}
	if runs == nil {
		runs = []schema.RunRecord{}
	}
	return writeResult(cfg, formatWriters{
		table: func(w io.Writer) error {
			return writeRunsTable(w, runs, cfg)
		},
		json:      runs,
		csvHeader: header,
		csvRows:   rows,
	})
}

func writeRunsTable(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Repo", "Start", "Duration", "Files", "OK", "Skipped", "Failed", "Batches failed"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg, 95)
	var data [][]string
	for _, r := range runs {
		failed := strconv.Itoa(r.FilesFailed)
		if r.FilesFailed > 0 {
			failed = contract.FailColor.Sprint(failed)
		}
		data = append(data, []string{
			shortID(r.RunID),
			contract.TruncatePath(r.RepoPath, pathWidth),
			r.StartTime.Local().Format(time.DateTime),
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
			strconv.Itoa(r.FilesTotal),
			strconv.Itoa(r.FilesSucceeded),
			strconv.Itoa(r.FilesSkipped),
			failed,
			strconv.Itoa(r.BatchesFailed),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

// shortID keeps the first eight characters of an identifier.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
