package schema

import "time"

// CommitRecord is one commit parsed out of git log text.
type CommitRecord struct {
	Hash    string    `json:"hash"`    // 40 lowercase hex characters
	Author  string    `json:"author"`  // Author header value, e.g. "Jane Doe <jane@example.com>"
	Date    string    `json:"date"`    // Raw Date header value as printed by git
	When    time.Time `json:"when"`    // Parsed Date, zero when the layout is not recognized
	Message string    `json:"message"` // Trimmed message lines joined by newlines
}

// StoredDate returns the value written to the date column.
// Known layouts are normalized to RFC3339 in UTC; anything else is kept verbatim.
func (c CommitRecord) StoredDate() string {
	if c.When.IsZero() {
		return c.Date
	}
	return c.When.UTC().Format(time.RFC3339)
}

// Relation links one commit to one file it touched.
type Relation struct {
	CommitHash string `json:"commit_hash"`
	FilePath   string `json:"file_path"`
}

// BatchFailure describes one batch that was rolled back.
type BatchFailure struct {
	Op      string `json:"op"`
	BatchID string `json:"batch_id"`
	Size    int    `json:"size"`
	Err     string `json:"error"`
}

// FileFailure describes one file whose history could not be read.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// RunSummary aggregates the outcome of a populate run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	RepoPath  string    `json:"repo_path"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	FilesTotal     int `json:"files_total"`
	FilesSucceeded int `json:"files_succeeded"`
	FilesSkipped   int `json:"files_skipped"` // history read but empty, or relations skipped after an endpoint failure
	FilesFailed    int `json:"files_failed"`

	CommitsSeen      int `json:"commits_seen"`   // distinct commits per chunk, root pass excluded
	RelationsSeen    int `json:"relations_seen"` // relations built from file histories
	ParseSkips       int `json:"parse_skips"`
	BatchesSucceeded int `json:"batches_succeeded"`
	BatchesFailed    int `json:"batches_failed"`

	RootHistoryLoaded bool `json:"root_history_loaded"`

	FileFailures  []FileFailure  `json:"file_failures"`
	BatchFailures []BatchFailure `json:"batch_failures"`
}

// Duration returns the elapsed wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Merge folds a partial summary produced by one worker into s.
func (s *RunSummary) Merge(other *RunSummary) {
	if other == nil {
		return
	}
	s.FilesSucceeded += other.FilesSucceeded
	s.FilesSkipped += other.FilesSkipped
	s.FilesFailed += other.FilesFailed
	s.CommitsSeen += other.CommitsSeen
	s.RelationsSeen += other.RelationsSeen
	s.ParseSkips += other.ParseSkips
	s.BatchesSucceeded += other.BatchesSucceeded
	s.BatchesFailed += other.BatchesFailed
	s.FileFailures = append(s.FileFailures, other.FileFailures...)
	s.BatchFailures = append(s.BatchFailures, other.BatchFailures...)
}

// StoreStatus represents the status of the relation store.
type StoreStatus struct {
	Backend        string    `json:"backend"`
	Connected      bool      `json:"connected"`
	Commits        int64     `json:"commits"`
	Files          int64     `json:"files"`
	Relations      int64     `json:"relations"`
	Runs           int64     `json:"runs"`
	LastRunID      string    `json:"last_run_id"`
	LastRunTime    time.Time `json:"last_run_time"`
	TableSizeBytes int64     `json:"table_size_bytes"`
}

// RunRecord represents a row from the commitmap_runs table.
type RunRecord struct {
	RunID          string    `json:"run_id"`
	RepoPath       string    `json:"repo_path"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationMs     int64     `json:"duration_ms"`
	FilesTotal     int       `json:"files_total"`
	FilesSucceeded int       `json:"files_succeeded"`
	FilesSkipped   int       `json:"files_skipped"`
	FilesFailed    int       `json:"files_failed"`
	BatchesFailed  int       `json:"batches_failed"`
}
