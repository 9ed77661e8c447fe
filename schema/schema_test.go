package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommitRecord_StoredDate(t *testing.T) {
	raw := CommitRecord{Date: "sometime last week"}
	assert.Equal(t, "sometime last week", raw.StoredDate())

	when := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600))
	parsed := CommitRecord{Date: "Fri Mar 1 10:00:00 2024 +0200", When: when}
	assert.Equal(t, "2024-03-01T08:00:00Z", parsed.StoredDate())
}

func TestRunSummary_Merge(t *testing.T) {
	total := &RunSummary{FilesTotal: 3}
	total.Merge(&RunSummary{FilesSucceeded: 1, CommitsSeen: 4, BatchesSucceeded: 3})
	total.Merge(&RunSummary{
		FilesFailed:   1,
		BatchesFailed: 1,
		FileFailures:  []FileFailure{{Path: "a.go", Err: errors.New("boom").Error()}},
		BatchFailures: []BatchFailure{{Op: OpFiles, BatchID: "w1-c0-files-0", Size: 2}},
	})
	total.Merge(nil)

	assert.Equal(t, 3, total.FilesTotal)
	assert.Equal(t, 1, total.FilesSucceeded)
	assert.Equal(t, 1, total.FilesFailed)
	assert.Equal(t, 4, total.CommitsSeen)
	assert.Equal(t, 3, total.BatchesSucceeded)
	assert.Equal(t, 1, total.BatchesFailed)
	assert.Len(t, total.FileFailures, 1)
	assert.Len(t, total.BatchFailures, 1)
}

func TestRunSummary_Duration(t *testing.T) {
	start := time.Now()
	s := &RunSummary{StartTime: start}
	assert.Zero(t, s.Duration())
	s.EndTime = start.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, s.Duration())
}
