package gitlog

import (
	"regexp"
	"testing"
)

var hashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// FuzzParseAll fuzzes the parser with arbitrary log text.
func FuzzParseAll(f *testing.F) {
	seeds := []string{
		"",
		"commit 1111111111111111111111111111111111111111\nAuthor: A <a@x>\nDate:   Tue Mar 5 12:00:00 2024 +0000\n\n    msg\n",
		"commit 2222222222222222222222222222222222222222\nMerge: 1 2\nAuthor: B\nDate: x\n\n    merge\n",
		"commit 3333333333333333333333333333333333333333\nAuthor: C\n",
		"not a log at all",
		"    commit 4444444444444444444444444444444444444444\n",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, text string) {
		records, stats := ParseAll(text)
		if stats.Parsed+stats.Skipped != stats.Blocks {
			t.Fatalf("parsed %d + skipped %d != blocks %d", stats.Parsed, stats.Skipped, stats.Blocks)
		}
		if len(records) != stats.Parsed {
			t.Fatalf("got %d records, stats say %d", len(records), stats.Parsed)
		}
		for _, rec := range records {
			if !hashRe.MatchString(rec.Hash) {
				t.Fatalf("bad hash %q", rec.Hash)
			}
		}
	})
}

// FuzzParseDate fuzzes the Date header parser.
func FuzzParseDate(f *testing.F) {
	seeds := []string{
		"Tue Mar 5 12:00:00 2024 +0000",
		"Mon Jan 1 00:00:00 1970 -0130",
		"2024-03-05T12:00:00Z",
		"",
		"someday",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, raw string) {
		_ = ParseDate(raw)
	})
}
