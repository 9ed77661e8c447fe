// Package gitlog turns default-format `git log` text into commit records.
package gitlog

import (
	"iter"
	"regexp"
	"strings"

	"github.com/huangsam/commitmap/schema"
)

// MinBlockLines is the smallest number of lines a commit block needs to be parsed.
// Shorter blocks are skipped.
const MinBlockLines = 5

// markerRe matches a commit boundary. It is line-anchored, so an indented
// "commit <hash>" inside a message body never starts a new block, and the
// hash must end at a word boundary, so longer object names are not truncated.
var markerRe = regexp.MustCompile(`(?m)^commit ([0-9a-f]{40})\b`)

// Stats counts what the parser saw.
type Stats struct {
	Blocks  int // boundary markers found
	Parsed  int // records produced
	Skipped int // blocks dropped for being too short or lacking Author/Date
}

// state is the position of the block parser.
type state int

const (
	seekMarker state = iota
	readHeader
	readMessage
	done
)

// Parse returns a lazy sequence of commits found in text, in text order.
// Empty text or text without markers yields nothing.
func Parse(text string) iter.Seq[schema.CommitRecord] {
	return ParseWithStats(text, nil)
}

// ParseWithStats is Parse that also records counters into stats when it is non-nil.
func ParseWithStats(text string, stats *Stats) iter.Seq[schema.CommitRecord] {
	return func(yield func(schema.CommitRecord) bool) {
		for span := range Blocks(text) {
			if stats != nil {
				stats.Blocks++
			}
			rec, ok := parseBlock(span)
			if !ok {
				if stats != nil {
					stats.Skipped++
				}
				continue
			}
			if stats != nil {
				stats.Parsed++
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// ParseAll collects every record in text.
func ParseAll(text string) ([]schema.CommitRecord, Stats) {
	var stats Stats
	var out []schema.CommitRecord
	for rec := range ParseWithStats(text, &stats) {
		out = append(out, rec)
	}
	return out, stats
}

// Blocks splits text into spans running from one commit marker to the next, or to the end.
func Blocks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		locs := markerRe.FindAllStringIndex(text, -1)
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			if !yield(text[loc[0]:end]) {
				return
			}
		}
	}
}

// parseBlock runs the header/message state machine over one span.
func parseBlock(span string) (schema.CommitRecord, bool) {
	lines := splitLines(strings.TrimSpace(span))
	if len(lines) < MinBlockLines {
		return schema.CommitRecord{}, false
	}

	var rec schema.CommitRecord
	var msg []string
	body := len(lines)
	st := seekMarker

	for st != done {
		switch st {
		case seekMarker:
			m := markerRe.FindStringSubmatch(lines[0])
			if m == nil {
				return schema.CommitRecord{}, false
			}
			rec.Hash = m[1]
			st = readHeader

		case readHeader:
			// Merge, signature and other lines may precede Author and Date.
			var hasAuthor, hasDate bool
			for i, l := range lines[1:] {
				if strings.TrimSpace(l) == "" {
					body = i + 2
					break
				}
				switch {
				case !hasAuthor && strings.HasPrefix(l, "Author:"):
					rec.Author, hasAuthor = fieldValue(l, "Author:"), true
				case !hasDate && strings.HasPrefix(l, "Date:"):
					rec.Date, hasDate = fieldValue(l, "Date:"), true
				}
			}
			if !hasAuthor || !hasDate {
				return schema.CommitRecord{}, false
			}
			rec.When = ParseDate(rec.Date)
			st = readMessage

		case readMessage:
			for _, l := range lines[body:] {
				msg = append(msg, strings.TrimSpace(l))
			}
			rec.Message = strings.TrimSpace(strings.Join(msg, "\n"))
			st = done
		}
	}
	return rec, true
}

// fieldValue strips a header label and surrounding whitespace.
func fieldValue(line, label string) string {
	line = strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimPrefix(line, label))
}

// splitLines splits on \n and drops a trailing \r from each line.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
