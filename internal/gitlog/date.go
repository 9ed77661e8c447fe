package gitlog

import (
	"strings"
	"time"
)

// dateLayouts are the git --date formats recognized, default format first.
var dateLayouts = []string{
	"Mon Jan 2 15:04:05 2006 -0700",  // default
	"Mon, 2 Jan 2006 15:04:05 -0700", // rfc2822
	"2006-01-02 15:04:05 -0700",      // iso
	time.RFC3339,                     // iso-strict
	"Mon Jan 2 15:04:05 2006",        // local
}

// ParseDate parses a git Date header value. It returns the zero time when no layout matches.
func ParseDate(raw string) time.Time {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
