package contract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	FailColor    = color.New(color.FgRed, color.Bold) // FailColor marks failed files and batches.
	SkipColor    = color.New(color.FgYellow)          // SkipColor marks skipped work.
	SuccessColor = color.New(color.FgGreen)           // SuccessColor marks completed work.
)

// NormalizePath converts a repository-relative path to the form stored in the files table:
// forward slashes, no leading "./". Unicode form is kept as listed since git
// matches path bytes exactly.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, string(filepath.Separator), "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// Patterns with glob characters are matched with doublestar against the path and
// its base name. Patterns ending with '/' are treated as prefixes. Patterns starting
// with '.' are treated as suffix (extension) matches. Anything else is a substring.
func ShouldIgnore(p string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[{") {
			if ok, err := doublestar.Match(ex, p); err == nil && ok {
				return true
			}
			if ok, err := doublestar.Match(ex, path.Base(p)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(p, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(p, ex) {
				return true
			}
		case strings.Contains(p, ex):
			return true
		}
	}
	return false
}

// ShouldInclude returns true when includes is empty or any doublestar pattern matches.
func ShouldInclude(p string, includes []string) bool {
	if len(includes) == 0 {
		return true
	}
	for _, in := range includes {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if ok, err := doublestar.Match(in, p); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterFiles normalizes paths, drops duplicates and empties, and applies include/exclude patterns.
// Input order is preserved.
func FilterFiles(files []string, includes, excludes []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		f = NormalizePath(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if !ShouldInclude(f, includes) || ShouldIgnore(f, excludes) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SelectOutputFile returns the file handle for output. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncatePath shortens path from the left so it fits in maxWidth runes.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// SplitList splits a comma-separated flag value into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the default SQLite DB file.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".commitmap.db"
	}
	return filepath.Join(homeDir, ".commitmap.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
