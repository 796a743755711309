package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/prelev/prelev/schema"
)

// Color variables for console output.
var (
	WarningColor       = color.New(color.FgYellow, color.Bold) // WarningColor flags parameter and merge warnings.
	CumulativeColor    = color.New(color.FgCyan)               // CumulativeColor marks summable parameters.
	InstantaneousColor = color.New(color.FgMagenta)            // InstantaneousColor marks point-in-time parameters.
	DefaultOpColor     = color.New(color.Bold)                 // DefaultOpColor highlights default operators.
)

// GetValueTypeLabel returns a colored label for a value type.
func GetValueTypeLabel(vt schema.ValueType) string {
	switch vt {
	case schema.CumulativeValue:
		return CumulativeColor.Sprint(string(vt))
	case schema.InstantaneousValue:
		return InstantaneousColor.Sprint(string(vt))
	default:
		return string(vt)
	}
}

// FormatOperatorSet renders legal operators with the default one starred,
// e.g. "sum*, mean, min, max". An empty set reads "none".
func FormatOperatorSet(ops []schema.Operator, def schema.Operator, useColors bool) string {
	if len(ops) == 0 {
		return "none"
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
		if op == def {
			parts[i] += "*"
			if useColors {
				parts[i] = DefaultOpColor.Sprint(parts[i])
			}
		}
	}
	return strings.Join(parts, ", ")
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// SplitList splits a comma separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
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

// LogInfo logs a progress message to stderr.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "Info "+format+"\n", args...)
}

func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for series and values.
func GetStoreDBFilePath() string {
	return homeFile(".prelev_store.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cached results.
func GetCacheDBFilePath() string {
	return homeFile(".prelev_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run tracking.
func GetRunsDBFilePath() string {
	return homeFile(".prelev_runs.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character of content remains.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
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
