package schema

import (
	"strings"
	"time"
)

// DateLayout is the layout of every calendar date handled by the engine.
const DateLayout = "2006-01-02"

// FormatOperators joins operators for messages. An empty set reads "none".
func FormatOperators(ops []Operator) string {
	if len(ops) == 0 {
		return "none"
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}

// FormatFrequencies joins frequencies for messages.
func FormatFrequencies(freqs []Frequency) string {
	parts := make([]string, len(freqs))
	for i, f := range freqs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateInRange reports whether date lies within [start, end]. Empty bounds are open.
// Dates compare lexically because they share the YYYY-MM-DD layout.
func DateInRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

// RangesIntersect reports whether [minDate, maxDate] intersects [start, end].
// Empty bounds are open on every side.
func RangesIntersect(minDate, maxDate, start, end string) bool {
	if end != "" && minDate != "" && minDate > end {
		return false
	}
	if start != "" && maxDate != "" && maxDate < start {
		return false
	}
	return true
}
