package agg

import (
	"sort"

	"github.com/prelev/prelev/schema"
)

// HasOverlap reports whether some integrated day is claimed by two or more
// distinct series. Raw date ranges never participate.
func HasOverlap(series []schema.SeriesDescriptor) bool {
	return len(OverlappingDays(series, "", "")) > 0
}

// OverlappingDays returns, in ascending order, the integrated days inside
// [start, end] claimed by more than one distinct series. Empty bounds are open.
func OverlappingDays(series []schema.SeriesDescriptor, start, end string) []string {
	if len(series) < 2 {
		return nil
	}
	owners := make(map[string]string) // day -> first series id
	conflicts := make(map[string]bool)
	for _, s := range series {
		for _, day := range s.IntegratedDays {
			if !schema.DateInRange(day, start, end) {
				continue
			}
			first, ok := owners[day]
			if !ok {
				owners[day] = s.ID
				continue
			}
			if first != s.ID {
				conflicts[day] = true
			}
		}
	}
	days := make([]string, 0, len(conflicts))
	for day := range conflicts {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
