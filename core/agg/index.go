package agg

import (
	"sort"

	"github.com/prelev/prelev/schema"
)

// PeriodIndex groups values by period key and keeps the keys sorted
// ascending by binary insertion, so iteration order never depends on map order.
type PeriodIndex struct {
	keys  []string
	items map[string][]schema.ExtractedValue
}

// NewPeriodIndex creates an empty index.
func NewPeriodIndex() *PeriodIndex {
	return &PeriodIndex{items: make(map[string][]schema.ExtractedValue)}
}

// Add appends values to the groups matching their periods.
func (p *PeriodIndex) Add(values ...schema.ExtractedValue) {
	for _, v := range values {
		if _, ok := p.items[v.Period]; !ok {
			i := sort.SearchStrings(p.keys, v.Period)
			p.keys = append(p.keys, "")
			copy(p.keys[i+1:], p.keys[i:])
			p.keys[i] = v.Period
		}
		p.items[v.Period] = append(p.items[v.Period], v)
	}
}

// Keys returns the period keys in ascending order.
func (p *PeriodIndex) Keys() []string {
	return p.keys
}

// Get returns the values grouped under period.
func (p *PeriodIndex) Get(period string) []schema.ExtractedValue {
	return p.items[period]
}

// Len returns the number of distinct periods.
func (p *PeriodIndex) Len() int {
	return len(p.keys)
}
