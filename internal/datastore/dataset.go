// Package datastore stores series and their value documents in SQL databases
// or S3, and loads them from JSON datasets.
package datastore

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/prelev/prelev/core/agg"
	"github.com/prelev/prelev/schema"
)

// Dataset is the JSON file imported by the load command.
type Dataset struct {
	Preleveurs []PreleveurRecord `json:"preleveurs"`
	Series     []SeriesRecord    `json:"series"`
}

// PreleveurRecord lists the points operated by one préleveur.
type PreleveurRecord struct {
	ID     string   `json:"id"`
	Points []string `json:"points"`
}

// SeriesRecord is one series with its attachments and documents.
type SeriesRecord struct {
	schema.SeriesDescriptor
	Attachments []string               `json:"attachments,omitempty"`
	Documents   []schema.ValueDocument `json:"documents"`
}

// ReadDataset decodes and validates a dataset.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks identifiers, frequencies and dates.
func (ds *Dataset) Validate() error {
	for _, p := range ds.Preleveurs {
		if p.ID == "" {
			return fmt.Errorf("préleveur without id")
		}
	}

	seen := make(map[string]bool, len(ds.Series))
	for i, s := range ds.Series {
		switch {
		case s.ID == "":
			return fmt.Errorf("series #%d has no id", i)
		case seen[s.ID]:
			return fmt.Errorf("duplicate series %q", s.ID)
		case s.Point == "":
			return fmt.Errorf("series %q has no point", s.ID)
		case s.Parameter == "":
			return fmt.Errorf("series %q has no parameter", s.ID)
		case !s.Frequency.Valid():
			return fmt.Errorf("series %q has invalid frequency %q", s.ID, s.Frequency)
		}
		seen[s.ID] = true

		for _, d := range s.IntegratedDays {
			if !schema.ValidDate(d) {
				return fmt.Errorf("series %q has invalid integrated day %q", s.ID, d)
			}
		}
		for _, doc := range s.Documents {
			if !schema.ValidDate(doc.Date) {
				return fmt.Errorf("series %q has a document with invalid date %q", s.ID, doc.Date)
			}
		}
	}
	return nil
}

// Prepare sorts the documents of s by date, fills in missing date bounds and,
// for sub-daily series, computes the daily aggregates of every raw document.
func Prepare(s SeriesRecord) SeriesRecord {
	docs := make([]schema.ValueDocument, len(s.Documents))
	copy(docs, s.Documents)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Date < docs[j].Date })

	if s.Frequency.IsSubDaily() {
		for i := range docs {
			if docs[i].Samples != nil {
				docs[i].DailyAggregates = DailyAggregatesOf(docs[i].Samples)
			}
		}
	}

	if len(docs) > 0 {
		if s.MinDate == "" {
			s.MinDate = docs[0].Date
		}
		if s.MaxDate == "" {
			s.MaxDate = docs[len(docs)-1].Date
		}
	}
	s.Documents = docs
	return s
}

// DailyAggregatesOf reduces one day of raw samples with every operator.
// Every distinct remark of the day is kept; queries cap them at their own
// remark limit. It returns nil when no sample holds a valid value.
func DailyAggregatesOf(samples []schema.TimedValue) *schema.DailyAggregates {
	normalized := agg.Normalize(anySlice(samples)...)

	out := &schema.DailyAggregates{}
	found := false
	for _, op := range schema.AllOperators {
		r, err := agg.ReduceWithLimit(normalized, op, len(normalized))
		if err != nil || r == nil {
			continue
		}
		found = true
		v := schema.NewNullFloat(r.Value)
		switch op {
		case schema.SumOperator:
			out.Sum = &v
		case schema.MeanOperator:
			out.Mean = &v
		case schema.MinOperator:
			out.Min = &v
		case schema.MaxOperator:
			out.Max = &v
		}
		out.UniqueRemarks = r.Remarks
	}
	if !found {
		return nil
	}
	return out
}

func anySlice(samples []schema.TimedValue) []any {
	items := make([]any, len(samples))
	for i, s := range samples {
		items[i] = s
	}
	return items
}
