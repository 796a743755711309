package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    Frequency
		wantErr bool
	}{
		{"", Freq1Day, false},
		{"1 day", Freq1Day, false},
		{"  15   Minutes ", Freq15Minutes, false},
		{"1 QUARTER", Freq1Quarter, false},
		{"2 days", "", true},
		{"weekly", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrequencyClassAndRank(t *testing.T) {
	assert.True(t, Freq6Hours.IsSubDaily())
	assert.Equal(t, Daily, Freq1Day.Class())
	assert.True(t, Freq1Year.IsSuperDaily())
	assert.Equal(t, FrequencyClass(""), Frequency("1 week").Class())
	assert.Less(t, Freq1Hour.Rank(), Freq1Month.Rank())
	assert.Equal(t, -1, Frequency("1 week").Rank())
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator(" MEAN ")
	require.NoError(t, err)
	assert.Equal(t, MeanOperator, op)

	_, err = ParseOperator("median")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestScopeMode(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		want  ScopeMode
	}{
		{"empty", Scope{}, ScopeNone},
		{"points", Scope{PointIDs: []string{"P1"}}, ScopeByPoints},
		{"preleveur narrowed by points", Scope{PreleveurID: "PR1", PointIDs: []string{"P1"}}, ScopeByPreleveur},
		{"attachment", Scope{AttachmentID: "A1"}, ScopeByAttachment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Mode())
		})
	}
}

func TestDateHelpers(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-1-5"))

	assert.True(t, DateInRange("2024-01-15", "", ""))
	assert.True(t, DateInRange("2024-01-15", "2024-01-15", "2024-01-15"))
	assert.False(t, DateInRange("2024-01-14", "2024-01-15", ""))
	assert.False(t, DateInRange("2024-01-16", "", "2024-01-15"))

	assert.True(t, RangesIntersect("2024-01-01", "2024-12-31", "2024-06-01", "2025-01-01"))
	assert.True(t, RangesIntersect("", "", "2024-06-01", "2024-06-30"))
	assert.False(t, RangesIntersect("2024-07-01", "2024-12-31", "", "2024-06-30"))
	assert.False(t, RangesIntersect("2024-01-01", "2024-05-31", "2024-06-01", ""))
}

func TestFormatOperators(t *testing.T) {
	assert.Equal(t, "none", FormatOperators(nil))
	assert.Equal(t, "sum, mean", FormatOperators([]Operator{SumOperator, MeanOperator}))
}

func FuzzParseFrequency(f *testing.F) {
	for _, freq := range AllFrequencies {
		f.Add(string(freq))
	}
	f.Add("  1   DAY")
	f.Fuzz(func(t *testing.T, input string) {
		got, err := ParseFrequency(input)
		if err != nil {
			return
		}
		assert.True(t, got.Valid())
	})
}
