package agg

import (
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubDailyPeriod(t *testing.T) {
	tests := []struct {
		name        string
		time        string
		granularity schema.Frequency
		expected    string
	}{
		{"15 minutes floors", "10:07", schema.Freq15Minutes, "2024-01-15 10:00"},
		{"15 minutes on boundary", "10:45", schema.Freq15Minutes, "2024-01-15 10:45"},
		{"15 minutes end of hour", "10:59", schema.Freq15Minutes, "2024-01-15 10:45"},
		{"1 hour", "10:07", schema.Freq1Hour, "2024-01-15 10:00"},
		{"6 hours", "14:30", schema.Freq6Hours, "2024-01-15 12:00"},
		{"6 hours midnight bucket", "05:59", schema.Freq6Hours, "2024-01-15 00:00"},
		{"6 hours last bucket", "23:10", schema.Freq6Hours, "2024-01-15 18:00"},
		{"seconds accepted", "10:07:30", schema.Freq15Minutes, "2024-01-15 10:00"},
		{"unknown granularity", "10:07", schema.Freq1Day, "2024-01-15 10:07"},
		{"unparsable time", "midi", schema.Freq1Hour, "2024-01-15 midi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubDailyPeriod("2024-01-15", tt.time, tt.granularity))
		})
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		date     string
		freq     schema.Frequency
		expected string
	}{
		{"2024-02-15", schema.Freq1Month, "2024-02"},
		{"2024-05-01", schema.Freq1Quarter, "2024-Q2"},
		{"2024-03-31", schema.Freq1Quarter, "2024-Q1"},
		{"2024-12-31", schema.Freq1Quarter, "2024-Q4"},
		{"2024-01-01", schema.Freq1Year, "2024"},
		{"2024-01-01", schema.Freq1Day, "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.date+" "+string(tt.freq), func(t *testing.T) {
			key, err := PeriodKey(tt.date, tt.freq)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestPeriodKeyInvalidMonth(t *testing.T) {
	for _, date := range []string{"2024-13-01", "2024-00-10", "2024"} {
		t.Run(date, func(t *testing.T) {
			_, err := PeriodKey(date, schema.Freq1Quarter)
			assert.ErrorIs(t, err, schema.ErrInvalidMonth)
		})
	}
}
