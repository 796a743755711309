package agg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prelev/prelev/schema"
)

// SubDailyPeriod floors an HH:MM time to the start of its sub-daily bucket and
// returns the "YYYY-MM-DD HH:MM" period key. Unknown granularities and
// unparsable times return date and time joined unchanged.
func SubDailyPeriod(date, hhmm string, granularity schema.Frequency) string {
	raw := date + " " + hhmm

	var step int // minutes
	switch granularity {
	case schema.Freq15Minutes:
		step = 15
	case schema.Freq1Hour:
		step = 60
	case schema.Freq6Hours:
		step = 6 * 60
	default:
		return raw
	}

	hour, minute, ok := parseClock(hhmm)
	if !ok {
		return raw
	}
	floored := (hour*60 + minute) / step * step
	return fmt.Sprintf("%s %02d:%02d", date, floored/60, floored%60)
}

// parseClock reads HH:MM, also accepting HH:MM:SS.
func parseClock(s string) (int, int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// PeriodKey maps a YYYY-MM-DD date to the period key of a coarse frequency:
// YYYY-MM for months, YYYY-QN for quarters and YYYY for years. Any other
// frequency returns the date unchanged.
func PeriodKey(date string, freq schema.Frequency) (string, error) {
	switch freq {
	case schema.Freq1Month, schema.Freq1Quarter, schema.Freq1Year:
	default:
		return date, nil
	}

	if len(date) < 4 {
		return "", schema.NewInvalidRequestError(fmt.Sprintf("invalid date %q", date))
	}
	year := date[:4]
	if freq == schema.Freq1Year {
		return year, nil
	}

	month, err := monthOf(date)
	if err != nil {
		return "", err
	}
	if freq == schema.Freq1Month {
		return fmt.Sprintf("%s-%02d", year, month), nil
	}
	return fmt.Sprintf("%s-Q%d", year, (month+2)/3), nil
}

func monthOf(date string) (int, error) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0, schema.NewInvalidMonthError(date)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, schema.NewInvalidMonthError(date)
	}
	return month, nil
}
