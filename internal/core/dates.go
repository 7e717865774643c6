package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateTimeLayout is the operation date format of the bank export.
	DateTimeLayout = "02.01.2006 15:04:05"
	// DateLayout is the payment date format of the bank export.
	DateLayout = "02.01.2006"
	// ISODateTimeLayout is the format accepted for report reference dates.
	ISODateTimeLayout = "2006-01-02 15:04:05"
	ISODateLayout     = "2006-01-02"
)

// dayFirstLayouts are tried in order by ParseDate.
var dayFirstLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"02.01.2006 15:04",
	ISODateLayout,
	ISODateTimeLayout,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// ParseOperationDate parses s using DateTimeLayout only. A spreadsheet
// serial number is also accepted, since typed date cells are read raw.
func ParseOperationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err == nil {
		return t, nil
	}
	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		if t, ok := FromSerial(f); ok {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ParseDate parses a day-first date with or without a time part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := FromSerial(f); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FromSerial converts a spreadsheet serial date (days since 1899-12-30,
// fraction is the time of day) to local time, rounded to the second.
func FromSerial(days float64) (time.Time, bool) {
	if math.IsNaN(days) || days < 1 || days >= 2958466 {
		return time.Time{}, false
	}
	whole := math.Floor(days)
	secs := math.Round((days - whole) * 86400)
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.Local)
	return epoch.AddDate(0, 0, int(whole)).Add(time.Duration(secs) * time.Second), true
}

// MonthStart returns midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts t by n calendar months, clamping the day to the length of
// the target month (31 May minus 3 months is 28 or 29 February).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := t.Day()
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Within reports whether t lies in [start, end]. Zero times never match.
func Within(t, start, end time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// ParseReference parses a report reference date ("2006-01-02 15:04:05",
// "2006-01-02" or any day-first layout). An empty string yields now.
func ParseReference(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD HH:MM:SS", s)
	}
	return t, nil
}
