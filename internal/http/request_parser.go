package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finreport/internal/core"
	"finreport/internal/storage"
)

// MaxHistoryLimit caps the limit parameter of the history endpoint.
const MaxHistoryLimit = 1000

// paramError is a client mistake in the query string.
type paramError struct {
	param string
	msg   string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.param, e.msg)
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseReferenceDate reads the date parameter, defaulting to now.
func ParseReferenceDate(query url.Values, now time.Time) (time.Time, error) {
	t, err := core.ParseReference(query.Get("date"), now)
	if err != nil {
		return time.Time{}, &paramError{param: "date", msg: err.Error()}
	}
	return t, nil
}

// ParseOptionalDate reads the date parameter, returning nil when absent.
func ParseOptionalDate(query url.Values) (*time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return nil, nil
	}
	t, err := core.ParseReference(v, time.Time{})
	if err != nil {
		return nil, &paramError{param: "date", msg: err.Error()}
	}
	return &t, nil
}

// ParseMonthParams extracts year and month from query parameters, using
// now's year and month for absent values.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, &paramError{param: "year", msg: fmt.Sprintf("%q is not a year", v)}
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, &paramError{param: "month", msg: fmt.Sprintf("%q must be between 1 and 12", v)}
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// ParseCategory returns the required category parameter.
func ParseCategory(query url.Values) (string, error) {
	c := sanitizeInput(query.Get("category"))
	if c == "" {
		return "", &paramError{param: "category", msg: "required"}
	}
	return c, nil
}

// ParseBool accepts the strconv.ParseBool spellings; absent means false.
func ParseBool(query url.Values, name string) (bool, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &paramError{param: name, msg: fmt.Sprintf("%q is not a boolean", v)}
	}
	return b, nil
}

// ParseHistoryFilter reads kind, symbol and limit.
func ParseHistoryFilter(query url.Values) (storage.HistoryFilter, error) {
	f := storage.HistoryFilter{
		Kind:   strings.ToLower(strings.TrimSpace(query.Get("kind"))),
		Symbol: sanitizeInput(query.Get("symbol")),
	}
	switch f.Kind {
	case "", storage.KindCurrency, storage.KindStock:
	default:
		return f, &paramError{param: "kind", msg: fmt.Sprintf("must be %s or %s", storage.KindCurrency, storage.KindStock)}
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxHistoryLimit {
			return f, &paramError{param: "limit", msg: fmt.Sprintf("must be between 1 and %d", MaxHistoryLimit)}
		}
		f.Limit = n
	}
	return f, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
