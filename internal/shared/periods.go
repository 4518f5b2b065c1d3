package shared

import (
	"fmt"
	"time"
)

// PeriodEndLayout is the wire format for period end dates.
const PeriodEndLayout = "2006-01-02"

// ParsePeriodEnd parses a period end date in YYYY-MM-DD form, normalised to UTC.
func ParsePeriodEnd(value string) (time.Time, error) {
	t, err := time.Parse(PeriodEndLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period end date %q: %w", value, err)
	}
	return t.UTC(), nil
}

// SameCalendarMonth reports whether two dates fall in the same month and year.
func SameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// InYearToDate reports whether d lies in the same calendar year as asOf
// and does not fall after it.
func InYearToDate(d, asOf time.Time) bool {
	return d.Year() == asOf.Year() && !d.After(asOf)
}
