package insights

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensify/internal/core"
)

// Month selects a calendar month for reporting.
type Month struct {
	Year  int
	Month time.Month
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start core.Date
	End   core.Date
}

// ParseMonth parses a strict YYYY-MM selector.
func ParseMonth(selector string) (Month, error) {
	s := strings.TrimSpace(selector)
	if s == "" {
		return Month{}, fmt.Errorf("%w: month is required (YYYY-MM)", ErrInvalidSelector)
	}
	if len(s) != len("2006-01") || s[4] != '-' {
		return Month{}, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidSelector, selector)
	}
	year, err := parseDigits(s[:4])
	if err != nil || year < 1 {
		return Month{}, fmt.Errorf("%w: invalid year in %q", ErrInvalidSelector, selector)
	}
	month, err := parseDigits(s[5:])
	if err != nil || month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: invalid month in %q", ErrInvalidSelector, selector)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// parseDigits rejects signs and spaces that strconv.Atoi would otherwise accept.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// MonthOf returns the month containing d.
func MonthOf(d core.Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// Range resolves the month to its first and last calendar day.
func (m Month) Range() Range {
	start := core.NewDate(m.Year, m.Month, 1)
	return Range{
		Start: start,
		End:   core.DateOf(start.AddDate(0, 1, -1)),
	}
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	return MonthOf(core.NewDate(m.Year, m.Month, 1).AddDays(-1))
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Days returns the number of calendar days in the range, both ends included.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d core.Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}
