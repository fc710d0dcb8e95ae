package deposit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MONTH KEY - Normalized (year, month) pair
// =============================================================================

// MonthKey identifies one calendar month. Periods are keyed and ordered by it.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the month containing now, in UTC.
func CurrentMonth() MonthKey {
	return MonthOf(time.Now().UTC())
}

// Comparison
func (m MonthKey) index() int { return m.Year*12 + int(m.Month) - 1 }
func (m MonthKey) Before(other MonthKey) bool { return m.index() < other.index() }
func (m MonthKey) After(other MonthKey) bool { return m.index() > other.index() }
func (m MonthKey) BeforeOrEqual(o MonthKey) bool { return !m.After(o) }

// Next returns the following calendar month.
func (m MonthKey) Next() MonthKey {
	if m.Month == time.December {
		return MonthKey{Year: m.Year + 1, Month: time.January}
	}
	return MonthKey{Year: m.Year, Month: m.Month + 1}
}

// Start returns the first day of the month at midnight UTC.
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Label is the short display name, e.g. "Jan".
func (m MonthKey) Label() string {
	return m.Month.String()[:3]
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%s-%d", m.Label(), m.Year)
}

// Valid reports whether m names a real month.
func (m MonthKey) Valid() bool {
	return m.Month >= time.January && m.Month <= time.December && m.Year > 0
}

// MonthsBetween returns the number of whole calendar-month steps from a to b.
// Negative when b is before a.
func MonthsBetween(a, b MonthKey) int {
	return b.index() - a.index()
}

// ParseMonth accepts a short or long English month name ("Jan", "january")
// or a number "1".."12".
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	if len(s) >= 3 {
		for m := time.January; m <= time.December; m++ {
			name := m.String()
			if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
				return m, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp (the web client
// sends ISO strings) and returns the calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}
