package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - The "YYYY-MM" period key used for billing and reporting
// =============================================================================

// Month identifies one calendar month. It is the key for invoice
// history records and the unit of revenue/hour attribution.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ThisMonth() Month { return MonthOf(time.Now().UTC()) }

// ParseMonth parses a "YYYY-MM" period key.
func ParseMonth(key string) (Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrBadPeriodKey, key)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Key renders the canonical "YYYY-MM" form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) String() string { return m.Key() }

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the month.
func (m Month) End() time.Time {
	return time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func (m Month) AddMonths(n int) Month {
	t := m.Start().AddDate(0, n, 0)
	return MonthOf(t)
}

func (m Month) Next() Month     { return m.AddMonths(1) }
func (m Month) Previous() Month { return m.AddMonths(-1) }

// Comparison
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Month < other.Month)
}
func (m Month) After(other Month) bool        { return other.Before(m) }
func (m Month) Equal(other Month) bool        { return m == other }
func (m Month) BeforeOrEqual(o Month) bool    { return !m.After(o) }
func (m Month) AfterOrEqual(o Month) bool     { return !m.Before(o) }

// MonthsBetween counts whole months from a to b; negative when b is
// earlier. MonthsBetween(2024-01, 2024-04) == 3.
func MonthsBetween(a, b Month) int {
	return (b.Year-a.Year)*12 + int(b.Month-a.Month)
}

// Elapsed reports whether the month has fully passed as of now: the
// last day of the month is strictly before now's calendar day.
func (m Month) Elapsed(now time.Time) bool {
	return m.End().Before(DayOf(now))
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return MonthOf(t) == m
}

// =============================================================================
// PERIOD - An inclusive day-bounded reporting window
// =============================================================================

// Period is a reporting window [Start, End], inclusive on both ends
// and normalized to whole days.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod normalizes both bounds to midnight UTC.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: DayOf(start), End: DayOf(end)}
	if p.End.Before(p.Start) {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// MonthPeriod returns the period spanning exactly one month.
func MonthPeriod(m Month) Period {
	return Period{Start: m.Start(), End: m.End()}
}

// YearPeriod returns the calendar-year period.
func YearPeriod(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	d := DayOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Months enumerates every calendar month the period touches, in order.
func (p Period) Months() []Month {
	var months []Month
	current := MonthOf(p.Start)
	last := MonthOf(p.End)
	for current.BeforeOrEqual(last) {
		months = append(months, current)
		current = current.Next()
	}
	return months
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// DayOf truncates a time to midnight UTC on its calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
