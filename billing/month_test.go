package billing_test

import (
	"testing"
	"time"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(year int, month time.Month, d int) *time.Time {
	t := day(year, month, d)
	return &t
}

func month(year int, m time.Month) billing.Month {
	return billing.Month{Year: year, Month: m}
}

func window(t *testing.T, start, end time.Time) billing.Period {
	t.Helper()
	p, err := billing.NewPeriod(start, end)
	if err != nil {
		t.Fatalf("invalid window %v..%v: %v", start, end, err)
	}
	return p
}

func monthlyEntry(id string, start time.Time, price float64) billing.ServiceEntry {
	return billing.ServiceEntry{
		ID:              billing.EntryID(id),
		CustomerID:      "cust-1",
		ServiceName:     "Standard Membership",
		Price:           billing.Kroner(price),
		Start:           start,
		Status:          billing.StatusActive,
		BillingInterval: billing.IntervalMonthly,
	}
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

func TestParseMonth_RoundTrip(t *testing.T) {
	m, err := billing.ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Year != 2024 || m.Month != time.March {
		t.Errorf("expected 2024-03, got %v", m)
	}
	if m.Key() != "2024-03" {
		t.Errorf("expected key 2024-03, got %q", m.Key())
	}
}

func TestParseMonth_RejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "2024", "2024-13", "03-2024", "2024-3-1"} {
		if _, err := billing.ParseMonth(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestMonth_StartAndEnd(t *testing.T) {
	m := month(2024, time.February)
	if !m.Start().Equal(day(2024, time.February, 1)) {
		t.Errorf("expected start 2024-02-01, got %v", m.Start())
	}
	// 2024 is a leap year
	if !m.End().Equal(day(2024, time.February, 29)) {
		t.Errorf("expected end 2024-02-29, got %v", m.End())
	}
}

func TestMonth_AddMonthsCrossesYearBoundary(t *testing.T) {
	m := month(2024, time.November)
	if got := m.AddMonths(3); got != month(2025, time.February) {
		t.Errorf("expected 2025-02, got %v", got)
	}
	if got := m.AddMonths(-11); got != month(2023, time.December) {
		t.Errorf("expected 2023-12, got %v", got)
	}
}

func TestMonthsBetween(t *testing.T) {
	cases := []struct {
		a, b billing.Month
		want int
	}{
		{month(2024, time.January), month(2024, time.January), 0},
		{month(2024, time.January), month(2024, time.April), 3},
		{month(2024, time.October), month(2025, time.January), 3},
		{month(2024, time.April), month(2024, time.January), -3},
	}
	for _, c := range cases {
		if got := billing.MonthsBetween(c.a, c.b); got != c.want {
			t.Errorf("MonthsBetween(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMonth_Elapsed(t *testing.T) {
	m := month(2024, time.March)

	// Still inside the month: not elapsed
	if m.Elapsed(day(2024, time.March, 31)) {
		t.Error("month should not be elapsed on its own last day")
	}
	// First day of the next month: elapsed
	if !m.Elapsed(day(2024, time.April, 1)) {
		t.Error("month should be elapsed on the first day of the next month")
	}
}

// =============================================================================
// PERIOD WINDOWS
// =============================================================================

func TestNewPeriod_RejectsReversedBounds(t *testing.T) {
	_, err := billing.NewPeriod(day(2024, time.May, 1), day(2024, time.April, 1))
	if err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestPeriod_MonthsEnumeration(t *testing.T) {
	// GIVEN: A window crossing a year boundary mid-month
	p := window(t, day(2024, time.November, 15), day(2025, time.February, 10))

	// THEN: Every touched calendar month appears, in order
	months := p.Months()
	want := []billing.Month{
		month(2024, time.November), month(2024, time.December),
		month(2025, time.January), month(2025, time.February),
	}
	if len(months) != len(want) {
		t.Fatalf("expected %d months, got %d: %v", len(want), len(months), months)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("month %d: expected %v, got %v", i, want[i], months[i])
		}
	}
}

func TestPeriod_ContainsIsInclusive(t *testing.T) {
	p := window(t, day(2024, time.January, 10), day(2024, time.January, 20))

	if !p.Contains(day(2024, time.January, 10)) || !p.Contains(day(2024, time.January, 20)) {
		t.Error("period bounds should be inclusive")
	}
	if p.Contains(day(2024, time.January, 9)) || p.Contains(day(2024, time.January, 21)) {
		t.Error("days outside the window should not be contained")
	}
}

// =============================================================================
// ENTRY / WINDOW OVERLAP
// =============================================================================

func TestMonthsOverlapping_ClipsToEntryLifetime(t *testing.T) {
	// GIVEN: An entry running 2024-01-15 to 2024-03-10
	e := monthlyEntry("e1", day(2024, time.January, 15), 1990)
	e.End = dayPtr(2024, time.March, 10)

	// WHEN: Overlapping with a wider window
	p := window(t, day(2024, time.January, 1), day(2024, time.April, 30))
	months := billing.MonthsOverlapping(&e, p)

	// THEN: Jan, Feb, Mar - partial months count, April does not
	want := []billing.Month{
		month(2024, time.January), month(2024, time.February), month(2024, time.March),
	}
	if len(months) != len(want) {
		t.Fatalf("expected %v, got %v", want, months)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("month %d: expected %v, got %v", i, want[i], months[i])
		}
	}
}

func TestMonthsOverlapping_ClipsToWindow(t *testing.T) {
	// GIVEN: An open-ended entry starting before the window
	e := monthlyEntry("e1", day(2023, time.June, 1), 1990)

	p := window(t, day(2024, time.March, 1), day(2024, time.April, 30))
	months := billing.MonthsOverlapping(&e, p)

	if len(months) != 2 || months[0] != month(2024, time.March) || months[1] != month(2024, time.April) {
		t.Errorf("expected [2024-03 2024-04], got %v", months)
	}
}

func TestMonthsOverlapping_SingleMonthLifetime(t *testing.T) {
	// Entry that starts and ends inside one calendar month
	e := monthlyEntry("e1", day(2024, time.May, 5), 1990)
	e.End = dayPtr(2024, time.May, 20)

	p := window(t, day(2024, time.January, 1), day(2024, time.December, 31))
	months := billing.MonthsOverlapping(&e, p)

	if len(months) != 1 || months[0] != month(2024, time.May) {
		t.Errorf("expected [2024-05], got %v", months)
	}
}

func TestMonthsOverlapping_DisjointIsEmpty(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.June, 1), 1990)
	e.End = dayPtr(2024, time.July, 15)

	before := window(t, day(2024, time.January, 1), day(2024, time.May, 31))
	after := window(t, day(2024, time.August, 1), day(2024, time.December, 31))

	if months := billing.MonthsOverlapping(&e, before); len(months) != 0 {
		t.Errorf("window before entry: expected no months, got %v", months)
	}
	if months := billing.MonthsOverlapping(&e, after); len(months) != 0 {
		t.Errorf("window after entry: expected no months, got %v", months)
	}
}

func TestIsActiveDuring_MissingStartIsNeverActive(t *testing.T) {
	e := billing.ServiceEntry{ID: "e1", Status: billing.StatusActive}
	p := window(t, day(2024, time.January, 1), day(2024, time.December, 31))

	if billing.IsActiveDuring(&e, p) {
		t.Error("entry without start date should not be active anywhere")
	}
}

// =============================================================================
// PAUSE WINDOW
// =============================================================================

func TestPausedDuring_ExplicitWindow(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.PausedFrom = dayPtr(2024, time.March, 1)
	e.PausedUntil = dayPtr(2024, time.April, 30)

	if e.PausedDuring(month(2024, time.February)) {
		t.Error("February is before the pause window")
	}
	if !e.PausedDuring(month(2024, time.March)) || !e.PausedDuring(month(2024, time.April)) {
		t.Error("March and April are inside the pause window")
	}
	if e.PausedDuring(month(2024, time.May)) {
		t.Error("May is after the pause window")
	}
}

func TestPausedDuring_OpenEndedPause(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.PausedFrom = dayPtr(2024, time.June, 1)

	if e.PausedDuring(month(2024, time.May)) {
		t.Error("May precedes the open-ended pause")
	}
	if !e.PausedDuring(month(2024, time.December)) {
		t.Error("open-ended pause should suspend every later month")
	}
}

func TestValidate_PausedWithoutWindowIsDiagnosed(t *testing.T) {
	// GIVEN: Status says paused but no window was recorded
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.Status = billing.StatusPaused

	diags := e.Validate()
	if len(diags) != 1 || diags[0].Code != billing.DiagPausedWithoutWindow {
		t.Fatalf("expected one paused-without-window diagnostic, got %v", diags)
	}

	// AND: Every month counts as paused until the window is fixed
	if !e.PausedDuring(month(2024, time.March)) {
		t.Error("paused entry without window should suspend billing everywhere")
	}
}

func TestValidate_MissingStartIsDiagnosed(t *testing.T) {
	e := billing.ServiceEntry{ID: "e1", CustomerID: "cust-1", Status: billing.StatusActive}

	diags := e.Validate()
	if len(diags) != 1 || diags[0].Code != billing.DiagMissingStartDate {
		t.Fatalf("expected one missing-start diagnostic, got %v", diags)
	}
}
