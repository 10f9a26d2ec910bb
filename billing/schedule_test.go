package billing_test

import (
	"testing"
	"time"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// DUE LOGIC PER BILLING INTERVAL
// =============================================================================

func TestShouldInvoice_MonthlyBillsEveryActiveMonth(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 15), 1990)

	for _, m := range []billing.Month{
		month(2024, time.January), month(2024, time.February), month(2024, time.June),
	} {
		if !billing.ShouldInvoice(&e, m) {
			t.Errorf("monthly entry should bill in %v", m)
		}
	}
	if billing.ShouldInvoice(&e, month(2023, time.December)) {
		t.Error("monthly entry should not bill before its start month")
	}
}

func TestShouldInvoice_QuarterlyBillsOnIntervalBoundaries(t *testing.T) {
	// GIVEN: Quarterly membership starting January 2024
	e := monthlyEntry("e1", day(2024, time.January, 1), 4500)
	e.BillingInterval = billing.IntervalQuarterly

	// THEN: Due in Jan, Apr, Jul, Oct and nowhere in between
	due := map[time.Month]bool{time.January: true, time.April: true, time.July: true, time.October: true}
	for m := time.January; m <= time.December; m++ {
		got := billing.ShouldInvoice(&e, month(2024, m))
		if got != due[m] {
			t.Errorf("2024-%02d: expected due=%v, got %v", int(m), due[m], got)
		}
	}
}

func TestShouldInvoice_AnnualBillsOncePerYear(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.March, 1), 19900)
	e.BillingInterval = billing.IntervalAnnual

	if !billing.ShouldInvoice(&e, month(2024, time.March)) {
		t.Error("annual entry should bill in its start month")
	}
	if billing.ShouldInvoice(&e, month(2024, time.September)) {
		t.Error("annual entry should not bill mid-cycle")
	}
	if !billing.ShouldInvoice(&e, month(2025, time.March)) {
		t.Error("annual entry should bill again a year later")
	}
}

func TestShouldInvoice_OneTimeBillsExactlyOnce(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.May, 12), 1190)
	e.BillingInterval = billing.IntervalOneTime

	if !billing.ShouldInvoice(&e, month(2024, time.May)) {
		t.Error("one-time entry should bill in its start month")
	}
	if billing.ShouldInvoice(&e, month(2024, time.June)) {
		t.Error("one-time entry should never bill again")
	}
}

func TestShouldInvoice_EmptyIntervalIsOneTime(t *testing.T) {
	// Tests never carry an interval; they normalize to one-time.
	e := monthlyEntry("e1", day(2024, time.May, 12), 1190)
	e.BillingInterval = ""

	if !billing.ShouldInvoice(&e, month(2024, time.May)) {
		t.Error("entry without interval should bill once in its start month")
	}
	if billing.ShouldInvoice(&e, month(2024, time.June)) {
		t.Error("entry without interval should not recur")
	}
}

func TestShouldInvoice_ContractLengthCapsBilling(t *testing.T) {
	// GIVEN: A 6-month contract starting January
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.NumberOfMonths = 6

	if !billing.ShouldInvoice(&e, month(2024, time.June)) {
		t.Error("sixth contract month should still bill")
	}
	if billing.ShouldInvoice(&e, month(2024, time.July)) {
		t.Error("seventh month is past the contract length")
	}
}

func TestShouldInvoice_PausedMonthsAreSkipped(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.PausedFrom = dayPtr(2024, time.March, 1)
	e.PausedUntil = dayPtr(2024, time.March, 31)

	if billing.ShouldInvoice(&e, month(2024, time.March)) {
		t.Error("paused month should not bill")
	}
	if !billing.ShouldInvoice(&e, month(2024, time.April)) {
		t.Error("billing should resume after the pause window")
	}
}

func TestShouldInvoice_MissingStartNeverBills(t *testing.T) {
	e := billing.ServiceEntry{
		ID: "e1", Status: billing.StatusActive,
		BillingInterval: billing.IntervalMonthly,
		Price:           billing.Kroner(1990),
	}
	if billing.ShouldInvoice(&e, month(2024, time.January)) {
		t.Error("entry without start date must never bill")
	}
}

func TestDueMonths_Quarterly(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 1), 4500)
	e.BillingInterval = billing.IntervalQuarterly

	p := window(t, day(2024, time.January, 1), day(2024, time.December, 31))
	due := billing.DueMonths(&e, p)

	want := []billing.Month{
		month(2024, time.January), month(2024, time.April),
		month(2024, time.July), month(2024, time.October),
	}
	if len(due) != len(want) {
		t.Fatalf("expected %v, got %v", want, due)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("due month %d: expected %v, got %v", i, want[i], due[i])
		}
	}
}

func TestAmountDue_FullIntervalChargeNeverProrated(t *testing.T) {
	e := monthlyEntry("e1", day(2024, time.January, 1), 5970)
	e.BillingInterval = billing.IntervalQuarterly

	got := billing.AmountDue(&e, month(2024, time.April))
	if !got.Equal(billing.Kroner(5970)) {
		t.Errorf("expected full interval charge 5970, got %v", got.Value)
	}
	if due := billing.AmountDue(&e, month(2024, time.May)); !due.IsZero() {
		t.Errorf("off-cycle month should owe zero, got %v", due.Value)
	}
}

// =============================================================================
// INVOICE PROJECTION
// =============================================================================

func TestProjectInvoices_ZeroPriceLineIsEmitted(t *testing.T) {
	// A zero price is surfaced, not suppressed: hiding it would bury a
	// data-entry mistake.
	e := monthlyEntry("e1", day(2024, time.January, 1), 0)
	customers := []billing.Customer{{ID: "cust-1", Name: "Kari", ServiceHistory: []billing.ServiceEntry{e}}}

	lines, diags := billing.ProjectInvoices(customers, month(2024, time.February))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if !lines[0].Amount.IsZero() || lines[0].Status != billing.InvoicePending {
		t.Errorf("expected zero-amount pending line, got %+v", lines[0])
	}
}

func TestProjectInvoices_RecordedStatusIsAuthoritative(t *testing.T) {
	// GIVEN: February already recorded as paid
	e := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	e.InvoiceHistory = map[billing.Month]billing.InvoiceRecord{
		month(2024, time.February): {Status: billing.InvoicePaid, Amount: billing.Kroner(1990)},
	}
	customers := []billing.Customer{{ID: "cust-1", ServiceHistory: []billing.ServiceEntry{e}}}

	// WHEN: Projecting February
	lines, _ := billing.ProjectInvoices(customers, month(2024, time.February))

	// THEN: The recorded status wins over the hypothetical schedule
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Status != billing.InvoicePaid || !lines[0].Recorded {
		t.Errorf("expected recorded paid line, got %+v", lines[0])
	}
}

func TestProjectInvoices_MalformedEntriesAreSkippedNotFatal(t *testing.T) {
	good := monthlyEntry("e-good", day(2024, time.January, 1), 1990)
	bad := billing.ServiceEntry{
		ID: "e-bad", CustomerID: "cust-1",
		Status: billing.StatusActive, BillingInterval: billing.IntervalMonthly,
		Price: billing.Kroner(1990),
	}
	customers := []billing.Customer{{ID: "cust-1", ServiceHistory: []billing.ServiceEntry{bad, good}}}

	lines, diags := billing.ProjectInvoices(customers, month(2024, time.March))

	if len(lines) != 1 || lines[0].Entry != "e-good" {
		t.Errorf("expected only the well-formed entry to project, got %v", lines)
	}
	if len(diags) != 1 || diags[0].Code != billing.DiagMissingStartDate {
		t.Errorf("expected a missing-start diagnostic for the bad entry, got %v", diags)
	}
}

func TestTotalDue_SumsLineAmounts(t *testing.T) {
	a := monthlyEntry("e1", day(2024, time.January, 1), 1990)
	b := monthlyEntry("e2", day(2024, time.January, 1), 890)
	b.ServiceName = "Online Membership"
	customers := []billing.Customer{{ID: "cust-1", ServiceHistory: []billing.ServiceEntry{a, b}}}

	lines, _ := billing.ProjectInvoices(customers, month(2024, time.February))
	total := billing.TotalDue(lines)
	if !total.Equal(billing.Kroner(2880)) {
		t.Errorf("expected total 2880, got %v", total.Value)
	}
}
