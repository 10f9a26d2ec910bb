package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/warp/billing-engine/billing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCustomerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := billing.Customer{
		ID: "cust-1", Name: "Kari Nordmann",
		Email: "kari@example.com", Phone: "99887766",
		DefaultCoach: "coach-mia",
	}
	if err := store.SaveCustomer(ctx, c); err != nil {
		t.Fatalf("Failed to save customer: %v", err)
	}

	got, err := store.GetCustomer(ctx, "cust-1")
	if err != nil {
		t.Fatalf("Failed to get customer: %v", err)
	}
	if got.Name != c.Name || got.Email != c.Email || got.DefaultCoach != c.DefaultCoach {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := store.GetCustomer(ctx, "nobody"); !billing.IsNotFound(err) {
		t.Errorf("expected not-found for missing customer, got %v", err)
	}
}

func TestEntryRoundTrip_PreservesDecimalAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveCustomer(ctx, billing.Customer{ID: "cust-1", Name: "Kari"}); err != nil {
		t.Fatalf("Failed to save customer: %v", err)
	}

	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	march := billing.Month{Year: 2024, Month: time.March}
	e := billing.ServiceEntry{
		ID: "e-1", CustomerID: "cust-1", ServiceName: "Standard Membership",
		Price: billing.Kroner(1990.50),
		Start: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		End:   &end,
		Status: billing.StatusActive, BillingInterval: billing.IntervalMonthly,
		NumberOfMonths: 6, Coach: "coach-mia", SeniorCoach: true,
		InvoiceHistory: map[billing.Month]billing.InvoiceRecord{
			march: {
				Status: billing.InvoicePaid, Amount: billing.Kroner(1990.50),
				UpdatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
				UpdatedBy: "anna",
			},
		},
		LastAdvancedPeriod: &march,
	}
	if err := store.SaveEntry(ctx, e); err != nil {
		t.Fatalf("Failed to save entry: %v", err)
	}

	got, err := store.GetEntry(ctx, "e-1")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	// Decimal prices survive exactly, stored as TEXT
	if !got.Price.Equal(billing.Kroner(1990.50)) {
		t.Errorf("price mismatch: %v", got.Price.Value)
	}
	if got.End == nil || !got.End.Equal(end) {
		t.Errorf("end date mismatch: %v", got.End)
	}
	if !got.SeniorCoach || got.NumberOfMonths != 6 {
		t.Errorf("fields lost in round trip: %+v", got)
	}

	rec, ok := got.InvoiceHistory[march]
	if !ok {
		t.Fatal("invoice history lost in round trip")
	}
	if rec.Status != billing.InvoicePaid || rec.UpdatedBy != "anna" {
		t.Errorf("record mismatch: %+v", rec)
	}
	if got.LastAdvancedPeriod == nil || *got.LastAdvancedPeriod != march {
		t.Errorf("last advanced period mismatch: %v", got.LastAdvancedPeriod)
	}
}

func TestSetInvoiceStatus_LastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveCustomer(ctx, billing.Customer{ID: "cust-1", Name: "Kari"}); err != nil {
		t.Fatalf("Failed to save customer: %v", err)
	}
	if err := store.SaveEntry(ctx, billing.ServiceEntry{
		ID: "e-1", CustomerID: "cust-1", ServiceName: "Standard Membership",
		Price: billing.Kroner(1990), Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status: billing.StatusActive, BillingInterval: billing.IntervalMonthly,
	}); err != nil {
		t.Fatalf("Failed to save entry: %v", err)
	}

	m := billing.Month{Year: 2024, Month: time.February}
	first := billing.InvoiceRecord{Status: billing.InvoicePending, Amount: billing.Kroner(1990), UpdatedAt: time.Now()}
	second := billing.InvoiceRecord{Status: billing.InvoicePaid, Amount: billing.Kroner(1990), UpdatedAt: time.Now(), UpdatedBy: "anna"}

	if err := store.SetInvoiceStatus(ctx, "e-1", m, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := store.SetInvoiceStatus(ctx, "e-1", m, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := store.GetEntry(ctx, "e-1")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.InvoiceHistory[m].Status != billing.InvoicePaid {
		t.Errorf("expected the later write to win, got %v", got.InvoiceHistory[m].Status)
	}
}

func TestCoachesAndAliases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveCoach(ctx, billing.Coach{
		ID: "coach-mia", DisplayName: "Mia Berg",
		HourlyRate: billing.Kroner(375), Senior: false,
	}); err != nil {
		t.Fatalf("Failed to save coach: %v", err)
	}
	if err := store.SaveAlias(ctx, "MB", "coach-mia"); err != nil {
		t.Fatalf("Failed to save alias: %v", err)
	}

	coach, err := store.GetCoach(ctx, "coach-mia")
	if err != nil {
		t.Fatalf("Failed to get coach: %v", err)
	}
	if coach.DisplayName != "Mia Berg" || !coach.HourlyRate.Equal(billing.Kroner(375)) {
		t.Errorf("coach mismatch: %+v", coach)
	}

	aliases, err := store.Aliases(ctx)
	if err != nil {
		t.Fatalf("Failed to list aliases: %v", err)
	}
	if aliases["MB"] != "coach-mia" {
		t.Errorf("alias mismatch: %v", aliases)
	}

	if _, err := store.GetCoach(ctx, "coach-ghost"); !billing.IsNotFound(err) {
		t.Errorf("expected not-found for missing coach, got %v", err)
	}
}

func TestAdminHours_FilterByCoachAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"coach-mia", "coach-lars"} {
		if err := store.SaveCoach(ctx, billing.Coach{ID: billing.CoachID(id), DisplayName: id, HourlyRate: billing.Kroner(375)}); err != nil {
			t.Fatalf("Failed to save coach: %v", err)
		}
	}
	save := func(id, coach string, date time.Time) {
		t.Helper()
		if err := store.SaveAdminHour(ctx, billing.AdministrativeHour{
			ID: id, Coach: billing.CoachID(coach), Date: date,
			Hours: billing.Hours(1.5), Category: billing.AdminMeeting,
		}); err != nil {
			t.Fatalf("Failed to save admin hour: %v", err)
		}
	}
	save("ah-1", "coach-mia", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	save("ah-2", "coach-mia", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	save("ah-3", "coach-lars", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mia, err := store.ListAdminHours(ctx, "coach-mia", from, to)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(mia) != 1 || mia[0].ID != "ah-1" {
		t.Errorf("expected only ah-1, got %v", mia)
	}

	// Empty coach filter returns everyone in range
	all, err := store.ListAdminHours(ctx, "", from, to)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 January entries, got %d", len(all))
	}

	if err := store.DeleteAdminHour(ctx, "ah-1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	mia, err = store.ListAdminHours(ctx, "coach-mia", from, to)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(mia) != 0 {
		t.Errorf("expected ah-1 deleted, got %v", mia)
	}
}
