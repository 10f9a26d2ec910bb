/*
Package payroll computes coach hours and payroll cost for a period.

PURPOSE:
  Given a coach's service entries (via customers) and logged
  administrative hours, compute hours by category and the resulting
  payroll cost. This consolidates the calculation that previously
  lived, with diverging edge cases, on the coach detail page and the
  personnel-economy page.

CALCULATION (per reporting window):
  membershipHours: each membership entry contributes its monthly time
                   budget once per billable month in the window (paused
                   months and months past the contract length budget
                   nothing, matching revenue allocation).
  testHours /      one-time entries contribute their time budget once
  otherHours:      when their date falls inside the window.
  adminHours:      logged hours with dates inside the window.
  totalCost:       service hours at the coach's hourly rate plus
                   administrative hours at the fixed admin rate.

  Unknown service names budget zero hours (catalog policy) and never
  fail the aggregation. Coaches with all-zero totals are reported;
  filtering them out is a presentation concern.
*/
package payroll

import (
	"context"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/catalog"
)

// DefaultAdminRate is the fixed hourly rate for administrative time.
var DefaultAdminRate = billing.Kroner(200)

// =============================================================================
// AGGREGATE - Hours and cost for one coach over a window
// =============================================================================

type Aggregate struct {
	Coach               billing.CoachID
	CoachName           string
	Window              billing.Period
	MembershipHours     billing.Amount
	TestHours           billing.Amount
	OtherHours          billing.Amount
	AdministrativeHours billing.Amount
	TotalHours          billing.Amount
	TotalCost           billing.Amount
	Skipped             []billing.Diagnostic
}

// =============================================================================
// AGGREGATOR - Dependency-injected read access, no ambient caches
// =============================================================================

type Aggregator struct {
	Customers  billing.CustomerStore
	Coaches    billing.CoachStore
	AdminHours billing.AdminHourStore
	Catalog    *catalog.Catalog

	// AdminRate defaults to DefaultAdminRate when zero.
	AdminRate billing.Amount
}

func NewAggregator(customers billing.CustomerStore, coaches billing.CoachStore, adminHours billing.AdminHourStore, cat *catalog.Catalog) *Aggregator {
	return &Aggregator{
		Customers:  customers,
		Coaches:    coaches,
		AdminHours: adminHours,
		Catalog:    cat,
		AdminRate:  DefaultAdminRate,
	}
}

func (a *Aggregator) adminRate() billing.Amount {
	if a.AdminRate.Value.IsZero() {
		return DefaultAdminRate
	}
	return a.AdminRate
}

// ForCoach aggregates hours and cost for one coach over the window.
func (a *Aggregator) ForCoach(ctx context.Context, coachID billing.CoachID, p billing.Period) (*Aggregate, error) {
	coach, err := a.Coaches.GetCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	customers, err := a.Customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	adminHours, err := a.AdminHours.ListAdminHours(ctx, coachID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	return a.aggregate(coach, customers, adminHours, p), nil
}

// ForAll aggregates every coach on the roster over the window.
func (a *Aggregator) ForAll(ctx context.Context, p billing.Period) ([]Aggregate, error) {
	coaches, err := a.Coaches.ListCoaches(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := a.Customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Aggregate, 0, len(coaches))
	for i := range coaches {
		coach := &coaches[i]
		adminHours, err := a.AdminHours.ListAdminHours(ctx, coach.ID, p.Start, p.End)
		if err != nil {
			return nil, err
		}
		result = append(result, *a.aggregate(coach, customers, adminHours, p))
	}
	return result, nil
}

func (a *Aggregator) aggregate(coach *billing.Coach, customers []billing.Customer, adminHours []billing.AdministrativeHour, p billing.Period) *Aggregate {
	agg := &Aggregate{
		Coach:               coach.ID,
		CoachName:           coach.DisplayName,
		Window:              p,
		MembershipHours:     billing.Hours(0),
		TestHours:           billing.Hours(0),
		OtherHours:          billing.Hours(0),
		AdministrativeHours: billing.Hours(0),
	}

	for ci := range customers {
		c := &customers[ci]
		for ei := range c.ServiceHistory {
			e := &c.ServiceHistory[ei]
			if e.CoachFor(c) != coach.ID {
				continue
			}
			if d := e.Validate(); len(d) > 0 {
				agg.Skipped = append(agg.Skipped, d...)
				continue
			}

			budget := a.Catalog.TimeBudget(e.ServiceName, e.SeniorCoach)
			switch a.Catalog.Classify(e.ServiceName) {
			case catalog.CategoryMembership:
				// One monthly budget per billable month: paused months
				// and months past the contract cap budget no hours,
				// matching revenue allocation.
				months := billing.BillableMonths(e, p)
				agg.MembershipHours = agg.MembershipHours.Add(budget.MulInt(len(months)))
			case catalog.CategoryTest:
				if p.Contains(e.Start) {
					agg.TestHours = agg.TestHours.Add(budget)
				}
			default:
				if p.Contains(e.Start) {
					agg.OtherHours = agg.OtherHours.Add(budget)
				}
			}
		}
	}

	for _, h := range adminHours {
		agg.AdministrativeHours = agg.AdministrativeHours.Add(h.Hours)
	}

	serviceHours := agg.MembershipHours.Add(agg.TestHours).Add(agg.OtherHours)
	agg.TotalHours = serviceHours.Add(agg.AdministrativeHours)

	serviceCost := serviceHours.Value.Mul(coach.HourlyRate.Value)
	adminCost := agg.AdministrativeHours.Value.Mul(a.adminRate().Value)
	agg.TotalCost = billing.Amount{Value: serviceCost.Add(adminCost), Unit: billing.UnitKroner}

	return agg
}
