/*
revenue.go - Revenue allocation across a reporting window

PURPOSE:
  Answers "how much revenue did this service contribute to this
  window?". Monthly memberships contribute their price once per
  overlapping month; quarterly/semiannual/annual memberships attribute
  the full interval charge to each due month inside the window (no
  spreading); one-time services attribute their price to their start
  month.

  Allocation is monotone: widening the window never decreases the
  allocated revenue.
*/
package billing

// =============================================================================
// PER-ENTRY ALLOCATION
// =============================================================================

// AllocateRevenue returns the total revenue attributable to the entry
// within the window: the price once per allocated month.
func AllocateRevenue(e *ServiceEntry, p Period) Amount {
	if e.Start.IsZero() {
		return Kroner(0)
	}
	return e.Price.MulInt(len(monthAllocations(e, p)))
}

// =============================================================================
// REVENUE REPORT - Per-month, per-category breakdown
// =============================================================================

// Classifier tells the report which category a service belongs to.
// The catalog package provides the production implementation.
type Classifier interface {
	Classify(serviceName string) string
}

// MonthRevenue is the revenue of a single month in a report.
type MonthRevenue struct {
	Period     Month
	Total      Amount
	ByCategory map[string]Amount
}

// RevenueReport is revenue across a window, broken down by month.
type RevenueReport struct {
	Window  Period
	Total   Amount
	Months  []MonthRevenue
	Skipped []Diagnostic
}

// BuildRevenueReport allocates revenue for all customers' entries
// across the window. Entries with data problems are skipped and
// reported, never fatal.
func BuildRevenueReport(customers []Customer, p Period, classify Classifier) RevenueReport {
	report := RevenueReport{Window: p, Total: Kroner(0)}

	byMonth := make(map[Month]*MonthRevenue)
	for _, m := range p.Months() {
		mr := &MonthRevenue{Period: m, Total: Kroner(0), ByCategory: make(map[string]Amount)}
		byMonth[m] = mr
	}

	for ci := range customers {
		c := &customers[ci]
		for ei := range c.ServiceHistory {
			e := &c.ServiceHistory[ei]
			if d := e.Validate(); len(d) > 0 {
				report.Skipped = append(report.Skipped, d...)
				continue
			}

			category := "other"
			if classify != nil {
				category = classify.Classify(e.ServiceName)
			}

			for _, m := range monthAllocations(e, p) {
				mr := byMonth[m]
				if mr == nil {
					continue
				}
				mr.Total = mr.Total.Add(e.Price)
				prev, ok := mr.ByCategory[category]
				if !ok {
					prev = Kroner(0)
				}
				mr.ByCategory[category] = prev.Add(e.Price)
				report.Total = report.Total.Add(e.Price)
			}
		}
	}

	for _, m := range p.Months() {
		report.Months = append(report.Months, *byMonth[m])
	}
	return report
}

// monthAllocations lists the months within the window the entry's
// price is attributed to, once per occurrence. Mirrors
// AllocateRevenue; the two must agree.
func monthAllocations(e *ServiceEntry, p Period) []Month {
	switch e.Interval() {
	case IntervalOneTime:
		start := MonthOf(e.Start)
		if start.AfterOrEqual(MonthOf(p.Start)) && start.BeforeOrEqual(MonthOf(p.End)) {
			return []Month{start}
		}
		return nil

	case IntervalMonthly:
		return BillableMonths(e, p)

	default:
		return DueMonths(e, p)
	}
}

// BillableMonths lists the months within the window a recurring entry
// is actually serviced in: overlapping months minus paused months and
// months past the contract length. Revenue allocation and payroll hour
// budgeting both draw from this, so a month the customer is not billed
// for never budgets coach hours either.
func BillableMonths(e *ServiceEntry, p Period) []Month {
	var months []Month
	for _, m := range MonthsOverlapping(e, p) {
		if e.PausedDuring(m) {
			continue
		}
		if e.NumberOfMonths > 0 && MonthsBetween(MonthOf(e.Start), m) >= e.NumberOfMonths {
			continue
		}
		months = append(months, m)
	}
	return months
}
