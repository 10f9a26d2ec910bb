/*
schedule.go - Invoice due-date logic

PURPOSE:
  Decides, for a service entry and a calendar month, whether an
  invoice falls due and for how much. This is the one place that
  understands billing intervals; the revenue allocator and the status
  state machine both build on it.

RULES (per billing interval):
  Monthly:     due every month the entry is active and not paused.
  Quarterly /  due only in months where the whole months elapsed since
  Semiannual / the start month is a multiple of the interval length;
  Annual:      the amount is the full interval charge, never prorated.
  One-time:    due exactly in the entry's start month.

  A fixed contract length (NumberOfMonths) caps how far recurring
  billing runs. Recorded invoice history is authoritative for "does an
  invoice exist"; ShouldInvoice still answers hypothetically for
  unrecorded months so upcoming invoices can be projected.

ZERO PRICES:
  A membership with a zero or negative price still produces a due
  line, with the amount surfaced as-is. Suppressing it would hide a
  data-entry mistake from the invoicing page.
*/
package billing

// =============================================================================
// DUE LOGIC
// =============================================================================

// ShouldInvoice reports whether the entry bills in the given month.
func ShouldInvoice(e *ServiceEntry, m Month) bool {
	if e.Start.IsZero() {
		return false
	}
	start := MonthOf(e.Start)

	if e.Interval() == IntervalOneTime {
		return m == start
	}

	if m.Before(start) {
		return false
	}
	if !IsActiveDuring(e, MonthPeriod(m)) {
		return false
	}
	if e.PausedDuring(m) {
		return false
	}
	elapsed := MonthsBetween(start, m)
	if e.NumberOfMonths > 0 && elapsed >= e.NumberOfMonths {
		return false
	}

	step := e.Interval().Months()
	return elapsed%step == 0
}

// AmountDue returns the amount billed in the month: the entry's price
// when an invoice is due, zero otherwise. For non-monthly intervals
// the price is the full interval charge.
func AmountDue(e *ServiceEntry, m Month) Amount {
	if !ShouldInvoice(e, m) {
		return Kroner(0)
	}
	return e.Price
}

// InvoiceExists reports whether the month already has a recorded
// status. Recorded history is authoritative over the schedule.
func InvoiceExists(e *ServiceEntry, m Month) bool {
	_, ok := e.InvoiceHistory[m]
	return ok
}

// DueMonths lists every month within the window in which the entry
// bills, in order.
func DueMonths(e *ServiceEntry, p Period) []Month {
	var due []Month
	for _, m := range p.Months() {
		if ShouldInvoice(e, m) {
			due = append(due, m)
		}
	}
	return due
}

// =============================================================================
// INVOICE PROJECTION - Due lines for a month across all customers
// =============================================================================

// InvoiceLine is one customer-service line on the monthly invoicing
// report. Existing lines carry their recorded status; projected lines
// for unrecorded due months show as Pending.
type InvoiceLine struct {
	Customer    CustomerID
	Entry       EntryID
	ServiceName string
	Period      Month
	Amount      Amount
	Status      InvoiceStatus
	Recorded    bool
}

// ProjectInvoices computes the invoice lines for a month across all
// customers. Malformed entries are skipped and reported as
// diagnostics; they never fail the projection for other entries.
func ProjectInvoices(customers []Customer, m Month) ([]InvoiceLine, []Diagnostic) {
	var lines []InvoiceLine
	var diags []Diagnostic

	for ci := range customers {
		c := &customers[ci]
		for ei := range c.ServiceHistory {
			e := &c.ServiceHistory[ei]
			if d := e.Validate(); len(d) > 0 {
				diags = append(diags, d...)
				continue
			}

			if rec, ok := e.InvoiceHistory[m]; ok {
				lines = append(lines, InvoiceLine{
					Customer:    c.ID,
					Entry:       e.ID,
					ServiceName: e.ServiceName,
					Period:      m,
					Amount:      rec.Amount,
					Status:      rec.Status,
					Recorded:    true,
				})
				continue
			}

			if ShouldInvoice(e, m) {
				lines = append(lines, InvoiceLine{
					Customer:    c.ID,
					Entry:       e.ID,
					ServiceName: e.ServiceName,
					Period:      m,
					Amount:      AmountDue(e, m),
					Status:      InvoicePending,
					Recorded:    false,
				})
			}
		}
	}
	return lines, diags
}

// TotalDue sums the amounts of a set of invoice lines.
func TotalDue(lines []InvoiceLine) Amount {
	total := Kroner(0)
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
