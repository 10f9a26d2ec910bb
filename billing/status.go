/*
status.go - Per-service-per-month payment status state machine

PURPOSE:
  Tracks the invoice status of each billed month on a service entry
  and enforces which transitions are legal. The only automatic
  transition is Pending -> Overdue once the billed month has fully
  elapsed; everything else is an explicit user action.

STATES:
  Pending            Invoice materialized, awaiting payment
  Paid               Settled (terminal)
  Overdue            Month elapsed without payment
  ReminderSent       Reminder issued
  UnpaidAfterReminder Reminder expired unpaid
  SentToCollections  Handed to collections
  PaymentRejected    Charge attempt failed
  NotApplicable      Month excused from billing (terminal)

TRANSITION RULES:
  - Pending may move to any other state.
  - Paid and NotApplicable are terminal; re-applying Paid to a Paid
    month is an idempotent no-op (no error, no second date advance).
  - Every non-terminal state may move to any state except back to
    Pending; Pending only arises when an invoice is materialized.
  - Setting a status on a month the entry never bills in is rejected,
    so a typo cannot create a phantom invoice.

PAID SIDE EFFECT:
  Marking a month Paid advances the entry's NextInvoiceDate to the
  next billing boundary. LastAdvancedPeriod makes the advance
  idempotent per period key.
*/
package billing

import "time"

// =============================================================================
// INVOICE STATUS
// =============================================================================

type InvoiceStatus string

const (
	InvoicePending             InvoiceStatus = "pending"
	InvoicePaid                InvoiceStatus = "paid"
	InvoiceOverdue             InvoiceStatus = "overdue"
	InvoiceReminderSent        InvoiceStatus = "reminder_sent"
	InvoiceUnpaidAfterReminder InvoiceStatus = "unpaid_after_reminder"
	InvoiceSentToCollections   InvoiceStatus = "sent_to_collections"
	InvoicePaymentRejected     InvoiceStatus = "payment_rejected"
	InvoiceNotApplicable       InvoiceStatus = "not_applicable"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceReminderSent,
		InvoiceUnpaidAfterReminder, InvoiceSentToCollections,
		InvoicePaymentRejected, InvoiceNotApplicable:
		return true
	}
	return false
}

// Terminal states accept no further transitions.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoicePaid || s == InvoiceNotApplicable
}

// InvoiceRecord is one month's invoicing state on a service entry.
// Records are appended or superseded, never deleted.
type InvoiceRecord struct {
	Status    InvoiceStatus
	Amount    Amount
	UpdatedAt time.Time
	UpdatedBy string
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// CanTransition reports whether from -> to is a legal move, ignoring
// the idempotent Paid -> Paid case which Transition handles itself.
func CanTransition(from, to InvoiceStatus) bool {
	if !to.Valid() || to == InvoicePending {
		return false
	}
	if from.Terminal() {
		return false
	}
	return true
}

// Transition applies a status change to one month of the entry,
// mutating the entry's invoice history in place. The month must be in
// the entry's billing schedule (or already recorded); re-applying Paid
// to a Paid month succeeds without side effects.
func Transition(e *ServiceEntry, m Month, to InvoiceStatus, actor string, now time.Time) error {
	rec, exists := e.InvoiceHistory[m]

	if !exists && !ShouldInvoice(e, m) {
		return &UnknownPeriodError{Entry: e.ID, Period: m}
	}

	from := InvoicePending
	if exists {
		from = rec.Status
	}

	if from == InvoicePaid && to == InvoicePaid {
		return nil // idempotent
	}
	if !CanTransition(from, to) {
		reason := "target state not allowed"
		if from.Terminal() {
			reason = string(from) + " is terminal"
		}
		return &TransitionError{Entry: e.ID, Period: m, From: from, To: to, Reason: reason}
	}

	e.setStatus(m, to, actor, now)

	if to == InvoicePaid {
		advanceNextInvoiceDate(e, m)
	}
	return nil
}

func (e *ServiceEntry) setStatus(m Month, to InvoiceStatus, actor string, now time.Time) {
	if e.InvoiceHistory == nil {
		e.InvoiceHistory = make(map[Month]InvoiceRecord)
	}
	// The amount owed is fixed when the record is first materialized.
	// Later transitions supersede the status only: ending the entry or
	// changing its price must not rewrite what a historical month owed.
	amount := AmountDue(e, m)
	if rec, ok := e.InvoiceHistory[m]; ok {
		amount = rec.Amount
	}
	e.InvoiceHistory[m] = InvoiceRecord{
		Status:    to,
		Amount:    amount,
		UpdatedAt: now,
		UpdatedBy: actor,
	}
}

// advanceNextInvoiceDate moves the entry's next invoice date to the
// billing boundary after the paid month. Guarded by LastAdvancedPeriod
// so re-applying Paid to the same month cannot double-advance.
func advanceNextInvoiceDate(e *ServiceEntry, paid Month) {
	if e.LastAdvancedPeriod != nil && *e.LastAdvancedPeriod == paid {
		return
	}
	step := e.Interval().Months()
	if step == 0 {
		// One-time services have no next invoice.
		e.NextInvoiceDate = nil
	} else {
		next := paid.AddMonths(step).Start()
		// Keep the day-of-month anchor from the original start date
		// where the target month allows it.
		if day := e.Start.Day(); day > 1 {
			anchored := time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, time.UTC)
			if anchored.Month() == next.Month() {
				next = anchored
			}
		}
		e.NextInvoiceDate = &next
	}
	p := paid
	e.LastAdvancedPeriod = &p
}

// =============================================================================
// AUTOMATIC TRANSITIONS
// =============================================================================

// SweepOverdue applies the single automatic rule: any recorded Pending
// month whose calendar month has fully elapsed becomes Overdue.
// Returns the months that were flipped.
func SweepOverdue(e *ServiceEntry, now time.Time) []Month {
	var flipped []Month
	for m, rec := range e.InvoiceHistory {
		if rec.Status == InvoicePending && m.Elapsed(now) {
			e.setStatus(m, InvoiceOverdue, "system", now)
			flipped = append(flipped, m)
		}
	}
	return flipped
}

// EnsureInvoiced materializes a Pending record for the month if the
// entry bills in it and no record exists yet. Returns true when a
// record was created. Existing records are authoritative and are
// never touched.
func EnsureInvoiced(e *ServiceEntry, m Month, now time.Time) bool {
	if _, exists := e.InvoiceHistory[m]; exists {
		return false
	}
	if !ShouldInvoice(e, m) {
		return false
	}
	e.setStatus(m, InvoicePending, "system", now)
	return true
}
