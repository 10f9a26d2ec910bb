/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers should match with errors.Is; structured errors carry the
  extra context the API layer needs for descriptive responses.

ERROR CATEGORIES:
  1. Lookup errors - Missing customers, coaches, entries, periods
  2. Validation errors - Bad period keys, malformed windows
  3. State machine errors - Invalid payment status transitions

DIAGNOSTICS:
  Malformed data (unparseable dates, Paused entries without a pause
  window) must never fail a whole aggregation. Such entries are skipped
  and reported as Diagnostic values alongside the result.
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCustomerNotFound is returned when a referenced customer doesn't exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrCoachNotFound is returned when a referenced coach doesn't exist.
	ErrCoachNotFound = errors.New("coach not found")

	// ErrEntryNotFound is returned when a referenced service entry doesn't exist.
	ErrEntryNotFound = errors.New("service entry not found")

	// ErrBadPeriodKey is returned for period keys not in YYYY-MM form.
	ErrBadPeriodKey = errors.New("malformed period key")

	// ErrInvalidPeriod is returned when a window is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidTransition is returned for disallowed payment status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownPeriod is returned when a status is set on a month the
	// entry never bills in. Rejecting this prevents phantom invoices.
	ErrUnknownPeriod = errors.New("period not in entry's billing schedule")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError describes a rejected payment status transition.
type TransitionError struct {
	Entry  EntryID
	Period Month
	From   InvoiceStatus
	To     InvoiceStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s/%s from %s to %s: %s",
		e.Entry, e.Period, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// UnknownPeriodError describes a status set on a non-billable month.
type UnknownPeriodError struct {
	Entry  EntryID
	Period Month
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("entry %s never bills in %s", e.Entry, e.Period)
}

func (e *UnknownPeriodError) Unwrap() error { return ErrUnknownPeriod }

// =============================================================================
// DIAGNOSTICS - Recoverable per-entry data problems
// =============================================================================

// Diagnostic reports an entry that was skipped during aggregation.
// Aggregations continue past bad entries; callers surface these to the
// operator instead of failing the whole report.
type Diagnostic struct {
	Entry    EntryID
	Customer CustomerID
	Code     string // e.g. "missing_start_date", "paused_without_window"
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (entry %s): %s", d.Code, d.Entry, d.Message)
}

const (
	DiagMissingStartDate    = "missing_start_date"
	DiagPausedWithoutWindow = "paused_without_window"
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBadPeriodKey) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnknownPeriod)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrCoachNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
