/*
Package billing provides the core billing and time-budget engine.

PURPOSE:
  This package contains the data model and algorithms for computing
  which invoices fall due in a month, how much revenue a service
  contributed to a reporting window, and which payment states a
  service-month may move through. It replaces logic that was previously
  duplicated across the revenue, invoicing and personnel-economy pages
  with one set of pure functions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (kroner or hours)
  - ServiceEntry: One billable service instance on a customer
  - Customer: Aggregate root owning a service history
  - Coach / AdministrativeHour: Payroll-side records

DESIGN PRINCIPLES:
  1. Purity: All computations are deterministic over in-memory data
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Single source of truth: The service history list is authoritative;
     "current service" is derived, never stored twice
  4. Stable identity: Coaches are keyed by CoachID, never display name

SEE ALSO:
  - month.go: Month (period key) and Period arithmetic
  - schedule.go: Invoice due-date logic
  - revenue.go: Revenue allocation across months
  - status.go: Per-month payment status state machine
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (money in kroner, labor in hours)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitKroner Unit = "kr"
	UnitHours  Unit = "hours"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func Kroner(value float64) Amount { return NewAmount(value, UnitKroner) }
func Hours(value float64) Amount  { return NewAmount(value, UnitHours) }

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) MulInt(n int) Amount          { return a.Mul(decimal.NewFromInt(int64(n))) }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Float64() float64             { f, _ := a.Value.Float64(); return f }

// QuantizeQuarter rounds an hour amount to the nearest 0.25.
// Administrative hours are logged at quarter-hour granularity.
func QuantizeQuarter(a Amount) Amount {
	four := decimal.NewFromInt(4)
	return Amount{Value: a.Value.Mul(four).Round(0).Div(four), Unit: a.Unit}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CustomerID string
type CoachID string
type EntryID string

// =============================================================================
// SERVICE ENTRY - One billable service instance on a customer
// =============================================================================

type ServiceStatus string

const (
	StatusActive    ServiceStatus = "active"
	StatusInactive  ServiceStatus = "inactive"
	StatusPaused    ServiceStatus = "paused"
	StatusCompleted ServiceStatus = "completed"
)

type BillingInterval string

const (
	IntervalMonthly    BillingInterval = "monthly"
	IntervalQuarterly  BillingInterval = "quarterly"
	IntervalSemiannual BillingInterval = "semiannual"
	IntervalAnnual     BillingInterval = "annual"
	IntervalOneTime    BillingInterval = "one_time"
)

// Months returns the interval length in months, or 0 for one-time billing.
func (bi BillingInterval) Months() int {
	switch bi {
	case IntervalMonthly:
		return 1
	case IntervalQuarterly:
		return 3
	case IntervalSemiannual:
		return 6
	case IntervalAnnual:
		return 12
	default:
		return 0
	}
}

// ServiceEntry is one billable service instance attached to a customer.
// Memberships recur per BillingInterval; tests and other one-time
// services bill exactly once in their start month.
type ServiceEntry struct {
	ID          EntryID
	CustomerID  CustomerID
	ServiceName string
	Price       Amount // per billing interval for memberships, lump sum otherwise
	Start       time.Time
	End         *time.Time // set once the service has definitively ended
	Status      ServiceStatus

	BillingInterval BillingInterval // empty normalizes to one-time
	NumberOfMonths  int             // optional contract length, 0 = open-ended

	Coach       CoachID // responsible coach; empty falls back to customer default
	SeniorCoach bool    // affects time-budget lookup

	// Explicit pause window. Months inside [PausedFrom, PausedUntil] are
	// not billable. A Paused entry without PausedFrom bills nothing and
	// is surfaced as a diagnostic rather than guessed at.
	PausedFrom  *time.Time
	PausedUntil *time.Time

	// InvoiceHistory tracks one record per billed month, keyed by period.
	// Entries are appended or superseded, never deleted.
	InvoiceHistory map[Month]InvoiceRecord

	// NextInvoiceDate advances when a period is marked paid.
	// LastAdvancedPeriod guards the advance against double application.
	NextInvoiceDate    *time.Time
	LastAdvancedPeriod *Month
}

// Interval returns the effective billing interval, treating an unset
// interval as one-time (tests never carry an interval).
func (e *ServiceEntry) Interval() BillingInterval {
	if e.BillingInterval == "" {
		return IntervalOneTime
	}
	return e.BillingInterval
}

// CoachFor resolves the responsible coach, falling back to the owning
// customer's default coach when the entry has none of its own.
func (e *ServiceEntry) CoachFor(owner *Customer) CoachID {
	if e.Coach != "" {
		return e.Coach
	}
	if owner != nil {
		return owner.DefaultCoach
	}
	return ""
}

// =============================================================================
// CUSTOMER - Aggregate root owning a service history
// =============================================================================

// Customer owns zero or more service entries. ServiceHistory is the
// single source of truth; the previously denormalized top-level
// service/price/date/status mirror is gone and CurrentService derives
// the same answer on demand.
type Customer struct {
	ID           CustomerID
	Name         string
	Email        string
	Phone        string
	DefaultCoach CoachID
	ServiceHistory []ServiceEntry
}

// CurrentService returns the customer's current entry: the most
// recently started active entry, or failing that the most recently
// started entry of any status. Nil when the history is empty.
func (c *Customer) CurrentService() *ServiceEntry {
	var current *ServiceEntry
	for i := range c.ServiceHistory {
		e := &c.ServiceHistory[i]
		if current == nil {
			current = e
			continue
		}
		if e.Status == StatusActive && current.Status != StatusActive {
			current = e
			continue
		}
		if (e.Status == StatusActive) == (current.Status == StatusActive) && e.Start.After(current.Start) {
			current = e
		}
	}
	return current
}

// FindEntry returns the entry with the given ID, or nil.
func (c *Customer) FindEntry(id EntryID) *ServiceEntry {
	for i := range c.ServiceHistory {
		if c.ServiceHistory[i].ID == id {
			return &c.ServiceHistory[i]
		}
	}
	return nil
}

// =============================================================================
// COACH - Stable identity plus payroll attributes
// =============================================================================

type Coach struct {
	ID          CoachID
	DisplayName string
	HourlyRate  Amount // kroner per hour
	Senior      bool
}

// =============================================================================
// ADMINISTRATIVE HOUR - Manually logged non-billable time
// =============================================================================

type AdminCategory string

const (
	AdminMeeting  AdminCategory = "meeting"
	AdminPlanning AdminCategory = "planning"
	AdminCourse   AdminCategory = "course"
	AdminOffice   AdminCategory = "office"
	AdminOther    AdminCategory = "other"
)

type AdministrativeHour struct {
	ID          string
	Coach       CoachID
	Date        time.Time
	Hours       Amount // positive, 0.25 granularity
	Category    AdminCategory
	Description string
	CreatedBy   string
}
