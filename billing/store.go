/*
store.go - Persistence interfaces for the billing engine

PURPOSE:
  Defines the interfaces between the engine/API and the database. The
  engine itself only reads: it recomputes every report from a full
  snapshot, so the read interfaces hand back complete working sets
  (the business runs low thousands of customers). Writes exist for the
  API
  layer; concurrent status writes are last-write-wins at this boundary.

INTERFACES:
  CustomerStore:  Customers with their full service histories
  CoachStore:     Coach profiles (stable IDs) and name aliases
  AdminHourStore: Manually logged administrative hours

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for testing and dev
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// CUSTOMER STORE
// =============================================================================

type CustomerStore interface {
	// ListCustomers returns all customers with full service histories.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// GetCustomer returns one customer, ErrCustomerNotFound otherwise.
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)

	SaveCustomer(ctx context.Context, c Customer) error

	// SaveEntry inserts or replaces one service entry on its customer.
	SaveEntry(ctx context.Context, e ServiceEntry) error

	// GetEntry returns one service entry, ErrEntryNotFound otherwise.
	GetEntry(ctx context.Context, id EntryID) (*ServiceEntry, error)

	// SetInvoiceStatus persists one month's record on an entry.
	// Last write wins on concurrent updates.
	SetInvoiceStatus(ctx context.Context, id EntryID, m Month, rec InvoiceRecord) error
}

// =============================================================================
// COACH STORE
// =============================================================================

type CoachStore interface {
	ListCoaches(ctx context.Context) ([]Coach, error)

	// GetCoach returns one coach, ErrCoachNotFound otherwise.
	GetCoach(ctx context.Context, id CoachID) (*Coach, error)

	SaveCoach(ctx context.Context, c Coach) error

	// Aliases returns the display-name variants (initials, legacy full
	// names) mapped to stable coach IDs. Name resolution happens at
	// this boundary; the engine only ever sees CoachIDs.
	Aliases(ctx context.Context) (map[string]CoachID, error)

	SaveAlias(ctx context.Context, name string, id CoachID) error
}

// =============================================================================
// ADMINISTRATIVE HOUR STORE
// =============================================================================

type AdminHourStore interface {
	// ListAdminHours returns hours for a coach within [from, to].
	// A zero coach ID returns hours for all coaches.
	ListAdminHours(ctx context.Context, coach CoachID, from, to time.Time) ([]AdministrativeHour, error)

	SaveAdminHour(ctx context.Context, h AdministrativeHour) error

	DeleteAdminHour(ctx context.Context, id string) error
}
