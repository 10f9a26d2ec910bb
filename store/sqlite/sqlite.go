/*
Package sqlite provides a SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Implements CustomerStore, CoachStore and AdminHourStore using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  customers:       Customer records
  service_entries: One row per billable service instance
  invoice_status:  One row per entry per billed month (the invoice
                   history); last write wins on concurrent updates
  coaches:         Coach profiles keyed by stable ID
  coach_aliases:   Display-name variants -> coach ID
  admin_hours:     Manually logged administrative time

MONEY AND DATES:
  Decimal amounts are stored as TEXT to keep exact values; dates as
  "2006-01-02" strings in UTC; period keys in "YYYY-MM" form. Rows
  with unparseable dates load with a zero date and are excluded from
  computation by the engine via diagnostics, never a failed query.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block and crash recovery is
  cheaper.

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/billing"
)

const dayFormat = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		default_coach TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS service_entries (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		service_name TEXT NOT NULL,
		price TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		status TEXT NOT NULL,
		billing_interval TEXT,
		number_of_months INTEGER DEFAULT 0,
		coach_id TEXT,
		senior_coach BOOLEAN DEFAULT FALSE,
		paused_from TEXT,
		paused_until TEXT,
		next_invoice_date TEXT,
		last_advanced_period TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_customer
		ON service_entries(customer_id);
	CREATE INDEX IF NOT EXISTS idx_entries_coach
		ON service_entries(coach_id);
	CREATE INDEX IF NOT EXISTS idx_entries_status
		ON service_entries(status);

	-- One row per entry per billed month. Period keys are YYYY-MM.
	CREATE TABLE IF NOT EXISTS invoice_status (
		entry_id TEXT NOT NULL REFERENCES service_entries(id),
		period TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		updated_by TEXT,
		PRIMARY KEY (entry_id, period)
	);

	CREATE INDEX IF NOT EXISTS idx_invoice_status_period
		ON invoice_status(period);
	CREATE INDEX IF NOT EXISTS idx_invoice_status_status
		ON invoice_status(status);

	CREATE TABLE IF NOT EXISTS coaches (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		senior BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS coach_aliases (
		name TEXT PRIMARY KEY,
		coach_id TEXT NOT NULL REFERENCES coaches(id)
	);

	CREATE TABLE IF NOT EXISTS admin_hours (
		id TEXT PRIMARY KEY,
		coach_id TEXT NOT NULL REFERENCES coaches(id),
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_admin_hours_coach_date
		ON admin_hours(coach_id, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CUSTOMER STORE
// =============================================================================

func (s *Store) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, default_coach FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []billing.Customer
	for rows.Next() {
		var c billing.Customer
		var email, phone, defaultCoach sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &phone, &defaultCoach); err != nil {
			return nil, err
		}
		c.Email = email.String
		c.Phone = phone.String
		c.DefaultCoach = billing.CoachID(defaultCoach.String)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range customers {
		entries, err := s.loadEntries(ctx, customers[i].ID)
		if err != nil {
			return nil, err
		}
		customers[i].ServiceHistory = entries
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id billing.CustomerID) (*billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c billing.Customer
	var email, phone, defaultCoach sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, default_coach FROM customers WHERE id = ?`, string(id)).
		Scan(&c.ID, &c.Name, &email, &phone, &defaultCoach)
	if err == sql.ErrNoRows {
		return nil, billing.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.DefaultCoach = billing.CoachID(defaultCoach.String)

	entries, err := s.loadEntries(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.ServiceHistory = entries
	return &c, nil
}

func (s *Store) SaveCustomer(ctx context.Context, c billing.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, default_coach, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			default_coach = excluded.default_coach`,
		string(c.ID), c.Name, c.Email, c.Phone, string(c.DefaultCoach),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for _, e := range c.ServiceHistory {
		if err := s.saveEntryLocked(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveEntry(ctx context.Context, e billing.ServiceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEntryLocked(ctx, e)
}

func (s *Store) saveEntryLocked(ctx context.Context, e billing.ServiceEntry) error {
	var lastAdvanced any
	if e.LastAdvancedPeriod != nil {
		lastAdvanced = e.LastAdvancedPeriod.Key()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_entries (
			id, customer_id, service_name, price, start_date, end_date, status,
			billing_interval, number_of_months, coach_id, senior_coach,
			paused_from, paused_until, next_invoice_date, last_advanced_period, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			service_name = excluded.service_name,
			price = excluded.price,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			billing_interval = excluded.billing_interval,
			number_of_months = excluded.number_of_months,
			coach_id = excluded.coach_id,
			senior_coach = excluded.senior_coach,
			paused_from = excluded.paused_from,
			paused_until = excluded.paused_until,
			next_invoice_date = excluded.next_invoice_date,
			last_advanced_period = excluded.last_advanced_period`,
		string(e.ID), string(e.CustomerID), e.ServiceName, e.Price.Value.String(),
		e.Start.Format(dayFormat), nullableDay(e.End), string(e.Status),
		string(e.BillingInterval), e.NumberOfMonths, string(e.Coach), e.SeniorCoach,
		nullableDay(e.PausedFrom), nullableDay(e.PausedUntil),
		nullableDay(e.NextInvoiceDate), lastAdvanced,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for m, rec := range e.InvoiceHistory {
		if err := s.setInvoiceStatusLocked(ctx, e.ID, m, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id billing.EntryID) (*billing.ServiceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, entrySelect+` WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, billing.ErrEntryNotFound
	}
	e, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.loadInvoiceHistory(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) SetInvoiceStatus(ctx context.Context, id billing.EntryID, m billing.Month, rec billing.InvoiceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setInvoiceStatusLocked(ctx, id, m, rec)
}

func (s *Store) setInvoiceStatusLocked(ctx context.Context, id billing.EntryID, m billing.Month, rec billing.InvoiceRecord) error {
	// Last write wins: concurrent editors of the same service-month are
	// reconciled here, not in the engine.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_status (entry_id, period, status, amount, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id, period) DO UPDATE SET
			status = excluded.status,
			amount = excluded.amount,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		string(id), m.Key(), string(rec.Status), rec.Amount.Value.String(),
		rec.UpdatedAt.UTC().Format(time.RFC3339), rec.UpdatedBy)
	return err
}

const entrySelect = `
	SELECT id, customer_id, service_name, price, start_date, end_date, status,
	       billing_interval, number_of_months, coach_id, senior_coach,
	       paused_from, paused_until, next_invoice_date, last_advanced_period
	FROM service_entries`

func (s *Store) loadEntries(ctx context.Context, customerID billing.CustomerID) ([]billing.ServiceEntry, error) {
	rows, err := s.db.QueryContext(ctx, entrySelect+` WHERE customer_id = ? ORDER BY start_date`, string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []billing.ServiceEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range entries {
		if err := s.loadInvoiceHistory(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) loadInvoiceHistory(ctx context.Context, e *billing.ServiceEntry) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period, status, amount, updated_at, updated_by
		 FROM invoice_status WHERE entry_id = ?`, string(e.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var periodKey, status, amount, updatedAt string
		var updatedBy sql.NullString
		if err := rows.Scan(&periodKey, &status, &amount, &updatedAt, &updatedBy); err != nil {
			return err
		}
		m, err := billing.ParseMonth(periodKey)
		if err != nil {
			continue // bad period key: skip the record, keep the entry
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			value = decimal.Zero
		}
		at, _ := time.Parse(time.RFC3339, updatedAt)
		if e.InvoiceHistory == nil {
			e.InvoiceHistory = make(map[billing.Month]billing.InvoiceRecord)
		}
		e.InvoiceHistory[m] = billing.InvoiceRecord{
			Status:    billing.InvoiceStatus(status),
			Amount:    billing.Amount{Value: value, Unit: billing.UnitKroner},
			UpdatedAt: at,
			UpdatedBy: updatedBy.String,
		}
	}
	return rows.Err()
}

func scanEntry(rows *sql.Rows) (*billing.ServiceEntry, error) {
	var e billing.ServiceEntry
	var price, startDate string
	var endDate, interval, coachID, pausedFrom, pausedUntil, nextInvoice, lastAdvanced sql.NullString
	var numberOfMonths sql.NullInt64

	err := rows.Scan(&e.ID, &e.CustomerID, &e.ServiceName, &price, &startDate, &endDate,
		&e.Status, &interval, &numberOfMonths, &coachID, &e.SeniorCoach,
		&pausedFrom, &pausedUntil, &nextInvoice, &lastAdvanced)
	if err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(price)
	if err != nil {
		value = decimal.Zero
	}
	e.Price = billing.Amount{Value: value, Unit: billing.UnitKroner}

	// Unparseable start dates leave Start zero; the engine excludes the
	// entry via a diagnostic instead of failing the load.
	if t, err := time.Parse(dayFormat, startDate); err == nil {
		e.Start = t
	}
	e.End = parseDay(endDate)
	e.BillingInterval = billing.BillingInterval(interval.String)
	e.NumberOfMonths = int(numberOfMonths.Int64)
	e.Coach = billing.CoachID(coachID.String)
	e.PausedFrom = parseDay(pausedFrom)
	e.PausedUntil = parseDay(pausedUntil)
	e.NextInvoiceDate = parseDay(nextInvoice)
	if lastAdvanced.Valid {
		if m, err := billing.ParseMonth(lastAdvanced.String); err == nil {
			e.LastAdvancedPeriod = &m
		}
	}
	return &e, nil
}

// =============================================================================
// COACH STORE
// =============================================================================

func (s *Store) ListCoaches(ctx context.Context) ([]billing.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, hourly_rate, senior FROM coaches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coaches []billing.Coach
	for rows.Next() {
		c, err := scanCoach(rows)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, *c)
	}
	return coaches, rows.Err()
}

func (s *Store) GetCoach(ctx context.Context, id billing.CoachID) (*billing.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, hourly_rate, senior FROM coaches WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, billing.ErrCoachNotFound
	}
	return scanCoach(rows)
}

func scanCoach(rows *sql.Rows) (*billing.Coach, error) {
	var c billing.Coach
	var rate string
	if err := rows.Scan(&c.ID, &c.DisplayName, &rate, &c.Senior); err != nil {
		return nil, err
	}
	value, err := decimal.NewFromString(rate)
	if err != nil {
		value = decimal.Zero
	}
	c.HourlyRate = billing.Amount{Value: value, Unit: billing.UnitKroner}
	return &c, nil
}

func (s *Store) SaveCoach(ctx context.Context, c billing.Coach) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coaches (id, display_name, hourly_rate, senior, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			hourly_rate = excluded.hourly_rate,
			senior = excluded.senior`,
		string(c.ID), c.DisplayName, c.HourlyRate.Value.String(), c.Senior,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) Aliases(ctx context.Context) (map[string]billing.CoachID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name, coach_id FROM coach_aliases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := make(map[string]billing.CoachID)
	for rows.Next() {
		var name, coachID string
		if err := rows.Scan(&name, &coachID); err != nil {
			return nil, err
		}
		aliases[name] = billing.CoachID(coachID)
	}
	return aliases, rows.Err()
}

func (s *Store) SaveAlias(ctx context.Context, name string, id billing.CoachID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_aliases (name, coach_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET coach_id = excluded.coach_id`,
		name, string(id))
	return err
}

// =============================================================================
// ADMINISTRATIVE HOUR STORE
// =============================================================================

func (s *Store) ListAdminHours(ctx context.Context, coach billing.CoachID, from, to time.Time) ([]billing.AdministrativeHour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, coach_id, date, hours, category, description, created_by
	          FROM admin_hours WHERE date >= ? AND date <= ?`
	args := []any{from.Format(dayFormat), to.Format(dayFormat)}
	if coach != "" {
		query += ` AND coach_id = ?`
		args = append(args, string(coach))
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []billing.AdministrativeHour
	for rows.Next() {
		var h billing.AdministrativeHour
		var date, amount string
		var description, createdBy sql.NullString
		if err := rows.Scan(&h.ID, &h.Coach, &date, &amount, &h.Category, &description, &createdBy); err != nil {
			return nil, err
		}
		if t, err := time.Parse(dayFormat, date); err == nil {
			h.Date = t
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			value = decimal.Zero
		}
		h.Hours = billing.Amount{Value: value, Unit: billing.UnitHours}
		h.Description = description.String
		h.CreatedBy = createdBy.String
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func (s *Store) SaveAdminHour(ctx context.Context, h billing.AdministrativeHour) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_hours (id, coach_id, date, hours, category, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			hours = excluded.hours,
			category = excluded.category,
			description = excluded.description`,
		h.ID, string(h.Coach), h.Date.Format(dayFormat), h.Hours.Value.String(),
		string(h.Category), h.Description, h.CreatedBy,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteAdminHour(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_hours WHERE id = ?`, id)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullableDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dayFormat)
}

func parseDay(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dayFormat, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// Compile-time interface checks
var (
	_ billing.CustomerStore  = (*Store)(nil)
	_ billing.CoachStore     = (*Store)(nil)
	_ billing.AdminHourStore = (*Store)(nil)
)
