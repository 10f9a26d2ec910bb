// Package store provides in-memory implementations of the billing
// storage interfaces, for tests and development runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - Implements CustomerStore, CoachStore, AdminHourStore
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	customers  map[billing.CustomerID]billing.Customer
	coaches    map[billing.CoachID]billing.Coach
	aliases    map[string]billing.CoachID
	adminHours map[string]billing.AdministrativeHour
}

func NewMemory() *Memory {
	return &Memory{
		customers:  make(map[billing.CustomerID]billing.Customer),
		coaches:    make(map[billing.CoachID]billing.Coach),
		aliases:    make(map[string]billing.CoachID),
		adminHours: make(map[string]billing.AdministrativeHour),
	}
}

// -----------------------------------------------------------------------------
// CustomerStore
// -----------------------------------------------------------------------------

func (m *Memory) ListCustomers(_ context.Context) ([]billing.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		result = append(result, cloneCustomer(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetCustomer(_ context.Context, id billing.CustomerID) (*billing.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, billing.ErrCustomerNotFound
	}
	clone := cloneCustomer(c)
	return &clone, nil
}

func (m *Memory) SaveCustomer(_ context.Context, c billing.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (m *Memory) SaveEntry(_ context.Context, e billing.ServiceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[e.CustomerID]
	if !ok {
		return billing.ErrCustomerNotFound
	}
	replaced := false
	for i := range c.ServiceHistory {
		if c.ServiceHistory[i].ID == e.ID {
			c.ServiceHistory[i] = cloneEntry(e)
			replaced = true
			break
		}
	}
	if !replaced {
		c.ServiceHistory = append(c.ServiceHistory, cloneEntry(e))
	}
	m.customers[c.ID] = c
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id billing.EntryID) (*billing.ServiceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.customers {
		for i := range c.ServiceHistory {
			if c.ServiceHistory[i].ID == id {
				clone := cloneEntry(c.ServiceHistory[i])
				return &clone, nil
			}
		}
	}
	return nil, billing.ErrEntryNotFound
}

func (m *Memory) SetInvoiceStatus(_ context.Context, id billing.EntryID, month billing.Month, rec billing.InvoiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for cid, c := range m.customers {
		for i := range c.ServiceHistory {
			if c.ServiceHistory[i].ID != id {
				continue
			}
			e := &c.ServiceHistory[i]
			if e.InvoiceHistory == nil {
				e.InvoiceHistory = make(map[billing.Month]billing.InvoiceRecord)
			}
			e.InvoiceHistory[month] = rec
			m.customers[cid] = c
			return nil
		}
	}
	return billing.ErrEntryNotFound
}

// -----------------------------------------------------------------------------
// CoachStore
// -----------------------------------------------------------------------------

func (m *Memory) ListCoaches(_ context.Context) ([]billing.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Coach, 0, len(m.coaches))
	for _, c := range m.coaches {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetCoach(_ context.Context, id billing.CoachID) (*billing.Coach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.coaches[id]
	if !ok {
		return nil, billing.ErrCoachNotFound
	}
	return &c, nil
}

func (m *Memory) SaveCoach(_ context.Context, c billing.Coach) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coaches[c.ID] = c
	return nil
}

func (m *Memory) Aliases(_ context.Context) (map[string]billing.CoachID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]billing.CoachID, len(m.aliases))
	for k, v := range m.aliases {
		result[k] = v
	}
	return result, nil
}

func (m *Memory) SaveAlias(_ context.Context, name string, id billing.CoachID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[name] = id
	return nil
}

// -----------------------------------------------------------------------------
// AdminHourStore
// -----------------------------------------------------------------------------

func (m *Memory) ListAdminHours(_ context.Context, coach billing.CoachID, from, to time.Time) ([]billing.AdministrativeHour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.AdministrativeHour
	for _, h := range m.adminHours {
		if coach != "" && h.Coach != coach {
			continue
		}
		d := billing.DayOf(h.Date)
		if d.Before(billing.DayOf(from)) || d.After(billing.DayOf(to)) {
			continue
		}
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) SaveAdminHour(_ context.Context, h billing.AdministrativeHour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminHours[h.ID] = h
	return nil
}

func (m *Memory) DeleteAdminHour(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adminHours, id)
	return nil
}

// -----------------------------------------------------------------------------
// Cloning - keep callers from mutating shared state
// -----------------------------------------------------------------------------

func cloneCustomer(c billing.Customer) billing.Customer {
	clone := c
	clone.ServiceHistory = make([]billing.ServiceEntry, len(c.ServiceHistory))
	for i, e := range c.ServiceHistory {
		clone.ServiceHistory[i] = cloneEntry(e)
	}
	return clone
}

func cloneEntry(e billing.ServiceEntry) billing.ServiceEntry {
	clone := e
	if e.InvoiceHistory != nil {
		clone.InvoiceHistory = make(map[billing.Month]billing.InvoiceRecord, len(e.InvoiceHistory))
		for k, v := range e.InvoiceHistory {
			clone.InvoiceHistory[k] = v
		}
	}
	return clone
}

// Compile-time interface checks
var (
	_ billing.CustomerStore  = (*Memory)(nil)
	_ billing.CoachStore     = (*Memory)(nil)
	_ billing.AdminHourStore = (*Memory)(nil)
)
