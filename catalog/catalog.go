/*
Package catalog provides the static service catalog.

PURPOSE:
  Maps service names to their classification (membership, test, other),
  their time budget in coach hours (with a senior-coach variant), and
  their base price. The catalog is reference data: the billing engine
  consults it for classification and time budgets, the API layer for
  default prices.

LOOKUP POLICY:
  Lookups are by exact name match. Names that match no entry but
  contain a membership marker classify as Membership. Missing entries
  degrade to a zero time budget and zero price - never an error - so
  one unknown service name cannot poison a whole aggregation. Callers
  that care can log the miss.

SEE ALSO:
  - payroll/aggregate.go: Consumes time budgets per entry-month
  - billing/revenue.go: Groups report lines by category
*/
package catalog

import (
	"strings"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

type Category string

const (
	CategoryMembership Category = "membership"
	CategoryTest       Category = "test"
	CategoryOther      Category = "other"
)

// membershipMarkers classify otherwise-unknown service names that are
// clearly membership products (e.g. ad-hoc "Custom membership 6 mo").
var membershipMarkers = []string{"membership", "medlemskap"}

// =============================================================================
// ENTRY - One catalog record
// =============================================================================

type Entry struct {
	Name             string
	Category         Category
	TimeBudget       billing.Amount // coach hours per month (memberships) or per occurrence
	SeniorTimeBudget billing.Amount // zero means same as TimeBudget
	BasePrice        billing.Amount
}

// =============================================================================
// CATALOG
// =============================================================================

type Catalog struct {
	entries map[string]Entry
}

func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[e.Name] = e
	}
	return c
}

// Register adds or replaces a catalog entry.
func (c *Catalog) Register(e Entry) {
	c.entries[e.Name] = e
}

// Lookup returns the entry and whether it exists.
func (c *Catalog) Lookup(serviceName string) (Entry, bool) {
	e, ok := c.entries[serviceName]
	return e, ok
}

// Classify maps a service name to its category. Unknown names fall
// back to marker matching, then Other.
func (c *Catalog) Classify(serviceName string) Category {
	if e, ok := c.entries[serviceName]; ok {
		return e.Category
	}
	lower := strings.ToLower(serviceName)
	for _, marker := range membershipMarkers {
		if strings.Contains(lower, marker) {
			return CategoryMembership
		}
	}
	return CategoryOther
}

// TimeBudget returns the coach-hour budget for one unit of the
// service: per month for memberships, per occurrence for one-time
// services. Unknown services budget zero hours.
func (c *Catalog) TimeBudget(serviceName string, seniorCoach bool) billing.Amount {
	e, ok := c.entries[serviceName]
	if !ok {
		return billing.Hours(0)
	}
	if seniorCoach && !e.SeniorTimeBudget.Value.IsZero() {
		return e.SeniorTimeBudget
	}
	return e.TimeBudget
}

// BasePrice returns the catalog price for the service, zero when
// unknown. The entry's own stored price always wins over this; the
// base price only seeds newly created entries.
func (c *Catalog) BasePrice(serviceName string) billing.Amount {
	e, ok := c.entries[serviceName]
	if !ok {
		return billing.Kroner(0)
	}
	return e.BasePrice
}

// Names returns all registered service names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}

// =============================================================================
// DEFAULT CATALOG - The standard coaching products
// =============================================================================

// Default returns the catalog of standard products. Time budgets are
// monthly coach hours for memberships and per-occurrence hours for
// tests.
func Default() *Catalog {
	return New(
		Entry{Name: "Basis Membership", Category: CategoryMembership,
			TimeBudget: billing.Hours(1.0), SeniorTimeBudget: billing.Hours(0.75), BasePrice: billing.Kroner(1290)},
		Entry{Name: "Standard Membership", Category: CategoryMembership,
			TimeBudget: billing.Hours(2.0), SeniorTimeBudget: billing.Hours(1.5), BasePrice: billing.Kroner(1990)},
		Entry{Name: "Premium Membership", Category: CategoryMembership,
			TimeBudget: billing.Hours(3.5), SeniorTimeBudget: billing.Hours(2.75), BasePrice: billing.Kroner(2990)},
		Entry{Name: "Online Membership", Category: CategoryMembership,
			TimeBudget: billing.Hours(0.75), SeniorTimeBudget: billing.Hours(0.5), BasePrice: billing.Kroner(890)},

		Entry{Name: "Body Composition Test", Category: CategoryTest,
			TimeBudget: billing.Hours(1.0), BasePrice: billing.Kroner(790)},
		Entry{Name: "VO2max Test", Category: CategoryTest,
			TimeBudget: billing.Hours(1.5), BasePrice: billing.Kroner(1190)},
		Entry{Name: "Lactate Profile Test", Category: CategoryTest,
			TimeBudget: billing.Hours(1.5), BasePrice: billing.Kroner(1290)},
		Entry{Name: "Strength Assessment", Category: CategoryTest,
			TimeBudget: billing.Hours(1.0), BasePrice: billing.Kroner(690)},

		Entry{Name: "Nutrition Consultation", Category: CategoryOther,
			TimeBudget: billing.Hours(1.0), BasePrice: billing.Kroner(990)},
		Entry{Name: "Training Program", Category: CategoryOther,
			TimeBudget: billing.Hours(2.0), BasePrice: billing.Kroner(1490)},
	)
}
