package payroll

import (
	"context"
	"strings"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// ROSTER - Coach-name resolution at the repository boundary
// =============================================================================

// Historical data references coaches by display name, sometimes as
// initials ("MB"), sometimes as full names with inconsistent casing.
// The Resolver reconciles those variants to stable coach IDs before
// anything reaches the aggregation engine, which only ever sees IDs.

type Resolver struct {
	byAlias map[string]billing.CoachID
}

// NewResolver builds a resolver from the coach roster and the alias
// table. Each coach's own display name and derived initials resolve
// implicitly; explicit aliases win over derived ones.
func NewResolver(ctx context.Context, coaches billing.CoachStore) (*Resolver, error) {
	roster, err := coaches.ListCoaches(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := coaches.Aliases(ctx)
	if err != nil {
		return nil, err
	}

	r := &Resolver{byAlias: make(map[string]billing.CoachID)}
	for _, c := range roster {
		r.byAlias[normalizeName(c.DisplayName)] = c.ID
		if ini := initials(c.DisplayName); ini != "" {
			if _, taken := r.byAlias[ini]; !taken {
				r.byAlias[ini] = c.ID
			}
		}
	}
	for name, id := range aliases {
		r.byAlias[normalizeName(name)] = id
	}
	return r, nil
}

// Resolve maps a display-name variant to a coach ID.
func (r *Resolver) Resolve(name string) (billing.CoachID, bool) {
	id, ok := r.byAlias[normalizeName(name)]
	return id, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// initials derives "mb" from "Mia Berg". Single-word names yield
// nothing; two coaches sharing initials keep only the first mapping.
func initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(strings.ToLower(f[:1]))
	}
	return b.String()
}
