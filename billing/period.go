package billing

// =============================================================================
// ACTIVITY PREDICATES - Which months does a service entry live in?
// =============================================================================

// EffectiveEnd returns the end of the entry's life clipped to the
// window. An entry with an explicit end date ends there; an entry
// still running is treated as ongoing through the window end. The
// entry is never projected past the window it is being asked about.
func (e *ServiceEntry) EffectiveEnd(p Period) Month {
	if e.End != nil {
		end := MonthOf(*e.End)
		if end.Before(MonthOf(p.End)) {
			return end
		}
	}
	return MonthOf(p.End)
}

// IsActiveDuring reports whether the entry overlaps the window at all:
// its start is on or before the window end, and it either has no end
// constraint or its end date reaches the window start.
func IsActiveDuring(e *ServiceEntry, p Period) bool {
	if e.Start.IsZero() {
		return false
	}
	if DayOf(e.Start).After(p.End) {
		return false
	}
	if e.End == nil {
		return true
	}
	return !DayOf(*e.End).Before(p.Start)
}

// MonthsOverlapping enumerates each calendar month in which the entry
// and the window intersect, in order. An entry that starts and ends
// within one calendar month still yields that month.
func MonthsOverlapping(e *ServiceEntry, p Period) []Month {
	if !IsActiveDuring(e, p) {
		return nil
	}

	first := MonthOf(e.Start)
	if windowFirst := MonthOf(p.Start); first.Before(windowFirst) {
		first = windowFirst
	}
	last := e.EffectiveEnd(p)

	var months []Month
	for m := first; m.BeforeOrEqual(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// =============================================================================
// PAUSE WINDOW - Months suspended from billing
// =============================================================================

// PausedDuring reports whether the month falls inside the entry's
// explicit pause window. A Paused entry that carries no window
// suspends every month; Validate surfaces that case as a diagnostic
// so the missing window gets fixed rather than guessed at.
func (e *ServiceEntry) PausedDuring(m Month) bool {
	if e.PausedFrom == nil {
		return e.Status == StatusPaused
	}
	if m.End().Before(DayOf(*e.PausedFrom)) {
		return false
	}
	if e.PausedUntil != nil && m.Start().After(DayOf(*e.PausedUntil)) {
		return false
	}
	return true
}

// hasPause reports whether the entry has a pause window at all.
func (e *ServiceEntry) hasPause() bool {
	return e.PausedFrom != nil || e.Status == StatusPaused
}

// Validate checks an entry for data problems that would make its
// billing undecidable. It returns a diagnostic per problem; entries
// with diagnostics are excluded from aggregation by callers.
func (e *ServiceEntry) Validate() []Diagnostic {
	var diags []Diagnostic
	if e.Start.IsZero() {
		diags = append(diags, Diagnostic{
			Entry:    e.ID,
			Customer: e.CustomerID,
			Code:     DiagMissingStartDate,
			Message:  "service entry has no start date and is excluded from aggregation",
		})
	}
	if e.Status == StatusPaused && e.PausedFrom == nil {
		diags = append(diags, Diagnostic{
			Entry:    e.ID,
			Customer: e.CustomerID,
			Code:     DiagPausedWithoutWindow,
			Message:  "paused entry has no pause window; billing is suspended until one is set",
		})
	}
	return diags
}
