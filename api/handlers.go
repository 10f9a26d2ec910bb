/*
handlers.go - HTTP API handlers for the billing dashboard backend

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine
  and payroll packages.

ENDPOINTS:
  Customers:
    GET    /api/customers                  List customers with histories
    POST   /api/customers                  Create customer
    GET    /api/customers/{id}             Get customer details
    POST   /api/customers/{id}/services    Add a service entry
    PUT    /api/services/{id}              Update entry lifecycle fields

  Coaches:
    GET    /api/coaches                    List coaches
    POST   /api/coaches                    Create coach (with aliases)
    GET    /api/coaches/{id}/hours         Hour & cost aggregate

  Administrative hours:
    GET    /api/admin-hours                List (coach + range filters)
    POST   /api/admin-hours                Log hours
    DELETE /api/admin-hours/{id}           Remove an entry

  Reports:
    GET    /api/reports/revenue            ?from&to revenue allocation
    GET    /api/reports/invoices           ?month=YYYY-MM due lines
    GET    /api/reports/payroll            ?from&to all-coach aggregates

  Invoicing:
    POST   /api/invoices/{entry}/{period}/status   Explicit transition
    POST   /api/admin/overdue-sweep                Manual sweep

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid transitions, bad period keys
  - 404: Missing customers/coaches/entries
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Automated overdue sweep
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/catalog"
	"github.com/warp/billing-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Stores are
// injected; nothing is looked up through ambient globals.
type Handler struct {
	Customers  billing.CustomerStore
	Coaches    billing.CoachStore
	AdminHours billing.AdminHourStore
	Catalog    *catalog.Catalog
	Aggregator *payroll.Aggregator

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a new handler wired to the given stores.
func NewHandler(customers billing.CustomerStore, coaches billing.CoachStore, adminHours billing.AdminHourStore, cat *catalog.Catalog) *Handler {
	return &Handler{
		Customers:  customers,
		Coaches:    coaches,
		AdminHours: adminHours,
		Catalog:    cat,
		Aggregator: payroll.NewAggregator(customers, coaches, adminHours, cat),
		Now:        time.Now,
	}
}

// categoryClassifier adapts the catalog to the revenue report.
type categoryClassifier struct{ cat *catalog.Catalog }

func (c categoryClassifier) Classify(serviceName string) string {
	return string(c.cat.Classify(serviceName))
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns all customers with their service histories.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := billing.CustomerID(chi.URLParam(r, "id"))

	c, err := h.Customers.GetCustomer(r.Context(), id)
	if billing.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

// CreateCustomer creates a new customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	c := billing.Customer{
		ID:           billing.CustomerID(req.ID),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		DefaultCoach: billing.CoachID(req.DefaultCoach),
	}
	if err := h.Customers.SaveCustomer(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(&c))
}

// CreateEntry adds a service entry to a customer. The price defaults
// to the catalog base price when omitted; an unknown service name
// defaults to zero, which shows up as a zero-amount due line rather
// than being silently substituted.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	customerID := billing.CustomerID(chi.URLParam(r, "id"))

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, ok := parseDayParam(req.Start)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", nil)
		return
	}
	if _, err := h.Customers.GetCustomer(r.Context(), customerID); err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Customer not found", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load customer", err)
		}
		return
	}

	price := h.Catalog.BasePrice(req.ServiceName)
	if req.Price != nil {
		price = billing.Kroner(*req.Price)
	}

	entry := billing.ServiceEntry{
		ID:              billing.EntryID(uuid.NewString()),
		CustomerID:      customerID,
		ServiceName:     req.ServiceName,
		Price:           price,
		Start:           start,
		Status:          billing.StatusActive,
		BillingInterval: billing.BillingInterval(req.BillingInterval),
		NumberOfMonths:  req.NumberOfMonths,
		Coach:           billing.CoachID(req.Coach),
		SeniorCoach:     req.SeniorCoach,
	}
	if err := h.Customers.SaveEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(&entry))
}

// UpdateEntry changes lifecycle fields on an existing service entry.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := billing.EntryID(chi.URLParam(r, "id"))

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Customers.GetEntry(r.Context(), id)
	if billing.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Service entry not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entry", err)
		return
	}

	if req.Status != "" {
		entry.Status = billing.ServiceStatus(req.Status)
	}
	if req.Price != nil {
		entry.Price = billing.Kroner(*req.Price)
	}
	if req.End != nil {
		if t, ok := parseDayParam(*req.End); ok {
			entry.End = &t
		} else {
			writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", nil)
			return
		}
	}
	if req.PausedFrom != nil {
		if t, ok := parseDayParam(*req.PausedFrom); ok {
			entry.PausedFrom = &t
		} else {
			writeError(w, http.StatusBadRequest, "Invalid paused_from date (use YYYY-MM-DD)", nil)
			return
		}
	}
	if req.PausedUntil != nil {
		if t, ok := parseDayParam(*req.PausedUntil); ok {
			entry.PausedUntil = &t
		} else {
			writeError(w, http.StatusBadRequest, "Invalid paused_until date (use YYYY-MM-DD)", nil)
			return
		}
	}

	if err := h.Customers.SaveEntry(r.Context(), *entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// =============================================================================
// COACH HANDLERS
// =============================================================================

// ListCoaches returns the roster.
func (h *Handler) ListCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.Coaches.ListCoaches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list coaches", err)
		return
	}

	dtos := make([]CoachDTO, len(coaches))
	for i, c := range coaches {
		dtos[i] = CoachDTO{
			ID:          string(c.ID),
			DisplayName: c.DisplayName,
			HourlyRate:  c.HourlyRate.Float64(),
			Senior:      c.Senior,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCoach creates a coach plus any display-name aliases.
func (h *Handler) CreateCoach(w http.ResponseWriter, r *http.Request) {
	var req CreateCoachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	c := billing.Coach{
		ID:          billing.CoachID(req.ID),
		DisplayName: req.DisplayName,
		HourlyRate:  billing.Kroner(req.HourlyRate),
		Senior:      req.Senior,
	}
	if err := h.Coaches.SaveCoach(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create coach", err)
		return
	}
	for _, alias := range req.Aliases {
		if err := h.Coaches.SaveAlias(r.Context(), alias, c.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save alias", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, CoachDTO{
		ID:          string(c.ID),
		DisplayName: c.DisplayName,
		HourlyRate:  c.HourlyRate.Float64(),
		Senior:      c.Senior,
	})
}

// GetCoachHours returns the hour & cost aggregate for one coach.
// GET /api/coaches/{id}/hours?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetCoachHours(w http.ResponseWriter, r *http.Request) {
	id := billing.CoachID(chi.URLParam(r, "id"))
	period, ok := h.windowFromQuery(w, r)
	if !ok {
		return
	}

	agg, err := h.Aggregator.ForCoach(r.Context(), id, period)
	if billing.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Coach not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toCoachHoursDTO(agg))
}

// =============================================================================
// ADMINISTRATIVE HOUR HANDLERS
// =============================================================================

// ListAdminHours lists logged hours, optionally filtered by coach.
// GET /api/admin-hours?coach=&from=&to=
func (h *Handler) ListAdminHours(w http.ResponseWriter, r *http.Request) {
	period, ok := h.windowFromQuery(w, r)
	if !ok {
		return
	}
	coach := billing.CoachID(r.URL.Query().Get("coach"))

	hours, err := h.AdminHours.ListAdminHours(r.Context(), coach, period.Start, period.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list administrative hours", err)
		return
	}

	dtos := make([]AdminHourDTO, len(hours))
	for i, ah := range hours {
		dtos[i] = AdminHourDTO{
			ID:          ah.ID,
			Coach:       string(ah.Coach),
			Date:        ah.Date.Format(dayFormat),
			Hours:       ah.Hours.Float64(),
			Category:    string(ah.Category),
			Description: ah.Description,
			CreatedBy:   ah.CreatedBy,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAdminHour logs administrative time for a coach. Hours are
// quantized to 0.25.
func (h *Handler) CreateAdminHour(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminHourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, ok := parseDayParam(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", nil)
		return
	}
	if req.Hours <= 0 {
		writeError(w, http.StatusBadRequest, "hours must be positive", nil)
		return
	}
	if _, err := h.Coaches.GetCoach(r.Context(), billing.CoachID(req.Coach)); err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Coach not found", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load coach", err)
		}
		return
	}

	entry := billing.AdministrativeHour{
		ID:          uuid.NewString(),
		Coach:       billing.CoachID(req.Coach),
		Date:        date,
		Hours:       billing.QuantizeQuarter(billing.Hours(req.Hours)),
		Category:    billing.AdminCategory(req.Category),
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	}
	if err := h.AdminHours.SaveAdminHour(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save administrative hours", err)
		return
	}
	writeJSON(w, http.StatusCreated, AdminHourDTO{
		ID:          entry.ID,
		Coach:       string(entry.Coach),
		Date:        entry.Date.Format(dayFormat),
		Hours:       entry.Hours.Float64(),
		Category:    string(entry.Category),
		Description: entry.Description,
		CreatedBy:   entry.CreatedBy,
	})
}

// DeleteAdminHour removes a logged entry.
func (h *Handler) DeleteAdminHour(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.AdminHours.DeleteAdminHour(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete administrative hours", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetRevenueReport allocates revenue across the window.
// GET /api/reports/revenue?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetRevenueReport(w http.ResponseWriter, r *http.Request) {
	period, ok := h.windowFromQuery(w, r)
	if !ok {
		return
	}
	customers, err := h.Customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	report := billing.BuildRevenueReport(customers, period, categoryClassifier{h.Catalog})

	dto := RevenueReportDTO{
		From:        period.Start.Format(dayFormat),
		To:          period.End.Format(dayFormat),
		Total:       report.Total.Float64(),
		Diagnostics: diagnosticStrings(report.Skipped),
	}
	for _, m := range report.Months {
		mr := MonthRevenueDTO{
			Period:     m.Period.Key(),
			Total:      m.Total.Float64(),
			ByCategory: make(map[string]float64, len(m.ByCategory)),
		}
		for cat, amount := range m.ByCategory {
			mr.ByCategory[cat] = amount.Float64()
		}
		dto.Months = append(dto.Months, mr)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetInvoiceReport lists due and recorded invoice lines for a month.
// GET /api/reports/invoices?month=YYYY-MM
func (h *Handler) GetInvoiceReport(w http.ResponseWriter, r *http.Request) {
	month, err := billing.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	customers, err := h.Customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	lines, diags := billing.ProjectInvoices(customers, month)

	dto := InvoiceReportDTO{
		Period:      month.Key(),
		Lines:       make([]InvoiceLineDTO, len(lines)),
		TotalDue:    billing.TotalDue(lines).Float64(),
		Diagnostics: diagnosticStrings(diags),
	}
	for i, l := range lines {
		dto.Lines[i] = toInvoiceLineDTO(l)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetPayrollReport aggregates hours and cost for every coach.
// GET /api/reports/payroll?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetPayrollReport(w http.ResponseWriter, r *http.Request) {
	period, ok := h.windowFromQuery(w, r)
	if !ok {
		return
	}

	aggregates, err := h.Aggregator.ForAll(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate payroll", err)
		return
	}

	dto := PayrollReportDTO{
		From:    period.Start.Format(dayFormat),
		To:      period.End.Format(dayFormat),
		Coaches: make([]CoachHoursDTO, len(aggregates)),
	}
	for i := range aggregates {
		dto.Coaches[i] = toCoachHoursDTO(&aggregates[i])
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// INVOICE STATUS HANDLERS
// =============================================================================

// TransitionInvoice applies an explicit status change to one
// service-month and persists both the record and any next-invoice-date
// advance.
// POST /api/invoices/{entry}/{period}/status
func (h *Handler) TransitionInvoice(w http.ResponseWriter, r *http.Request) {
	entryID := billing.EntryID(chi.URLParam(r, "entry"))
	month, err := billing.ParseMonth(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Customers.GetEntry(r.Context(), entryID)
	if billing.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Service entry not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entry", err)
		return
	}

	if err := billing.Transition(entry, month, billing.InvoiceStatus(req.Status), req.Actor, h.Now()); err != nil {
		if billing.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Transition rejected", err)
		} else {
			writeError(w, http.StatusInternalServerError, "Transition failed", err)
		}
		return
	}

	if err := h.Customers.SaveEntry(r.Context(), *entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist transition", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// RunOverdueSweep materializes current-month invoices and flips
// elapsed Pending months to Overdue across all customers.
// POST /api/admin/overdue-sweep
func (h *Handler) RunOverdueSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// sweep is shared between the manual endpoint and the scheduler.
func (h *Handler) sweep(ctx context.Context) (SweepResultDTO, error) {
	customers, err := h.Customers.ListCustomers(ctx)
	if err != nil {
		return SweepResultDTO{}, err
	}

	now := h.Now()
	current := billing.MonthOf(now)
	var result SweepResultDTO

	for ci := range customers {
		c := &customers[ci]
		for ei := range c.ServiceHistory {
			e := &c.ServiceHistory[ei]
			changed := false
			if billing.EnsureInvoiced(e, current, now) {
				result.Materialized++
				changed = true
			}
			if flipped := billing.SweepOverdue(e, now); len(flipped) > 0 {
				result.MarkedOverdue += len(flipped)
				changed = true
			}
			if changed {
				if err := h.Customers.SaveEntry(ctx, *e); err != nil {
					return result, err
				}
			}
		}
	}
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// windowFromQuery parses from/to query params into a Period, writing
// the error response itself on failure.
func (h *Handler) windowFromQuery(w http.ResponseWriter, r *http.Request) (billing.Period, bool) {
	from, okFrom := parseDayParam(r.URL.Query().Get("from"))
	to, okTo := parseDayParam(r.URL.Query().Get("to"))
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "from and to are required (use YYYY-MM-DD)", nil)
		return billing.Period{}, false
	}
	period, err := billing.NewPeriod(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window", err)
		return billing.Period{}, false
	}
	return period, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
