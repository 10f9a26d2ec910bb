/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.
*/
package api

import (
	"time"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/payroll"
)

const dayFormat = "2006-01-02"

// =============================================================================
// CUSTOMERS & SERVICE ENTRIES
// =============================================================================

type CustomerDTO struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	DefaultCoach   string            `json:"default_coach,omitempty"`
	CurrentService *ServiceEntryDTO  `json:"current_service,omitempty"`
	ServiceHistory []ServiceEntryDTO `json:"service_history"`
}

type CreateCustomerRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DefaultCoach string `json:"default_coach"`
}

type ServiceEntryDTO struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	ServiceName     string             `json:"service_name"`
	Price           float64            `json:"price"`
	Start           string             `json:"start"`
	End             *string            `json:"end,omitempty"`
	Status          string             `json:"status"`
	BillingInterval string             `json:"billing_interval"`
	NumberOfMonths  int                `json:"number_of_months,omitempty"`
	Coach           string             `json:"coach,omitempty"`
	SeniorCoach     bool               `json:"senior_coach,omitempty"`
	PausedFrom      *string            `json:"paused_from,omitempty"`
	PausedUntil     *string            `json:"paused_until,omitempty"`
	NextInvoiceDate *string            `json:"next_invoice_date,omitempty"`
	InvoiceHistory  map[string]string  `json:"invoice_history,omitempty"`
}

type CreateEntryRequest struct {
	ServiceName     string  `json:"service_name"`
	Price           *float64 `json:"price,omitempty"` // nil = catalog base price
	Start           string  `json:"start"`
	BillingInterval string  `json:"billing_interval"`
	NumberOfMonths  int     `json:"number_of_months"`
	Coach           string  `json:"coach"`
	SeniorCoach     bool    `json:"senior_coach"`
}

type UpdateEntryRequest struct {
	Status      string  `json:"status"`
	End         *string `json:"end,omitempty"`
	PausedFrom  *string `json:"paused_from,omitempty"`
	PausedUntil *string `json:"paused_until,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// =============================================================================
// COACHES & ADMINISTRATIVE HOURS
// =============================================================================

type CoachDTO struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	HourlyRate  float64 `json:"hourly_rate"`
	Senior      bool    `json:"senior"`
}

type CreateCoachRequest struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	HourlyRate  float64  `json:"hourly_rate"`
	Senior      bool     `json:"senior"`
	Aliases     []string `json:"aliases,omitempty"`
}

type AdminHourDTO struct {
	ID          string  `json:"id"`
	Coach       string  `json:"coach"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	CreatedBy   string  `json:"created_by,omitempty"`
}

type CreateAdminHourRequest struct {
	Coach       string  `json:"coach"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	CreatedBy   string  `json:"created_by"`
}

// =============================================================================
// REPORTS
// =============================================================================

type InvoiceLineDTO struct {
	Customer    string  `json:"customer"`
	Entry       string  `json:"entry"`
	ServiceName string  `json:"service_name"`
	Period      string  `json:"period"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	Recorded    bool    `json:"recorded"`
}

type InvoiceReportDTO struct {
	Period      string           `json:"period"`
	Lines       []InvoiceLineDTO `json:"lines"`
	TotalDue    float64          `json:"total_due"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
}

type MonthRevenueDTO struct {
	Period     string             `json:"period"`
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"by_category"`
}

type RevenueReportDTO struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Total       float64           `json:"total"`
	Months      []MonthRevenueDTO `json:"months"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

type CoachHoursDTO struct {
	Coach               string   `json:"coach"`
	CoachName           string   `json:"coach_name"`
	From                string   `json:"from"`
	To                  string   `json:"to"`
	MembershipHours     float64  `json:"membership_hours"`
	TestHours           float64  `json:"test_hours"`
	OtherHours          float64  `json:"other_hours"`
	AdministrativeHours float64  `json:"administrative_hours"`
	TotalHours          float64  `json:"total_hours"`
	TotalCost           float64  `json:"total_cost"`
	Diagnostics         []string `json:"diagnostics,omitempty"`
}

type PayrollReportDTO struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Coaches []CoachHoursDTO `json:"coaches"`
}

// =============================================================================
// STATUS TRANSITIONS & SWEEP
// =============================================================================

type TransitionRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

type SweepResultDTO struct {
	Materialized int `json:"materialized"`
	MarkedOverdue int `json:"marked_overdue"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCustomerDTO(c *billing.Customer) CustomerDTO {
	dto := CustomerDTO{
		ID:             string(c.ID),
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		DefaultCoach:   string(c.DefaultCoach),
		ServiceHistory: make([]ServiceEntryDTO, len(c.ServiceHistory)),
	}
	for i := range c.ServiceHistory {
		dto.ServiceHistory[i] = toEntryDTO(&c.ServiceHistory[i])
	}
	if current := c.CurrentService(); current != nil {
		cur := toEntryDTO(current)
		dto.CurrentService = &cur
	}
	return dto
}

func toEntryDTO(e *billing.ServiceEntry) ServiceEntryDTO {
	dto := ServiceEntryDTO{
		ID:              string(e.ID),
		CustomerID:      string(e.CustomerID),
		ServiceName:     e.ServiceName,
		Price:           e.Price.Float64(),
		Start:           e.Start.Format(dayFormat),
		Status:          string(e.Status),
		BillingInterval: string(e.Interval()),
		NumberOfMonths:  e.NumberOfMonths,
		Coach:           string(e.Coach),
		SeniorCoach:     e.SeniorCoach,
		End:             formatDay(e.End),
		PausedFrom:      formatDay(e.PausedFrom),
		PausedUntil:     formatDay(e.PausedUntil),
		NextInvoiceDate: formatDay(e.NextInvoiceDate),
	}
	if len(e.InvoiceHistory) > 0 {
		dto.InvoiceHistory = make(map[string]string, len(e.InvoiceHistory))
		for m, rec := range e.InvoiceHistory {
			dto.InvoiceHistory[m.Key()] = string(rec.Status)
		}
	}
	return dto
}

func toInvoiceLineDTO(l billing.InvoiceLine) InvoiceLineDTO {
	return InvoiceLineDTO{
		Customer:    string(l.Customer),
		Entry:       string(l.Entry),
		ServiceName: l.ServiceName,
		Period:      l.Period.Key(),
		Amount:      l.Amount.Float64(),
		Status:      string(l.Status),
		Recorded:    l.Recorded,
	}
}

func toCoachHoursDTO(a *payroll.Aggregate) CoachHoursDTO {
	return CoachHoursDTO{
		Coach:               string(a.Coach),
		CoachName:           a.CoachName,
		From:                a.Window.Start.Format(dayFormat),
		To:                  a.Window.End.Format(dayFormat),
		MembershipHours:     a.MembershipHours.Float64(),
		TestHours:           a.TestHours.Float64(),
		OtherHours:          a.OtherHours.Float64(),
		AdministrativeHours: a.AdministrativeHours.Float64(),
		TotalHours:          a.TotalHours.Float64(),
		TotalCost:           a.TotalCost.Float64(),
		Diagnostics:         diagnosticStrings(a.Skipped),
	}
}

func diagnosticStrings(diags []billing.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dayFormat)
	return &s
}

func parseDayParam(s string) (time.Time, bool) {
	t, err := time.Parse(dayFormat, s)
	return t, err == nil
}
