/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to
  handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

SECURITY NOTE:
  No authentication middleware currently. Role-gating lives in the
  dashboard frontend; all endpoints here are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Post("/{id}/services", h.CreateEntry)
		})

		// Service entry routes
		r.Route("/services", func(r chi.Router) {
			r.Put("/{id}", h.UpdateEntry)
		})

		// Coach routes
		r.Route("/coaches", func(r chi.Router) {
			r.Get("/", h.ListCoaches)
			r.Post("/", h.CreateCoach)
			r.Get("/{id}/hours", h.GetCoachHours)
		})

		// Administrative hour routes
		r.Route("/admin-hours", func(r chi.Router) {
			r.Get("/", h.ListAdminHours)
			r.Post("/", h.CreateAdminHour)
			r.Delete("/{id}", h.DeleteAdminHour)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", h.GetRevenueReport)
			r.Get("/invoices", h.GetInvoiceReport)
			r.Get("/payroll", h.GetPayrollReport)
		})

		// Invoice status routes
		r.Route("/invoices", func(r chi.Router) {
			r.Post("/{entry}/{period}/status", h.TransitionInvoice)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/overdue-sweep", h.RunOverdueSweep)
		})
	})

	return r
}
