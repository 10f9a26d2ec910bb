/*
scheduler.go - Automated overdue sweep scheduler

PURPOSE:
  Periodically materializes Pending invoice records for the current
  month and applies the single automatic status transition: Pending
  months whose calendar month has fully elapsed become Overdue.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reuses the same sweep as the manual /api/admin/overdue-sweep
    endpoint, so automated and manual passes cannot diverge
  - The sweep is idempotent: recorded statuses are authoritative and
    re-running it changes nothing

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewOverdueScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunOverdueSweep endpoint (manual pass)
  - billing/status.go: SweepOverdue, EnsureInvoiced
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// OverdueScheduler handles the automated invoice status pass.
type OverdueScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewOverdueScheduler creates a new scheduler.
func NewOverdueScheduler(handler *Handler) *OverdueScheduler {
	return &OverdueScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (os *OverdueScheduler) Start() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if !os.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if os.started {
		return
	}
	os.started = true

	os.stop = make(chan bool)
	os.ticker = time.NewTicker(os.CheckInterval)
	os.wg.Add(1)

	go os.run()

	log.Printf("[Scheduler] Started with check interval: %v", os.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once.
func (os *OverdueScheduler) Stop() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if !os.started {
		return
	}
	os.started = false

	os.ticker.Stop()
	close(os.stop)
	os.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (os *OverdueScheduler) run() {
	defer os.wg.Done()

	// Run immediately on start
	os.checkAndProcess()

	for {
		select {
		case <-os.ticker.C:
			os.checkAndProcess()
		case <-os.stop:
			return
		}
	}
}

func (os *OverdueScheduler) checkAndProcess() {
	ctx := context.Background()

	result, err := os.Handler.sweep(ctx)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}
	if result.Materialized > 0 || result.MarkedOverdue > 0 {
		log.Printf("[Scheduler] Sweep completed: %d invoices materialized, %d marked overdue",
			result.Materialized, result.MarkedOverdue)
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (os *OverdueScheduler) RunNow() {
	os.checkAndProcess()
}
