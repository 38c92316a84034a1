/*
scheduler.go - Automated booking completion sweeper

PURPOSE:
  Periodically marks bookings whose date range has fully elapsed as
  completed. Completed bookings still count against historical
  utilization; the sweep only moves them out of the "booked" state so
  the UI and project stats reflect reality without manual bookkeeping.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Scans per employee, reusing the same store queries as the API
  - Skips bookings already completed or cancelled
  - Each transition is recorded in the audit trail

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewCompletionSweeper(store)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: CancelBooking (the manual state transition)
  - engine/types.go: Booking status values
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/staffing-engine/engine"
)

// CompletionSweeper moves elapsed bookings from booked to completed.
type CompletionSweeper struct {
	Store         engine.Store
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCompletionSweeper creates a new sweeper.
func NewCompletionSweeper(store engine.Store) *CompletionSweeper {
	return &CompletionSweeper{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (cs *CompletionSweeper) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Sweeper] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the sweeper.
func (cs *CompletionSweeper) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (cs *CompletionSweeper) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.sweep()

	for {
		select {
		case <-cs.ticker.C:
			cs.sweep()
		case <-cs.stop:
			return
		}
	}
}

func (cs *CompletionSweeper) sweep() {
	ctx := context.Background()
	today := engine.Today()

	employees, err := cs.Store.ListEmployees(ctx, engine.EmployeeFilter{IncludeInactive: true})
	if err != nil {
		log.Printf("[Sweeper] Error listing employees: %v", err)
		return
	}

	completed := 0
	for _, emp := range employees {
		bookings, err := cs.Store.BookingsByEmployee(ctx, emp.ID)
		if err != nil {
			log.Printf("[Sweeper] Error listing bookings for %s: %v", emp.ID, err)
			continue
		}

		for _, b := range bookings {
			if b.Status != engine.BookingBooked {
				continue
			}
			if !b.Range.End.Before(today) {
				// Still running or in the future.
				continue
			}

			b.Status = engine.BookingCompleted
			b.UpdatedAt = time.Now().UTC()
			if err := cs.Store.SaveBooking(ctx, b); err != nil {
				log.Printf("[Sweeper] Error completing booking %s: %v", b.ID, err)
				continue
			}

			// Best effort; a lost audit row must not stop the sweep.
			_ = cs.Store.AppendAudit(ctx, engine.AuditEntry{
				ID:         uuid.NewString(),
				Timestamp:  time.Now().UTC(),
				Action:     engine.AuditBookingCompleted,
				EmployeeID: b.EmployeeID,
				ProjectID:  b.ProjectID,
				Detail:     "elapsed booking " + string(b.ID) + " marked completed",
			})
			completed++
		}
	}

	if completed > 0 {
		log.Printf("[Sweeper] Completed %d elapsed bookings", completed)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (cs *CompletionSweeper) RunNow() {
	cs.sweep()
}
