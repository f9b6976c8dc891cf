// Package reconcile implements the overdue reconciliation sweep: a
// periodic, idempotent job that recomputes overdue hours and penalties and
// promotes line and request statuses once due dates pass.
package reconcile

import (
	"log"
	"time"

	"github.com/katsura919/book-master-server/internal/entities"
)

// Store is the slice of the request repository the sweep needs.
type Store interface {
	OverdueCandidates(before time.Time) ([]entities.BorrowedBook, error)
	UpdateLineAccrual(lineID uint, hoursDue, penalty int) error
	PromoteLineOverdue(lineID uint) error
	OverdueRequestIDs() ([]uint, error)
	PromoteRequestOverdue(reqID uint) error
}

// Stats summarizes one sweep run.
type Stats struct {
	LinesAccrued     int
	LinesPromoted    int
	RequestsPromoted int
	Errors           int
}

// Engine runs the three reconciliation passes. Each pass is a full
// recompute over the table, so re-running within the same hour produces
// identical state. Row-level failures are logged and skipped; the next
// scheduled run self-heals whatever a failed run left behind.
type Engine struct {
	store          Store
	penaltyPerHour int
	now            func() time.Time
}

// NewEngine creates a reconciliation engine with the given per-hour
// penalty rate.
func NewEngine(store Store, penaltyPerHour int) *Engine {
	return &Engine{
		store:          store,
		penaltyPerHour: penaltyPerHour,
		now:            time.Now,
	}
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Run executes the three passes in order: penalty accrual, line status
// promotion, request status promotion.
func (e *Engine) Run() Stats {
	var stats Stats
	now := e.now()
	cutoff := startOfDay(now)

	candidates, err := e.store.OverdueCandidates(cutoff)
	if err != nil {
		log.Printf("reconcile: failed to fetch overdue lines: %v", err)
		stats.Errors++
		candidates = nil
	}

	// Pass 1: recompute hours and penalty for every overdue line.
	for _, line := range candidates {
		if line.DueDate == nil {
			continue
		}
		hours := int(now.Sub(*line.DueDate).Hours())
		if hours < 0 {
			hours = 0
		}
		penalty := hours * e.penaltyPerHour
		if err := e.store.UpdateLineAccrual(line.ID, hours, penalty); err != nil {
			log.Printf("reconcile: failed to update accrual for line %d: %v", line.ID, err)
			stats.Errors++
			continue
		}
		stats.LinesAccrued++
	}

	// Pass 2: promote overdue lines that are not yet marked Overdue.
	for _, line := range candidates {
		if line.Status == entities.LineStatusOverdue {
			continue
		}
		if err := e.store.PromoteLineOverdue(line.ID); err != nil {
			log.Printf("reconcile: failed to promote line %d: %v", line.ID, err)
			stats.Errors++
			continue
		}
		stats.LinesPromoted++
	}

	// Pass 3: any request with an Overdue line becomes Overdue.
	reqIDs, err := e.store.OverdueRequestIDs()
	if err != nil {
		log.Printf("reconcile: failed to fetch overdue requests: %v", err)
		stats.Errors++
		reqIDs = nil
	}
	for _, reqID := range reqIDs {
		if err := e.store.PromoteRequestOverdue(reqID); err != nil {
			log.Printf("reconcile: failed to promote request %d: %v", reqID, err)
			stats.Errors++
			continue
		}
		stats.RequestsPromoted++
	}

	log.Printf("reconcile: accrued %d lines, promoted %d lines, %d requests (%d errors)",
		stats.LinesAccrued, stats.LinesPromoted, stats.RequestsPromoted, stats.Errors)
	return stats
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
