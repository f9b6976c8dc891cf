// Package scheduler drives the hourly reconciliation sweep with a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/katsura919/book-master-server/internal/reconcile"
)

// ReconcileScheduler runs the reconciliation engine on a cron schedule.
type ReconcileScheduler struct {
	engine   *reconcile.Engine
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	// sweepActive guards against overlapping sweeps: if a run is still in
	// flight when the next tick fires, the tick is skipped.
	sweepActive atomic.Bool
}

// NewReconcileScheduler creates a scheduler that runs the engine on the
// given five-field cron schedule.
func NewReconcileScheduler(engine *reconcile.Engine, schedule string) *ReconcileScheduler {
	return &ReconcileScheduler{
		engine:   engine,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Reconcile scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to
// finish.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Reconcile scheduler: stopped")
}

// RunNow triggers an immediate sweep outside the schedule.
func (s *ReconcileScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will occur.
func (s *ReconcileScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ReconcileScheduler) runSweep() {
	if !s.sweepActive.CompareAndSwap(false, true) {
		log.Printf("Reconcile sweep: skipped (previous run still in progress)")
		return
	}
	defer s.sweepActive.Store(false)

	start := time.Now()
	stats := s.engine.Run()
	log.Printf("Reconcile sweep: finished in %v (%d errors)",
		time.Since(start).Round(time.Millisecond), stats.Errors)
}
