// Package scheduler runs the recurring reconciliation sweep. It is an
// explicit, cancellable background task: started once at boot, stopped
// and joined on shutdown.
package scheduler

import (
	"context"
	"log"
	"time"
)

// RetryRunner is the slice of the ledger engine the scheduler drives.
type RetryRunner interface {
	RetryPendingTransactions(ctx context.Context) (int, error)
}

// Scheduler sweeps pending transactions on a fixed interval. A failed
// sweep is logged and the loop keeps going; per-transaction pacing and
// backoff live in the ledger engine.
type Scheduler struct {
	ledger   RetryRunner
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(ledger RetryRunner, interval time.Duration) *Scheduler {
	if ledger == nil {
		panic("ledger is required")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		ledger:   ledger,
		interval: interval,
	}
}

// Start launches the sweep loop. It must be called at most once.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processed, err := s.ledger.RetryPendingTransactions(ctx)
				if err != nil {
					log.Printf("scheduler: reconciliation sweep failed: %v", err)
					continue
				}
				if processed > 0 {
					log.Printf("scheduler: reconciled %d pending transaction(s)", processed)
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for it to finish. No new work is
// scheduled after Stop returns; an in-flight sweep completes first.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
