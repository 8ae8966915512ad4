package service

import (
	"context"
	"time"

	"github.com/fundedlabs/propgate/internal/pkg/logger"
)

// RefreshStateRepo records when the last sweep ran so restarts inside the
// interval do not trigger an extra sweep.
type RefreshStateRepo interface {
	LastSweep(ctx context.Context) (time.Time, error)
	RecordSweep(ctx context.Context, at time.Time) error
}

// Scheduler drives the periodic refresh-and-scan sweep over all tracked
// accounts. One sweep every interval, aligned to the persisted bookkeeping
// row rather than the process start.
type Scheduler struct {
	alerts   *AlertService
	state    RefreshStateRepo
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

func NewScheduler(alerts *AlertService, state RefreshStateRepo, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &Scheduler{
		alerts:   alerts,
		state:    state,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled. The first check
// happens immediately so a long-stopped deployment catches up on boot.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		s.runIfDue(ctx)

		ticker := time.NewTicker(s.interval / 12)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runIfDue(ctx)
			}
		}
	}()
}

// Wait blocks until the loop has exited after context cancellation.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) runIfDue(ctx context.Context) {
	now := s.now()
	last, err := s.state.LastSweep(ctx)
	if err != nil {
		logger.Error("failed to read sweep bookkeeping", "error", err)
		return
	}
	if !last.IsZero() && now.Sub(last) < s.interval {
		return
	}

	logger.Info("starting scheduled metrics sweep", "last_sweep", last)
	start := now
	emitted, err := s.alerts.ScanAll(ctx, true)
	if err != nil {
		logger.Error("scheduled sweep failed", "error", err)
		return
	}
	if pruned, err := s.alerts.PruneKeys(ctx); err != nil {
		logger.Warn("dedup key prune failed", "error", err)
	} else if pruned > 0 {
		logger.Info("pruned expired dedup keys", "count", pruned)
	}
	if err := s.state.RecordSweep(ctx, start); err != nil {
		logger.Error("failed to record sweep", "error", err)
	}
	logger.Info("scheduled sweep finished",
		"alerts", len(emitted), "took", s.now().Sub(start).String())
}
