// Package reconciler runs the pending-entry sweep on a schedule.
package reconciler

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/usecase"
)

// PendingSweeper is the use case the worker drives.
type PendingSweeper interface {
	SweepPending(ctx context.Context, olderThan time.Duration) (*usecase.SweepResult, error)
}

// Config for Sweeper.
type Config struct {
	Reconciler PendingSweeper
	Logger     *logging.Logger
	Interval   time.Duration // how often to sweep
	PendingAge time.Duration // entries younger than this are left alone
}

// Sweeper settles stale PENDING deposits periodically.
type Sweeper struct {
	reconciler PendingSweeper
	logger     *logging.Logger
	interval   time.Duration
	pendingAge time.Duration
}

// NewSweeper creates a Sweeper. Interval defaults to a minute and PendingAge to five minutes.
func NewSweeper(cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.PendingAge == 0 {
		cfg.PendingAge = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	return &Sweeper{
		reconciler: cfg.Reconciler,
		logger:     cfg.Logger,
		interval:   cfg.Interval,
		pendingAge: cfg.PendingAge,
	}
}

// Start sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.InfoCtx(ctx, "pending sweeper started",
		"interval", s.interval,
		"pending_age", s.pendingAge,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoCtx(ctx, "pending sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs its outcome.
func (s *Sweeper) RunOnce(ctx context.Context) *usecase.SweepResult {
	result, err := s.reconciler.SweepPending(ctx, s.pendingAge)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorCtx(ctx, "pending sweep failed", "error", err)
		}
		return nil
	}

	if result.Failed > 0 {
		s.logger.WarnCtx(ctx, "pending sweep failed unapplied entries", "failed", result.Failed)
	}

	return result
}
