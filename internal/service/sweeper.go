package service

import (
	"context"
	"time"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
)

// SweeperConfig thresholds for the reconciliation pass
type SweeperConfig struct {
	Interval        time.Duration
	SessionStaleAge time.Duration
	QueuedRetryAge  time.Duration
	RetryBatchSize  int
}

// Sweeper is the periodic reconciliation pass: it closes sessions gone
// quiet beyond the threshold and retries notification log rows stuck in
// queued, giving the dispatch pipeline its at-least-once guarantee.
type Sweeper struct {
	cfg      SweeperConfig
	sessions repository.SessionRepository
	identity IdentityService
	logs     repository.NotificationLogRepository
	dispatch DispatchService
}

// NewSweeper creates a Sweeper
func NewSweeper(
	cfg SweeperConfig,
	sessions repository.SessionRepository,
	identity IdentityService,
	logs repository.NotificationLogRepository,
	dispatch DispatchService,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.RetryBatchSize <= 0 {
		cfg.RetryBatchSize = 100
	}
	return &Sweeper{
		cfg:      cfg,
		sessions: sessions,
		identity: identity,
		logs:     logs,
		dispatch: dispatch,
	}
}

// Run loops until the context is cancelled. Meant to be started on its
// own goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	pkglogger.Info("reconciliation sweeper started (interval %s)", s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			pkglogger.Info("reconciliation sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep executes one reconciliation pass
func (s *Sweeper) Sweep(ctx context.Context) {
	s.sweepStaleSessions(ctx)
	s.sweepStuckNotifications(ctx)
}

func (s *Sweeper) sweepStaleSessions(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.SessionStaleAge)
	stale, err := s.sessions.FindStale(cutoff)
	if err != nil {
		pkglogger.Error("stale session query failed: %v", err)
		return
	}
	for _, session := range stale {
		if err := s.identity.CloseSession(ctx, session.ID, domain.DisconnectStale); err != nil {
			pkglogger.Error("failed to close stale session %s: %v", session.ID, err)
		}
	}
	if len(stale) > 0 {
		pkglogger.Info("closed %d stale sessions", len(stale))
	}
}

func (s *Sweeper) sweepStuckNotifications(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.QueuedRetryAge)
	stuck, err := s.logs.FindStuckQueued(cutoff, s.cfg.RetryBatchSize)
	if err != nil {
		pkglogger.Error("stuck notification query failed: %v", err)
		return
	}
	for _, log := range stuck {
		if err := s.dispatch.RetryQueued(ctx, log); err != nil {
			pkglogger.Error("retry of notification %s failed: %v", log.ID, err)
		}
	}
	if len(stuck) > 0 {
		pkglogger.Info("retried %d stuck notifications", len(stuck))
	}
}
