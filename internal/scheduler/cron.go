package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"precipwatch/internal/types"
)

// IntervalSource reads the user's preferred check interval; ok is false when
// the user has never overridden the configured default.
type IntervalSource interface {
	UpdateIntervalHours(ctx context.Context) (int, bool, error)
}

// Scheduler drives the CheckRunner on a fixed interval using cron "@every"
// specs. The interval is user-adjustable at runtime via Reschedule.
type Scheduler struct {
	runner *CheckRunner
	cron   *cron.Cron
	logger *slog.Logger

	mu       sync.Mutex
	entryID  cron.EntryID
	interval time.Duration
	baseCtx  context.Context
}

// NewScheduler creates a Scheduler ticking at the given interval.
func NewScheduler(runner *CheckRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		cron:     cron.New(),
		interval: interval,
		logger:   logger,
	}
}

// EffectiveInterval resolves the interval to use: the user preference when
// set, otherwise fallback.
func EffectiveInterval(ctx context.Context, prefs IntervalSource, fallback time.Duration) time.Duration {
	hours, ok, err := prefs.UpdateIntervalHours(ctx)
	if err != nil || !ok || hours <= 0 {
		return fallback
	}
	return time.Duration(hours) * time.Hour
}

// Start registers the periodic tick and starts the cron loop. ctx must be a
// process-lifetime context: every tick runs under it, including ticks
// registered later by Reschedule. Cron's default behavior of skipping a tick
// whose predecessor is still running combines with the runner's singleflight
// key to guarantee at most one concurrent cycle.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baseCtx = ctx
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to schedule check cycle", err)
	}
	s.entryID = id
	s.cron.Start()
	s.logger.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// tick runs one check cycle under the scheduler's base context. Short-lived
// caller contexts (an HTTP request that triggered a reschedule, say) must
// never leak into the periodic loop; their cancellation would kill every
// cycle that follows.
func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("scheduled check cycle failed", "error", err)
	}
}

// Reschedule replaces the periodic tick with a new interval. Used when the
// user changes the preferred update interval. The caller's context governs
// nothing beyond this call; future ticks keep running under the context
// given to Start.
func (s *Scheduler) Reschedule(_ context.Context, interval time.Duration) error {
	if interval <= 0 {
		return types.NewAppError(types.ErrCodeValidationMissingField, "interval must be positive", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(s.entryID)
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.tick)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to reschedule check cycle", err)
	}
	s.entryID = id
	s.interval = interval
	s.logger.Info("scheduler interval changed", "interval", interval.String())
	return nil
}

// Interval returns the currently scheduled interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Stop halts the cron loop and returns a context that completes when any
// in-flight tick has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
