package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION SWEEP
// ══════════════════════════════════════════════════════════════════════════════

// SessionSweeper drops sessions idle for longer than maxIdle.
type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
	Len() int
}

// SessionSweepJob expires idle workspaces.
type SessionSweepJob struct {
	store   SessionSweeper
	maxIdle time.Duration
	logger  *slog.Logger
}

// NewSessionSweepJob creates the idle-session expiry job.
func NewSessionSweepJob(store SessionSweeper, maxIdle time.Duration, logger *slog.Logger) *SessionSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweepJob{store: store, maxIdle: maxIdle, logger: logger}
}

func (j *SessionSweepJob) Name() string { return "session_sweep" }

func (j *SessionSweepJob) Description() string {
	return "Expires sessions idle for longer than " + j.maxIdle.String()
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := j.store.Sweep(j.maxIdle); n > 0 {
		j.logger.Info("idle sessions expired", "count", n, "active", j.store.Len())
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR RESYNC
// ══════════════════════════════════════════════════════════════════════════════

// CalendarLoader reloads the blocked-day registry from the provider.
type CalendarLoader interface {
	Load(ctx context.Context) error
}

// CalendarResyncJob periodically reloads the shared calendar, picking up
// changes made outside this process.
type CalendarResyncJob struct {
	calendar CalendarLoader
	timeout  time.Duration
}

// NewCalendarResyncJob creates the calendar reload job. Each run is bounded
// by timeout when it is positive.
func NewCalendarResyncJob(calendar CalendarLoader, timeout time.Duration) *CalendarResyncJob {
	return &CalendarResyncJob{calendar: calendar, timeout: timeout}
}

func (j *CalendarResyncJob) Name() string { return "calendar_resync" }

func (j *CalendarResyncJob) Description() string {
	return "Reloads blocked days from the data provider"
}

func (j *CalendarResyncJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	return j.calendar.Load(ctx)
}
