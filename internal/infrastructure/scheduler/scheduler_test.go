package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnableMetrics: true,
	})
}

func counterJob(name string, n *atomic.Int32, err error) Job {
	return JobFunc{JobName: name, Desc: name, Fn: func(context.Context) error {
		n.Add(1)
		return err
	}}
}

func TestScheduler_Register(t *testing.T) {
	s := quietScheduler()
	var n atomic.Int32

	require.NoError(t, s.Register(counterJob("a", &n, nil), time.Minute))
	assert.ErrorIs(t, s.Register(counterJob("a", &n, nil), time.Minute), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(counterJob("b", &n, nil), 0), ErrInvalidInterval)
	assert.ErrorIs(t, s.Register(nil, time.Minute), ErrNilJob)
	assert.Len(t, s.ListJobs(), 1)
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	s := quietScheduler()
	var n atomic.Int32
	require.NoError(t, s.Register(counterJob("tick", &n, nil), 5*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RunNowRecordsFailures(t *testing.T) {
	s := quietScheduler()
	var n atomic.Int32
	boom := errors.New("provider down")
	require.NoError(t, s.Register(counterJob("failing", &n, boom), time.Hour))

	result, err := s.RunNow(context.Background(), "failing")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	assert.False(t, result.Success)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.EqualValues(t, 1, jobs[0].RunCount)
	assert.EqualValues(t, 1, jobs[0].FailCount)
	assert.Equal(t, "provider down", jobs[0].LastError)

	snap := s.GetMetrics().Snapshot()
	assert.EqualValues(t, 1, snap.TotalFailures)
	assert.EqualValues(t, 1, snap.FailuresByJob["failing"])

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowWhileBusy(t *testing.T) {
	s := quietScheduler()
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Register(JobFunc{JobName: "slow", Fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}, time.Hour))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background(), "slow")
	}()
	<-started

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(release)
	<-done
}

// ── jobs ─────────────────────────────────────────────────────────────────────

type fakeSweeper struct {
	maxIdle time.Duration
	expired int
}

func (f *fakeSweeper) Sweep(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return f.expired
}

func (f *fakeSweeper) Len() int { return 0 }

func TestSessionSweepJob(t *testing.T) {
	sweeper := &fakeSweeper{expired: 2}
	job := NewSessionSweepJob(sweeper, 8*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 8*time.Hour, sweeper.maxIdle)
	assert.Equal(t, "session_sweep", job.Name())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}

type loaderFunc func(ctx context.Context) error

func (f loaderFunc) Load(ctx context.Context) error { return f(ctx) }

func TestCalendarResyncJob_BoundsEachRun(t *testing.T) {
	var hadDeadline bool
	job := NewCalendarResyncJob(loaderFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}), time.Second)

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, hadDeadline)
	assert.Equal(t, "calendar_resync", job.Name())
}
