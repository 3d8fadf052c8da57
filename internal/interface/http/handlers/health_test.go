package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("test").Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "No health checks registered", status.Message)
}

func TestCompositeHealthChecker_AllPass(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pinger{}))
	c.AddOptionalCheck("redis", NewPingCheck(pinger{}))

	status := c.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.False(t, status.Degraded)
	assert.Len(t, status.Checks, 2)
	assert.Equal(t, "test", status.Version)
}

func TestCompositeHealthChecker_OptionalFailureDegrades(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pinger{}))
	c.AddOptionalCheck("redis", NewPingCheck(pinger{err: errors.New("connection refused")}))

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.True(t, status.Degraded)
	assert.Equal(t, "Degraded: redis", status.Message)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	assert.False(t, status.Checks["redis"].Critical)
}

func TestCompositeHealthChecker_CriticalFailure(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pinger{err: errors.New("down")}))
	c.AddOptionalCheck("redis", NewPingCheck(pinger{err: errors.New("down")}))

	status := c.Check(context.Background())

	assert.False(t, status.Ready)
	assert.False(t, status.Degraded)
	assert.Equal(t, "Some checks failed: postgres, redis", status.Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.SetTimeout(10 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())

	assert.False(t, status.Ready)
	assert.Contains(t, status.Checks["slow"].Message, "deadline")
}

func TestCompositeHealthChecker_RemoveCheck(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pinger{err: errors.New("down")}))
	c.RemoveCheck("postgres")

	assert.True(t, c.Check(context.Background()).Ready)
}
