package workspace

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/session"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

type noBlocks struct{}

func (noBlocks) IsBlocked(time.Time) (bool, string)     { return false, "" }
func (noBlocks) InMonth(int, time.Month) map[int]string { return nil }

type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newStore(pub shared.EventPublisher) *Store {
	p := fixture.New(fixture.WithLatency(0, 0))
	return NewStore(Deps{
		Directory:   p,
		Lessons:     p,
		Evaluations: p,
		Attendance:  p,
		Calendar:    noBlocks{},
		Publisher:   pub,
		Today:       func() time.Time { return timeutil.Date(2024, time.July, 2) },
	})
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()

	a := s.Create(session.ProfileTeacherLowerElementary)
	b := s.Create(session.ProfileTeacherLowerElementary)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, s.Len())

	require.NoError(t, a.Diary.Load(ctx))
	require.NoError(t, a.Diary.Select(ctx, cascade.LevelSchool, fixture.SchoolTancredoNeves))

	assert.Equal(t, fixture.SchoolTancredoNeves, a.Diary.View().Cascade.SchoolID)
	assert.False(t, b.Diary.View().Cascade.SchoolID.IsValid())

	got, err := s.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestStore_GetUnknownAndDelete(t *testing.T) {
	s := newStore(nil)

	_, err := s.Get("missing")
	assert.True(t, shared.IsNotFound(err))

	ws := s.Create(session.ProfileMaster)
	require.NoError(t, s.Delete(ws.ID()))
	assert.True(t, shared.IsNotFound(s.Delete(ws.ID())))
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	s := newStore(nil)
	now := timeutil.Date(2024, time.July, 2).Add(9 * time.Hour)
	s.now = func() time.Time { return now }

	old := s.Create(session.ProfileMaster)
	now = now.Add(2 * time.Hour)
	fresh := s.Create(session.ProfileVisitor)

	assert.Equal(t, 1, s.Sweep(time.Hour))
	_, err := s.Get(old.ID())
	assert.Error(t, err)
	_, err = s.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestWorkspace_ProfileGatesSections(t *testing.T) {
	pub := &recorder{}
	s := newStore(pub)
	ws := s.Create(session.ProfileVisitor)

	assert.True(t, shared.IsInvalidOperation(ws.Require("diary")))

	p, err := ws.SwitchProfile("professor")
	require.NoError(t, err)
	assert.Equal(t, session.RoleTeacher, p.Role)
	assert.NoError(t, ws.Require("diary"))
	assert.True(t, shared.IsInvalidOperation(ws.Require("calendar")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventProfileSwitched, pub.events[0].EventType())

	_, err = ws.SwitchProfile("director")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

type brokenBus struct{}

func (brokenBus) Publish(shared.Event) error { return errors.New("redis: connection refused") }

func TestWorkspace_SwitchProfileSurvivesPublishFailure(t *testing.T) {
	var buf bytes.Buffer
	p := fixture.New(fixture.WithLatency(0, 0))
	s := NewStore(Deps{
		Directory:   p,
		Lessons:     p,
		Evaluations: p,
		Attendance:  p,
		Calendar:    noBlocks{},
		Publisher:   brokenBus{},
		Logger:      logger.New(logger.Options{Output: &buf, Level: logger.LevelWarn, Format: logger.FormatText}),
		Today:       func() time.Time { return timeutil.Date(2024, time.July, 2) },
	})
	ws := s.Create(session.ProfileVisitor)

	got, err := ws.SwitchProfile("professor")
	require.NoError(t, err)
	assert.Equal(t, session.RoleTeacher, got.Role)
	assert.Equal(t, session.RoleTeacher, ws.Session.Profile().Role)

	out := buf.String()
	assert.Contains(t, out, "failed to publish event")
	assert.Contains(t, out, "connection refused")
}
