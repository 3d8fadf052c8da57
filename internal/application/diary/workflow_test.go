package diary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	domain "github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

var tuesday = timeutil.Date(2024, time.July, 2)

type blockedDays map[string]string

func (b blockedDays) IsBlocked(date time.Time) (bool, string) {
	reason, ok := b[timeutil.FormatDateStr(date)]
	return ok, reason
}

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

type failingStore struct {
	domain.Store
	err error
}

func (f failingStore) SaveLessonPlan(context.Context, domain.LessonPlan) (shared.SaveResult, error) {
	return shared.SaveResult{}, f.err
}

type harness struct {
	wf       *Workflow
	provider *fixture.Provider
	events   *recorder
	blocked  blockedDays
	enforce  bool
}

func newHarness(t *testing.T, store domain.Store) *harness {
	t.Helper()
	h := &harness{
		provider: fixture.New(fixture.WithLatency(0, 0)),
		events:   &recorder{},
		blocked:  blockedDays{},
		enforce:  true,
	}
	if store == nil {
		store = h.provider
	}
	h.wf = New(Deps{
		Directory:          h.provider,
		Store:              store,
		Calendar:           h.blocked,
		Publisher:          h.events,
		EnforceBlockedDays: func() bool { return h.enforce },
		Today:              func() time.Time { return tuesday },
	})
	require.NoError(t, h.wf.Load(context.Background()))
	return h
}

// open selects school, class group and subject.
func (h *harness) open(t *testing.T, school, classGroup, subject shared.ID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.wf.Select(ctx, cascade.LevelSchool, school))
	require.NoError(t, h.wf.Select(ctx, cascade.LevelClassGroup, classGroup))
	if subject.IsValid() {
		require.NoError(t, h.wf.Select(ctx, cascade.LevelSubject, subject))
	}
}

func TestWorkflow_SubmitRequiresSelections(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.wf.Submit(context.Background())
	assert.True(t, shared.IsMissingContext(err))

	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, 0)
	_, err = h.wf.Submit(context.Background())
	assert.True(t, shared.IsMissingContext(err))

	assert.Empty(t, h.provider.LessonPlans())
}

func TestWorkflow_SubmitSendsPlanAndRollCall(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)

	require.NoError(t, h.wf.SetField(domain.FieldContent, "Adição com reserva"))
	require.NoError(t, h.wf.SetField(domain.FieldThematicUnit, "Números"))

	v := h.wf.View()
	require.Len(t, v.Rows, 4)
	for _, r := range v.Rows {
		assert.Equal(t, attendance.StatusPresent, r.Status)
	}

	e, err := h.wf.Cycle(1009)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, e.Status)

	res, err := h.wf.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, shared.MessageLessonPlanSaved, res.Message)

	plans := h.provider.LessonPlans()
	require.Len(t, plans, 1)
	plan := plans[0]
	assert.Equal(t, fixture.Class1A, plan.ClassGroupID)
	assert.Equal(t, fixture.SubjectMathLower, plan.SubjectID)
	assert.Equal(t, "Adição com reserva", plan.Content)
	assert.Equal(t, "Números", plan.Fields.(domain.ElementaryFields).ThematicUnit)
	assert.Equal(t, 1, plan.Absences())
	assert.Len(t, plan.Attendance, 4)

	after := h.wf.View()
	assert.Empty(t, after.Content)
	assert.Equal(t, 0, after.Summary.Absences())
	assert.Equal(t, fixture.SubjectMathLower, after.Cascade.SubjectID, "selections survive a save")

	require.Len(t, h.events.events, 1)
	assert.Equal(t, shared.EventLessonPlanSaved, h.events.events[0].EventType())
}

func TestWorkflow_FieldOutsideLevel(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolJoaquimCanuto, fixture.ClassInfantilA, 0)

	err := h.wf.SetField(domain.FieldThematicUnit, "x")
	assert.True(t, shared.IsInvalidOperation(err))
	assert.NoError(t, h.wf.SetField(domain.FieldExperienceRecord, "Roda de conversa"))

	v := h.wf.View()
	assert.Equal(t, "Roda de conversa", v.Fields.(domain.EarlyChildhoodFields).ExperienceRecord)
}

func TestWorkflow_ClassGroupChangeResetsDraft(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)
	require.NoError(t, h.wf.SetField(domain.FieldContent, "Frações"))

	require.NoError(t, h.wf.Select(context.Background(), cascade.LevelClassGroup, fixture.Class3B))

	v := h.wf.View()
	assert.Empty(t, v.Content)
	assert.False(t, v.Cascade.SubjectID.IsValid())
	assert.Len(t, v.Rows, 3)
}

func TestWorkflow_WeekendIsReadOnly(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)
	require.NoError(t, h.wf.SetDate(timeutil.Date(2024, time.July, 6)))

	v := h.wf.View()
	assert.True(t, v.Weekend)
	assert.True(t, v.ReadOnly)

	_, err := h.wf.Cycle(1008)
	assert.True(t, shared.IsInvalidOperation(err))

	_, err = h.wf.Submit(context.Background())
	assert.True(t, shared.IsInvalidOperation(err))
	assert.Empty(t, h.provider.LessonPlans())
}

func TestWorkflow_BlockedDay(t *testing.T) {
	h := newHarness(t, nil)
	h.blocked[timeutil.FormatDateStr(tuesday)] = "Conselho de classe"
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)

	v := h.wf.View()
	assert.True(t, v.Blocked)
	assert.Equal(t, "Conselho de classe", v.BlockReason)

	_, err := h.wf.Cycle(1008)
	assert.True(t, shared.IsInvalidOperation(err))
	_, err = h.wf.Submit(context.Background())
	assert.True(t, shared.IsInvalidOperation(err))

	h.enforce = false
	_, err = h.wf.Cycle(1008)
	require.NoError(t, err)
	_, err = h.wf.Submit(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.provider.LessonPlans(), 1)
}

func TestWorkflow_JustificationClearedOnLeave(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)

	_, err := h.wf.SetStatus(1010, attendance.StatusJustified)
	require.NoError(t, err)
	e, err := h.wf.SetJustification(1010, "Atestado médico")
	require.NoError(t, err)
	assert.Equal(t, "Atestado médico", e.Justification)

	e, err = h.wf.Cycle(1010)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, e.Status)
	assert.Empty(t, e.Justification)
}

func TestWorkflow_DateChangeRestartsRollCall(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)

	_, err := h.wf.Cycle(1008)
	require.NoError(t, err)
	require.NoError(t, h.wf.SetDate(timeutil.Date(2024, time.July, 3)))

	v := h.wf.View()
	assert.Equal(t, "2024-07-03", v.Date)
	assert.Equal(t, 0, v.Summary.Absences())
}

func TestWorkflow_ProviderFailureKeepsDraft(t *testing.T) {
	boom := errors.New("connection reset")
	h := newHarness(t, failingStore{err: boom})
	h.open(t, fixture.SchoolTancredoNeves, fixture.Class1A, fixture.SubjectMathLower)
	require.NoError(t, h.wf.SetField(domain.FieldContent, "Sistema monetário"))

	_, err := h.wf.Submit(context.Background())
	assert.True(t, shared.IsProviderFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Sistema monetário", h.wf.View().Content)
	assert.Empty(t, h.events.events)
}

func TestWorkflow_Hydrate(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.wf.Hydrate(context.Background(), fixture.Class6A))

	v := h.wf.View()
	assert.Equal(t, fixture.SchoolPadreCicero, v.Cascade.SchoolID)
	assert.Equal(t, fixture.Class6A, v.Cascade.ClassGroupID)
	assert.Len(t, v.Rows, 5)
	assert.NotEmpty(t, v.Cascade.Subjects)
}
