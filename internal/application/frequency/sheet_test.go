package frequency

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
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// July 2024 starts on a Monday.
var july = timeutil.Date(2024, time.July, 15)

type monthCalendar map[int]string

func (m monthCalendar) InMonth(year int, month time.Month) map[int]string {
	if year != 2024 || month != time.July {
		return nil
	}
	return m
}

// recordingStore forwards to the fixture provider and records the saved days.
type recordingStore struct {
	attendance.Store
	mu     sync.Mutex
	days   []int
	failOn int
}

func (r *recordingStore) SaveAttendance(ctx context.Context, date time.Time, cg shared.ID, entries []attendance.Entry) (shared.SaveResult, error) {
	r.mu.Lock()
	r.days = append(r.days, date.Day())
	r.mu.Unlock()
	if date.Day() == r.failOn {
		return shared.SaveResult{}, errors.New("service unavailable")
	}
	return r.Store.SaveAttendance(ctx, date, cg, entries)
}

type harness struct {
	sheet    *Sheet
	provider *fixture.Provider
	store    *recordingStore
	calendar monthCalendar
	enforce  bool
	load     bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	p := fixture.New(fixture.WithLatency(0, 0))
	h := &harness{provider: p, store: &recordingStore{Store: p}, calendar: monthCalendar{}, enforce: true}
	h.sheet = New(Deps{
		Directory:          p,
		Store:              h.store,
		Calendar:           h.calendar,
		EnforceBlockedDays: func() bool { return h.enforce },
		LoadSaved:          func() bool { return h.load },
		Today:              func() time.Time { return july },
	})
	require.NoError(t, h.sheet.Load(context.Background()))
	return h
}

func (h *harness) open(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.sheet.Select(ctx, cascade.LevelSchool, fixture.SchoolTancredoNeves))
	require.NoError(t, h.sheet.Select(ctx, cascade.LevelClassGroup, fixture.Class3B))
}

func TestSheet_FourStateCycle(t *testing.T) {
	h := newHarness(t)
	h.open(t)

	v := h.sheet.View()
	require.Len(t, v.Rows, 3)
	assert.Len(t, v.Days, 31)
	for _, m := range v.Rows[0].Marks {
		assert.Equal(t, attendance.StatusBlank, m)
	}

	want := []attendance.Status{attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusJustified, attendance.StatusBlank}
	for _, w := range want {
		got, err := h.sheet.Cycle(1012, 2)
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
}

func TestSheet_RequiresClassGroup(t *testing.T) {
	h := newHarness(t)

	_, err := h.sheet.Cycle(1012, 2)
	assert.True(t, shared.IsInvalidOperation(err))

	_, err = h.sheet.Submit(context.Background())
	assert.True(t, shared.IsMissingContext(err))
}

func TestSheet_WeekendAndBlockedDays(t *testing.T) {
	h := newHarness(t)
	h.calendar[9] = "Reunião pedagógica"
	h.open(t)

	st, err := h.sheet.Cycle(1012, 6)
	require.NoError(t, err, "weekend cells are editable on the monthly sheet")
	assert.Equal(t, attendance.StatusPresent, st)
	_, err = h.sheet.Cycle(1012, 9)
	assert.True(t, shared.IsInvalidOperation(err), "blocked")

	v := h.sheet.View()
	assert.True(t, v.Days[8].ReadOnly)
	assert.Equal(t, "Reunião pedagógica", v.Days[8].BlockReason)
	assert.False(t, v.Days[5].ReadOnly)
	assert.Equal(t, "Sáb", v.Days[5].Weekday)

	h.enforce = false
	_, err = h.sheet.Cycle(1012, 9)
	assert.NoError(t, err)
}

func TestSheet_UnblockedDayBecomesEditable(t *testing.T) {
	h := newHarness(t)
	h.calendar[16] = "Feriado"
	h.open(t)

	_, err := h.sheet.Cycle(1012, 16)
	require.True(t, shared.IsInvalidOperation(err))

	delete(h.calendar, 16)

	st, err := h.sheet.Cycle(1012, 16)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, st)
	assert.False(t, h.sheet.View().Days[15].ReadOnly)
}

func TestSheet_SubmitLeavesOutDaysBlockedAfterMarking(t *testing.T) {
	h := newHarness(t)
	h.open(t)

	for _, day := range []int{15, 16} {
		_, err := h.sheet.Cycle(1012, day)
		require.NoError(t, err)
	}
	h.calendar[16] = "Feriado"

	report, err := h.sheet.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{15}, report.SavedDays)
	assert.Equal(t, []int{16}, report.SkippedDays)
	assert.Equal(t, []int{15}, h.store.days, "blocked day is never sent")
}

func TestSheet_SubmitRejectsWhenEveryMarkedDayIsBlocked(t *testing.T) {
	h := newHarness(t)
	h.load = true
	_, err := h.provider.SaveAttendance(context.Background(), timeutil.Date(2024, time.July, 16), fixture.Class3B,
		[]attendance.Entry{{StudentID: 1012, Status: attendance.StatusAbsent}})
	require.NoError(t, err)
	h.calendar[16] = "Feriado"

	h.open(t)
	require.Equal(t, attendance.StatusAbsent, h.sheet.View().Rows[0].Marks[15])

	report, err := h.sheet.Submit(context.Background())
	assert.True(t, shared.IsInvalidOperation(err))
	assert.Equal(t, []int{16}, report.SkippedDays)
	assert.Empty(t, h.store.days)
}

func TestSheet_SubmitOneCallPerDayInOrder(t *testing.T) {
	h := newHarness(t)
	h.open(t)

	for _, day := range []int{10, 2, 4} {
		_, err := h.sheet.Cycle(1012, day)
		require.NoError(t, err)
	}
	_, err := h.sheet.Cycle(1013, 2)
	require.NoError(t, err)
	_, err = h.sheet.Cycle(1013, 2)
	require.NoError(t, err)

	report, err := h.sheet.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 10}, report.SavedDays)
	assert.Equal(t, []int{2, 4, 10}, h.store.days)
	assert.Len(t, report.Results, 3)

	saved, err := h.provider.ListAttendance(context.Background(), fixture.Class3B,
		shared.DateRange{From: timeutil.Date(2024, time.July, 2), To: timeutil.Date(2024, time.July, 2)})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, attendance.StatusAbsent, saved[1].Status)
}

func TestSheet_SubmitStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	h.store.failOn = 4
	h.open(t)

	for _, day := range []int{2, 4, 5} {
		_, err := h.sheet.Cycle(1014, day)
		require.NoError(t, err)
	}

	report, err := h.sheet.Submit(context.Background())
	assert.True(t, shared.IsProviderFailure(err))
	assert.Equal(t, []int{2}, report.SavedDays)
	assert.Equal(t, 4, report.FailedDay)
	assert.Equal(t, []int{2, 4}, h.store.days, "day 5 is never sent")
}

func TestSheet_NothingToSubmit(t *testing.T) {
	h := newHarness(t)
	h.open(t)

	_, err := h.sheet.Submit(context.Background())
	assert.True(t, shared.IsInvalidOperation(err))
	assert.Empty(t, h.store.days)
}

func TestSheet_LoadsSavedMarks(t *testing.T) {
	h := newHarness(t)
	h.load = true
	_, err := h.provider.SaveAttendance(context.Background(), timeutil.Date(2024, time.July, 3), fixture.Class3B,
		[]attendance.Entry{{StudentID: 1013, Status: attendance.StatusJustified}})
	require.NoError(t, err)

	h.open(t)

	v := h.sheet.View()
	assert.Equal(t, attendance.StatusJustified, v.Rows[1].Marks[2])
	assert.Equal(t, 1, v.Rows[1].Summary.Justified)
}

func TestSheet_MonthChangeDropsMarks(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	_, err := h.sheet.Cycle(1012, 2)
	require.NoError(t, err)

	require.NoError(t, h.sheet.SetMonth(context.Background(), timeutil.Date(2024, time.August, 1)))

	v := h.sheet.View()
	assert.Equal(t, time.August, v.Month)
	assert.Equal(t, attendance.StatusBlank, v.Rows[0].Marks[1])
}
