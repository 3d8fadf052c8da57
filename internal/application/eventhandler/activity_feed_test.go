package eventhandler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

func TestActivityFeed_NewestFirst(t *testing.T) {
	f := NewActivityFeed(nil, FeedConfig{Capacity: 10})
	day := time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.Handle(shared.NewLessonPlanSavedEvent(201, 11, day, 2, "r1")))
	require.NoError(t, f.Handle(shared.NewEvaluationSavedEvent(1008, 11, 201, "lower_elementary", "r2")))
	require.NoError(t, f.Handle(shared.NewProfileSwitchedEvent("s", "master", "visitor")))

	items := f.Recent(5)
	require.Len(t, items, 2)
	assert.Equal(t, shared.EventEvaluationSaved, items[0].Type)
	assert.Equal(t, "Plano de aula registrado", items[1].Title)
	assert.Equal(t, "02/07/2024 · 2 faltas", items[1].Detail)
	assert.NotEmpty(t, items[0].ID)
}

func TestActivityFeed_CapacityEvictsOldest(t *testing.T) {
	f := NewActivityFeed(nil, FeedConfig{Capacity: 3})
	day := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Handle(shared.NewAttendanceSavedEvent(shared.ID(i+1), day, 3, 0)))
	}

	items := f.Recent(10)
	require.Len(t, items, 3)
	assert.Equal(t, shared.ID(5), items[0].ClassGroupID)
	assert.Equal(t, shared.ID(3), items[2].ClassGroupID)
	assert.Empty(t, f.Recent(0))
}

func TestActivityFeed_ForClassGroups(t *testing.T) {
	f := NewActivityFeed(nil, DefaultFeedConfig())
	day := time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.Handle(shared.NewAttendanceSavedEvent(101, day, 4, 1)))
	require.NoError(t, f.Handle(shared.NewAttendanceSavedEvent(301, day, 5, 0)))
	require.NoError(t, f.Handle(shared.NewBlockedDayAddedEvent("b1", day, "Feriado")))

	items := f.ForClassGroups([]shared.ID{101}, 10)
	require.Len(t, items, 2)
	assert.Equal(t, shared.EventBlockedDayAdded, items[0].Type)
	assert.Equal(t, shared.ID(101), items[1].ClassGroupID)
	assert.Equal(t, "04/07/2024 · 1 falta", items[1].Detail)
}
