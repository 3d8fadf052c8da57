package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

func mustDay(t *testing.T, id, date, reason string) BlockedDay {
	t.Helper()
	d, err := NewBlockedDay(id, timeutil.MustParseDate(date), reason)
	require.NoError(t, err)
	return d
}

func TestRegistry_DuplicateDatesPermitted(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add(mustDay(t, "a", "2024-07-04", "Holiday")))
	require.NoError(t, r.Add(mustDay(t, "b", "2024-07-04", "Teacher Training")))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Holiday", list[0].Reason)
	assert.Equal(t, "Teacher Training", list[1].Reason)
	assert.NotEqual(t, list[0].ID, list[1].ID)
}

func TestRegistry_InsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, d := range []string{"2024-09-07", "2024-03-29", "2024-06-24"} {
		require.NoError(t, r.Add(mustDay(t, d, d, "Feriado")))
	}

	var got []string
	for _, d := range r.List() {
		got = append(got, timeutil.FormatDateStr(d.Date))
	}
	assert.Equal(t, []string{"2024-09-07", "2024-03-29", "2024-06-24"}, got)
}

func TestRegistry_Dedupe(t *testing.T) {
	r := NewRegistry(WithDedupe(true))
	require.NoError(t, r.Add(mustDay(t, "a", "2024-07-04", "Holiday")))
	assert.ErrorIs(t, r.Add(mustDay(t, "b", "2024-07-04", "Again")), shared.ErrAlreadyExists)
	assert.Equal(t, 1, r.Len())
}

func TestNewBlockedDay_RequiresDateAndReason(t *testing.T) {
	_, err := NewBlockedDay("x", timeutil.MustParseDate("2024-07-04"), "   ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	var zero BlockedDay
	_, err = NewBlockedDay("x", zero.Date, "Holiday")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestRegistry_RemoveAndIsBlocked(t *testing.T) {
	r := NewRegistry()
	r.Add(mustDay(t, "a", "2024-07-04", "Holiday"))
	r.Add(mustDay(t, "b", "2024-07-05", "Recesso"))
	r.Add(mustDay(t, "c", "2024-07-04", "Teacher Training"))

	blocked, reason := r.IsBlocked(timeutil.MustParseDate("2024-07-04"))
	assert.True(t, blocked)
	assert.Equal(t, "Holiday", reason)
	assert.Equal(t, map[int]string{4: "Holiday", 5: "Recesso"}, r.InMonth(2024, 7))

	removed, err := r.Remove(timeutil.MustParseDate("2024-07-04"))
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, r.Len())

	blocked, _ = r.IsBlocked(timeutil.MustParseDate("2024-07-04"))
	assert.False(t, blocked)

	_, err = r.Remove(timeutil.MustParseDate("2024-07-04"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
