package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

var roster = []academic.Student{
	{ID: 1, Name: "Ana", ClassGroupID: 5},
	{ID: 2, Name: "Bruno", ClassGroupID: 5},
	{ID: 3, Name: "Clara", ClassGroupID: 5},
}

var (
	monday   = timeutil.MustParseDate("2024-07-01")
	saturday = timeutil.MustParseDate("2024-07-06")
	sunday   = timeutil.MustParseDate("2024-07-07")
)

func TestNewRegister_DefaultsToPresent(t *testing.T) {
	r := NewRegister(5, monday, roster)

	require.Equal(t, 3, r.Len())
	for i, e := range r.Entries() {
		assert.Equal(t, roster[i].ID, e.StudentID)
		assert.Equal(t, StatusPresent, e.Status)
		assert.Empty(t, e.Justification)
	}
	assert.False(t, r.ReadOnly())
}

func TestRegister_CycleIsThreeStates(t *testing.T) {
	r := NewRegister(5, monday, roster)

	for _, s := range roster {
		e, err := r.Cycle(s.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAbsent, e.Status)

		e, err = r.Cycle(s.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusJustified, e.Status)

		e, err = r.Cycle(s.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPresent, e.Status)
	}
}

func TestRegister_LeavingJustifiedClearsText(t *testing.T) {
	texts := []string{"", "Atestado médico", "  ", "viagem com a família"}

	for _, text := range texts {
		r := NewRegister(5, monday, roster)
		r.SetStatus(1, StatusJustified)
		_, err := r.SetJustification(1, text)
		require.NoError(t, err)

		e, err := r.Cycle(1)
		require.NoError(t, err)
		assert.Equal(t, StatusPresent, e.Status)
		assert.Empty(t, e.Justification, "text %q must be cleared by cycle", text)

		r.SetStatus(1, StatusJustified)
		r.SetJustification(1, text)
		e, err = r.SetStatus(1, StatusAbsent)
		require.NoError(t, err)
		assert.Empty(t, e.Justification, "text %q must be cleared by explicit set", text)
	}
}

func TestRegister_JustificationRequiresJustified(t *testing.T) {
	r := NewRegister(5, monday, roster)

	_, err := r.SetJustification(2, "doente")
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)

	e, _ := r.Entry(2)
	assert.Empty(t, e.Justification)

	r.Cycle(2)
	_, err = r.SetJustification(2, "doente")
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)

	r.Cycle(2)
	e, err = r.SetJustification(2, "doente")
	require.NoError(t, err)
	assert.Equal(t, "doente", e.Justification)
}

func TestRegister_WeekendIsReadOnly(t *testing.T) {
	for _, day := range []struct {
		name string
		reg  *Register
	}{
		{"saturday", NewRegister(5, saturday, roster)},
		{"sunday", NewRegister(5, sunday, roster)},
	} {
		t.Run(day.name, func(t *testing.T) {
			before := day.reg.Entries()
			assert.True(t, day.reg.ReadOnly())

			for _, s := range roster {
				_, err := day.reg.Cycle(s.ID)
				assert.ErrorIs(t, err, shared.ErrInvalidOperation)
				_, err = day.reg.SetStatus(s.ID, StatusAbsent)
				assert.ErrorIs(t, err, shared.ErrInvalidOperation)
			}
			assert.Equal(t, before, day.reg.Entries())
		})
	}
}

func TestRegister_BlockedDayIsReadOnly(t *testing.T) {
	r := NewRegister(5, monday, roster, WithBlockedDay("Conselho de classe"))

	blocked, reason := r.IsBlocked()
	assert.True(t, blocked)
	assert.Equal(t, "Conselho de classe", reason)

	_, err := r.Cycle(1)
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)
	e, _ := r.Entry(1)
	assert.Equal(t, StatusPresent, e.Status)
}

func TestRegister_UnknownStudentAndReset(t *testing.T) {
	r := NewRegister(5, monday, roster)

	_, err := r.Cycle(99)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	r.Cycle(1)
	r.Cycle(3)
	assert.Equal(t, 2, r.Summary().Absent)

	r.Reset()
	assert.Equal(t, Summary{Present: 3, Total: 3}, r.Summary())
}

func TestStatus_Parse(t *testing.T) {
	s, err := ParseStatus("F")
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, s)

	_, err = ParseStatus("maybe")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
