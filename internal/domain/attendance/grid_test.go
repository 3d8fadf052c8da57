package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

func TestNewGrid_AllCellsBlank(t *testing.T) {
	g := NewGrid(5, monday, roster)

	assert.Equal(t, 31, g.Days())
	for _, s := range roster {
		for day := 1; day <= g.Days(); day++ {
			assert.Equal(t, StatusBlank, g.Cell(s.ID, day))
		}
	}
	assert.Empty(t, g.MarkedDays())
}

func TestGrid_CycleIsFourStates(t *testing.T) {
	g := NewGrid(5, monday, roster)

	want := []Status{StatusPresent, StatusAbsent, StatusJustified, StatusBlank, StatusPresent}
	for _, w := range want {
		got, err := g.Cycle(2, 3)
		require.NoError(t, err)
		assert.Equal(t, w, got)
		assert.Equal(t, w, g.Cell(2, 3))
	}
}

func TestGrid_WeekendCellsFollowFourStateCycle(t *testing.T) {
	g := NewGrid(5, monday, roster)

	want := []Status{StatusPresent, StatusAbsent, StatusJustified, StatusBlank}
	for _, w := range want {
		got, err := g.Cycle(1, 6) // saturday
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	assert.False(t, g.ReadOnlyDay(6))
	assert.False(t, g.ReadOnlyDay(7))
}

func TestGrid_RejectsBlockedAndOutOfRange(t *testing.T) {
	g := NewGrid(5, monday, roster)
	g.SetBlocked(map[int]string{4: "Feriado", 40: "fora do mês"})

	_, err := g.Cycle(1, 4)
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)
	_, err = g.Cycle(1, 32)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	_, err = g.Cycle(42, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.True(t, g.ReadOnlyDay(4))
	reason, ok := g.BlockReason(4)
	assert.True(t, ok)
	assert.Equal(t, "Feriado", reason)
	assert.False(t, g.ReadOnlyDay(40))
}

func TestGrid_SetBlockedReplacesPreviousSet(t *testing.T) {
	g := NewGrid(5, monday, roster)
	g.SetBlocked(map[int]string{4: "Feriado"})
	g.SetBlocked(nil)

	assert.False(t, g.ReadOnlyDay(4))
	got, err := g.Cycle(1, 4)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, got)
}

func TestGrid_DayEntriesAndLoad(t *testing.T) {
	g := NewGrid(5, monday, roster)
	g.Cycle(3, 2)
	g.Cycle(1, 2)
	g.Cycle(1, 2)
	g.Cycle(2, 9)

	assert.Equal(t, []int{2, 9}, g.MarkedDays())

	day2 := g.DayEntries(2)
	require.Len(t, day2, 2)
	assert.Equal(t, shared.ID(1), day2[0].StudentID)
	assert.Equal(t, StatusAbsent, day2[0].Status)
	assert.Equal(t, shared.ID(3), day2[1].StudentID)
	assert.Equal(t, "2024-07-02", timeutil.FormatDateStr(day2[0].Date))

	other := NewGrid(5, monday, roster)
	other.Load([]Entry{
		{StudentID: 1, Date: timeutil.MustParseDate("2024-07-10"), Status: StatusJustified},
		{StudentID: 1, Date: timeutil.MustParseDate("2024-08-10"), Status: StatusAbsent},
		{StudentID: 77, Date: timeutil.MustParseDate("2024-07-10"), Status: StatusAbsent},
	})
	assert.Equal(t, StatusJustified, other.Cell(1, 10))
	assert.Equal(t, []int{10}, other.MarkedDays())

	other.Clear()
	assert.Empty(t, other.MarkedDays())
}

func TestSummary(t *testing.T) {
	s := Summarize([]Entry{
		{StudentID: 1, Status: StatusPresent},
		{StudentID: 1, Status: StatusAbsent},
		{StudentID: 1, Status: StatusJustified},
		{StudentID: 2, Status: StatusPresent},
		{StudentID: 2, Status: StatusBlank},
	})
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Absences())
	assert.InDelta(t, 50.0, s.Rate(), 0.001)

	by := SummarizeByStudent([]Entry{{StudentID: 1, Status: StatusAbsent}, {StudentID: 2, Status: StatusPresent}})
	assert.Equal(t, 1, by[1].Absent)
	assert.InDelta(t, 100.0, by[2].Rate(), 0.001)
	assert.Zero(t, Summary{}.Rate())
}
