package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

func instant() *Provider {
	return New(WithLatency(0, 0))
}

func TestProvider_Directory(t *testing.T) {
	ctx := context.Background()
	p := instant()

	schools, err := p.ListSchools(ctx)
	require.NoError(t, err)
	assert.Len(t, schools, 3)

	groups, err := p.ListClassGroups(ctx, SchoolTancredoNeves)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Escola Municipal Tancredo Neves", groups[0].SchoolName)

	subjects, err := p.ListSubjects(ctx, academic.LevelEarlyChildhood)
	require.NoError(t, err)
	for _, s := range subjects {
		assert.Equal(t, academic.LevelEarlyChildhood, s.ApplicableLevel)
	}

	roster, err := p.ListStudents(ctx, Class1A)
	require.NoError(t, err)
	assert.Len(t, roster, 4)
	assert.Equal(t, "Ana Beatriz Souza", roster[0].Name)

	g, err := p.GetClassGroupByID(ctx, Class6A)
	require.NoError(t, err)
	assert.Equal(t, SchoolPadreCicero, g.SchoolID)
	assert.Equal(t, 5, g.TotalStudents)

	_, err = p.GetClassGroupByID(ctx, 9999)
	assert.True(t, shared.IsNotFound(err))
}

func TestProvider_LatencyHonoursContext(t *testing.T) {
	p := New(WithLatency(time.Hour, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.ListSchools(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_LessonPlanRecordsAttendance(t *testing.T) {
	ctx := context.Background()
	p := instant()
	day := timeutil.Date(2024, time.July, 2)

	fields, err := diary.NewFields(academic.LevelLowerElementary)
	require.NoError(t, err)
	plan := diary.LessonPlan{
		ClassGroupID:   Class1A,
		SubjectID:      SubjectMathLower,
		Date:           day,
		EducationLevel: academic.LevelLowerElementary,
		Fields:         fields,
		Attendance: []attendance.Entry{
			{StudentID: 1008, Date: day, Status: attendance.StatusPresent},
			{StudentID: 1009, Date: day, Status: attendance.StatusAbsent},
		},
	}
	res, err := p.SaveLessonPlan(ctx, plan)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, shared.MessageLessonPlanSaved, res.Message)
	assert.NotEmpty(t, res.ReceiptID)

	month := shared.DateRange{From: timeutil.Date(2024, time.July, 1), To: timeutil.Date(2024, time.July, 31)}
	entries, err := p.ListAttendance(ctx, Class1A, month)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	lessons, err := p.ListLessons(ctx, Class1A, month)
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
}

func TestProvider_SaveAttendanceReplacesDate(t *testing.T) {
	ctx := context.Background()
	p := instant()
	day := timeutil.Date(2024, time.July, 3)

	_, err := p.SaveAttendance(ctx, day, Class3B, []attendance.Entry{{StudentID: 1012, Status: attendance.StatusAbsent}})
	require.NoError(t, err)
	_, err = p.SaveAttendance(ctx, day, Class3B, []attendance.Entry{{StudentID: 1012, Status: attendance.StatusPresent}})
	require.NoError(t, err)

	entries, err := p.ListAttendance(ctx, Class3B, shared.DateRange{From: day, To: day})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, attendance.StatusPresent, entries[0].Status)
	assert.True(t, timeutil.IsSameDay(day, entries[0].Date))
}

func TestProvider_BlockedDays(t *testing.T) {
	ctx := context.Background()
	p := instant()
	day := timeutil.Date(2024, time.September, 7)

	for _, reason := range []string{"Independência", "Desfile"} {
		bd, err := calendar.NewBlockedDay(reason, day, reason)
		require.NoError(t, err)
		require.NoError(t, p.AddBlockedDay(ctx, bd))
	}

	n, err := p.RemoveBlockedDays(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	days, err := p.ListBlockedDays(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestProvider_TeacherAllocations(t *testing.T) {
	ctx := context.Background()
	p := instant()

	allocs, err := p.ListTeacherAllocations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, SchoolJoaquimCanuto, allocs[0].ClassGroup.SchoolID)
	assert.Equal(t, "Escola Municipal Joaquim Canuto", allocs[0].ClassGroup.SchoolName)

	_, err = p.ListTeacherAllocations(ctx, 42)
	assert.True(t, shared.IsNotFound(err))
}
