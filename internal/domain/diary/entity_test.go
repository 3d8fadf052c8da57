package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

func TestDraft_EarlyChildhood(t *testing.T) {
	d, err := NewDraft(academic.LevelEarlyChildhood)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())

	require.NoError(t, d.SetField(FieldExperienceRecord, "Roda de conversa"))
	require.NoError(t, d.SetField(FieldContent, "Cores"))
	assert.ErrorIs(t, d.SetField(FieldHomework, "ler"), shared.ErrInvalidOperation)

	f := d.Fields().(EarlyChildhoodFields)
	assert.Equal(t, "Roda de conversa", f.ExperienceRecord)
	assert.Equal(t, "Cores", d.Content())
	assert.False(t, d.IsEmpty())

	d.Reset()
	assert.True(t, d.IsEmpty())
	assert.Equal(t, academic.LevelEarlyChildhood, d.Level())
}

func TestDraft_Elementary(t *testing.T) {
	d, err := NewDraft(academic.LevelUpperElementary)
	require.NoError(t, err)

	require.NoError(t, d.SetField(FieldThematicUnit, "Frações"))
	assert.ErrorIs(t, d.SetField(FieldDevelopmentProposal, "x"), shared.ErrInvalidOperation)

	f := d.Fields().(ElementaryFields)
	assert.Equal(t, "Frações", f.ThematicUnit)
	assert.Equal(t, academic.LevelUpperElementary, f.Level())

	_, err = NewDraft("eja")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLessonPlan_Validate(t *testing.T) {
	fields, _ := NewFields(academic.LevelLowerElementary)
	p := LessonPlan{ClassGroupID: 1, EducationLevel: academic.LevelLowerElementary, Fields: fields}
	assert.ErrorIs(t, p.Validate(), shared.ErrMissingContext)

	p.SubjectID = 2
	p.Date = timeutil.MustParseDate("2024-07-01")
	p.Attendance = []attendance.Entry{
		{StudentID: 1, Status: attendance.StatusAbsent},
		{StudentID: 2, Status: attendance.StatusPresent},
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, 1, p.Absences())

	p.EducationLevel = academic.LevelEarlyChildhood
	assert.ErrorIs(t, p.Validate(), shared.ErrInvalidInput)
}
