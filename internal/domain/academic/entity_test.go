package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

func TestParseEducationLevel(t *testing.T) {
	cases := map[string]EducationLevel{
		"infantil":         LevelEarlyChildhood,
		"Iniciais":         LevelLowerElementary,
		"upper_elementary": LevelUpperElementary,
	}
	for in, want := range cases {
		got, err := ParseEducationLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseEducationLevel("eja")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEducationLevel_IsElementary(t *testing.T) {
	assert.False(t, LevelEarlyChildhood.IsElementary())
	assert.True(t, LevelLowerElementary.IsElementary())
	assert.True(t, LevelUpperElementary.IsElementary())
	assert.False(t, EducationLevel("bogus").IsValid())
}

func TestFinders(t *testing.T) {
	roster := []Student{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bruno"}}
	s, ok := FindStudent(roster, 2)
	assert.True(t, ok)
	assert.Equal(t, "Bruno", s.Name)
	_, ok = FindStudent(roster, 3)
	assert.False(t, ok)

	assert.True(t, Student{}.IsEnrolled())
	assert.False(t, Student{EnrollmentStatus: EnrollmentDropped}.IsEnrolled())
}
