package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

func TestMenu_ByRole(t *testing.T) {
	assert.Empty(t, Menu(RoleVisitor))

	teacher := Menu(RoleTeacher)
	var keys []string
	for _, item := range teacher {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"dashboard", "diary", "evaluation", "frequency"}, keys)

	assert.True(t, Allows(RoleMaster, "calendar"))
	assert.False(t, Allows(RoleTeacher, "calendar"))
	assert.False(t, Allows(RoleVisitor, "dashboard"))
}

func TestMenu_ReturnsCopy(t *testing.T) {
	m := Menu(RoleMaster)
	m[0].Label = "changed"
	assert.Equal(t, "Dashboard", Menu(RoleMaster)[0].Label)
}

func TestSession_SwitchProfile(t *testing.T) {
	s := New("sess-1", ProfileMaster)
	assert.Equal(t, RoleMaster, s.Profile().Role)

	ev := s.SwitchProfile(ProfileTeacherEarlyChildhood)
	assert.Equal(t, shared.EventProfileSwitched, ev.EventType())
	assert.Equal(t, "sess-1", ev.AggregateID())
	assert.Equal(t, "master", ev.From)
	assert.Equal(t, "teacher_early_childhood", ev.To)

	assert.Equal(t, shared.ID(1), s.Profile().TeacherID)
	assert.Len(t, s.Menu(), 4)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("ProfessorFinais")
	require.NoError(t, err)
	assert.Equal(t, ProfileTeacherUpperElementary, p)

	_, err = ParseProfile("admin")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
