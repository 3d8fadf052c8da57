package cascade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE DIRECTORY
// Calls can be held on a gate to reproduce out-of-order completion.
// ══════════════════════════════════════════════════════════════════════════════

type fakeDirectory struct {
	mu          sync.Mutex
	schools     []academic.School
	classGroups []academic.ClassGroup
	subjects    []academic.Subject
	students    []academic.Student
	gates       map[string]chan struct{}
	started     map[string]chan struct{}
	failures    map[string]error
	calls       []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		schools: []academic.School{{ID: 1, Name: "EM Joaquim Canuto"}, {ID: 7, Name: "EM Tancredo Neves"}},
		classGroups: []academic.ClassGroup{
			{ID: 10, SchoolID: 1, Name: "Infantil IV", EducationLevel: academic.LevelEarlyChildhood},
			{ID: 5, SchoolID: 7, Name: "5A", EducationLevel: academic.LevelLowerElementary},
			{ID: 42, SchoolID: 7, Name: "9B", EducationLevel: academic.LevelUpperElementary},
		},
		subjects: []academic.Subject{
			{ID: 100, Name: "Linguagem Oral", ApplicableLevel: academic.LevelEarlyChildhood},
			{ID: 200, Name: "Math", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 201, Name: "Português", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 300, Name: "Geografia", ApplicableLevel: academic.LevelUpperElementary},
		},
		students: []academic.Student{
			{ID: 1001, Name: "Ana", ClassGroupID: 5},
			{ID: 1002, Name: "Bruno", ClassGroupID: 5},
			{ID: 1003, Name: "Caio", ClassGroupID: 42},
			{ID: 1004, Name: "Duda", ClassGroupID: 10},
		},
		gates:    map[string]chan struct{}{},
		started:  map[string]chan struct{}{},
		failures: map[string]error{},
	}
}

// hold makes the call identified by key block until the returned func is called.
// The second return value is closed once the call has started.
func (f *fakeDirectory) hold(key string) (release func(), started <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	st := make(chan struct{})
	f.gates[key] = gate
	f.started[key] = st
	return func() { close(gate) }, st
}

func (f *fakeDirectory) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = err
}

func (f *fakeDirectory) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	st := f.started[key]
	err := f.failures[key]
	delete(f.gates, key)
	delete(f.started, key)
	f.mu.Unlock()

	if st != nil {
		close(st)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeDirectory) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDirectory) ListSchools(ctx context.Context) ([]academic.School, error) {
	if err := f.enter(ctx, "schools"); err != nil {
		return nil, err
	}
	return f.schools, nil
}

func (f *fakeDirectory) ListClassGroups(ctx context.Context, schoolID shared.ID) ([]academic.ClassGroup, error) {
	if err := f.enter(ctx, fmt.Sprintf("class_groups:%d", schoolID)); err != nil {
		return nil, err
	}
	var out []academic.ClassGroup
	for _, g := range f.classGroups {
		if g.SchoolID == schoolID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ListSubjects(ctx context.Context, level academic.EducationLevel) ([]academic.Subject, error) {
	if err := f.enter(ctx, "subjects:"+level.String()); err != nil {
		return nil, err
	}
	var out []academic.Subject
	for _, s := range f.subjects {
		if s.ApplicableLevel == level {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ListStudents(ctx context.Context, classGroupID shared.ID) ([]academic.Student, error) {
	if err := f.enter(ctx, fmt.Sprintf("roster:%d", classGroupID)); err != nil {
		return nil, err
	}
	var out []academic.Student
	for _, s := range f.students {
		if s.ClassGroupID == classGroupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetClassGroupByID(ctx context.Context, id shared.ID) (academic.ClassGroup, error) {
	if err := f.enter(ctx, fmt.Sprintf("class_group:%d", id)); err != nil {
		return academic.ClassGroup{}, err
	}
	for _, g := range f.classGroups {
		if g.ID == id {
			return g, nil
		}
	}
	return academic.ClassGroup{}, shared.ErrClassGroupNotFound
}

func waitStarted(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}
}

func ready(t *testing.T, dir *fakeDirectory, opts ...Option) *Controller {
	t.Helper()
	c := New(dir, opts...)
	require.NoError(t, c.Load(context.Background()))
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestSelect_LoadsNextLevel(t *testing.T) {
	ctx := context.Background()
	c := ready(t, newFakeDirectory())

	require.NoError(t, c.Select(ctx, LevelSchool, 7))
	s := c.Snapshot()
	assert.Len(t, s.ClassGroups, 2)
	assert.Nil(t, s.Subjects)

	require.NoError(t, c.Select(ctx, LevelClassGroup, 5))
	s = c.Snapshot()
	require.NotNil(t, s.ClassGroup)
	assert.Equal(t, academic.LevelLowerElementary, s.ClassGroup.EducationLevel)
	assert.Len(t, s.Subjects, 2, "subjects filtered by the class group's level")
	assert.Len(t, s.Roster, 2)
	assert.False(t, s.Loading.Any())

	require.NoError(t, c.Select(ctx, LevelSubject, 200))
	assert.Equal(t, shared.ID(200), c.Snapshot().SubjectID)
}

func TestSelect_NewClassGroupClearsSubjectAndRoster(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := ready(t, dir)

	require.NoError(t, c.Select(ctx, LevelSchool, 7))
	require.NoError(t, c.Select(ctx, LevelClassGroup, 5))
	require.NoError(t, c.Select(ctx, LevelSubject, 200))
	before := c.Snapshot().RosterVersion

	release, started := dir.hold("roster:42")
	done := make(chan error, 1)
	go func() { done <- c.Select(ctx, LevelClassGroup, 42) }()
	waitStarted(t, started)

	mid := c.Snapshot()
	assert.Equal(t, shared.ID(42), mid.ClassGroupID)
	assert.Zero(t, mid.SubjectID, "subject must be cleared")
	assert.Nil(t, mid.Roster, "previous roster must be cleared")
	assert.True(t, mid.Loading.Roster)
	assert.NotEqual(t, before, mid.RosterVersion)

	release()
	require.NoError(t, <-done)
	after := c.Snapshot()
	require.Len(t, after.Roster, 1)
	assert.Equal(t, "Caio", after.Roster[0].Name)
}

func TestSelect_EvaluationChainClearsStudent(t *testing.T) {
	ctx := context.Background()
	c := ready(t, newFakeDirectory(), WithDepth(LevelStudent), WithRosterOn(LevelSubject))

	require.NoError(t, c.Select(ctx, LevelSchool, 7))
	require.NoError(t, c.Select(ctx, LevelClassGroup, 5))
	assert.Nil(t, c.Snapshot().Roster, "roster waits for the subject")

	require.NoError(t, c.Select(ctx, LevelSubject, 200))
	require.Len(t, c.Snapshot().Roster, 2)
	require.NoError(t, c.Select(ctx, LevelStudent, 1001))

	require.NoError(t, c.Select(ctx, LevelSubject, 201))
	s := c.Snapshot()
	assert.Zero(t, s.StudentID)
	assert.Len(t, s.Roster, 2)

	require.NoError(t, c.Select(ctx, LevelClassGroup, 42))
	s = c.Snapshot()
	assert.Zero(t, s.SubjectID)
	assert.Nil(t, s.Roster)
}

func TestSelect_RequiresAncestors(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := ready(t, dir, WithDepth(LevelStudent))

	err := c.Select(ctx, LevelClassGroup, 5)
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)
	err = c.Select(ctx, LevelStudent, 1001)
	assert.ErrorIs(t, err, shared.ErrInvalidOperation)

	s := c.Snapshot()
	assert.Zero(t, s.ClassGroupID)
	assert.False(t, s.Enabled(LevelClassGroup))
	assert.True(t, s.Enabled(LevelSchool))
	assert.Equal(t, []string{"schools"}, dir.callLog(), "rejected selections never reach the provider")
}

func TestSelect_UnknownIDAndDepth(t *testing.T) {
	ctx := context.Background()
	c := ready(t, newFakeDirectory(), WithDepth(LevelClassGroup))

	assert.ErrorIs(t, c.Select(ctx, LevelSchool, 99), shared.ErrNotFound)
	require.NoError(t, c.Select(ctx, LevelSchool, 1))
	require.NoError(t, c.Select(ctx, LevelClassGroup, 10))
	assert.ErrorIs(t, c.Select(ctx, LevelSubject, 100), shared.ErrInvalidOperation)

	s := c.Snapshot()
	assert.Nil(t, s.Subjects, "frequency chain stops at the class group")
	assert.Len(t, s.Roster, 1)
}

func TestSelect_ZeroDeselects(t *testing.T) {
	ctx := context.Background()
	c := ready(t, newFakeDirectory())

	require.NoError(t, c.Select(ctx, LevelSchool, 7))
	require.NoError(t, c.Select(ctx, LevelClassGroup, 5))
	require.NoError(t, c.Select(ctx, LevelClassGroup, 0))

	s := c.Snapshot()
	assert.Zero(t, s.ClassGroupID)
	assert.Nil(t, s.Subjects)
	assert.Nil(t, s.Roster)
	assert.Len(t, s.ClassGroups, 2, "options of the level itself stay")
}

func TestSelect_StaleSubjectFetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := ready(t, dir)
	require.NoError(t, c.Select(ctx, LevelSchool, 7))

	// 5A (lower elementary) is slow, 9B (upper elementary) answers at once.
	release, started := dir.hold("subjects:lower_elementary")
	slow := make(chan error, 1)
	go func() { slow <- c.Select(ctx, LevelClassGroup, 5) }()
	waitStarted(t, started)

	require.NoError(t, c.Select(ctx, LevelClassGroup, 42))
	release()

	err := <-slow
	assert.ErrorIs(t, err, shared.ErrSuperseded)

	s := c.Snapshot()
	assert.Equal(t, shared.ID(42), s.ClassGroupID)
	require.Len(t, s.Subjects, 1)
	assert.Equal(t, "Geografia", s.Subjects[0].Name)
	require.Len(t, s.Roster, 1)
	assert.Equal(t, "Caio", s.Roster[0].Name)
	assert.False(t, s.Loading.Any())
}

func TestSelect_ProviderFailureIsVisible(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := ready(t, dir)
	boom := errors.New("connection reset")
	dir.fail("class_groups:7", boom)

	err := c.Select(ctx, LevelSchool, 7)
	assert.ErrorIs(t, err, shared.ErrProviderFailure)
	assert.ErrorIs(t, err, boom)

	s := c.Snapshot()
	assert.False(t, s.Loading.Any(), "no spinner left behind")
	assert.NotEmpty(t, s.Error)
	assert.Equal(t, "school", s.ErrorLevel)
	assert.Nil(t, s.ClassGroups)

	// retry clears the error
	dir.fail("class_groups:7", nil)
	require.NoError(t, c.Select(ctx, LevelSchool, 7))
	assert.Empty(t, c.Snapshot().Error)
}

func TestHydrate_FromClassGroup(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := New(dir)

	require.NoError(t, c.Hydrate(ctx, 42))

	s := c.Snapshot()
	assert.Equal(t, shared.ID(7), s.SchoolID)
	assert.Equal(t, shared.ID(42), s.ClassGroupID)
	assert.Len(t, s.ClassGroups, 2)
	assert.Len(t, s.Subjects, 1)
	assert.Len(t, s.Roster, 1)
	assert.False(t, s.Hydrating)

	calls := dir.callLog()
	assert.Equal(t, []string{"class_group:42", "schools", "class_groups:7"}, calls[:3])
}

func TestHydrate_ChildAppliedAfterAncestorFetch(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	c := ready(t, dir)

	release, started := dir.hold("class_groups:7")
	done := make(chan error, 1)
	go func() { done <- c.Hydrate(ctx, 42) }()
	waitStarted(t, started)

	mid := c.Snapshot()
	assert.True(t, mid.Hydrating)
	assert.Equal(t, shared.ID(7), mid.SchoolID)
	assert.Zero(t, mid.ClassGroupID, "class group waits for the school's options")
	assert.False(t, mid.Enabled(LevelSchool))

	err := c.Select(ctx, LevelSchool, 1)
	assert.ErrorIs(t, err, shared.ErrBusy)
	assert.ErrorIs(t, c.Hydrate(ctx, 5), shared.ErrBusy)

	release()
	require.NoError(t, <-done)
	s := c.Snapshot()
	assert.Equal(t, shared.ID(7), s.SchoolID)
	assert.Equal(t, shared.ID(42), s.ClassGroupID)

	require.NoError(t, c.Select(ctx, LevelSubject, 300))
}

func TestHydrate_UnknownClassGroup(t *testing.T) {
	c := New(newFakeDirectory())

	err := c.Hydrate(context.Background(), 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	s := c.Snapshot()
	assert.False(t, s.Hydrating)
	assert.Zero(t, s.SchoolID)
	assert.NotEmpty(t, s.Error)
}

func TestLevel_Parse(t *testing.T) {
	l, err := ParseLevel("class_group")
	require.NoError(t, err)
	assert.Equal(t, LevelClassGroup, l)
	_, err = ParseLevel("district")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
