package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	domain "github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
)

const (
	school5A shared.ID = 7
	class5A  shared.ID = 5
	math     shared.ID = 200
	science  shared.ID = 201
	ana      shared.ID = 1001
	bruno    shared.ID = 1002
)

func scenarioDataset() fixture.Dataset {
	return fixture.Dataset{
		Schools: []academic.School{{ID: school5A, Name: "Escola Municipal Sete de Setembro"}},
		ClassGroups: []academic.ClassGroup{
			{ID: class5A, SchoolID: school5A, Code: "5A", Name: "5º Ano A", EducationLevel: academic.LevelLowerElementary, Active: true},
			{ID: 9, SchoolID: school5A, Code: "PRE", Name: "Pré II", EducationLevel: academic.LevelEarlyChildhood, Active: true},
		},
		Subjects: []academic.Subject{
			{ID: math, Name: "Math", ApplicableLevel: academic.LevelLowerElementary},
			{ID: science, Name: "Science", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 300, Name: "O eu, o outro e o nós", ApplicableLevel: academic.LevelEarlyChildhood},
		},
		Students: []academic.Student{
			{ID: ana, Name: "Ana", ClassGroupID: class5A},
			{ID: bruno, Name: "Bruno", ClassGroupID: class5A},
			{ID: 1003, Name: "Caio", ClassGroupID: 9},
		},
	}
}

type failingStore struct{ err error }

func (f failingStore) SaveEvaluation(context.Context, domain.Record) (shared.SaveResult, error) {
	return shared.SaveResult{}, f.err
}

func newBuilder(t *testing.T, store domain.Store) (*Builder, *fixture.Provider) {
	t.Helper()
	p := fixture.New(fixture.WithLatency(0, 0), fixture.WithDataset(scenarioDataset()))
	if store == nil {
		store = p
	}
	b := New(p, store, nil, nil)
	require.NoError(t, b.Load(context.Background()))
	return b, p
}

func open(t *testing.T, b *Builder, classGroup, subject shared.ID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Select(ctx, cascade.LevelSchool, school5A))
	require.NoError(t, b.Select(ctx, cascade.LevelClassGroup, classGroup))
	require.NoError(t, b.Select(ctx, cascade.LevelSubject, subject))
}

func TestBuilder_LowerElementaryScenario(t *testing.T) {
	b, p := newBuilder(t, nil)
	open(t, b, class5A, math)

	v := b.View()
	require.Len(t, v.Cascade.Roster, 2)
	assert.Equal(t, "Ana", v.Cascade.Roster[0].Name)
	assert.Equal(t, "Bruno", v.Cascade.Roster[1].Name)

	require.NoError(t, b.SelectStudent(context.Background(), ana))
	require.NoError(t, b.SetField(domain.FieldTermScores, []float64{7, 8, 6}))
	on, err := b.ToggleAttitudinalFlag(domain.FlagOrganization)
	require.NoError(t, err)
	assert.True(t, on)

	res, err := b.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shared.MessageEvaluationSaved, res.Message)

	saved := p.Evaluations()
	require.Len(t, saved, 1)
	rec := saved[0]
	assert.Equal(t, ana, rec.StudentID)
	assert.Equal(t, math, rec.SubjectID)
	payload, ok := rec.Payload.(domain.ElementaryPayload)
	require.True(t, ok)
	assert.Equal(t, []float64{7, 8, 6}, payload.Scores())
	require.NotNil(t, payload.AttitudinalFlags)
	assert.True(t, payload.AttitudinalFlags.Organization)
}

func TestBuilder_FormSurvivesSubmitAndStudentSwitch(t *testing.T) {
	b, p := newBuilder(t, nil)
	open(t, b, class5A, math)
	ctx := context.Background()

	require.NoError(t, b.SelectStudent(ctx, ana))
	require.NoError(t, b.SetField(domain.FieldTerm1, 9.5))
	_, err := b.Submit(ctx)
	require.NoError(t, err)

	v := b.View()
	require.NotNil(t, v.LastSave)
	assert.Equal(t, []float64{9.5}, v.Payload.(domain.ElementaryPayload).Scores(), "form is not cleared after save")

	require.NoError(t, b.SelectStudent(ctx, bruno))
	rec, err := b.Record()
	require.NoError(t, err)
	assert.Equal(t, bruno, rec.StudentID)
	assert.Equal(t, []float64{9.5}, rec.Payload.(domain.ElementaryPayload).Scores())

	_, err = b.Submit(ctx)
	require.NoError(t, err)
	assert.Len(t, p.Evaluations(), 2)
}

func TestBuilder_SubjectChangeResetsStudentAndForm(t *testing.T) {
	b, _ := newBuilder(t, nil)
	open(t, b, class5A, math)
	ctx := context.Background()

	require.NoError(t, b.SelectStudent(ctx, ana))
	require.NoError(t, b.SetField(domain.FieldTerm2, 5))

	require.NoError(t, b.Select(ctx, cascade.LevelSubject, science))

	v := b.View()
	assert.False(t, v.Cascade.StudentID.IsValid())
	assert.Nil(t, v.Student)
	assert.Len(t, v.Cascade.Roster, 2)

	require.NoError(t, b.SelectStudent(ctx, ana))
	assert.Empty(t, b.View().Payload.(domain.ElementaryPayload).Scores())
}

func TestBuilder_RequiresStudent(t *testing.T) {
	b, p := newBuilder(t, nil)
	open(t, b, class5A, math)

	err := b.SetField(domain.FieldTerm1, 7)
	assert.True(t, shared.IsInvalidOperation(err))

	_, err = b.Submit(context.Background())
	assert.True(t, shared.IsMissingContext(err))
	assert.Empty(t, p.Evaluations())
}

func TestBuilder_EarlyChildhoodSchema(t *testing.T) {
	b, p := newBuilder(t, nil)
	open(t, b, 9, 300)
	ctx := context.Background()
	require.NoError(t, b.SelectStudent(ctx, 1003))

	assert.Equal(t, []string{domain.FieldNarrativeAssessment, domain.FieldGlobalConcept}, b.View().Fields)

	assert.True(t, shared.IsInvalidOperation(b.SetField(domain.FieldTermScores, []float64{1, 2, 3})))
	_, err := b.ToggleAttitudinalFlag(domain.FlagRespect)
	assert.True(t, shared.IsInvalidOperation(err))

	require.NoError(t, b.SetField(domain.FieldNarrativeAssessment, "Participa das rodas de conversa."))
	require.NoError(t, b.SetField(domain.FieldGlobalConcept, string(domain.ConceptBuilt)))

	_, err = b.Submit(ctx)
	require.NoError(t, err)
	rec := p.Evaluations()[0]
	payload, ok := rec.Payload.(domain.EarlyChildhoodPayload)
	require.True(t, ok)
	assert.Equal(t, domain.ConceptBuilt, payload.GlobalConcept)
}

func TestBuilder_ScoreOutOfRange(t *testing.T) {
	b, _ := newBuilder(t, nil)
	open(t, b, class5A, math)
	require.NoError(t, b.SelectStudent(context.Background(), ana))

	err := b.SetField(domain.FieldTerm3, 11)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestBuilder_ProviderFailure(t *testing.T) {
	boom := errors.New("timeout")
	b, _ := newBuilder(t, failingStore{err: boom})
	open(t, b, class5A, math)
	require.NoError(t, b.SelectStudent(context.Background(), ana))

	_, err := b.Submit(context.Background())
	assert.True(t, shared.IsProviderFailure(err))
	assert.Nil(t, b.View().LastSave)
}
