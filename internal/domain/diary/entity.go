// Package diary содержит модель записи в дневнике класса:
// план урока с полями по ступени и снимок посещаемости за дату.
package diary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Имена полей плана урока.
const (
	FieldContent = "content"

	// Дошкольная ступень
	FieldExperienceRecord      = "experienceRecord"
	FieldDevelopmentProposal   = "developmentProposal"
	FieldSpaceTimeOrganization = "spaceTimeOrganization"

	// Основная школа
	FieldThematicUnit       = "thematicUnit"
	FieldLearningObjectives = "learningObjectives"
	FieldMethodology        = "methodology"
	FieldHomework           = "homework"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// Fields - поля плана, зависящие от ступени.
type Fields interface {
	Level() academic.EducationLevel
	fields()
}

// EarlyChildhoodFields - поля для Educação Infantil.
type EarlyChildhoodFields struct {
	ExperienceRecord      string `json:"experience_record"`
	DevelopmentProposal   string `json:"development_proposal"`
	SpaceTimeOrganization string `json:"space_time_organization"`
}

func (EarlyChildhoodFields) Level() academic.EducationLevel { return academic.LevelEarlyChildhood }
func (EarlyChildhoodFields) fields()                        {}

// ElementaryFields - поля для основной школы.
type ElementaryFields struct {
	EducationLevel     academic.EducationLevel `json:"-"`
	ThematicUnit       string                  `json:"thematic_unit"`
	LearningObjectives string                  `json:"learning_objectives"`
	Methodology        string                  `json:"methodology"`
	Homework           string                  `json:"homework"`
}

func (f ElementaryFields) Level() academic.EducationLevel { return f.EducationLevel }
func (ElementaryFields) fields()                          {}

// NewFields возвращает пустые поля для ступени.
func NewFields(level academic.EducationLevel) (Fields, error) {
	switch {
	case level == academic.LevelEarlyChildhood:
		return EarlyChildhoodFields{}, nil
	case level.IsElementary():
		return ElementaryFields{EducationLevel: level}, nil
	default:
		return nil, shared.NewDomainError("diary", "NewFields", shared.ErrInvalidInput, fmt.Sprintf("unknown education level %q", level))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT
// ══════════════════════════════════════════════════════════════════════════════

// Draft - редактируемый план урока до отправки.
type Draft struct {
	level   academic.EducationLevel
	content string
	early   EarlyChildhoodFields
	elem    ElementaryFields
}

// NewDraft создаёт пустой черновик для ступени.
func NewDraft(level academic.EducationLevel) (*Draft, error) {
	if _, err := NewFields(level); err != nil {
		return nil, err
	}
	return &Draft{level: level, elem: ElementaryFields{EducationLevel: level}}, nil
}

// Level возвращает ступень черновика.
func (d *Draft) Level() academic.EducationLevel { return d.level }

// Content возвращает общее содержание урока.
func (d *Draft) Content() string { return d.content }

// Fields возвращает поля ступени.
func (d *Draft) Fields() Fields {
	if d.level == academic.LevelEarlyChildhood {
		return d.early
	}
	return d.elem
}

// SetField изменяет поле. Поле другой ступени отклоняется с ErrInvalidOperation.
func (d *Draft) SetField(name, value string) error {
	early := d.level == academic.LevelEarlyChildhood
	switch {
	case name == FieldContent:
		d.content = value
	case early && name == FieldExperienceRecord:
		d.early.ExperienceRecord = value
	case early && name == FieldDevelopmentProposal:
		d.early.DevelopmentProposal = value
	case early && name == FieldSpaceTimeOrganization:
		d.early.SpaceTimeOrganization = value
	case !early && name == FieldThematicUnit:
		d.elem.ThematicUnit = value
	case !early && name == FieldLearningObjectives:
		d.elem.LearningObjectives = value
	case !early && name == FieldMethodology:
		d.elem.Methodology = value
	case !early && name == FieldHomework:
		d.elem.Homework = value
	default:
		return shared.InvalidOperation("diary", "SetField",
			fmt.Sprintf("field %q is not part of the %s lesson plan", name, d.level))
	}
	return nil
}

// IsEmpty возвращает true, если ни одно поле не заполнено.
func (d *Draft) IsEmpty() bool {
	if strings.TrimSpace(d.content) != "" {
		return false
	}
	if d.level == academic.LevelEarlyChildhood {
		return d.early == EarlyChildhoodFields{}
	}
	return d.elem == ElementaryFields{EducationLevel: d.level}
}

// Reset очищает черновик.
func (d *Draft) Reset() {
	*d = Draft{level: d.level, elem: ElementaryFields{EducationLevel: d.level}}
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON PLAN
// ══════════════════════════════════════════════════════════════════════════════

// LessonPlan - запись дневника, отправляемая одним вызовом.
type LessonPlan struct {
	ClassGroupID   shared.ID               `json:"class_group_id"`
	SubjectID      shared.ID               `json:"subject_id"`
	Date           time.Time               `json:"date"`
	EducationLevel academic.EducationLevel `json:"education_level"`
	Content        string                  `json:"content"`
	Fields         Fields                  `json:"fields"`
	Attendance     []attendance.Entry      `json:"attendance"`
}

// Validate проверяет, что контекст записи задан.
func (p LessonPlan) Validate() error {
	switch {
	case !p.ClassGroupID.IsValid():
		return shared.MissingContext("diary", "Validate", "class group is required")
	case !p.SubjectID.IsValid():
		return shared.MissingContext("diary", "Validate", "subject is required")
	case p.Date.IsZero():
		return shared.MissingContext("diary", "Validate", "lesson date is required")
	case p.Fields == nil || p.Fields.Level() != p.EducationLevel:
		return shared.NewDomainError("diary", "Validate", shared.ErrInvalidInput, "fields do not match education level")
	}
	return nil
}

// Absences возвращает число пропусков в снимке посещаемости.
func (p LessonPlan) Absences() int {
	return attendance.Summarize(p.Attendance).Absences()
}

// LessonSummary - краткая запись урока для отчётов.
type LessonSummary struct {
	ClassGroupID shared.ID `json:"class_group_id"`
	SubjectID    shared.ID `json:"subject_id"`
	Date         time.Time `json:"date"`
	Content      string    `json:"content"`
}

// Store - часть поставщика данных для дневника.
type Store interface {
	// SaveLessonPlan сохраняет план урока вместе со снимком посещаемости.
	SaveLessonPlan(ctx context.Context, plan LessonPlan) (shared.SaveResult, error)

	// ListLessons возвращает уроки класса за период по возрастанию даты.
	ListLessons(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]LessonSummary, error)
}
