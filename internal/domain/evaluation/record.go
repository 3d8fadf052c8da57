package evaluation

import (
	"context"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Record - оценка ученика по предмету, передаваемая на сохранение.
type Record struct {
	StudentID      shared.ID               `json:"student_id"`
	SubjectID      shared.ID               `json:"subject_id"`
	ClassGroupID   shared.ID               `json:"class_group_id"`
	EducationLevel academic.EducationLevel `json:"education_level"`
	Payload        Payload                 `json:"payload"`
}

// Validate проверяет, что контекст оценки полностью задан.
func (r Record) Validate() error {
	switch {
	case !r.ClassGroupID.IsValid():
		return shared.MissingContext("evaluation", "Validate", "class group is required")
	case !r.SubjectID.IsValid():
		return shared.MissingContext("evaluation", "Validate", "subject is required")
	case !r.StudentID.IsValid():
		return shared.MissingContext("evaluation", "Validate", "student is required")
	case r.Payload == nil:
		return shared.NewDomainError("evaluation", "Validate", shared.ErrInvalidInput, "payload is required")
	case r.Payload.Level() != r.EducationLevel:
		return shared.NewDomainError("evaluation", "Validate", shared.ErrInvalidInput, "payload does not match education level")
	}
	return nil
}

// Store - часть поставщика данных для оценок.
type Store interface {
	// SaveEvaluation сохраняет оценку одним вызовом.
	SaveEvaluation(ctx context.Context, record Record) (shared.SaveResult, error)
}
