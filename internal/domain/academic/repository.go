package academic

import (
	"context"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY INTERFACES
// Контракт справочной части поставщика данных.
// Реализации находятся в infrastructure (fixture, postgres, redis-кэш).
// ══════════════════════════════════════════════════════════════════════════════

// Directory предоставляет справочные данные для каскада выбора.
// Все операции асинхронны по смыслу и могут занимать заметное время.
type Directory interface {
	// ListSchools возвращает все школы сети.
	ListSchools(ctx context.Context) ([]School, error)

	// ListClassGroups возвращает классы школы.
	ListClassGroups(ctx context.Context, schoolID shared.ID) ([]ClassGroup, error)

	// ListSubjects возвращает предметы для ступени обучения.
	ListSubjects(ctx context.Context, level EducationLevel) ([]Subject, error)

	// ListStudents возвращает список учеников класса в порядке журнала.
	ListStudents(ctx context.Context, classGroupID shared.ID) ([]Student, error)

	// GetClassGroupByID возвращает класс по ID.
	// Возвращает ErrClassGroupNotFound, если класс не найден.
	GetClassGroupByID(ctx context.Context, id shared.ID) (ClassGroup, error)
}

// StaffDirectory предоставляет данные об учителях.
type StaffDirectory interface {
	// ListTeachers возвращает всех учителей.
	ListTeachers(ctx context.Context) ([]Teacher, error)

	// ListTeacherAllocations возвращает классы, назначенные учителю.
	ListTeacherAllocations(ctx context.Context, teacherID shared.ID) ([]Allocation, error)
}
