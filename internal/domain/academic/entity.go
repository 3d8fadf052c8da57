// Package academic содержит справочные сущности школьной сети:
// школы, классы (turmas), предметы, учеников и учителей.
// Эти данные только читаются в рамках сессии.
package academic

import (
	"strings"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDUCATION LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// EducationLevel определяет ступень обучения класса.
// От неё зависят схема формы оценки, поля дневника и набор предметов.
type EducationLevel string

const (
	// LevelEarlyChildhood - дошкольное образование (Educação Infantil).
	LevelEarlyChildhood EducationLevel = "early_childhood"
	// LevelLowerElementary - начальные классы (Anos Iniciais).
	LevelLowerElementary EducationLevel = "lower_elementary"
	// LevelUpperElementary - старшие классы основной школы (Anos Finais).
	LevelUpperElementary EducationLevel = "upper_elementary"
)

// AllLevels возвращает все ступени в порядке обучения.
func AllLevels() []EducationLevel {
	return []EducationLevel{LevelEarlyChildhood, LevelLowerElementary, LevelUpperElementary}
}

// IsValid проверяет, что ступень известна.
func (l EducationLevel) IsValid() bool {
	switch l {
	case LevelEarlyChildhood, LevelLowerElementary, LevelUpperElementary:
		return true
	default:
		return false
	}
}

// IsElementary возвращает true для обеих ступеней основной школы.
func (l EducationLevel) IsElementary() bool {
	return l == LevelLowerElementary || l == LevelUpperElementary
}

// String возвращает строковое представление ступени.
func (l EducationLevel) String() string {
	return string(l)
}

// Label возвращает название ступени на португальском, как в отчётах.
func (l EducationLevel) Label() string {
	switch l {
	case LevelEarlyChildhood:
		return "Educação Infantil"
	case LevelLowerElementary:
		return "Ensino Fundamental - Anos Iniciais"
	case LevelUpperElementary:
		return "Ensino Fundamental - Anos Finais"
	default:
		return "Desconhecido"
	}
}

// ParseEducationLevel разбирает ступень, принимая также короткие
// португальские названия ("infantil", "iniciais", "finais").
func ParseEducationLevel(s string) (EducationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "early_childhood", "infantil":
		return LevelEarlyChildhood, nil
	case "lower_elementary", "iniciais", "fundamental_i":
		return LevelLowerElementary, nil
	case "upper_elementary", "finais", "fundamental_ii":
		return LevelUpperElementary, nil
	default:
		return "", shared.NewDomainError("academic", "ParseEducationLevel", shared.ErrInvalidInput, "unknown education level: "+s)
	}
}

// Shift - смена, в которую занимается класс.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
	ShiftFullTime  Shift = "full_time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// School - корень каскада выбора. Неизменна в рамках сессии.
type School struct {
	ID   shared.ID `json:"id"`
	Name string    `json:"name"`
}

// ClassGroup - класс (turma). Принадлежит ровно одной школе.
type ClassGroup struct {
	ID             shared.ID      `json:"id"`
	SchoolID       shared.ID      `json:"school_id"`
	SchoolName     string         `json:"school_name,omitempty"`
	Code           string         `json:"code,omitempty"`
	Name           string         `json:"name"`
	EducationLevel EducationLevel `json:"education_level"`
	Shift          Shift          `json:"shift"`
	TotalStudents  int            `json:"total_students"`
	Active         bool           `json:"active"`
}

// Subject - предмет; набор фильтруется по ступени класса.
type Subject struct {
	ID              shared.ID      `json:"id"`
	Name            string         `json:"name"`
	ApplicableLevel EducationLevel `json:"applicable_level"`
}

// EnrollmentStatus - статус зачисления ученика.
type EnrollmentStatus string

const (
	EnrollmentActive      EnrollmentStatus = "active"
	EnrollmentTransferred EnrollmentStatus = "transferred"
	EnrollmentDropped     EnrollmentStatus = "dropped"
)

// Student - ученик. В каждый момент состоит ровно в одном классе.
type Student struct {
	ID               shared.ID        `json:"id"`
	Name             string           `json:"name"`
	ClassGroupID     shared.ID        `json:"class_group_id"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status"`
}

// IsEnrolled возвращает true, если ученик продолжает учиться в классе.
func (s Student) IsEnrolled() bool {
	return s.EnrollmentStatus == "" || s.EnrollmentStatus == EnrollmentActive
}

// Teacher - учитель, которому назначены классы.
type Teacher struct {
	ID     shared.ID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// Allocation - назначение учителя на класс (строка панели учителя).
type Allocation struct {
	ClassGroup  ClassGroup `json:"class_group"`
	SubjectName string     `json:"subject_name"`
}

// FindStudent ищет ученика в списке по ID.
func FindStudent(roster []Student, id shared.ID) (Student, bool) {
	for _, s := range roster {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// FindSubject ищет предмет в списке по ID.
func FindSubject(subjects []Subject, id shared.ID) (Subject, bool) {
	for _, s := range subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// FindClassGroup ищет класс в списке по ID.
func FindClassGroup(groups []ClassGroup, id shared.ID) (ClassGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return ClassGroup{}, false
}

// FindSchool ищет школу в списке по ID.
func FindSchool(schools []School, id shared.ID) (School, bool) {
	for _, s := range schools {
		if s.ID == id {
			return s, true
		}
	}
	return School{}, false
}
