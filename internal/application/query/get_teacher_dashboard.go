package query

import (
	"context"
	"time"

	"github.com/seduc-pe/academic-hub/internal/application/eventhandler"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TEACHER DASHBOARD QUERY
// Панель учителя: назначенные классы со школами и последние сохранения
// по этим классам.
// ══════════════════════════════════════════════════════════════════════════════

// ActivitySource - источник ленты активности.
type ActivitySource interface {
	ForClassGroups(ids []shared.ID, n int) []eventhandler.ActivityItem
}

// GetTeacherDashboardQuery содержит параметры запроса.
type GetTeacherDashboardQuery struct {
	// TeacherID - учитель активного профиля.
	TeacherID shared.ID

	// ActivityLimit - сколько записей ленты вернуть (по умолчанию 10).
	ActivityLimit int
}

// Validate проверяет корректность параметров.
func (q *GetTeacherDashboardQuery) Validate() error {
	if !q.TeacherID.IsValid() {
		return shared.MissingContext("query", "GetTeacherDashboard", "teacher profile is required")
	}
	if q.ActivityLimit <= 0 {
		q.ActivityLimit = 10
	}
	if q.ActivityLimit > 50 {
		q.ActivityLimit = 50
	}
	return nil
}

// ClassCardDTO - карточка класса на панели.
type ClassCardDTO struct {
	ClassGroupID  shared.ID `json:"class_group_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	SchoolID      shared.ID `json:"school_id"`
	SchoolName    string    `json:"school_name"`
	Level         string    `json:"level"`
	LevelLabel    string    `json:"level_label"`
	Shift         string    `json:"shift"`
	TotalStudents int       `json:"total_students"`
	SubjectName   string    `json:"subject_name,omitempty"`
}

// GetTeacherDashboardResult содержит результат запроса.
type GetTeacherDashboardResult struct {
	TeacherID      shared.ID                   `json:"teacher_id"`
	TeacherName    string                      `json:"teacher_name,omitempty"`
	Classes        []ClassCardDTO              `json:"classes"`
	TotalClasses   int                         `json:"total_classes"`
	TotalStudents  int                         `json:"total_students"`
	Schools        int                         `json:"schools"`
	RecentActivity []eventhandler.ActivityItem `json:"recent_activity"`
	GeneratedAt    time.Time                   `json:"generated_at"`
}

// GetTeacherDashboardHandler обрабатывает запрос панели учителя.
type GetTeacherDashboardHandler struct {
	staff    academic.StaffDirectory
	activity ActivitySource
}

// NewGetTeacherDashboardHandler создаёт новый обработчик. activity может быть nil.
func NewGetTeacherDashboardHandler(staff academic.StaffDirectory, activity ActivitySource) *GetTeacherDashboardHandler {
	return &GetTeacherDashboardHandler{staff: staff, activity: activity}
}

// Handle выполняет запрос.
func (h *GetTeacherDashboardHandler) Handle(ctx context.Context, query GetTeacherDashboardQuery) (*GetTeacherDashboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	allocations, err := h.staff.ListTeacherAllocations(ctx, query.TeacherID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.ProviderFailure("query", "GetTeacherDashboard", err)
	}

	result := &GetTeacherDashboardResult{
		TeacherID:      query.TeacherID,
		Classes:        make([]ClassCardDTO, 0, len(allocations)),
		RecentActivity: []eventhandler.ActivityItem{},
		GeneratedAt:    time.Now().UTC(),
	}

	// Имя учителя не критично для панели
	if teachers, err := h.staff.ListTeachers(ctx); err == nil {
		for _, t := range teachers {
			if t.ID == query.TeacherID {
				result.TeacherName = t.Name
				break
			}
		}
	}

	schools := make(map[shared.ID]struct{})
	ids := make([]shared.ID, 0, len(allocations))
	for _, a := range allocations {
		g := a.ClassGroup
		result.Classes = append(result.Classes, ClassCardDTO{
			ClassGroupID:  g.ID,
			Code:          g.Code,
			Name:          g.Name,
			SchoolID:      g.SchoolID,
			SchoolName:    g.SchoolName,
			Level:         g.EducationLevel.String(),
			LevelLabel:    g.EducationLevel.Label(),
			Shift:         string(g.Shift),
			TotalStudents: g.TotalStudents,
			SubjectName:   a.SubjectName,
		})
		result.TotalStudents += g.TotalStudents
		schools[g.SchoolID] = struct{}{}
		ids = append(ids, g.ID)
	}
	result.TotalClasses = len(result.Classes)
	result.Schools = len(schools)

	if h.activity != nil {
		result.RecentActivity = h.activity.ForClassGroups(ids, query.ActivityLimit)
	}
	return result, nil
}
