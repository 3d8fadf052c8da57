package query

import (
	"context"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON HISTORY QUERY
// Записи дневника класса за период с названиями предметов.
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonHistoryQuery содержит параметры запроса.
type GetLessonHistoryQuery struct {
	ClassGroupID shared.ID

	// From, To - период включительно. Пустой период = последние 30 дней.
	From time.Time
	To   time.Time
}

// Validate проверяет корректность параметров.
func (q *GetLessonHistoryQuery) Validate() error {
	if !q.ClassGroupID.IsValid() {
		return shared.MissingContext("query", "GetLessonHistory", "class group is required")
	}
	if q.To.IsZero() {
		q.To = timeutil.Today()
	}
	if q.From.IsZero() {
		q.From = q.To.AddDate(0, 0, -30)
	}
	q.From, q.To = timeutil.DateOf(q.From), timeutil.DateOf(q.To)
	if q.From.After(q.To) {
		return shared.NewDomainError("query", "GetLessonHistory", shared.ErrInvalidInput, "period start is after its end")
	}
	return nil
}

// LessonDTO - строка истории.
type LessonDTO struct {
	Date        string    `json:"date"`
	DateDisplay string    `json:"date_display"`
	Weekday     string    `json:"weekday"`
	SubjectID   shared.ID `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	Content     string    `json:"content"`
}

// GetLessonHistoryResult содержит результат запроса.
type GetLessonHistoryResult struct {
	ClassGroup academic.ClassGroup `json:"class_group"`
	Period     string              `json:"period"`
	Lessons    []LessonDTO         `json:"lessons"`
}

// GetLessonHistoryHandler обрабатывает запрос истории уроков.
type GetLessonHistoryHandler struct {
	directory academic.Directory
	lessons   diary.Store
}

// NewGetLessonHistoryHandler создаёт новый обработчик.
func NewGetLessonHistoryHandler(directory academic.Directory, lessons diary.Store) *GetLessonHistoryHandler {
	return &GetLessonHistoryHandler{directory: directory, lessons: lessons}
}

// Handle выполняет запрос.
func (h *GetLessonHistoryHandler) Handle(ctx context.Context, query GetLessonHistoryQuery) (*GetLessonHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	group, err := h.directory.GetClassGroupByID(ctx, query.ClassGroupID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.ProviderFailure("query", "GetLessonHistory", err)
	}

	lessons, err := h.lessons.ListLessons(ctx, query.ClassGroupID, shared.DateRange{From: query.From, To: query.To})
	if err != nil {
		return nil, shared.ProviderFailure("query", "GetLessonHistory", err)
	}

	// Названия предметов берём из справочника ступени; сбой не критичен
	names := make(map[shared.ID]string)
	if subjects, err := h.directory.ListSubjects(ctx, group.EducationLevel); err == nil {
		for _, s := range subjects {
			names[s.ID] = s.Name
		}
	}

	result := &GetLessonHistoryResult{
		ClassGroup: group,
		Period:     formatPeriod(query.From, query.To),
		Lessons:    make([]LessonDTO, 0, len(lessons)),
	}
	for _, l := range lessons {
		result.Lessons = append(result.Lessons, LessonDTO{
			Date:        timeutil.FormatDateStr(l.Date),
			DateDisplay: timeutil.FormatBrazilian(l.Date),
			Weekday:     timeutil.WeekdayNamePt(l.Date),
			SubjectID:   l.SubjectID,
			SubjectName: subjectName(names, l.SubjectID),
			Content:     l.Content,
		})
	}
	return result, nil
}

func subjectName(names map[shared.ID]string, id shared.ID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "—"
}
