package attendance

import (
	"context"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Store - часть поставщика данных, отвечающая за посещаемость.
type Store interface {
	// SaveAttendance сохраняет отметки класса за дату одним вызовом (всё или ничего).
	// Повторное сохранение той же даты заменяет прежние отметки.
	SaveAttendance(ctx context.Context, date time.Time, classGroupID shared.ID, entries []Entry) (shared.SaveResult, error)

	// ListAttendance возвращает сохранённые отметки класса за период.
	ListAttendance(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]Entry, error)
}
