// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ACTIVITY FEED
// Собирает последние сохранения (дневник, оценки, посещаемость, календарь)
// для панели учителя и панели администратора.
//
// Лента живёт в памяти процесса и ограничена по размеру: старые записи
// вытесняются новыми.
// ═══════════════════════════════════════════════════════════════════════════

// ActivityItem - одна запись ленты.
type ActivityItem struct {
	ID           string           `json:"id"`
	Type         shared.EventType `json:"type"`
	Title        string           `json:"title"`
	Detail       string           `json:"detail,omitempty"`
	ClassGroupID shared.ID        `json:"class_group_id,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// FeedConfig содержит конфигурацию ленты.
type FeedConfig struct {
	// Capacity - сколько записей хранить.
	Capacity int
}

// DefaultFeedConfig возвращает конфигурацию по умолчанию.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{Capacity: 200}
}

// ActivityFeed хранит последние события. Безопасна для конкурентного использования.
type ActivityFeed struct {
	logger *slog.Logger
	config FeedConfig

	mu    sync.RWMutex
	items []ActivityItem
	next  int
	full  bool
}

// NewActivityFeed создаёт ленту.
func NewActivityFeed(logger *slog.Logger, config FeedConfig) *ActivityFeed {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Capacity <= 0 {
		config.Capacity = DefaultFeedConfig().Capacity
	}
	return &ActivityFeed{
		logger: logger.With("handler", "activity_feed"),
		config: config,
		items:  make([]ActivityItem, config.Capacity),
	}
}

// Register подписывает ленту на события сохранения.
func (f *ActivityFeed) Register(sub shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventLessonPlanSaved,
		shared.EventEvaluationSaved,
		shared.EventAttendanceSaved,
		shared.EventBlockedDayAdded,
		shared.EventBlockedDayRemoved,
	} {
		if err := sub.Subscribe(t, f.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает событие.
// Реализует shared.EventHandler.
func (f *ActivityFeed) Handle(event shared.Event) error {
	item, ok := f.describe(event)
	if !ok {
		f.logger.Debug("ignoring event", "event_type", event.EventType())
		return nil
	}
	item.ID = uuid.NewString()
	item.Type = event.EventType()
	item.OccurredAt = event.OccurredAt()

	f.mu.Lock()
	f.items[f.next] = item
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	f.mu.Unlock()

	f.logger.Debug("activity recorded", "event_type", item.Type, "class_group_id", item.ClassGroupID)
	return nil
}

func (f *ActivityFeed) describe(event shared.Event) (ActivityItem, bool) {
	switch e := event.(type) {
	case shared.LessonPlanSavedEvent:
		return ActivityItem{
			Title:        "Plano de aula registrado",
			Detail:       fmt.Sprintf("%s · %s", e.LessonDate.Format("02/01/2006"), pluralFaltas(e.Absences)),
			ClassGroupID: e.ClassGroupID,
		}, true
	case shared.EvaluationSavedEvent:
		return ActivityItem{
			Title:        "Avaliação registrada",
			Detail:       fmt.Sprintf("aluno %d", e.StudentID),
			ClassGroupID: e.ClassGroupID,
		}, true
	case shared.AttendanceSavedEvent:
		return ActivityItem{
			Title:        "Frequência registrada",
			Detail:       fmt.Sprintf("%s · %s", e.Date.Format("02/01/2006"), pluralFaltas(e.Absences)),
			ClassGroupID: e.ClassGroupID,
		}, true
	case shared.BlockedDayAddedEvent:
		return ActivityItem{
			Title:  "Dia bloqueado no calendário",
			Detail: fmt.Sprintf("%s · %s", e.Date.Format("02/01/2006"), e.Reason),
		}, true
	case shared.BlockedDayRemovedEvent:
		return ActivityItem{
			Title:  "Bloqueio removido do calendário",
			Detail: e.Date.Format("02/01/2006"),
		}, true
	default:
		return ActivityItem{}, false
	}
}

// Recent возвращает до n последних записей, новые первыми.
func (f *ActivityFeed) Recent(n int) []ActivityItem {
	return f.filter(n, func(ActivityItem) bool { return true })
}

// ForClassGroups возвращает до n последних записей по указанным классам
// и записи календаря, которые касаются всех.
func (f *ActivityFeed) ForClassGroups(ids []shared.ID, n int) []ActivityItem {
	set := make(map[shared.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return f.filter(n, func(it ActivityItem) bool {
		if !it.ClassGroupID.IsValid() {
			return true
		}
		_, ok := set[it.ClassGroupID]
		return ok
	})
}

func (f *ActivityFeed) filter(n int, keep func(ActivityItem) bool) []ActivityItem {
	if n <= 0 {
		return []ActivityItem{}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	size := f.next
	if f.full {
		size = len(f.items)
	}
	out := make([]ActivityItem, 0, min(n, size))
	for i := 0; i < size && len(out) < n; i++ {
		idx := (f.next - 1 - i + len(f.items)) % len(f.items)
		if it := f.items[idx]; keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func pluralFaltas(n int) string {
	switch n {
	case 0:
		return "sem faltas"
	case 1:
		return "1 falta"
	default:
		return fmt.Sprintf("%d faltas", n)
	}
}
