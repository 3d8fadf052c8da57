package attendance

import (
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY REGISTER
// Журнал посещаемости класса за одну дату. Все ученики по умолчанию
// присутствуют. В выходные и заблокированные дни журнал только для чтения.
// ══════════════════════════════════════════════════════════════════════════════

// Register хранит отметки класса за одну дату в порядке журнала.
type Register struct {
	classGroupID shared.ID
	date         time.Time
	order        []shared.ID
	names        map[shared.ID]string
	entries      map[shared.ID]Entry
	blockReason  string
	blocked      bool
}

// RegisterOption настраивает журнал при создании.
type RegisterOption func(*Register)

// WithBlockedDay помечает дату как нерабочую по календарю школы.
func WithBlockedDay(reason string) RegisterOption {
	return func(r *Register) {
		r.blocked = true
		r.blockReason = reason
	}
}

// NewRegister создаёт журнал для списка учеников; у всех статус Present.
func NewRegister(classGroupID shared.ID, date time.Time, roster []academic.Student, opts ...RegisterOption) *Register {
	r := &Register{
		classGroupID: classGroupID,
		date:         timeutil.DateOf(date),
		order:        make([]shared.ID, 0, len(roster)),
		names:        make(map[shared.ID]string, len(roster)),
		entries:      make(map[shared.ID]Entry, len(roster)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, s := range roster {
		if _, dup := r.entries[s.ID]; dup {
			continue
		}
		r.order = append(r.order, s.ID)
		r.names[s.ID] = s.Name
		r.entries[s.ID] = Entry{StudentID: s.ID, Date: r.date, Status: StatusPresent}
	}
	return r
}

// ClassGroupID возвращает класс журнала.
func (r *Register) ClassGroupID() shared.ID { return r.classGroupID }

// Date возвращает дату журнала.
func (r *Register) Date() time.Time { return r.date }

// IsWeekend возвращает true для субботы и воскресенья.
func (r *Register) IsWeekend() bool { return timeutil.IsWeekend(r.date) }

// IsBlocked возвращает true, если дата заблокирована календарём, и причину.
func (r *Register) IsBlocked() (bool, string) { return r.blocked, r.blockReason }

// ReadOnly возвращает true, если изменение отметок запрещено.
func (r *Register) ReadOnly() bool { return r.IsWeekend() || r.blocked }

// Len возвращает количество учеников в журнале.
func (r *Register) Len() int { return len(r.order) }

// Cycle переводит статус ученика на следующий в ежедневном цикле.
func (r *Register) Cycle(studentID shared.ID) (Entry, error) {
	e, err := r.mutable("Cycle", studentID)
	if err != nil {
		return e, err
	}
	e = e.withStatus(e.Status.NextDaily())
	r.entries[studentID] = e
	return e, nil
}

// SetStatus явно устанавливает статус ученика.
func (r *Register) SetStatus(studentID shared.ID, status Status) (Entry, error) {
	if !status.IsValid() {
		return Entry{}, shared.NewDomainError("attendance", "SetStatus", shared.ErrInvalidInput, "unknown attendance status")
	}
	e, err := r.mutable("SetStatus", studentID)
	if err != nil {
		return e, err
	}
	e = e.withStatus(status)
	r.entries[studentID] = e
	return e, nil
}

// SetJustification сохраняет текст обоснования. Допустимо только при статусе Justified.
func (r *Register) SetJustification(studentID shared.ID, text string) (Entry, error) {
	e, err := r.mutable("SetJustification", studentID)
	if err != nil {
		return e, err
	}
	if e.Status != StatusJustified {
		return e, shared.InvalidOperation("attendance", "SetJustification", "justification requires justified status")
	}
	e.Justification = text
	r.entries[studentID] = e
	return e, nil
}

func (r *Register) mutable(op string, studentID shared.ID) (Entry, error) {
	e, ok := r.entries[studentID]
	if !ok {
		return Entry{}, shared.NewDomainError("attendance", op, shared.ErrNotFound, "student is not on this roster")
	}
	if r.IsWeekend() {
		return e, shared.InvalidOperation("attendance", op, "no class on weekends")
	}
	if r.blocked {
		return e, shared.InvalidOperation("attendance", op, "date is blocked: "+r.blockReason)
	}
	return e, nil
}

// Entry возвращает отметку ученика.
func (r *Register) Entry(studentID shared.ID) (Entry, bool) {
	e, ok := r.entries[studentID]
	return e, ok
}

// StudentName возвращает имя ученика, как оно пришло в списке.
func (r *Register) StudentName(studentID shared.ID) string {
	return r.names[studentID]
}

// Entries возвращает копию отметок в порядке журнала.
func (r *Register) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Summary считает отметки журнала.
func (r *Register) Summary() Summary {
	return Summarize(r.Entries())
}

// Reset возвращает всем ученикам статус Present.
func (r *Register) Reset() {
	for _, id := range r.order {
		r.entries[id] = Entry{StudentID: id, Date: r.date, Status: StatusPresent}
	}
}
