// Package attendance содержит модель посещаемости: ежедневный журнал
// с трёхпозиционным циклом статусов и месячную сетку с четырёхпозиционным.
package attendance

import (
	"strings"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - отметка посещаемости ученика за день.
type Status string

const (
	// StatusBlank - клетка месячной сетки без отметки. В ежедневном журнале не встречается.
	StatusBlank Status = ""
	// StatusPresent - ученик присутствовал.
	StatusPresent Status = "present"
	// StatusAbsent - ученик отсутствовал.
	StatusAbsent Status = "absent"
	// StatusJustified - отсутствие с письменным обоснованием.
	StatusJustified Status = "justified"
)

// IsValid проверяет, что статус допустим для сохранённой записи.
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusJustified:
		return true
	default:
		return false
	}
}

// IsAbsence возвращает true для отсутствия, в том числе обоснованного.
func (s Status) IsAbsence() bool {
	return s == StatusAbsent || s == StatusJustified
}

// NextDaily - следующий статус в ежедневном цикле:
// Present → Absent → Justified → Present.
func (s Status) NextDaily() Status {
	switch s {
	case StatusPresent:
		return StatusAbsent
	case StatusAbsent:
		return StatusJustified
	default:
		return StatusPresent
	}
}

// NextGrid - следующий статус в цикле месячной сетки:
// blank → Present → Absent → Justified → blank.
func (s Status) NextGrid() Status {
	switch s {
	case StatusBlank:
		return StatusPresent
	case StatusPresent:
		return StatusAbsent
	case StatusAbsent:
		return StatusJustified
	default:
		return StatusBlank
	}
}

// Code возвращает однобуквенный код для сетки и выгрузки (P, F, J).
func (s Status) Code() string {
	switch s {
	case StatusPresent:
		return "P"
	case StatusAbsent:
		return "F"
	case StatusJustified:
		return "J"
	default:
		return ""
	}
}

// ParseStatus разбирает статус из полного имени или однобуквенного кода.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "p", "presente":
		return StatusPresent, nil
	case "absent", "a", "f", "ausente", "faltou":
		return StatusAbsent, nil
	case "justified", "j", "justificado":
		return StatusJustified, nil
	default:
		return StatusBlank, shared.NewDomainError("attendance", "ParseStatus", shared.ErrInvalidInput, "unknown attendance status: "+s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - отметка одного ученика за одну дату. Ключ: (StudentID, Date).
// Обоснование хранится только при статусе Justified.
type Entry struct {
	StudentID     shared.ID `json:"student_id"`
	Date          time.Time `json:"date"`
	Status        Status    `json:"status"`
	Justification string    `json:"justification,omitempty"`
}

// withStatus возвращает копию записи с новым статусом,
// сбрасывая обоснование при уходе со статуса Justified.
func (e Entry) withStatus(s Status) Entry {
	e.Status = s
	if s != StatusJustified {
		e.Justification = ""
	}
	return e
}
