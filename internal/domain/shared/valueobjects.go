package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// ID is the opaque numeric key used by every reference entity.
type ID int64

// IsValid reports whether the id is positive.
func (id ID) IsValid() bool {
	return id > 0
}

// Int64 returns the raw value.
func (id ID) Int64() int64 {
	return int64(id)
}

// String returns the decimal form of the id.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal id, rejecting zero and negative values.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, WrapError("shared", "ParseID", ErrInvalidID, fmt.Sprintf("invalid id %q", s), err)
	}
	id := ID(n)
	if !id.IsValid() {
		return 0, NewDomainError("shared", "ParseID", ErrInvalidID, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVE RESULT
// ══════════════════════════════════════════════════════════════════════════════

// SaveResult is the outcome of a persistence call on the data provider.
type SaveResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	ReceiptID string    `json:"receipt_id,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// Confirmation messages returned by successful saves.
const (
	MessageLessonPlanSaved = "Lesson plan registered successfully!"
	MessageEvaluationSaved = "Evaluation registered successfully!"
	MessageAttendanceSaved = "Attendance registered successfully!"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATE RANGE
// ══════════════════════════════════════════════════════════════════════════════

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsValid reports whether both ends are set and From is not after To.
func (r DateRange) IsValid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.From.After(r.To)
}

// Contains reports whether day falls within the range, comparing calendar dates only.
func (r DateRange) Contains(day time.Time) bool {
	d := dayKey(day)
	return d >= dayKey(r.From) && d <= dayKey(r.To)
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
