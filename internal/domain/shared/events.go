// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is published after a successful save or
// registry change so that feeds and caches can react.
const (
	// Class diary events
	EventLessonPlanSaved EventType = "diary.lesson_plan_saved"

	// Evaluation events
	EventEvaluationSaved EventType = "evaluation.saved"

	// Attendance events
	EventAttendanceSaved EventType = "attendance.saved"

	// Calendar events
	EventBlockedDayAdded   EventType = "calendar.blocked_day_added"
	EventBlockedDayRemoved EventType = "calendar.blocked_day_removed"

	// Session events
	EventProfileSwitched EventType = "session.profile_switched"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// Base returns the embedded base event.
func (e BaseEvent) Base() BaseEvent {
	return e
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Submission Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonPlanSavedEvent is emitted when a class diary entry is stored.
type LessonPlanSavedEvent struct {
	BaseEvent
	ClassGroupID ID        `json:"class_group_id"`
	SubjectID    ID        `json:"subject_id"`
	LessonDate   time.Time `json:"lesson_date"`
	Absences     int       `json:"absences"`
	ReceiptID    string    `json:"receipt_id"`
}

// Payload implements Event interface.
func (e LessonPlanSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_group_id": e.ClassGroupID,
		"subject_id":     e.SubjectID,
		"lesson_date":    e.LessonDate.Format("2006-01-02"),
		"absences":       e.Absences,
		"receipt_id":     e.ReceiptID,
	}
}

// NewLessonPlanSavedEvent creates a new LessonPlanSavedEvent.
func NewLessonPlanSavedEvent(classGroupID, subjectID ID, date time.Time, absences int, receiptID string) LessonPlanSavedEvent {
	return LessonPlanSavedEvent{
		BaseEvent:    NewBaseEvent(EventLessonPlanSaved, classGroupID.String()),
		ClassGroupID: classGroupID,
		SubjectID:    subjectID,
		LessonDate:   date,
		Absences:     absences,
		ReceiptID:    receiptID,
	}
}

// EvaluationSavedEvent is emitted when a student's evaluation is stored.
type EvaluationSavedEvent struct {
	BaseEvent
	StudentID    ID     `json:"student_id"`
	SubjectID    ID     `json:"subject_id"`
	ClassGroupID ID     `json:"class_group_id"`
	Level        string `json:"education_level"`
	ReceiptID    string `json:"receipt_id"`
}

// Payload implements Event interface.
func (e EvaluationSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"subject_id":      e.SubjectID,
		"class_group_id":  e.ClassGroupID,
		"education_level": e.Level,
		"receipt_id":      e.ReceiptID,
	}
}

// NewEvaluationSavedEvent creates a new EvaluationSavedEvent.
func NewEvaluationSavedEvent(studentID, subjectID, classGroupID ID, level, receiptID string) EvaluationSavedEvent {
	return EvaluationSavedEvent{
		BaseEvent:    NewBaseEvent(EventEvaluationSaved, studentID.String()),
		StudentID:    studentID,
		SubjectID:    subjectID,
		ClassGroupID: classGroupID,
		Level:        level,
		ReceiptID:    receiptID,
	}
}

// AttendanceSavedEvent is emitted when a roll call for one day is stored.
type AttendanceSavedEvent struct {
	BaseEvent
	ClassGroupID ID        `json:"class_group_id"`
	Date         time.Time `json:"date"`
	Entries      int       `json:"entries"`
	Absences     int       `json:"absences"`
}

// Payload implements Event interface.
func (e AttendanceSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_group_id": e.ClassGroupID,
		"date":           e.Date.Format("2006-01-02"),
		"entries":        e.Entries,
		"absences":       e.Absences,
	}
}

// NewAttendanceSavedEvent creates a new AttendanceSavedEvent.
func NewAttendanceSavedEvent(classGroupID ID, date time.Time, entries, absences int) AttendanceSavedEvent {
	return AttendanceSavedEvent{
		BaseEvent:    NewBaseEvent(EventAttendanceSaved, classGroupID.String()),
		ClassGroupID: classGroupID,
		Date:         date,
		Entries:      entries,
		Absences:     absences,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Events
// ═══════════════════════════════════════════════════════════════════════════

// BlockedDayAddedEvent is emitted when a date is marked non-instructional.
type BlockedDayAddedEvent struct {
	BaseEvent
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// Payload implements Event interface.
func (e BlockedDayAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":   e.Date.Format("2006-01-02"),
		"reason": e.Reason,
	}
}

// NewBlockedDayAddedEvent creates a new BlockedDayAddedEvent.
func NewBlockedDayAddedEvent(id string, date time.Time, reason string) BlockedDayAddedEvent {
	return BlockedDayAddedEvent{
		BaseEvent: NewBaseEvent(EventBlockedDayAdded, id),
		Date:      date,
		Reason:    reason,
	}
}

// BlockedDayRemovedEvent is emitted when every block for a date is removed.
type BlockedDayRemovedEvent struct {
	BaseEvent
	Date    time.Time `json:"date"`
	Removed int       `json:"removed"`
}

// Payload implements Event interface.
func (e BlockedDayRemovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":    e.Date.Format("2006-01-02"),
		"removed": e.Removed,
	}
}

// NewBlockedDayRemovedEvent creates a new BlockedDayRemovedEvent.
func NewBlockedDayRemovedEvent(date time.Time, removed int) BlockedDayRemovedEvent {
	return BlockedDayRemovedEvent{
		BaseEvent: NewBaseEvent(EventBlockedDayRemoved, date.Format("2006-01-02")),
		Date:      date,
		Removed:   removed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileSwitchedEvent is emitted when a session changes its active profile.
type ProfileSwitchedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// Payload implements Event interface.
func (e ProfileSwitchedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from": e.From,
		"to":   e.To,
	}
}

// NewProfileSwitchedEvent creates a new ProfileSwitchedEvent.
func NewProfileSwitchedEvent(sessionID, from, to string) ProfileSwitchedEvent {
	return ProfileSwitchedEvent{
		BaseEvent: NewBaseEvent(EventProfileSwitched, sessionID),
		From:      from,
		To:        to,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope serializes an event's payload into an envelope.
func NewEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	env := EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}
	if b, ok := event.(interface{ Base() BaseEvent }); ok {
		env.CorrelationID = b.Base().CorrelationID
	}
	return env, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
