// Package calendar models the school calendar: dates marked as non-instructional.
// Blocked days are global to the network and independent of class groups.
package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// BlockedDay is a date on which diary and attendance entry is not allowed.
type BlockedDay struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBlockedDay validates and builds a blocked day. Both date and reason are required.
func NewBlockedDay(id string, date time.Time, reason string) (BlockedDay, error) {
	reason = strings.TrimSpace(reason)
	if date.IsZero() {
		return BlockedDay{}, shared.NewDomainError("calendar", "Add", shared.ErrEmptyValue, "date is required")
	}
	if reason == "" {
		return BlockedDay{}, shared.NewDomainError("calendar", "Add", shared.ErrEmptyValue, "reason is required")
	}
	return BlockedDay{
		ID:        id,
		Date:      timeutil.DateOf(date),
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Registry keeps blocked days in insertion order.
// It is not safe for concurrent use; the application service serializes access.
type Registry struct {
	days   []BlockedDay
	dedupe bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDedupe rejects a second block for a date that is already blocked.
func WithDedupe(on bool) RegistryOption {
	return func(r *Registry) { r.dedupe = on }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the registry contents, keeping the given order.
func (r *Registry) Load(days []BlockedDay) {
	r.days = append(r.days[:0:0], days...)
}

// Add appends a blocked day. Duplicate dates are accepted unless dedupe is on.
func (r *Registry) Add(day BlockedDay) error {
	if day.Date.IsZero() || strings.TrimSpace(day.Reason) == "" {
		return shared.NewDomainError("calendar", "Add", shared.ErrEmptyValue, "date and reason are required")
	}
	if r.dedupe {
		if blocked, _ := r.IsBlocked(day.Date); blocked {
			return shared.ErrBlockedDayExists
		}
	}
	r.days = append(r.days, day)
	return nil
}

// Remove deletes every entry for the date and returns them.
func (r *Registry) Remove(date time.Time) ([]BlockedDay, error) {
	var removed []BlockedDay
	kept := r.days[:0]
	for _, d := range r.days {
		if timeutil.IsSameDay(d.Date, timeutil.DateOf(date)) {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	r.days = kept
	if len(removed) == 0 {
		return nil, shared.ErrBlockedDayNotFound
	}
	return removed, nil
}

// IsBlocked reports whether the date is blocked and the first reason registered for it.
func (r *Registry) IsBlocked(date time.Time) (bool, string) {
	day := timeutil.DateOf(date)
	for _, d := range r.days {
		if timeutil.IsSameDay(d.Date, day) {
			return true, d.Reason
		}
	}
	return false, ""
}

// List returns a copy of all blocked days in insertion order.
func (r *Registry) List() []BlockedDay {
	out := make([]BlockedDay, len(r.days))
	copy(out, r.days)
	return out
}

// InMonth returns the blocked days of a month keyed by day of month.
func (r *Registry) InMonth(year int, month time.Month) map[int]string {
	out := make(map[int]string)
	for _, d := range r.days {
		if d.Date.Year() == year && d.Date.Month() == month {
			if _, ok := out[d.Date.Day()]; !ok {
				out[d.Date.Day()] = d.Reason
			}
		}
	}
	return out
}

// Len returns the number of entries, duplicates included.
func (r *Registry) Len() int { return len(r.days) }

// Store persists blocked days.
type Store interface {
	// AddBlockedDay stores a new entry.
	AddBlockedDay(ctx context.Context, day BlockedDay) error

	// RemoveBlockedDays deletes every entry for the date and returns how many were removed.
	RemoveBlockedDays(ctx context.Context, date time.Time) (int, error)

	// ListBlockedDays returns all entries in insertion order.
	ListBlockedDays(ctx context.Context) ([]BlockedDay, error)
}
