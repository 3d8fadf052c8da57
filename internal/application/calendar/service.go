// Package calendar contains the day-block registry service shared by every session.
package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAY-BLOCK REGISTRY SERVICE
// Keeps the school calendar in memory, writes through to the store and
// publishes calendar events. Diary and attendance consult IsBlocked.
// ══════════════════════════════════════════════════════════════════════════════

// Config controls open calendar policies.
type Config struct {
	// RemovalEnabled persists removal; when false Remove is rejected.
	RemovalEnabled bool

	// Dedupe rejects a second block for an already blocked date.
	Dedupe bool
}

// DefaultConfig returns removal on, duplicates allowed.
func DefaultConfig() Config {
	return Config{RemovalEnabled: true}
}

// Service is safe for concurrent use.
type Service struct {
	store     domain.Store
	publisher shared.EventPublisher
	cfg       Config
	log       *logger.Logger

	// writeMu serializes writers across the store round trip; mu guards
	// the registry and is never held during store calls.
	writeMu  sync.Mutex
	mu       sync.RWMutex
	registry *domain.Registry
}

// NewService creates the service. Call Load before serving requests.
func NewService(store domain.Store, publisher shared.EventPublisher, cfg Config, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With(logger.Component("calendar")),
		registry:  domain.NewRegistry(domain.WithDedupe(cfg.Dedupe)),
	}
}

// Load reads every blocked day from the store.
func (s *Service) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	days, err := s.store.ListBlockedDays(ctx)
	if err != nil {
		return shared.ProviderFailure("calendar", "Load", err)
	}
	s.mu.Lock()
	s.registry.Load(days)
	s.mu.Unlock()
	s.log.Info("calendar loaded", logger.Int("blocked_days", len(days)))
	return nil
}

// Add blocks a date. Both date and reason are required.
func (s *Service) Add(ctx context.Context, date time.Time, reason string) (domain.BlockedDay, error) {
	day, err := domain.NewBlockedDay(uuid.NewString(), date, reason)
	if err != nil {
		return domain.BlockedDay{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.cfg.Dedupe {
		if blocked, _ := s.IsBlocked(day.Date); blocked {
			return domain.BlockedDay{}, shared.ErrBlockedDayExists
		}
	}
	if err := s.store.AddBlockedDay(ctx, day); err != nil {
		return domain.BlockedDay{}, shared.ProviderFailure("calendar", "Add", err)
	}

	s.mu.Lock()
	err = s.registry.Add(day)
	s.mu.Unlock()
	if err != nil {
		return domain.BlockedDay{}, err
	}

	s.publish(shared.NewBlockedDayAddedEvent(day.ID, day.Date, day.Reason))
	s.log.Info("day blocked", logger.LessonDate(timeutil.FormatDateStr(day.Date)), logger.String("reason", day.Reason))
	return day, nil
}

// Remove deletes every block for the date and returns how many were removed.
func (s *Service) Remove(ctx context.Context, date time.Time) (int, error) {
	if !s.cfg.RemovalEnabled {
		return 0, shared.ErrRemovalDisabled
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if blocked, _ := s.IsBlocked(date); !blocked {
		return 0, shared.ErrBlockedDayNotFound
	}
	if _, err := s.store.RemoveBlockedDays(ctx, date); err != nil {
		return 0, shared.ProviderFailure("calendar", "Remove", err)
	}

	s.mu.Lock()
	removed, err := s.registry.Remove(date)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.publish(shared.NewBlockedDayRemovedEvent(timeutil.DateOf(date), len(removed)))
	s.log.Info("day unblocked", logger.LessonDate(timeutil.FormatDateStr(date)), logger.Int("removed", len(removed)))
	return len(removed), nil
}

// List returns blocked days in insertion order.
func (s *Service) List() []domain.BlockedDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.List()
}

// IsBlocked reports whether the date is blocked and why.
func (s *Service) IsBlocked(date time.Time) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.IsBlocked(date)
}

// InMonth returns the blocked days of a month keyed by day of month.
func (s *Service) InMonth(year int, month time.Month) map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.InMonth(year, month)
}

func (s *Service) publish(ev shared.Event) {
	if err := s.publisher.Publish(ev); err != nil {
		s.log.Warn("failed to publish event", logger.String("event", string(ev.EventType())), logger.Err(err))
	}
}
