// Package workspace keeps the per-session state of the application: the
// session context and one instance of every screen workflow.
package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seduc-pe/academic-hub/internal/application/diary"
	"github.com/seduc-pe/academic-hub/internal/application/evaluation"
	"github.com/seduc-pe/academic-hub/internal/application/frequency"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	diarydomain "github.com/seduc-pe/academic-hub/internal/domain/diary"
	evaldomain "github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/session"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// Calendar is the shared day-block registry as seen by the screens.
type Calendar interface {
	IsBlocked(date time.Time) (bool, string)
	InMonth(year int, month time.Month) map[int]string
}

// Policy resolves per-session toggles. Nil funcs fall back to the defaults
// documented on each field.
type Policy struct {
	// EnforceBlockedDays defaults to true.
	EnforceBlockedDays func(sessionID, profile string) bool
	// LoadSavedAttendance defaults to false.
	LoadSavedAttendance func(sessionID, profile string) bool
}

// Deps holds everything a workspace needs.
type Deps struct {
	Directory   academic.Directory
	Lessons     diarydomain.Store
	Evaluations evaldomain.Store
	Attendance  attendance.Store
	Calendar    Calendar
	Publisher   shared.EventPublisher
	Logger      *logger.Logger
	Policy      Policy
	Today       func() time.Time
}

// Workspace is the state of one session.
type Workspace struct {
	Session    *session.Session
	Diary      *diary.Workflow
	Evaluation *evaluation.Builder
	Frequency  *frequency.Sheet

	publisher shared.EventPublisher
	log       *logger.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

func newWorkspace(id string, profile session.Profile, d Deps) *Workspace {
	sess := session.New(id, profile)
	log := d.Logger.With(logger.SessionID(id))

	enforce := func() bool {
		if d.Policy.EnforceBlockedDays == nil {
			return true
		}
		return d.Policy.EnforceBlockedDays(id, sess.Profile().Key)
	}
	loadSaved := func() bool {
		if d.Policy.LoadSavedAttendance == nil {
			return false
		}
		return d.Policy.LoadSavedAttendance(id, sess.Profile().Key)
	}

	return &Workspace{
		Session: sess,
		Diary: diary.New(diary.Deps{
			Directory:          d.Directory,
			Store:              d.Lessons,
			Calendar:           d.Calendar,
			Publisher:          d.Publisher,
			Logger:             log,
			EnforceBlockedDays: enforce,
			Today:              d.Today,
		}),
		Evaluation: evaluation.New(d.Directory, d.Evaluations, d.Publisher, log),
		Frequency: frequency.New(frequency.Deps{
			Directory:          d.Directory,
			Store:              d.Attendance,
			Calendar:           d.Calendar,
			Publisher:          d.Publisher,
			Logger:             log,
			EnforceBlockedDays: enforce,
			LoadSaved:          loadSaved,
			Today:              d.Today,
		}),
		publisher: d.Publisher,
		log:       log,
	}
}

// ID returns the session id.
func (w *Workspace) ID() string { return w.Session.ID() }

// Require checks that the active profile's menu contains the section.
func (w *Workspace) Require(section string) error {
	p := w.Session.Profile()
	if !session.Allows(p.Role, section) {
		return shared.InvalidOperation("session", "Require", "profile "+p.Key+" has no access to "+section)
	}
	return nil
}

// SwitchProfile changes the active profile and publishes the change.
func (w *Workspace) SwitchProfile(key string) (session.Profile, error) {
	p, err := session.ParseProfile(key)
	if err != nil {
		return session.Profile{}, err
	}
	ev := w.Session.SwitchProfile(p)
	if err := w.publisher.Publish(ev); err != nil {
		w.log.Warn("failed to publish event", logger.String("event", string(ev.EventType())), logger.Err(err))
	}
	return p, nil
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store keeps the workspaces of all live sessions. Safe for concurrent use.
type Store struct {
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]*Workspace
}

// NewStore creates an empty store.
func NewStore(d Deps) *Store {
	if d.Publisher == nil {
		d.Publisher = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Store{
		deps:  d,
		log:   d.Logger.With(logger.Component("workspace")),
		now:   timeutil.Now,
		items: make(map[string]*Workspace),
	}
}

// Create opens a new session with the given profile.
func (s *Store) Create(profile session.Profile) *Workspace {
	id := uuid.NewString()
	ws := newWorkspace(id, profile, s.deps)
	ws.touch(s.now())

	s.mu.Lock()
	s.items[id] = ws
	s.mu.Unlock()

	s.log.Info("session opened", logger.SessionID(id), logger.Profile(profile.Key))
	return ws
}

// Get returns a live workspace and marks it as used.
func (s *Store) Get(id string) (*Workspace, error) {
	s.mu.RLock()
	ws, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	ws.touch(s.now())
	return ws, nil
}

// Delete closes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(s.items, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many were closed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ws := range s.items {
		if ws.idleSince().Before(cutoff) {
			delete(s.items, id)
			n++
		}
	}
	if n > 0 {
		s.log.Info("idle sessions closed", logger.Int("count", n))
	}
	return n
}
