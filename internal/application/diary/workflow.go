// Package diary implements the class-diary screen: the School → ClassGroup →
// Subject cascade, the lesson plan fields of the class group's level and the
// daily roll call, submitted together as one payload.
package diary

import (
	"context"
	"sync"
	"time"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	domain "github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// Calendar answers whether a date is blocked.
type Calendar interface {
	IsBlocked(date time.Time) (bool, string)
}

// Deps holds the collaborators of a Workflow.
type Deps struct {
	Directory academic.Directory
	Store     domain.Store
	Calendar  Calendar
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// EnforceBlockedDays is consulted on every sync and submit. Nil means enforced.
	EnforceBlockedDays func() bool

	// Today supplies the initial lesson date. Nil means timeutil.Today.
	Today func() time.Time
}

// Workflow is one session's class diary. Safe for concurrent use.
type Workflow struct {
	cascade   *cascade.Controller
	store     domain.Store
	calendar  Calendar
	publisher shared.EventPublisher
	enforce   func() bool
	log       *logger.Logger

	mu       sync.Mutex
	date     time.Time
	draft    *domain.Draft
	draftFor uint64
	register *attendance.Register
	regKey   registerKey
}

type registerKey struct {
	roster  uint64
	date    time.Time
	blocked bool
}

// New creates a diary workflow with today's date.
func New(d Deps) *Workflow {
	if d.Publisher == nil {
		d.Publisher = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.EnforceBlockedDays == nil {
		d.EnforceBlockedDays = func() bool { return true }
	}
	if d.Today == nil {
		d.Today = timeutil.Today
	}
	log := d.Logger.With(logger.Component("diary"))
	return &Workflow{
		cascade: cascade.New(d.Directory,
			cascade.WithDepth(cascade.LevelSubject),
			cascade.WithRosterOn(cascade.LevelClassGroup),
			cascade.WithLogger(log)),
		store:     d.Store,
		calendar:  d.Calendar,
		publisher: d.Publisher,
		enforce:   d.EnforceBlockedDays,
		log:       log,
		date:      timeutil.DateOf(d.Today()),
	}
}

// Cascade exposes the selection chain.
func (w *Workflow) Cascade() *cascade.Controller { return w.cascade }

// Load fetches the school list.
func (w *Workflow) Load(ctx context.Context) error {
	return w.cascade.Load(ctx)
}

// Select forwards a selection to the cascade.
func (w *Workflow) Select(ctx context.Context, level cascade.Level, id shared.ID) error {
	return w.cascade.Select(ctx, level, id)
}

// Hydrate opens the diary directly on a class group.
func (w *Workflow) Hydrate(ctx context.Context, classGroupID shared.ID) error {
	return w.cascade.Hydrate(ctx, classGroupID)
}

// SetDate changes the lesson date; the roll call restarts with everyone present.
func (w *Workflow) SetDate(date time.Time) error {
	if date.IsZero() {
		return shared.NewDomainError("diary", "SetDate", shared.ErrEmptyValue, "lesson date is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.date = timeutil.DateOf(date)
	return nil
}

// SetField updates a lesson plan field of the active level.
func (w *Workflow) SetField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sync()
	if w.draft == nil {
		return w.reject("SetField", shared.InvalidOperation("diary", "SetField", "select a class group first"))
	}
	return w.reject("SetField", w.draft.SetField(name, value))
}

// Cycle advances a student's status: Present → Absent → Justified → Present.
func (w *Workflow) Cycle(studentID shared.ID) (attendance.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	reg, err := w.activeRegister("Cycle")
	if err != nil {
		return attendance.Entry{}, err
	}
	e, err := reg.Cycle(studentID)
	return e, w.reject("Cycle", err)
}

// SetStatus sets a student's status explicitly.
func (w *Workflow) SetStatus(studentID shared.ID, status attendance.Status) (attendance.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	reg, err := w.activeRegister("SetStatus")
	if err != nil {
		return attendance.Entry{}, err
	}
	e, err := reg.SetStatus(studentID, status)
	return e, w.reject("SetStatus", err)
}

// SetJustification stores the reason of a justified absence.
func (w *Workflow) SetJustification(studentID shared.ID, text string) (attendance.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	reg, err := w.activeRegister("SetJustification")
	if err != nil {
		return attendance.Entry{}, err
	}
	e, err := reg.SetJustification(studentID, text)
	return e, w.reject("SetJustification", err)
}

func (w *Workflow) activeRegister(op string) (*attendance.Register, error) {
	w.sync()
	if w.register == nil {
		return nil, w.reject(op, shared.InvalidOperation("diary", op, "roster is not loaded"))
	}
	return w.register, nil
}

// reject logs refused operations at debug level and passes the error through.
func (w *Workflow) reject(op string, err error) error {
	if err != nil && (shared.IsInvalidOperation(err) || shared.IsValidation(err)) {
		w.log.Debug("operation rejected", logger.Operation(op), logger.Err(err))
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Sync with the cascade
// ─────────────────────────────────────────────────────────────────────────────

// sync rebuilds the draft when the class group changes and the register when
// the roster, the date or the date's blocked status changes. Caller holds w.mu.
func (w *Workflow) sync() cascade.Snapshot {
	snap := w.cascade.Snapshot()

	if snap.ClassGroup == nil {
		w.draft, w.register = nil, nil
		return snap
	}

	token := snap.Tokens[cascade.LevelClassGroup]
	if w.draft == nil || w.draftFor != token {
		w.draft, _ = domain.NewDraft(snap.ClassGroup.EducationLevel)
		w.draftFor = token
	}

	if snap.Roster == nil {
		w.register = nil
		return snap
	}
	blocked, reason := w.blocked(w.date)
	key := registerKey{roster: snap.RosterVersion, date: w.date, blocked: blocked}
	if w.register == nil || w.regKey != key {
		var opts []attendance.RegisterOption
		if blocked {
			opts = append(opts, attendance.WithBlockedDay(reason))
		}
		w.register = attendance.NewRegister(snap.ClassGroupID, w.date, snap.Roster, opts...)
		w.regKey = key
	}
	return snap
}

func (w *Workflow) blocked(date time.Time) (bool, string) {
	if w.calendar == nil || !w.enforce() {
		return false, ""
	}
	return w.calendar.IsBlocked(date)
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit
// ─────────────────────────────────────────────────────────────────────────────

// Submit sends the lesson plan and roll call as one payload. Missing
// selections are rejected before the provider is called. On success the
// fields and the roll call return to their defaults.
func (w *Workflow) Submit(ctx context.Context) (shared.SaveResult, error) {
	w.mu.Lock()
	snap := w.sync()
	plan, err := w.buildPlan(snap)
	w.mu.Unlock()
	if err != nil {
		return shared.SaveResult{}, w.reject("Submit", err)
	}

	log := w.log.With(logger.ClassGroupID(plan.ClassGroupID.Int64()), logger.SubjectID(plan.SubjectID.Int64()),
		logger.LessonDate(timeutil.FormatDateStr(plan.Date)))

	res, err := w.store.SaveLessonPlan(ctx, plan)
	if err != nil {
		log.Warn("lesson plan save failed", logger.Err(err))
		return shared.SaveResult{}, shared.ProviderFailure("diary", "Submit", err)
	}
	if !res.Success {
		return res, shared.NewDomainError("diary", "Submit", shared.ErrProviderFailure, "provider rejected the lesson plan: "+res.Message)
	}

	w.mu.Lock()
	if w.cascade.Snapshot().Tokens[cascade.LevelClassGroup] == w.draftFor {
		w.draft.Reset()
		if w.register != nil {
			w.register.Reset()
		}
	}
	w.mu.Unlock()

	if err := w.publisher.Publish(shared.NewLessonPlanSavedEvent(plan.ClassGroupID, plan.SubjectID, plan.Date, plan.Absences(), res.ReceiptID)); err != nil {
		log.Warn("failed to publish event", logger.Err(err))
	}
	log.Info("lesson plan saved", logger.String("receipt_id", res.ReceiptID), logger.Int("absences", plan.Absences()))
	return res, nil
}

func (w *Workflow) buildPlan(snap cascade.Snapshot) (domain.LessonPlan, error) {
	switch {
	case !snap.SchoolID.IsValid():
		return domain.LessonPlan{}, shared.MissingContext("diary", "Submit", "select a school")
	case snap.ClassGroup == nil:
		return domain.LessonPlan{}, shared.MissingContext("diary", "Submit", "select a class group")
	case !snap.SubjectID.IsValid():
		return domain.LessonPlan{}, shared.MissingContext("diary", "Submit", "select a subject")
	case w.register == nil:
		return domain.LessonPlan{}, shared.MissingContext("diary", "Submit", "roster is not loaded")
	}
	if timeutil.IsWeekend(w.date) {
		return domain.LessonPlan{}, shared.InvalidOperation("diary", "Submit", "no class on weekends")
	}
	if blocked, reason := w.blocked(w.date); blocked {
		return domain.LessonPlan{}, shared.InvalidOperation("diary", "Submit", "date is blocked: "+reason)
	}

	plan := domain.LessonPlan{
		ClassGroupID:   snap.ClassGroupID,
		SubjectID:      snap.SubjectID,
		Date:           w.date,
		EducationLevel: snap.ClassGroup.EducationLevel,
		Content:        w.draft.Content(),
		Fields:         w.draft.Fields(),
		Attendance:     w.register.Entries(),
	}
	return plan, plan.Validate()
}

// ─────────────────────────────────────────────────────────────────────────────
// View
// ─────────────────────────────────────────────────────────────────────────────

// Row is one line of the roll call.
type Row struct {
	attendance.Entry
	Name string `json:"name"`
}

// View is what the diary screen renders.
type View struct {
	Cascade     cascade.Snapshot   `json:"cascade"`
	Date        string             `json:"date"`
	Weekend     bool               `json:"weekend"`
	Blocked     bool               `json:"blocked"`
	BlockReason string             `json:"block_reason,omitempty"`
	ReadOnly    bool               `json:"read_only"`
	Content     string             `json:"content"`
	Fields      domain.Fields      `json:"fields,omitempty"`
	Rows        []Row              `json:"rows"`
	Summary     attendance.Summary `json:"summary"`
}

// View returns the current screen state.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.sync()

	v := View{
		Cascade: snap,
		Date:    timeutil.FormatDateStr(w.date),
		Weekend: timeutil.IsWeekend(w.date),
		Rows:    []Row{},
	}
	v.Blocked, v.BlockReason = w.blocked(w.date)
	v.ReadOnly = v.Weekend || v.Blocked
	if w.draft != nil {
		v.Content = w.draft.Content()
		v.Fields = w.draft.Fields()
	}
	if w.register != nil {
		for _, e := range w.register.Entries() {
			v.Rows = append(v.Rows, Row{Entry: e, Name: w.register.StudentName(e.StudentID)})
		}
		v.Summary = w.register.Summary()
	}
	return v
}
