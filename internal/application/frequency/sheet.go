// Package frequency implements the monthly frequency sheet: the
// School → ClassGroup cascade over a month grid of attendance marks.
package frequency

import (
	"context"
	"sync"
	"time"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// Calendar lists the blocked days of a month by day of month.
type Calendar interface {
	InMonth(year int, month time.Month) map[int]string
}

// Deps holds the collaborators of a Sheet.
type Deps struct {
	Directory academic.Directory
	Store     attendance.Store
	Calendar  Calendar
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// EnforceBlockedDays makes blocked days read-only. Nil means enforced.
	EnforceBlockedDays func() bool
	// LoadSaved fills the grid with attendance already stored for the month. Nil means off.
	LoadSaved func() bool
	// Today supplies the initial month. Nil means timeutil.Today.
	Today func() time.Time
}

// Sheet is one session's frequency sheet. Safe for concurrent use.
type Sheet struct {
	cascade   *cascade.Controller
	store     attendance.Store
	calendar  Calendar
	publisher shared.EventPublisher
	enforce   func() bool
	loadSaved func() bool
	log       *logger.Logger

	mu      sync.Mutex
	month   time.Time
	grid    *attendance.Grid
	gridKey gridKey
}

type gridKey struct {
	roster uint64
	month  time.Time
}

// New creates a sheet for the current month.
func New(d Deps) *Sheet {
	if d.Publisher == nil {
		d.Publisher = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.EnforceBlockedDays == nil {
		d.EnforceBlockedDays = func() bool { return true }
	}
	if d.LoadSaved == nil {
		d.LoadSaved = func() bool { return false }
	}
	if d.Today == nil {
		d.Today = timeutil.Today
	}
	log := d.Logger.With(logger.Component("frequency"))
	return &Sheet{
		cascade: cascade.New(d.Directory,
			cascade.WithDepth(cascade.LevelClassGroup),
			cascade.WithRosterOn(cascade.LevelClassGroup),
			cascade.WithLogger(log)),
		store:     d.Store,
		calendar:  d.Calendar,
		publisher: d.Publisher,
		enforce:   d.EnforceBlockedDays,
		loadSaved: d.LoadSaved,
		log:       log,
		month:     timeutil.StartOfMonth(timeutil.DateOf(d.Today())),
	}
}

// Cascade exposes the selection chain.
func (s *Sheet) Cascade() *cascade.Controller { return s.cascade }

// Load fetches the school list.
func (s *Sheet) Load(ctx context.Context) error {
	return s.cascade.Load(ctx)
}

// Select forwards a selection to the cascade and, once a class group is
// chosen, fills the grid with the month's saved marks.
func (s *Sheet) Select(ctx context.Context, level cascade.Level, id shared.ID) error {
	if err := s.cascade.Select(ctx, level, id); err != nil {
		return err
	}
	return s.refresh(ctx)
}

// Hydrate opens the sheet directly on a class group.
func (s *Sheet) Hydrate(ctx context.Context, classGroupID shared.ID) error {
	if err := s.cascade.Hydrate(ctx, classGroupID); err != nil {
		return err
	}
	return s.refresh(ctx)
}

// SetMonth switches to the month containing date. Unsaved marks are dropped.
func (s *Sheet) SetMonth(ctx context.Context, date time.Time) error {
	if date.IsZero() {
		return shared.NewDomainError("frequency", "SetMonth", shared.ErrEmptyValue, "month is required")
	}
	s.mu.Lock()
	s.month = timeutil.StartOfMonth(timeutil.DateOf(date))
	s.mu.Unlock()
	return s.refresh(ctx)
}

// Cycle advances a cell: blank → Present → Absent → Justified → blank.
func (s *Sheet) Cycle(studentID shared.ID, day int) (attendance.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	if s.grid == nil {
		return attendance.StatusBlank, s.reject("Cycle", shared.InvalidOperation("frequency", "Cycle", "select a class group first"))
	}
	st, err := s.grid.Cycle(studentID, day)
	return st, s.reject("Cycle", err)
}

func (s *Sheet) reject(op string, err error) error {
	if err != nil && (shared.IsInvalidOperation(err) || shared.IsValidation(err)) {
		s.log.Debug("operation rejected", logger.Operation(op), logger.Err(err))
	}
	return err
}

// sync rebuilds the grid when the roster or the month changes and refreshes
// the blocked columns from the calendar. Caller holds s.mu.
func (s *Sheet) sync() cascade.Snapshot {
	snap := s.cascade.Snapshot()
	if snap.ClassGroup == nil || snap.Roster == nil {
		s.grid = nil
		return snap
	}
	key := gridKey{roster: snap.RosterVersion, month: s.month}
	if s.grid == nil || s.gridKey != key {
		s.grid = attendance.NewGrid(snap.ClassGroupID, s.month, snap.Roster)
		s.gridKey = key
	}
	s.grid.SetBlocked(s.blockedReasons())
	return snap
}

func (s *Sheet) enforcing() bool {
	return s.calendar != nil && s.enforce()
}

// refresh loads the month's stored marks into a freshly built grid.
func (s *Sheet) refresh(ctx context.Context) error {
	if !s.loadSaved() {
		return nil
	}
	s.mu.Lock()
	s.sync()
	if s.grid == nil {
		s.mu.Unlock()
		return nil
	}
	key := s.gridKey
	cg := s.grid.ClassGroupID()
	period := shared.DateRange{From: s.month, To: timeutil.DateOf(timeutil.EndOfMonth(s.month))}
	s.mu.Unlock()

	entries, err := s.store.ListAttendance(ctx, cg, period)
	if err != nil {
		s.log.Warn("failed to load saved attendance", logger.ClassGroupID(cg.Int64()), logger.Err(err))
		return shared.ProviderFailure("frequency", "Load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	if s.grid == nil || s.gridKey != key {
		return shared.NewDomainError("frequency", "Load", shared.ErrSuperseded, "selection changed while loading")
	}
	s.grid.Load(entries)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit
// ─────────────────────────────────────────────────────────────────────────────

// SubmitReport describes a grid submission. SkippedDays have marks but are
// blocked in the calendar, so they are not sent.
type SubmitReport struct {
	SavedDays   []int               `json:"saved_days"`
	SkippedDays []int               `json:"skipped_days,omitempty"`
	FailedDay   int                 `json:"failed_day,omitempty"`
	Results     []shared.SaveResult `json:"results"`
}

type dayBatch struct {
	day     int
	date    time.Time
	entries []attendance.Entry
}

// Submit saves every day that has marks, one call per day in day order.
// Blocked days are never sent. It stops at the first failure; the report
// lists the days already saved.
func (s *Sheet) Submit(ctx context.Context) (SubmitReport, error) {
	s.mu.Lock()
	snap := s.sync()
	if snap.ClassGroup == nil || s.grid == nil {
		s.mu.Unlock()
		return SubmitReport{}, s.reject("Submit", shared.MissingContext("frequency", "Submit", "select a class group"))
	}
	cg := snap.ClassGroupID
	report := SubmitReport{SavedDays: []int{}, Results: []shared.SaveResult{}}
	var batches []dayBatch
	for _, day := range s.grid.MarkedDays() {
		if s.grid.ReadOnlyDay(day) {
			report.SkippedDays = append(report.SkippedDays, day)
			continue
		}
		batches = append(batches, dayBatch{day: day, date: s.grid.DateOf(day), entries: s.grid.DayEntries(day)})
	}
	s.mu.Unlock()

	if len(batches) == 0 {
		if len(report.SkippedDays) > 0 {
			return report, s.reject("Submit", shared.InvalidOperation("frequency", "Submit", "every marked day is blocked"))
		}
		return report, s.reject("Submit", shared.InvalidOperation("frequency", "Submit", "no marks to save"))
	}
	if len(report.SkippedDays) > 0 {
		s.log.Debug("blocked days left out of submit",
			logger.ClassGroupID(cg.Int64()), logger.Int("skipped", len(report.SkippedDays)))
	}

	log := s.log.With(logger.ClassGroupID(cg.Int64()))
	for _, b := range batches {
		res, err := s.store.SaveAttendance(ctx, b.date, cg, b.entries)
		if err == nil && !res.Success {
			err = shared.NewDomainError("frequency", "Submit", shared.ErrProviderFailure, "provider rejected the attendance: "+res.Message)
		}
		if err != nil {
			report.FailedDay = b.day
			log.Warn("attendance save failed",
				logger.LessonDate(timeutil.FormatDateStr(b.date)),
				logger.Int("saved_days", len(report.SavedDays)),
				logger.Err(err))
			return report, shared.ProviderFailure("frequency", "Submit", err)
		}
		report.SavedDays = append(report.SavedDays, b.day)
		report.Results = append(report.Results, res)

		absences := attendance.Summarize(b.entries).Absences()
		if err := s.publisher.Publish(shared.NewAttendanceSavedEvent(cg, b.date, len(b.entries), absences)); err != nil {
			log.Warn("failed to publish event", logger.Err(err))
		}
	}
	log.Info("frequency sheet saved", logger.Int("days", len(report.SavedDays)))
	return report, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// View
// ─────────────────────────────────────────────────────────────────────────────

// DayColumn describes one day of the month.
type DayColumn struct {
	Day         int    `json:"day"`
	Weekday     string `json:"weekday"`
	ReadOnly    bool   `json:"read_only"`
	BlockReason string `json:"block_reason,omitempty"`
}

// StudentRow holds one student's marks; Marks[i] is day i+1.
type StudentRow struct {
	StudentID shared.ID           `json:"student_id"`
	Name      string              `json:"name"`
	Marks     []attendance.Status `json:"marks"`
	Summary   attendance.Summary  `json:"summary"`
}

// View is what the frequency sheet renders.
type View struct {
	Cascade cascade.Snapshot `json:"cascade"`
	Year    int              `json:"year"`
	Month   time.Month       `json:"month"`
	Days    []DayColumn      `json:"days"`
	Rows    []StudentRow     `json:"rows"`
}

// View returns the current screen state.
func (s *Sheet) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sync()

	v := View{Cascade: snap, Year: s.month.Year(), Month: s.month.Month(), Days: []DayColumn{}, Rows: []StudentRow{}}
	if s.grid == nil {
		return v
	}
	v.Days, v.Rows = gridView(s.grid, s.blockedReasons())
	return v
}

// blockedReasons returns the month's blocked days when enforced. Caller holds s.mu.
func (s *Sheet) blockedReasons() map[int]string {
	if !s.enforcing() {
		return nil
	}
	return s.calendar.InMonth(s.month.Year(), s.month.Month())
}

func gridView(g *attendance.Grid, blocked map[int]string) ([]DayColumn, []StudentRow) {
	days := make([]DayColumn, 0, g.Days())
	for d := 1; d <= g.Days(); d++ {
		days = append(days, DayColumn{
			Day:         d,
			Weekday:     timeutil.WeekdayNamePt(g.DateOf(d)),
			ReadOnly:    g.ReadOnlyDay(d),
			BlockReason: blocked[d],
		})
	}
	rows := make([]StudentRow, 0, len(g.Students()))
	for _, id := range g.Students() {
		row := StudentRow{StudentID: id, Name: g.StudentName(id), Marks: make([]attendance.Status, g.Days())}
		for d := 1; d <= g.Days(); d++ {
			st := g.Cell(id, d)
			row.Marks[d-1] = st
			row.Summary.Add(st)
		}
		rows = append(rows, row)
	}
	return days, rows
}

// Grid returns a copy of the sheet's marks for export, or nil before a class group is chosen.
func (s *Sheet) Grid() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.sync()
	if s.grid == nil {
		return nil
	}
	days, rows := gridView(s.grid, s.blockedReasons())
	return &Snapshot{ClassGroup: *snap.ClassGroup, Year: s.month.Year(), Month: s.month.Month(), Days: days, Rows: rows}
}

// Snapshot is a detached copy of the grid.
type Snapshot struct {
	ClassGroup academic.ClassGroup
	Year       int
	Month      time.Month
	Days       []DayColumn
	Rows       []StudentRow
}
