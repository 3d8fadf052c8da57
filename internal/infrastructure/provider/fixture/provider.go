// Package fixture is an in-memory Data Provider. Every call waits a simulated
// network latency (cancellable through the context) and saved submissions are
// kept in memory for reports.
package fixture

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// Default simulated latencies.
const (
	DefaultLookupLatency = 800 * time.Millisecond
	DefaultSaveLatency   = 1500 * time.Millisecond
)

// Provider implements every store contract of the domain. Safe for concurrent use.
type Provider struct {
	data          Dataset
	lookupLatency time.Duration
	saveLatency   time.Duration
	now           func() time.Time
	log           *logger.Logger

	mu          sync.RWMutex
	lessons     []diary.LessonPlan
	evaluations []evaluation.Record
	attendance  map[attendanceKey][]attendance.Entry
	blocked     []calendar.BlockedDay
}

type attendanceKey struct {
	classGroupID shared.ID
	date         string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLatency overrides the simulated latencies. Zero disables the wait.
func WithLatency(lookup, save time.Duration) Option {
	return func(p *Provider) {
		p.lookupLatency = lookup
		p.saveLatency = save
	}
}

// WithDataset replaces the default reference data.
func WithDataset(d Dataset) Option {
	return func(p *Provider) { p.data = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// WithClock sets the clock used for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New creates a provider over DefaultDataset.
func New(opts ...Option) *Provider {
	p := &Provider{
		data:          DefaultDataset(),
		lookupLatency: DefaultLookupLatency,
		saveLatency:   DefaultSaveLatency,
		now:           timeutil.Now,
		log:           logger.Nop(),
		attendance:    make(map[attendanceKey][]attendance.Entry),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Component("fixture_provider"))
	return p
}

// Dataset returns the reference data the provider serves.
func (p *Provider) Dataset() Dataset { return p.data }

func (p *Provider) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) saved(msg string) shared.SaveResult {
	return shared.SaveResult{
		Success:   true,
		Message:   msg,
		ReceiptID: uuid.NewString(),
		SavedAt:   p.now(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

func (p *Provider) ListSchools(ctx context.Context) ([]academic.School, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	return append([]academic.School(nil), p.data.Schools...), nil
}

func (p *Provider) ListClassGroups(ctx context.Context, schoolID shared.ID) ([]academic.ClassGroup, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	out := []academic.ClassGroup{}
	for _, g := range p.data.ClassGroups {
		if g.SchoolID == schoolID {
			out = append(out, p.withSchoolName(g))
		}
	}
	return out, nil
}

func (p *Provider) ListSubjects(ctx context.Context, level academic.EducationLevel) ([]academic.Subject, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	out := []academic.Subject{}
	for _, s := range p.data.Subjects {
		if level == "" || s.ApplicableLevel == level {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *Provider) ListStudents(ctx context.Context, classGroupID shared.ID) ([]academic.Student, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	out := []academic.Student{}
	for _, s := range p.data.Students {
		if s.ClassGroupID == classGroupID && s.IsEnrolled() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *Provider) GetClassGroupByID(ctx context.Context, id shared.ID) (academic.ClassGroup, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return academic.ClassGroup{}, err
	}
	g, ok := academic.FindClassGroup(p.data.ClassGroups, id)
	if !ok {
		return academic.ClassGroup{}, shared.ErrClassGroupNotFound
	}
	return p.withSchoolName(g), nil
}

func (p *Provider) withSchoolName(g academic.ClassGroup) academic.ClassGroup {
	if s, ok := academic.FindSchool(p.data.Schools, g.SchoolID); ok {
		g.SchoolName = s.Name
	}
	return g
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF
// ══════════════════════════════════════════════════════════════════════════════

func (p *Provider) ListTeachers(ctx context.Context) ([]academic.Teacher, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	return append([]academic.Teacher(nil), p.data.Teachers...), nil
}

func (p *Provider) ListTeacherAllocations(ctx context.Context, teacherID shared.ID) ([]academic.Allocation, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	schools, ok := p.data.Allocations[teacherID]
	if !ok {
		return nil, shared.NewDomainError("fixture", "ListTeacherAllocations", shared.ErrNotFound,
			fmt.Sprintf("teacher %d not found", teacherID))
	}
	out := []academic.Allocation{}
	for _, sid := range schools {
		for _, g := range p.data.ClassGroups {
			if g.SchoolID != sid || !g.Active {
				continue
			}
			out = append(out, academic.Allocation{ClassGroup: p.withSchoolName(g), SubjectName: g.EducationLevel.Label()})
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

// SaveLessonPlan stores the plan and the roll call it carries.
func (p *Provider) SaveLessonPlan(ctx context.Context, plan diary.LessonPlan) (shared.SaveResult, error) {
	if err := p.wait(ctx, p.saveLatency); err != nil {
		return shared.SaveResult{}, err
	}
	p.mu.Lock()
	p.lessons = append(p.lessons, plan)
	if len(plan.Attendance) > 0 {
		p.putAttendance(plan.ClassGroupID, plan.Date, plan.Attendance)
	}
	p.mu.Unlock()

	p.log.Debug("lesson plan stored",
		logger.ClassGroupID(plan.ClassGroupID.Int64()),
		logger.LessonDate(timeutil.FormatDateStr(plan.Date)))
	return p.saved(shared.MessageLessonPlanSaved), nil
}

func (p *Provider) ListLessons(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]diary.LessonSummary, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := []diary.LessonSummary{}
	for _, l := range p.lessons {
		if l.ClassGroupID == classGroupID && period.Contains(l.Date) {
			out = append(out, diary.LessonSummary{ClassGroupID: l.ClassGroupID, SubjectID: l.SubjectID, Date: l.Date, Content: l.Content})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *Provider) SaveEvaluation(ctx context.Context, record evaluation.Record) (shared.SaveResult, error) {
	if err := p.wait(ctx, p.saveLatency); err != nil {
		return shared.SaveResult{}, err
	}
	p.mu.Lock()
	p.evaluations = append(p.evaluations, record)
	p.mu.Unlock()

	p.log.Debug("evaluation stored", logger.StudentID(record.StudentID.Int64()), logger.SubjectID(record.SubjectID.Int64()))
	return p.saved(shared.MessageEvaluationSaved), nil
}

func (p *Provider) SaveAttendance(ctx context.Context, date time.Time, classGroupID shared.ID, entries []attendance.Entry) (shared.SaveResult, error) {
	if err := p.wait(ctx, p.saveLatency); err != nil {
		return shared.SaveResult{}, err
	}
	p.mu.Lock()
	p.putAttendance(classGroupID, date, entries)
	p.mu.Unlock()
	return p.saved(shared.MessageAttendanceSaved), nil
}

// putAttendance replaces the entries of a class group for a date. Caller holds p.mu.
func (p *Provider) putAttendance(classGroupID shared.ID, date time.Time, entries []attendance.Entry) {
	day := timeutil.DateOf(date)
	cp := make([]attendance.Entry, len(entries))
	for i, e := range entries {
		e.Date = day
		cp[i] = e
	}
	p.attendance[attendanceKey{classGroupID: classGroupID, date: timeutil.FormatDateStr(day)}] = cp
}

func (p *Provider) ListAttendance(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]attendance.Entry, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := []attendance.Entry{}
	for key, entries := range p.attendance {
		if key.classGroupID != classGroupID {
			continue
		}
		for _, e := range entries {
			if period.Contains(e.Date) {
				out = append(out, e)
			}
		}
	}
	attendance.SortByDate(out)
	return out, nil
}

// LessonPlans returns every stored lesson plan in save order.
func (p *Provider) LessonPlans() []diary.LessonPlan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]diary.LessonPlan(nil), p.lessons...)
}

// Evaluations returns every stored evaluation in save order.
func (p *Provider) Evaluations() []evaluation.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]evaluation.Record(nil), p.evaluations...)
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

func (p *Provider) AddBlockedDay(ctx context.Context, day calendar.BlockedDay) error {
	if err := p.wait(ctx, p.saveLatency); err != nil {
		return err
	}
	p.mu.Lock()
	p.blocked = append(p.blocked, day)
	p.mu.Unlock()
	return nil
}

func (p *Provider) RemoveBlockedDays(ctx context.Context, date time.Time) (int, error) {
	if err := p.wait(ctx, p.saveLatency); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.blocked[:0]
	removed := 0
	for _, d := range p.blocked {
		if timeutil.IsSameDay(d.Date, date) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	p.blocked = kept
	return removed, nil
}

func (p *Provider) ListBlockedDays(ctx context.Context) ([]calendar.BlockedDay, error) {
	if err := p.wait(ctx, p.lookupLatency); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]calendar.BlockedDay(nil), p.blocked...), nil
}

// Compile-time interface checks.
var (
	_ academic.Directory      = (*Provider)(nil)
	_ academic.StaffDirectory = (*Provider)(nil)
	_ diary.Store             = (*Provider)(nil)
	_ evaluation.Store        = (*Provider)(nil)
	_ attendance.Store        = (*Provider)(nil)
	_ calendar.Store          = (*Provider)(nil)
)
