// Package cascade implements the dependent selection chain
// School → ClassGroup → Subject → Student shared by the diary,
// evaluation and frequency screens.
package cascade

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// Level is a position in the selection chain.
type Level int

const (
	LevelSchool Level = iota
	LevelClassGroup
	LevelSubject
	LevelStudent

	levelCount = 4
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelSchool:
		return "school"
	case LevelClassGroup:
		return "class_group"
	case LevelSubject:
		return "subject"
	case LevelStudent:
		return "student"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	for l := LevelSchool; l <= LevelStudent; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, shared.NewDomainError("cascade", "ParseLevel", shared.ErrInvalidInput, "unknown level "+s)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTROLLER
// ══════════════════════════════════════════════════════════════════════════════

// Controller holds one session's selection chain and the collections loaded for it.
//
// Fetches run outside the lock. Every fetch captures the generation of the level
// that triggered it; when it resolves, the result is applied only if that
// generation is still current, otherwise it is discarded and the caller gets
// ErrSuperseded.
type Controller struct {
	dir      academic.Directory
	depth    Level
	rosterOn Level
	log      *logger.Logger

	mu          sync.Mutex
	sel         [levelCount]shared.ID
	gen         [levelCount]uint64
	rootGen     uint64
	schools     []academic.School
	classGroups []academic.ClassGroup
	subjects    []academic.Subject
	roster      []academic.Student
	classGroup  *academic.ClassGroup
	loading     Loading
	rosterVer   uint64
	hydrating   bool
	err         error
	errLevel    Level
}

// Option configures a Controller.
type Option func(*Controller)

// WithDepth sets the deepest selectable level. Defaults to LevelSubject.
func WithDepth(l Level) Option {
	return func(c *Controller) { c.depth = l }
}

// WithRosterOn sets the level whose selection loads the student roster.
// The diary and the frequency sheet load it with the class group; the
// evaluation screen loads it once the subject is chosen.
func WithRosterOn(l Level) Option {
	return func(c *Controller) { c.rosterOn = l }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller over a directory.
func New(dir academic.Directory, opts ...Option) *Controller {
	c := &Controller{
		dir:      dir,
		depth:    LevelSubject,
		rosterOn: LevelClassGroup,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rosterOn > c.depth {
		c.rosterOn = c.depth
	}
	c.log = c.log.With(logger.Component("cascade"))
	return c
}

// Depth returns the deepest selectable level.
func (c *Controller) Depth() Level { return c.depth }

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// Load fetches the school list, the root of the chain.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.rootGen++
	token := c.rootGen
	c.loading.Schools = true
	c.mu.Unlock()

	schools, err := c.dir.ListSchools(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.rootGen {
		return superseded("Load")
	}
	c.loading.Schools = false
	if err != nil {
		return c.fail(LevelSchool, "Load", err)
	}
	c.schools = nonNil(schools)
	c.clearErr()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Select
// ─────────────────────────────────────────────────────────────────────────────

// Select sets the value at level, clears every deeper level together with the
// collections it owns, and loads the options for the next level. A zero id
// deselects the level.
//
// Select fails with ErrInvalidOperation when an ancestor level is unselected,
// the level is beyond the chain, options for the level are not loaded yet, or a
// deep-link hydration is still running. It fails with ErrNotFound when id is
// not among the loaded options, and with ErrSuperseded when a newer selection
// replaced this one before its fetch resolved.
func (c *Controller) Select(ctx context.Context, level Level, id shared.ID) error {
	c.mu.Lock()
	if err := c.checkSelect(level, id); err != nil {
		c.mu.Unlock()
		c.log.Debug("selection rejected", logger.String("level", level.String()),
			logger.Int64("id", id.Int64()), logger.Err(err))
		return err
	}

	c.assign(level, id)
	c.clearErr()
	token := c.gen[level]
	plan := c.planFetch(level, id)
	c.mu.Unlock()

	if plan.empty() {
		return nil
	}

	res, err := c.run(ctx, plan)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.gen[level] {
		c.log.Debug("stale fetch discarded", logger.String("level", level.String()),
			logger.Int64("id", id.Int64()))
		return superseded("Select")
	}
	c.applyFetch(plan, res, err)
	if err != nil {
		return c.fail(level, "Select", err)
	}
	return nil
}

func (c *Controller) checkSelect(level Level, id shared.ID) error {
	if level < LevelSchool || level > c.depth {
		return shared.InvalidOperation("cascade", "Select", fmt.Sprintf("level %s is not part of this chain", level))
	}
	if c.hydrating {
		return shared.WrapError("cascade", "Select", shared.ErrInvalidOperation, "deep link hydration in progress", shared.ErrBusy)
	}
	for l := LevelSchool; l < level; l++ {
		if !c.sel[l].IsValid() {
			return shared.InvalidOperation("cascade", "Select", fmt.Sprintf("%s must be selected before %s", l, level))
		}
	}
	if id == 0 {
		return nil
	}
	if !id.IsValid() {
		return shared.NewDomainError("cascade", "Select", shared.ErrInvalidID, "invalid id")
	}

	var found, loaded bool
	switch level {
	case LevelSchool:
		loaded = c.schools != nil
		_, found = academic.FindSchool(c.schools, id)
	case LevelClassGroup:
		loaded = c.classGroups != nil
		_, found = academic.FindClassGroup(c.classGroups, id)
	case LevelSubject:
		loaded = c.subjects != nil
		_, found = academic.FindSubject(c.subjects, id)
	case LevelStudent:
		loaded = c.roster != nil
		_, found = academic.FindStudent(c.roster, id)
	}
	if !loaded {
		return shared.InvalidOperation("cascade", "Select", fmt.Sprintf("options for %s are not loaded", level))
	}
	if !found {
		return shared.NewDomainError("cascade", "Select", shared.ErrNotFound, fmt.Sprintf("%s %d is not among the options", level, id))
	}
	return nil
}

// assign sets the level and invalidates it and every deeper level.
func (c *Controller) assign(level Level, id shared.ID) {
	c.sel[level] = id
	for l := level; l < levelCount; l++ {
		c.gen[l]++
		if l > level {
			c.sel[l] = 0
		}
	}
	c.dropOwned(level)

	if level == LevelClassGroup && id.IsValid() {
		cg, _ := academic.FindClassGroup(c.classGroups, id)
		c.classGroup = &cg
	}
}

// dropOwned clears the collections derived from level and deeper levels.
func (c *Controller) dropOwned(level Level) {
	if level <= LevelSchool {
		c.classGroups = nil
		c.loading.ClassGroups = false
	}
	if level <= LevelClassGroup {
		c.subjects = nil
		c.classGroup = nil
		c.loading.Subjects = false
	}
	if level <= c.rosterOn && c.roster != nil {
		c.roster = nil
		c.rosterVer++
	}
	if level <= c.rosterOn {
		c.loading.Roster = false
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fetch plan
// ─────────────────────────────────────────────────────────────────────────────

type fetchPlan struct {
	classGroupsFor shared.ID
	subjectsFor    academic.EducationLevel
	rosterFor      shared.ID
}

func (p fetchPlan) empty() bool {
	return !p.classGroupsFor.IsValid() && p.subjectsFor == "" && !p.rosterFor.IsValid()
}

type fetchResult struct {
	classGroups []academic.ClassGroup
	subjects    []academic.Subject
	roster      []academic.Student
}

// planFetch decides what selecting id at level must load and marks it loading.
func (c *Controller) planFetch(level Level, id shared.ID) fetchPlan {
	var p fetchPlan
	if !id.IsValid() {
		return p
	}
	if level == LevelSchool && c.depth > LevelSchool {
		p.classGroupsFor = id
	}
	if level == LevelClassGroup && c.depth > LevelClassGroup && c.classGroup != nil {
		p.subjectsFor = c.classGroup.EducationLevel
	}
	if level == c.rosterOn && level >= LevelClassGroup {
		p.rosterFor = c.sel[LevelClassGroup]
	}
	c.loading.ClassGroups = c.loading.ClassGroups || p.classGroupsFor.IsValid()
	c.loading.Subjects = c.loading.Subjects || p.subjectsFor != ""
	c.loading.Roster = c.loading.Roster || p.rosterFor.IsValid()
	return p
}

func (c *Controller) run(ctx context.Context, p fetchPlan) (fetchResult, error) {
	var res fetchResult
	g, gctx := errgroup.WithContext(ctx)
	if p.classGroupsFor.IsValid() {
		g.Go(func() error {
			groups, err := c.dir.ListClassGroups(gctx, p.classGroupsFor)
			res.classGroups = groups
			return err
		})
	}
	if p.subjectsFor != "" {
		g.Go(func() error {
			subjects, err := c.dir.ListSubjects(gctx, p.subjectsFor)
			res.subjects = subjects
			return err
		})
	}
	if p.rosterFor.IsValid() {
		g.Go(func() error {
			roster, err := c.dir.ListStudents(gctx, p.rosterFor)
			res.roster = roster
			return err
		})
	}
	err := g.Wait()
	return res, err
}

// applyFetch stores fetched collections and clears loading flags. On error
// nothing is stored so no level stays half loaded.
func (c *Controller) applyFetch(p fetchPlan, res fetchResult, err error) {
	if p.classGroupsFor.IsValid() {
		c.loading.ClassGroups = false
		if err == nil {
			c.classGroups = nonNil(res.classGroups)
		}
	}
	if p.subjectsFor != "" {
		c.loading.Subjects = false
		if err == nil {
			c.subjects = nonNil(res.subjects)
		}
	}
	if p.rosterFor.IsValid() {
		c.loading.Roster = false
		if err == nil {
			c.roster = nonNil(res.roster)
			c.rosterVer++
		}
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Errors
// ─────────────────────────────────────────────────────────────────────────────

func (c *Controller) fail(level Level, op string, err error) error {
	wrapped := shared.ProviderFailure("cascade", op, err)
	c.err = wrapped
	c.errLevel = level
	c.log.Warn("data provider request failed", logger.Operation(op),
		logger.String("level", level.String()), logger.Err(err))
	return wrapped
}

func (c *Controller) clearErr() {
	c.err = nil
	c.errLevel = 0
}

func superseded(op string) error {
	return shared.NewDomainError("cascade", op, shared.ErrSuperseded, "selection changed before the response arrived")
}
