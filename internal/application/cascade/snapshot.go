package cascade

import (
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Loading reports which collections have a fetch in flight.
type Loading struct {
	Schools     bool `json:"schools"`
	ClassGroups bool `json:"class_groups"`
	Subjects    bool `json:"subjects"`
	Roster      bool `json:"roster"`
}

// Any reports whether anything is loading.
func (l Loading) Any() bool {
	return l.Schools || l.ClassGroups || l.Subjects || l.Roster
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Depth        Level                 `json:"-"`
	SchoolID     shared.ID             `json:"school_id,omitempty"`
	ClassGroupID shared.ID             `json:"class_group_id,omitempty"`
	SubjectID    shared.ID             `json:"subject_id,omitempty"`
	StudentID    shared.ID             `json:"student_id,omitempty"`
	ClassGroup   *academic.ClassGroup  `json:"class_group,omitempty"`
	Schools      []academic.School     `json:"schools"`
	ClassGroups  []academic.ClassGroup `json:"class_groups"`
	Subjects     []academic.Subject    `json:"subjects"`
	Roster       []academic.Student    `json:"roster"`
	Loading      Loading               `json:"loading"`
	Hydrating    bool                  `json:"hydrating"`
	Error        string                `json:"error,omitempty"`
	ErrorLevel   string                `json:"error_level,omitempty"`

	// RosterVersion changes every time the roster is loaded or dropped.
	RosterVersion uint64 `json:"-"`
	// Tokens holds the generation of each level; a token changes whenever
	// the level or one of its ancestors is selected again.
	Tokens [levelCount]uint64 `json:"-"`
	Err    error              `json:"-"`
}

// Selected returns the id selected at level, or zero.
func (s Snapshot) Selected(level Level) shared.ID {
	switch level {
	case LevelSchool:
		return s.SchoolID
	case LevelClassGroup:
		return s.ClassGroupID
	case LevelSubject:
		return s.SubjectID
	case LevelStudent:
		return s.StudentID
	default:
		return 0
	}
}

// Enabled reports whether the selector for level accepts input: every
// ancestor is selected and no hydration is running.
func (s Snapshot) Enabled(level Level) bool {
	if s.Hydrating || level > s.Depth {
		return false
	}
	for l := LevelSchool; l < level; l++ {
		if !s.Selected(l).IsValid() {
			return false
		}
	}
	return true
}

// Student returns the selected student from the roster.
func (s Snapshot) Student() (academic.Student, bool) {
	if !s.StudentID.IsValid() {
		return academic.Student{}, false
	}
	return academic.FindStudent(s.Roster, s.StudentID)
}

// Subject returns the selected subject.
func (s Snapshot) Subject() (academic.Subject, bool) {
	if !s.SubjectID.IsValid() {
		return academic.Subject{}, false
	}
	return academic.FindSubject(s.Subjects, s.SubjectID)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Depth:         c.depth,
		SchoolID:      c.sel[LevelSchool],
		ClassGroupID:  c.sel[LevelClassGroup],
		SubjectID:     c.sel[LevelSubject],
		StudentID:     c.sel[LevelStudent],
		Schools:       cloneSlice(c.schools),
		ClassGroups:   cloneSlice(c.classGroups),
		Subjects:      cloneSlice(c.subjects),
		Roster:        cloneSlice(c.roster),
		Loading:       c.loading,
		Hydrating:     c.hydrating,
		RosterVersion: c.rosterVer,
		Tokens:        c.gen,
		Err:           c.err,
	}
	if c.classGroup != nil {
		cg := *c.classGroup
		s.ClassGroup = &cg
	}
	if c.err != nil {
		s.Error = c.err.Error()
		s.ErrorLevel = c.errLevel.String()
	}
	return s
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
