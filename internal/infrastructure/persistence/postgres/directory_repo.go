package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// DirectoryRepository implements academic.Directory and academic.StaffDirectory.
type DirectoryRepository struct {
	conn *Connection
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(conn *Connection) *DirectoryRepository {
	return &DirectoryRepository{conn: conn}
}

var (
	_ academic.Directory      = (*DirectoryRepository)(nil)
	_ academic.StaffDirectory = (*DirectoryRepository)(nil)
)

const classGroupColumns = `
	g.id, g.school_id, s.name, g.code, g.name, g.education_level, g.shift, g.active,
	(SELECT count(*) FROM students st WHERE st.class_group_id = g.id AND st.enrollment_status = 'active')`

// ListSchools returns all schools ordered by name.
func (r *DirectoryRepository) ListSchools(ctx context.Context) ([]academic.School, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schools: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (academic.School, error) {
		var s academic.School
		err := row.Scan(&s.ID, &s.Name)
		return s, err
	})
}

// ListClassGroups returns the school's class groups with their school name and enrolled count.
func (r *DirectoryRepository) ListClassGroups(ctx context.Context, schoolID shared.ID) ([]academic.ClassGroup, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT`+classGroupColumns+`
		FROM class_groups g
		JOIN schools s ON s.id = g.school_id
		WHERE g.school_id = $1
		ORDER BY g.name
	`, schoolID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query class groups: %w", err)
	}
	return pgx.CollectRows(rows, scanClassGroup)
}

// GetClassGroupByID returns shared.ErrClassGroupNotFound for an unknown id.
func (r *DirectoryRepository) GetClassGroupByID(ctx context.Context, id shared.ID) (academic.ClassGroup, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT`+classGroupColumns+`
		FROM class_groups g
		JOIN schools s ON s.id = g.school_id
		WHERE g.id = $1
	`, id.Int64())
	if err != nil {
		return academic.ClassGroup{}, fmt.Errorf("failed to query class group: %w", err)
	}
	group, err := pgx.CollectExactlyOneRow(rows, scanClassGroup)
	if IsNoRows(err) {
		return academic.ClassGroup{}, shared.ErrClassGroupNotFound
	}
	return group, err
}

func scanClassGroup(row pgx.CollectableRow) (academic.ClassGroup, error) {
	var g academic.ClassGroup
	var level, shift string
	err := row.Scan(&g.ID, &g.SchoolID, &g.SchoolName, &g.Code, &g.Name, &level, &shift, &g.Active, &g.TotalStudents)
	g.EducationLevel = academic.EducationLevel(level)
	g.Shift = academic.Shift(shift)
	return g, err
}

// ListSubjects returns the subjects taught at the given level.
func (r *DirectoryRepository) ListSubjects(ctx context.Context, level academic.EducationLevel) ([]academic.Subject, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, applicable_level FROM subjects
		WHERE applicable_level = $1
		ORDER BY id
	`, string(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (academic.Subject, error) {
		var s academic.Subject
		var lvl string
		err := row.Scan(&s.ID, &s.Name, &lvl)
		s.ApplicableLevel = academic.EducationLevel(lvl)
		return s, err
	})
}

// ListStudents returns the class roster in roll order.
func (r *DirectoryRepository) ListStudents(ctx context.Context, classGroupID shared.ID) ([]academic.Student, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, class_group_id, enrollment_status FROM students
		WHERE class_group_id = $1
		ORDER BY roll_number, name
	`, classGroupID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (academic.Student, error) {
		var s academic.Student
		var status string
		err := row.Scan(&s.ID, &s.Name, &s.ClassGroupID, &status)
		s.EnrollmentStatus = academic.EnrollmentStatus(status)
		return s, err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF
// ══════════════════════════════════════════════════════════════════════════════

// ListTeachers returns every teacher ordered by name.
func (r *DirectoryRepository) ListTeachers(ctx context.Context) ([]academic.Teacher, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, active FROM teachers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (academic.Teacher, error) {
		var t academic.Teacher
		err := row.Scan(&t.ID, &t.Name, &t.Active)
		return t, err
	})
}

// ListTeacherAllocations returns the active class groups of every school the
// teacher works at. An unknown teacher is a not-found error.
func (r *DirectoryRepository) ListTeacherAllocations(ctx context.Context, teacherID shared.ID) ([]academic.Allocation, error) {
	var exists bool
	if err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)`, teacherID.Int64()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check teacher: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("postgres", "ListTeacherAllocations", shared.ErrNotFound,
			fmt.Sprintf("teacher %d not found", teacherID))
	}

	rows, err := r.conn.Query(ctx, `
		SELECT`+classGroupColumns+`
		FROM teacher_schools ts
		JOIN class_groups g ON g.school_id = ts.school_id AND g.active
		JOIN schools s ON s.id = g.school_id
		WHERE ts.teacher_id = $1
		ORDER BY s.name, g.name
	`, teacherID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	groups, err := pgx.CollectRows(rows, scanClassGroup)
	if err != nil {
		return nil, err
	}

	out := make([]academic.Allocation, 0, len(groups))
	for _, g := range groups {
		out = append(out, academic.Allocation{ClassGroup: g, SubjectName: g.EducationLevel.Label()})
	}
	return out, nil
}
