package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// SeedData is the reference data loaded by Seed. fixture.Dataset converts to it directly.
type SeedData struct {
	Schools     []academic.School
	ClassGroups []academic.ClassGroup
	Subjects    []academic.Subject
	Students    []academic.Student
	Teachers    []academic.Teacher
	Allocations map[shared.ID][]shared.ID
}

// SeedStats counts rows written per table.
type SeedStats struct {
	Schools     int
	ClassGroups int
	Subjects    int
	Students    int
	Teachers    int
	Allocations int
}

// Seed upserts the directory in one transaction. Roll numbers follow the
// order of data.Students within each class group.
func Seed(ctx context.Context, conn *Connection, data SeedData) (SeedStats, error) {
	var stats SeedStats
	err := conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for _, s := range data.Schools {
			batch.Queue(`INSERT INTO schools (id, name) VALUES ($1, $2)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, s.ID.Int64(), s.Name)
			stats.Schools++
		}
		for _, g := range data.ClassGroups {
			batch.Queue(`INSERT INTO class_groups (id, school_id, code, name, education_level, shift, active)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET school_id = EXCLUDED.school_id, code = EXCLUDED.code,
					name = EXCLUDED.name, education_level = EXCLUDED.education_level,
					shift = EXCLUDED.shift, active = EXCLUDED.active`,
				g.ID.Int64(), g.SchoolID.Int64(), g.Code, g.Name, string(g.EducationLevel), string(g.Shift), g.Active)
			stats.ClassGroups++
		}
		for _, s := range data.Subjects {
			batch.Queue(`INSERT INTO subjects (id, name, applicable_level) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, applicable_level = EXCLUDED.applicable_level`,
				s.ID.Int64(), s.Name, string(s.ApplicableLevel))
			stats.Subjects++
		}

		roll := make(map[shared.ID]int)
		for _, s := range data.Students {
			roll[s.ClassGroupID]++
			status := s.EnrollmentStatus
			if status == "" {
				status = academic.EnrollmentActive
			}
			batch.Queue(`INSERT INTO students (id, class_group_id, name, roll_number, enrollment_status)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET class_group_id = EXCLUDED.class_group_id, name = EXCLUDED.name,
					roll_number = EXCLUDED.roll_number, enrollment_status = EXCLUDED.enrollment_status`,
				s.ID.Int64(), s.ClassGroupID.Int64(), s.Name, roll[s.ClassGroupID], string(status))
			stats.Students++
		}
		for _, t := range data.Teachers {
			batch.Queue(`INSERT INTO teachers (id, name, active) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`,
				t.ID.Int64(), t.Name, t.Active)
			stats.Teachers++
		}
		for teacherID, schools := range data.Allocations {
			for _, schoolID := range schools {
				batch.Queue(`INSERT INTO teacher_schools (teacher_id, school_id) VALUES ($1, $2)
					ON CONFLICT DO NOTHING`, teacherID.Int64(), schoolID.Int64())
				stats.Allocations++
			}
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed batch: %w", err)
		}
		return nil
	})
	return stats, err
}
