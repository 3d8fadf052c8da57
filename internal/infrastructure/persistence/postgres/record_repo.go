package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATE COLUMNS
// ══════════════════════════════════════════════════════════════════════════════

// toDate maps a school-calendar day to the value pgx writes into a DATE column.
func toDate(t time.Time) time.Time {
	y, m, d := timeutil.DateOf(t).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fromDate maps a scanned DATE back to midnight in the school timezone.
func fromDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return timeutil.Date(y, m, d)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RecordRepository persists lesson plans, evaluations and attendance.
type RecordRepository struct {
	conn *Connection
	now  func() time.Time
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(conn *Connection) *RecordRepository {
	return &RecordRepository{conn: conn, now: timeutil.Now}
}

var (
	_ diary.Store      = (*RecordRepository)(nil)
	_ evaluation.Store = (*RecordRepository)(nil)
	_ attendance.Store = (*RecordRepository)(nil)
)

func (r *RecordRepository) saved(receipt, msg string) shared.SaveResult {
	return shared.SaveResult{Success: true, Message: msg, ReceiptID: receipt, SavedAt: r.now()}
}

// SaveLessonPlan stores the plan and replaces the roll call of its date in one transaction.
func (r *RecordRepository) SaveLessonPlan(ctx context.Context, plan diary.LessonPlan) (shared.SaveResult, error) {
	fields, err := json.Marshal(plan.Fields)
	if err != nil {
		return shared.SaveResult{}, fmt.Errorf("encode lesson fields: %w", err)
	}

	var receipt string
	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO lesson_plans (class_group_id, subject_id, lesson_date, education_level, content, fields)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id::text
		`, plan.ClassGroupID.Int64(), plan.SubjectID.Int64(), toDate(plan.Date),
			string(plan.EducationLevel), plan.Content, fields).Scan(&receipt)
		if err != nil {
			return fmt.Errorf("insert lesson plan: %w", err)
		}
		if len(plan.Attendance) == 0 {
			return nil
		}
		return replaceAttendance(ctx, tx, plan.ClassGroupID, plan.Date, plan.Attendance)
	})
	if err != nil {
		return shared.SaveResult{}, err
	}
	return r.saved(receipt, shared.MessageLessonPlanSaved), nil
}

// ListLessons returns the class group's lessons in the period, oldest first.
func (r *RecordRepository) ListLessons(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]diary.LessonSummary, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT class_group_id, subject_id, lesson_date, content FROM lesson_plans
		WHERE class_group_id = $1 AND lesson_date BETWEEN $2 AND $3
		ORDER BY lesson_date, created_at
	`, classGroupID.Int64(), toDate(period.From), toDate(period.To))
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (diary.LessonSummary, error) {
		var l diary.LessonSummary
		err := row.Scan(&l.ClassGroupID, &l.SubjectID, &l.Date, &l.Content)
		l.Date = fromDate(l.Date)
		return l, err
	})
}

// SaveEvaluation stores the record with its payload as JSONB.
func (r *RecordRepository) SaveEvaluation(ctx context.Context, record evaluation.Record) (shared.SaveResult, error) {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return shared.SaveResult{}, fmt.Errorf("encode evaluation payload: %w", err)
	}

	var receipt string
	err = r.conn.QueryRow(ctx, `
		INSERT INTO evaluations (student_id, subject_id, class_group_id, education_level, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text
	`, record.StudentID.Int64(), record.SubjectID.Int64(), record.ClassGroupID.Int64(),
		string(record.EducationLevel), payload).Scan(&receipt)
	if err != nil {
		return shared.SaveResult{}, fmt.Errorf("insert evaluation: %w", err)
	}
	return r.saved(receipt, shared.MessageEvaluationSaved), nil
}

// SaveAttendance replaces the class group's marks for the date.
func (r *RecordRepository) SaveAttendance(ctx context.Context, date time.Time, classGroupID shared.ID, entries []attendance.Entry) (shared.SaveResult, error) {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return replaceAttendance(ctx, tx, classGroupID, date, entries)
	})
	if err != nil {
		return shared.SaveResult{}, err
	}
	return r.saved(fmt.Sprintf("%d-%s", classGroupID, timeutil.FormatDateStr(date)), shared.MessageAttendanceSaved), nil
}

func replaceAttendance(ctx context.Context, tx pgx.Tx, classGroupID shared.ID, date time.Time, entries []attendance.Entry) error {
	day := toDate(date)
	if _, err := tx.Exec(ctx, `DELETE FROM attendance_entries WHERE class_group_id = $1 AND attendance_date = $2`,
		classGroupID.Int64(), day); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{classGroupID.Int64(), e.StudentID.Int64(), day, string(e.Status), e.Justification})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"attendance_entries"},
		[]string{"class_group_id", "student_id", "attendance_date", "status", "justification"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy attendance: %w", err)
	}
	return nil
}

// ListAttendance returns stored marks in the period ordered by date.
func (r *RecordRepository) ListAttendance(ctx context.Context, classGroupID shared.ID, period shared.DateRange) ([]attendance.Entry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT student_id, attendance_date, status, justification FROM attendance_entries
		WHERE class_group_id = $1 AND attendance_date BETWEEN $2 AND $3
		ORDER BY attendance_date, student_id
	`, classGroupID.Int64(), toDate(period.From), toDate(period.To))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.Entry, error) {
		var e attendance.Entry
		var status string
		err := row.Scan(&e.StudentID, &e.Date, &status, &e.Justification)
		e.Date = fromDate(e.Date)
		e.Status = attendance.Status(status)
		return e, err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRepository implements calendar.Store.
type CalendarRepository struct {
	conn *Connection
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(conn *Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

var _ calendar.Store = (*CalendarRepository)(nil)

// AddBlockedDay stores a new entry. A duplicate id maps to shared.ErrBlockedDayExists.
func (r *CalendarRepository) AddBlockedDay(ctx context.Context, day calendar.BlockedDay) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO blocked_days (id, blocked_date, reason, created_at) VALUES ($1, $2, $3, $4)
	`, day.ID, toDate(day.Date), day.Reason, day.CreatedAt)
	if IsUniqueViolation(err) {
		return shared.ErrBlockedDayExists
	}
	if err != nil {
		return fmt.Errorf("insert blocked day: %w", err)
	}
	return nil
}

// RemoveBlockedDays deletes every entry for the date.
func (r *CalendarRepository) RemoveBlockedDays(ctx context.Context, date time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM blocked_days WHERE blocked_date = $1`, toDate(date))
	if err != nil {
		return 0, fmt.Errorf("delete blocked days: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListBlockedDays returns all entries in insertion order.
func (r *CalendarRepository) ListBlockedDays(ctx context.Context) ([]calendar.BlockedDay, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, blocked_date, reason, created_at FROM blocked_days ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked days: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (calendar.BlockedDay, error) {
		var d calendar.BlockedDay
		err := row.Scan(&d.ID, &d.Date, &d.Reason, &d.CreatedAt)
		d.Date = fromDate(d.Date)
		return d, err
	})
}
