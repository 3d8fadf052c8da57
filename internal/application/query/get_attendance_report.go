// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ATTENDANCE REPORT QUERY
// Сводка посещаемости класса за период: по каждому ученику количество
// присутствий, пропусков и уважительных пропусков и процент присутствия.
// Строится по сохранённым отметкам (дневник и месячная ведомость).
// ══════════════════════════════════════════════════════════════════════════════

// LowAttendanceThreshold - процент присутствия, ниже которого ученик попадает в зону риска.
const LowAttendanceThreshold = 75.0

// GetAttendanceReportQuery содержит параметры отчёта.
type GetAttendanceReportQuery struct {
	// ClassGroupID - класс.
	ClassGroupID shared.ID

	// From, To - период включительно. Пустой период = текущий месяц.
	From time.Time
	To   time.Time
}

// Validate проверяет корректность параметров и подставляет период по умолчанию.
func (q *GetAttendanceReportQuery) Validate() error {
	if !q.ClassGroupID.IsValid() {
		return shared.MissingContext("query", "GetAttendanceReport", "class group is required")
	}
	if q.From.IsZero() && q.To.IsZero() {
		today := timeutil.Today()
		q.From = timeutil.StartOfMonth(today)
		q.To = timeutil.DateOf(timeutil.EndOfMonth(today))
	}
	if q.From.IsZero() || q.To.IsZero() {
		return shared.NewDomainError("query", "GetAttendanceReport", shared.ErrInvalidInput, "both ends of the period are required")
	}
	q.From, q.To = timeutil.DateOf(q.From), timeutil.DateOf(q.To)
	if q.From.After(q.To) {
		return shared.NewDomainError("query", "GetAttendanceReport", shared.ErrInvalidInput, "period start is after its end")
	}
	return nil
}

// StudentAttendanceDTO - строка отчёта.
type StudentAttendanceDTO struct {
	StudentID   shared.ID `json:"student_id"`
	Name        string    `json:"name"`
	Present     int       `json:"present"`
	Absent      int       `json:"absent"`
	Justified   int       `json:"justified"`
	Recorded    int       `json:"recorded"`
	Rate        float64   `json:"rate"`
	RateDisplay string    `json:"rate_display"`
	AtRisk      bool      `json:"at_risk"`
}

// GetAttendanceReportResult содержит результат запроса.
type GetAttendanceReportResult struct {
	ClassGroup academic.ClassGroup `json:"class_group"`
	From       time.Time           `json:"from"`
	To         time.Time           `json:"to"`
	Period     string              `json:"period"`

	// Rows - ученики в порядке журнала.
	Rows []StudentAttendanceDTO `json:"rows"`

	// Totals - сумма по классу.
	Totals attendance.Summary `json:"totals"`

	// DaysRecorded - сколько дат имеют отметки.
	DaysRecorded int `json:"days_recorded"`

	// AtRiskCount - учеников ниже порога.
	AtRiskCount int `json:"at_risk_count"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetAttendanceReportHandler обрабатывает запрос отчёта.
type GetAttendanceReportHandler struct {
	directory academic.Directory
	store     attendance.Store
}

// NewGetAttendanceReportHandler создаёт новый обработчик.
func NewGetAttendanceReportHandler(directory academic.Directory, store attendance.Store) *GetAttendanceReportHandler {
	return &GetAttendanceReportHandler{directory: directory, store: store}
}

// Handle выполняет запрос.
func (h *GetAttendanceReportHandler) Handle(ctx context.Context, query GetAttendanceReportQuery) (*GetAttendanceReportResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	// Класс, состав и отметки загружаем параллельно
	var (
		group   academic.ClassGroup
		roster  []academic.Student
		entries []attendance.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = h.directory.GetClassGroupByID(gctx, query.ClassGroupID)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = h.directory.ListStudents(gctx, query.ClassGroupID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.store.ListAttendance(gctx, query.ClassGroupID, shared.DateRange{From: query.From, To: query.To})
		return err
	})
	if err := g.Wait(); err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.ProviderFailure("query", "GetAttendanceReport", err)
	}

	byStudent := attendance.SummarizeByStudent(entries)
	result := &GetAttendanceReportResult{
		ClassGroup:   group,
		From:         query.From,
		To:           query.To,
		Period:       formatPeriod(query.From, query.To),
		Rows:         make([]StudentAttendanceDTO, 0, len(roster)),
		Totals:       attendance.Summarize(entries),
		DaysRecorded: countDays(entries),
		GeneratedAt:  time.Now().UTC(),
	}
	for _, st := range roster {
		row := buildAttendanceRow(st, byStudent[st.ID])
		if row.AtRisk {
			result.AtRiskCount++
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func buildAttendanceRow(st academic.Student, sum attendance.Summary) StudentAttendanceDTO {
	row := StudentAttendanceDTO{
		StudentID: st.ID,
		Name:      st.Name,
		Present:   sum.Present,
		Absent:    sum.Absent,
		Justified: sum.Justified,
		Recorded:  sum.Total,
		Rate:      sum.Rate(),
	}
	row.RateDisplay = formatPercent(row.Rate, sum.Total)
	row.AtRisk = sum.Total > 0 && row.Rate < LowAttendanceThreshold
	return row
}

func countDays(entries []attendance.Entry) int {
	days := make(map[string]struct{})
	for _, e := range entries {
		days[timeutil.FormatDateStr(e.Date)] = struct{}{}
	}
	return len(days)
}
