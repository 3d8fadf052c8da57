// Package export renders attendance data as .xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/seduc-pe/academic-hub/internal/application/frequency"
	"github.com/seduc-pe/academic-hub/internal/application/query"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetGrid    = "Frequência"
	sheetBlocked = "Dias bloqueados"
	sheetReport  = "Relatório"
	nameColWidth = 36
	dayColWidth  = 4.5
)

// Workbook is an open workbook ready to be written.
type Workbook struct {
	file     *excelize.File
	filename string
}

// Filename suggests a download name, e.g. "frequencia_6-ano-a_2024-07.xlsx".
func (w *Workbook) Filename() string { return w.filename }

// File exposes the underlying workbook.
func (w *Workbook) File() *excelize.File { return w.file }

// WriteTo writes the .xlsx bytes to dst and closes the workbook.
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	defer w.file.Close()
	return w.file.WriteTo(dst)
}

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY GRID
// ══════════════════════════════════════════════════════════════════════════════

// FrequencyGrid renders the monthly grid: one row per student, one column per
// day, then P/F/J totals and the presence rate. Blocked columns are shaded
// and listed with their reason on a second sheet.
func FrequencyGrid(snap *frequency.Snapshot) (*Workbook, error) {
	if snap == nil {
		return nil, fmt.Errorf("export: no grid to export")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetGrid); err != nil {
		f.Close()
		return nil, err
	}

	shaded, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	title := fmt.Sprintf("Frequência · %s · %s de %d", snap.ClassGroup.Name, timeutil.MonthNamePt(snap.Month), snap.Year)
	if err := f.SetCellValue(sheetGrid, "A1", title); err != nil {
		f.Close()
		return nil, err
	}

	days := len(snap.Days)
	header := make([]interface{}, 0, days+5)
	weekdays := make([]interface{}, 0, days+1)
	header = append(header, "Aluno")
	weekdays = append(weekdays, "")
	for _, d := range snap.Days {
		header = append(header, d.Day)
		weekdays = append(weekdays, d.Weekday)
	}
	header = append(header, "P", "F", "J", "%")
	if err := f.SetSheetRow(sheetGrid, "A2", &header); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(sheetGrid, "A3", &weekdays); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range snap.Rows {
		values := make([]interface{}, 0, days+5)
		values = append(values, row.Name)
		for _, mark := range row.Marks {
			values = append(values, mark.Code())
		}
		values = append(values, row.Summary.Present, row.Summary.Absent, row.Summary.Justified, rateCell(row.Summary.Rate(), row.Summary.Total))
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		if err := f.SetSheetRow(sheetGrid, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(days + 5)
	firstDay, _ := excelize.ColumnNumberToName(2)
	lastDay, _ := excelize.ColumnNumberToName(days + 1)
	if err := f.SetCellStyle(sheetGrid, "A2", lastCol+"2", bold); err != nil {
		f.Close()
		return nil, err
	}
	lastRow := len(snap.Rows) + 3
	for i, d := range snap.Days {
		if !d.ReadOnly {
			continue
		}
		col, _ := excelize.ColumnNumberToName(i + 2)
		if err := f.SetCellStyle(sheetGrid, col+"2", fmt.Sprintf("%s%d", col, lastRow), shaded); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetGrid, "A", "A", nameColWidth); err != nil {
		f.Close()
		return nil, err
	}
	if days > 0 {
		if err := f.SetColWidth(sheetGrid, firstDay, lastDay, dayColWidth); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := writeBlockedSheet(f, snap); err != nil {
		f.Close()
		return nil, err
	}

	return &Workbook{
		file:     f,
		filename: fmt.Sprintf("frequencia_%s_%d-%02d.xlsx", slug(snap.ClassGroup.Name), snap.Year, int(snap.Month)),
	}, nil
}

func writeBlockedSheet(f *excelize.File, snap *frequency.Snapshot) error {
	blocked := make([]frequency.DayColumn, 0)
	for _, d := range snap.Days {
		if d.BlockReason != "" {
			blocked = append(blocked, d)
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].Day < blocked[j].Day })

	if _, err := f.NewSheet(sheetBlocked); err != nil {
		return err
	}
	header := []interface{}{"Data", "Motivo"}
	if err := f.SetSheetRow(sheetBlocked, "A1", &header); err != nil {
		return err
	}
	for i, d := range blocked {
		date := timeutil.Date(snap.Year, snap.Month, d.Day)
		row := []interface{}{timeutil.FormatBrazilian(date), d.BlockReason}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetBlocked, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetBlocked, "B", "B", nameColWidth)
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPORT
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceReport renders the per-student summary of a period.
func AttendanceReport(res *query.GetAttendanceReportResult) (*Workbook, error) {
	if res == nil {
		return nil, fmt.Errorf("export: no report to export")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetReport); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]interface{}{
		{fmt.Sprintf("%s · %s", res.ClassGroup.Name, res.ClassGroup.SchoolName)},
		{"Período", res.Period},
		{"Dias com registro", res.DaysRecorded},
		{},
		{"Aluno", "Presenças", "Faltas", "Justificadas", "Registros", "Frequência", "Em risco"},
	}
	for _, r := range res.Rows {
		risk := ""
		if r.AtRisk {
			risk = "Sim"
		}
		rows = append(rows, []interface{}{r.Name, r.Present, r.Absent, r.Justified, r.Recorded, r.RateDisplay, risk})
	}
	rows = append(rows, []interface{}{"Total", res.Totals.Present, res.Totals.Absent, res.Totals.Justified, res.Totals.Total,
		rateCell(res.Totals.Rate(), res.Totals.Total), res.AtRiskCount})

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetReport, cell, &rows[i]); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetReport, "A", "A", nameColWidth); err != nil {
		f.Close()
		return nil, err
	}

	name := fmt.Sprintf("relatorio_frequencia_%s_%s_%s.xlsx", slug(res.ClassGroup.Name),
		timeutil.FormatDateStr(res.From), timeutil.FormatDateStr(res.To))
	return &Workbook{file: f, filename: name}, nil
}

// rateCell formats a presence rate the way the screens do: "87,5%", or "—" without records.
func rateCell(rate float64, recorded int) string {
	if recorded == 0 {
		return "—"
	}
	s := strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", rate), "0"), ".")
	return strings.Replace(s, ".", ",", 1) + "%"
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
