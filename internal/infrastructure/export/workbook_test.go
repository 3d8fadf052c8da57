package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seduc-pe/academic-hub/internal/application/frequency"
	"github.com/seduc-pe/academic-hub/internal/application/query"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

func gridSnapshot() *frequency.Snapshot {
	days := []frequency.DayColumn{
		{Day: 1, Weekday: "Seg"},
		{Day: 2, Weekday: "Ter", ReadOnly: true, BlockReason: "Conselho de classe"},
		{Day: 3, Weekday: "Qua"},
	}
	var ana, bruno attendance.Summary
	anaMarks := []attendance.Status{attendance.StatusPresent, attendance.StatusBlank, attendance.StatusAbsent}
	brunoMarks := []attendance.Status{attendance.StatusJustified, attendance.StatusBlank, attendance.StatusPresent}
	for _, m := range anaMarks {
		ana.Add(m)
	}
	for _, m := range brunoMarks {
		bruno.Add(m)
	}
	return &frequency.Snapshot{
		ClassGroup: academic.ClassGroup{ID: 5, Name: "5º Ano A"},
		Year:       2024,
		Month:      time.July,
		Days:       days,
		Rows: []frequency.StudentRow{
			{StudentID: 1, Name: "Ana", Marks: anaMarks, Summary: ana},
			{StudentID: 2, Name: "Bruno", Marks: brunoMarks, Summary: bruno},
		},
	}
}

func reopen(t *testing.T, wb *Workbook) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	_, err := wb.WriteTo(&buf)
	require.NoError(t, err)
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestFrequencyGrid(t *testing.T) {
	wb, err := FrequencyGrid(gridSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "frequencia_5-ano-a_2024-07.xlsx", wb.Filename())

	f := reopen(t, wb)

	assert.Equal(t, "Aluno", cell(t, f, sheetGrid, "A2"))
	assert.Equal(t, "1", cell(t, f, sheetGrid, "B2"))
	assert.Equal(t, "Ter", cell(t, f, sheetGrid, "C3"))

	// Ana: P, blank, F.
	assert.Equal(t, "Ana", cell(t, f, sheetGrid, "A4"))
	assert.Equal(t, "P", cell(t, f, sheetGrid, "B4"))
	assert.Equal(t, "", cell(t, f, sheetGrid, "C4"))
	assert.Equal(t, "F", cell(t, f, sheetGrid, "D4"))
	assert.Equal(t, "1", cell(t, f, sheetGrid, "E4"))
	assert.Equal(t, "1", cell(t, f, sheetGrid, "F4"))
	assert.Equal(t, "50%", cell(t, f, sheetGrid, "H4"))

	assert.Equal(t, "J", cell(t, f, sheetGrid, "B5"))

	assert.Equal(t, "02/07/2024", cell(t, f, sheetBlocked, "A2"))
	assert.Equal(t, "Conselho de classe", cell(t, f, sheetBlocked, "B2"))
}

func TestFrequencyGrid_NoBlockedSheetWithoutBlocks(t *testing.T) {
	snap := gridSnapshot()
	snap.Days[1].BlockReason = ""

	wb, err := FrequencyGrid(snap)
	require.NoError(t, err)
	f := reopen(t, wb)

	idx, err := f.GetSheetIndex(sheetBlocked)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestFrequencyGrid_Nil(t *testing.T) {
	_, err := FrequencyGrid(nil)
	assert.Error(t, err)
}

func TestAttendanceReport(t *testing.T) {
	res := &query.GetAttendanceReportResult{
		ClassGroup: academic.ClassGroup{Name: "9º Ano A", SchoolName: "EREM Padre Cícero"},
		From:       timeutil.Date(2024, 7, 1),
		To:         timeutil.Date(2024, 7, 31),
		Period:     "julho de 2024",
		Rows: []query.StudentAttendanceDTO{
			{Name: "Miguel Correia", Present: 3, Absent: 1, Recorded: 4, Rate: 75, RateDisplay: "75%"},
			{Name: "Natália Freitas", Present: 1, Absent: 3, Recorded: 4, Rate: 25, RateDisplay: "25%", AtRisk: true},
		},
		Totals:       attendance.Summary{Present: 4, Absent: 4, Total: 8},
		DaysRecorded: 4,
		AtRiskCount:  1,
	}

	wb, err := AttendanceReport(res)
	require.NoError(t, err)
	assert.Equal(t, "relatorio_frequencia_9-ano-a_2024-07-01_2024-07-31.xlsx", wb.Filename())

	f := reopen(t, wb)
	assert.Equal(t, "julho de 2024", cell(t, f, sheetReport, "B2"))
	assert.Equal(t, "Miguel Correia", cell(t, f, sheetReport, "A6"))
	assert.Equal(t, "75%", cell(t, f, sheetReport, "F6"))
	assert.Equal(t, "Sim", cell(t, f, sheetReport, "G7"))
	assert.Equal(t, "Total", cell(t, f, sheetReport, "A8"))
	assert.Equal(t, "50%", cell(t, f, sheetReport, "F8"))
}

func TestRateCell(t *testing.T) {
	assert.Equal(t, "87,5%", rateCell(87.5, 8))
	assert.Equal(t, "100%", rateCell(100, 3))
	assert.Equal(t, "—", rateCell(0, 0))
}
