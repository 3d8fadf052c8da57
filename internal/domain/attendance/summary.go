package attendance

import (
	"sort"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Summary - сводка отметок.
type Summary struct {
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	Justified int `json:"justified"`
	Total     int `json:"total"`
}

// Absences возвращает число пропусков, включая обоснованные.
func (s Summary) Absences() int {
	return s.Absent + s.Justified
}

// Rate возвращает процент присутствия (0-100). Без записей - 0.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Present) * 100 / float64(s.Total)
}

// Add учитывает одну отметку.
func (s *Summary) Add(status Status) {
	switch status {
	case StatusPresent:
		s.Present++
	case StatusAbsent:
		s.Absent++
	case StatusJustified:
		s.Justified++
	default:
		return
	}
	s.Total++
}

// Summarize считает отметки списка.
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		s.Add(e.Status)
	}
	return s
}

// SummarizeByStudent группирует отметки по ученикам.
func SummarizeByStudent(entries []Entry) map[shared.ID]Summary {
	out := make(map[shared.ID]Summary)
	for _, e := range entries {
		s := out[e.StudentID]
		s.Add(e.Status)
		out[e.StudentID] = s
	}
	return out
}

// SortByDate упорядочивает записи по дате, затем по ученику.
func SortByDate(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].StudentID < entries[j].StudentID
	})
}
