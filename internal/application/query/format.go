package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// formatPercent форматирует процент присутствия в бразильском стиле: "87,5%".
func formatPercent(rate float64, recorded int) string {
	if recorded == 0 {
		return "—"
	}
	s := fmt.Sprintf("%.1f", rate)
	s = strings.TrimSuffix(s, ".0")
	return strings.Replace(s, ".", ",", 1) + "%"
}

// formatPeriod форматирует период: "julho de 2024" для целого месяца,
// иначе "01/07/2024 a 15/07/2024".
func formatPeriod(from, to time.Time) string {
	if from.Day() == 1 && timeutil.IsSameDay(to, timeutil.EndOfMonth(from)) {
		return fmt.Sprintf("%s de %d", strings.ToLower(timeutil.MonthNamePt(from.Month())), from.Year())
	}
	return timeutil.FormatBrazilian(from) + " a " + timeutil.FormatBrazilian(to)
}
