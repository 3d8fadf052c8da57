// Package timeutil provides calendar helpers for the municipal school network timezone
// (America/Recife, UTC-3). Lesson dates, attendance days and blocked days are all
// calendar dates in this zone, so every helper normalizes to local midnight.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// SchoolTZ is the Recife timezone (UTC-3, no DST).
// Pernambuco has not observed daylight saving time since 2000.
var SchoolTZ = time.FixedZone("America/Recife", -3*60*60)

// Now returns the current time in the school timezone.
func Now() time.Time {
	return time.Now().In(SchoolTZ)
}

// Today returns today's date (local midnight) in the school timezone.
func Today() time.Time {
	return StartOfDay(Now())
}

// ToLocal converts a time to the school timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(SchoolTZ)
}

// Date creates a date (midnight) in the school timezone.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, SchoolTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the school timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, SchoolTZ)
}

// DateOf keeps the calendar date of t as written in its own location and
// returns that date at midnight in the school timezone. Values read from DATE
// columns arrive as UTC midnight and must not shift to the previous day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, SchoolTZ)
}

// StartOfMonth returns the first day of the month of t.
func StartOfMonth(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, SchoolTZ)
}

// EndOfMonth returns the last day (midnight) of the month of t.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// IsWeekend checks if the given time falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	weekday := ToLocal(t).Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSchoolDay checks if the given time is on a weekday (Mon-Fri).
func IsSchoolDay(t time.Time) bool {
	return !IsWeekend(t)
}

// IsSameDay checks if two times are on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToLocal(t1), ToLocal(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Common date formats.
const (
	// FormatDate is the ISO date format (YYYY-MM-DD) used on the wire.
	FormatDate = "2006-01-02"
	// FormatBrazilianDate is the display format (DD/MM/YYYY).
	FormatBrazilianDate = "02/01/2006"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// ParseDate parses an ISO date (YYYY-MM-DD) in the school timezone.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, strings.TrimSpace(value), SchoolTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q: %w", value, err)
	}
	return t, nil
}

// MustParseDate is ParseDate for fixtures and tests; it panics on malformed input.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDateStr formats a time as an ISO date string in the school timezone.
func FormatDateStr(t time.Time) string {
	return ToLocal(t).Format(FormatDate)
}

// FormatBrazilian formats a time as DD/MM/YYYY.
func FormatBrazilian(t time.Time) string {
	return ToLocal(t).Format(FormatBrazilianDate)
}

// WeekdayNamePt returns the Portuguese short name for a weekday.
func WeekdayNamePt(t time.Time) string {
	names := [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}
	return names[ToLocal(t).Weekday()]
}

// MonthNamePt returns the Portuguese name for a month.
func MonthNamePt(m time.Month) string {
	names := []string{
		"", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}
