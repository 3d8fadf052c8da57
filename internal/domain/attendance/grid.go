package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY GRID
// Месячная ведомость: клетка (ученик, день месяца), изначально пустая.
// Свой цикл из четырёх состояний: blank → P → A → J → blank.
// Не объединять с ежедневным журналом: у него три состояния.
// ══════════════════════════════════════════════════════════════════════════════

type cell struct {
	student shared.ID
	day     int
}

// Grid хранит отметки класса за календарный месяц.
type Grid struct {
	classGroupID shared.ID
	year         int
	month        time.Month
	days         int
	order        []shared.ID
	names        map[shared.ID]string
	cells        map[cell]Status
	blocked      map[int]string
}

// NewGrid создаёт пустую ведомость для месяца, в котором лежит date.
func NewGrid(classGroupID shared.ID, date time.Time, roster []academic.Student) *Grid {
	d := timeutil.DateOf(date)
	g := &Grid{
		classGroupID: classGroupID,
		year:         d.Year(),
		month:        d.Month(),
		days:         timeutil.DaysInMonth(d.Year(), d.Month()),
		order:        make([]shared.ID, 0, len(roster)),
		names:        make(map[shared.ID]string, len(roster)),
		cells:        make(map[cell]Status),
		blocked:      make(map[int]string),
	}
	for _, s := range roster {
		if _, dup := g.names[s.ID]; dup {
			continue
		}
		g.order = append(g.order, s.ID)
		g.names[s.ID] = s.Name
	}
	return g
}

// ClassGroupID возвращает класс ведомости.
func (g *Grid) ClassGroupID() shared.ID { return g.classGroupID }

// Month возвращает год и месяц ведомости.
func (g *Grid) Month() (int, time.Month) { return g.year, g.month }

// Days возвращает количество дней в месяце.
func (g *Grid) Days() int { return g.days }

// Students возвращает ID учеников в порядке журнала.
func (g *Grid) Students() []shared.ID {
	out := make([]shared.ID, len(g.order))
	copy(out, g.order)
	return out
}

// StudentName возвращает имя ученика.
func (g *Grid) StudentName(id shared.ID) string { return g.names[id] }

// DateOf возвращает дату для дня месяца.
func (g *Grid) DateOf(day int) time.Time {
	return timeutil.Date(g.year, g.month, day)
}

// SetBlocked заменяет набор заблокированных дней: колонки этих дней только
// для чтения. Дни вне месяца пропускаются, nil снимает все блокировки.
func (g *Grid) SetBlocked(days map[int]string) {
	g.blocked = make(map[int]string, len(days))
	for day, reason := range days {
		if day >= 1 && day <= g.days {
			g.blocked[day] = reason
		}
	}
}

// BlockReason возвращает причину блокировки дня.
func (g *Grid) BlockReason(day int) (string, bool) {
	reason, ok := g.blocked[day]
	return reason, ok
}

// ReadOnlyDay возвращает true для заблокированных дней. Выходные в ведомости
// редактируются: правило выходных относится только к ежедневному журналу.
func (g *Grid) ReadOnlyDay(day int) bool {
	_, ok := g.blocked[day]
	return ok
}

// Cell возвращает отметку клетки; пустая клетка - StatusBlank.
func (g *Grid) Cell(studentID shared.ID, day int) Status {
	return g.cells[cell{studentID, day}]
}

// Cycle переводит клетку на следующее состояние в цикле ведомости.
func (g *Grid) Cycle(studentID shared.ID, day int) (Status, error) {
	if err := g.check("Cycle", studentID, day); err != nil {
		return g.Cell(studentID, day), err
	}
	k := cell{studentID, day}
	next := g.cells[k].NextGrid()
	if next == StatusBlank {
		delete(g.cells, k)
	} else {
		g.cells[k] = next
	}
	return next, nil
}

func (g *Grid) check(op string, studentID shared.ID, day int) error {
	if _, ok := g.names[studentID]; !ok {
		return shared.NewDomainError("attendance", op, shared.ErrNotFound, "student is not on this roster")
	}
	if day < 1 || day > g.days {
		return shared.NewDomainError("attendance", op, shared.ErrValueOutOfRange,
			fmt.Sprintf("day %d outside 1..%d", day, g.days))
	}
	if reason, ok := g.blocked[day]; ok {
		return shared.InvalidOperation("attendance", op, "date is blocked: "+reason)
	}
	return nil
}

// MarkedDays возвращает дни, в которых есть хотя бы одна отметка, по возрастанию.
func (g *Grid) MarkedDays() []int {
	seen := make(map[int]struct{})
	for k := range g.cells {
		seen[k.day] = struct{}{}
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// DayEntries возвращает непустые отметки дня в порядке журнала.
func (g *Grid) DayEntries(day int) []Entry {
	date := g.DateOf(day)
	var out []Entry
	for _, id := range g.order {
		if s, ok := g.cells[cell{id, day}]; ok {
			out = append(out, Entry{StudentID: id, Date: date, Status: s})
		}
	}
	return out
}

// Load заполняет клетки ранее сохранёнными отметками этого месяца.
// Записи чужих учеников и других месяцев пропускаются.
func (g *Grid) Load(entries []Entry) {
	for _, e := range entries {
		d := timeutil.DateOf(e.Date)
		if d.Year() != g.year || d.Month() != g.month || !e.Status.IsValid() {
			continue
		}
		if _, ok := g.names[e.StudentID]; !ok {
			continue
		}
		g.cells[cell{e.StudentID, d.Day()}] = e.Status
	}
}

// Clear очищает все клетки.
func (g *Grid) Clear() {
	g.cells = make(map[cell]Status)
}
