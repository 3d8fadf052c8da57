package evaluation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Имена полей формы.
const (
	FieldNarrativeAssessment = "narrativeAssessment"
	FieldGlobalConcept       = "globalConcept"
	FieldTermScores          = "termScores"
	FieldTerm1               = "term1"
	FieldTerm2               = "term2"
	FieldTerm3               = "term3"
	FieldRecoveryScore       = "recoveryScore"
)

// Имена поведенческих отметок.
const (
	FlagParticipation = "participation"
	FlagOrganization  = "organization"
	FlagRespect       = "respect"
)

// Границы балла.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// FieldsFor возвращает поля, допустимые для ступени.
func FieldsFor(level academic.EducationLevel) []string {
	switch {
	case level == academic.LevelEarlyChildhood:
		return []string{FieldNarrativeAssessment, FieldGlobalConcept}
	case level.IsElementary():
		return []string{FieldTermScores, FieldTerm1, FieldTerm2, FieldTerm3, FieldRecoveryScore}
	default:
		return nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FORM
// Общее состояние формы. При смене ученика не сохраняется и не очищается:
// новый ученик продолжает ту же форму.
// ══════════════════════════════════════════════════════════════════════════════

// Form - редактируемое содержимое оценки для одной ступени.
type Form struct {
	level academic.EducationLevel
	early EarlyChildhoodPayload
	elem  ElementaryPayload
}

// NewForm создаёт пустую форму для ступени.
func NewForm(level academic.EducationLevel) (*Form, error) {
	p, err := NewPayload(level)
	if err != nil {
		return nil, err
	}
	f := &Form{level: level}
	switch v := p.(type) {
	case EarlyChildhoodPayload:
		f.early = v
	case ElementaryPayload:
		f.elem = v
	}
	return f, nil
}

// Level возвращает ступень формы.
func (f *Form) Level() academic.EducationLevel { return f.level }

// Payload возвращает копию текущего содержимого.
func (f *Form) Payload() Payload {
	if f.level == academic.LevelEarlyChildhood {
		return f.early
	}
	return f.elem.clone()
}

// Reset очищает все поля.
func (f *Form) Reset() {
	nf, _ := NewForm(f.level)
	*f = *nf
}

// SetField изменяет поле формы. Поле вне схемы ступени отклоняется
// с ErrInvalidOperation, некорректное значение - с ErrInvalidInput.
// В обоих случаях форма не меняется.
func (f *Form) SetField(name string, value any) error {
	if !f.allows(name) {
		return shared.InvalidOperation("evaluation", "SetField",
			fmt.Sprintf("field %q is not part of the %s form", name, f.level))
	}

	switch name {
	case FieldNarrativeAssessment:
		s, err := asString(name, value)
		if err != nil {
			return err
		}
		f.early.NarrativeAssessment = s

	case FieldGlobalConcept:
		s, err := asString(name, value)
		if err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			f.early.GlobalConcept = ConceptNone
			return nil
		}
		c, err := ParseConcept(s)
		if err != nil {
			return err
		}
		f.early.GlobalConcept = c

	case FieldTermScores:
		scores, err := asScores(value)
		if err != nil {
			return err
		}
		f.elem.TermScores = scores

	case FieldTerm1, FieldTerm2, FieldTerm3:
		score, err := asScore(name, value)
		if err != nil {
			return err
		}
		f.elem.TermScores[termIndex(name)] = score

	case FieldRecoveryScore:
		score, err := asScore(name, value)
		if err != nil {
			return err
		}
		f.elem.RecoveryScore = score
	}
	return nil
}

// ToggleAttitudinalFlag переключает поведенческую отметку.
// Допустимо только для LowerElementary.
func (f *Form) ToggleAttitudinalFlag(name string) (bool, error) {
	if f.level != academic.LevelLowerElementary || f.elem.AttitudinalFlags == nil {
		return false, shared.InvalidOperation("evaluation", "ToggleAttitudinalFlag",
			"attitudinal flags exist only for lower elementary")
	}
	flags := f.elem.AttitudinalFlags
	switch name {
	case FlagParticipation:
		flags.Participation = !flags.Participation
		return flags.Participation, nil
	case FlagOrganization:
		flags.Organization = !flags.Organization
		return flags.Organization, nil
	case FlagRespect:
		flags.Respect = !flags.Respect
		return flags.Respect, nil
	default:
		return false, shared.InvalidOperation("evaluation", "ToggleAttitudinalFlag", "unknown attitudinal flag "+name)
	}
}

func (f *Form) allows(name string) bool {
	for _, n := range FieldsFor(f.level) {
		if n == name {
			return true
		}
	}
	return false
}

func termIndex(name string) int {
	switch name {
	case FieldTerm2:
		return 1
	case FieldTerm3:
		return 2
	default:
		return 0
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Value coercion
// ─────────────────────────────────────────────────────────────────────────────

func asString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case Concept:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", invalidValue(field, value)
	}
}

func asScore(field string, value any) (*float64, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case *float64:
		if v == nil {
			return nil, nil
		}
		f = *v
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, invalidValue(field, value)
		}
		f = parsed
	default:
		return nil, invalidValue(field, value)
	}
	if math.IsNaN(f) || f < MinScore || f > MaxScore {
		return nil, shared.NewDomainError("evaluation", "SetField", shared.ErrValueOutOfRange,
			fmt.Sprintf("%s must be between 0 and 10, got %v", field, f))
	}
	return &f, nil
}

func asScores(value any) ([Terms]*float64, error) {
	var out [Terms]*float64
	var items []any
	switch v := value.(type) {
	case []float64:
		for _, x := range v {
			items = append(items, x)
		}
	case []int:
		for _, x := range v {
			items = append(items, x)
		}
	case []any:
		items = v
	case [Terms]*float64:
		for _, x := range v {
			items = append(items, x)
		}
	default:
		return out, invalidValue(FieldTermScores, value)
	}
	if len(items) > Terms {
		return out, shared.NewDomainError("evaluation", "SetField", shared.ErrInvalidInput,
			fmt.Sprintf("termScores takes at most %d values", Terms))
	}
	for i, item := range items {
		s, err := asScore(FieldTermScores, item)
		if err != nil {
			return out, err
		}
		out[i] = s
	}
	return out, nil
}

func invalidValue(field string, value any) error {
	return shared.NewDomainError("evaluation", "SetField", shared.ErrInvalidInput,
		fmt.Sprintf("invalid value %v (%T) for %s", value, value, field))
}
