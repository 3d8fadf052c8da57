// Package evaluation содержит форму оценки ученика по предмету.
// Форма зависит от ступени класса: описательная оценка для дошкольников,
// баллы за триместры для основной школы.
package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONCEPT
// ══════════════════════════════════════════════════════════════════════════════

// Concept - итоговый концепт дошкольной оценки.
type Concept string

const (
	ConceptNone       Concept = ""
	ConceptBuilt      Concept = "built"
	ConceptInProgress Concept = "in_progress"
	ConceptNotBuilt   Concept = "not_built"
)

// IsValid проверяет концепт.
func (c Concept) IsValid() bool {
	switch c {
	case ConceptBuilt, ConceptInProgress, ConceptNotBuilt:
		return true
	default:
		return false
	}
}

// ParseConcept разбирает концепт, принимая португальские названия.
func ParseConcept(s string) (Concept, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "built", "construido", "construído":
		return ConceptBuilt, nil
	case "in_progress", "em_construcao", "em construção":
		return ConceptInProgress, nil
	case "not_built", "nao_construido", "não construído":
		return ConceptNotBuilt, nil
	default:
		return ConceptNone, shared.NewDomainError("evaluation", "ParseConcept", shared.ErrInvalidInput, "unknown concept: "+s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOAD (tagged union по ступени)
// ══════════════════════════════════════════════════════════════════════════════

// Payload - содержимое оценки; конкретный тип определяется ступенью.
type Payload interface {
	// Level возвращает ступень, для которой действует схема.
	Level() academic.EducationLevel
	payload()
}

// EarlyChildhoodPayload - описательная оценка дошкольника.
type EarlyChildhoodPayload struct {
	NarrativeAssessment string  `json:"narrative_assessment"`
	GlobalConcept       Concept `json:"global_concept,omitempty"`
}

// Level реализует Payload.
func (EarlyChildhoodPayload) Level() academic.EducationLevel { return academic.LevelEarlyChildhood }
func (EarlyChildhoodPayload) payload()                       {}

// AttitudinalFlags - поведенческие отметки, только для начальных классов.
type AttitudinalFlags struct {
	Participation bool `json:"participation"`
	Organization  bool `json:"organization"`
	Respect       bool `json:"respect"`
}

// Terms - число триместров в году.
const Terms = 3

// ElementaryPayload - баллы основной школы (0-10).
// AttitudinalFlags присутствует только для LowerElementary.
type ElementaryPayload struct {
	EducationLevel   academic.EducationLevel `json:"-"`
	TermScores       [Terms]*float64         `json:"term_scores"`
	RecoveryScore    *float64                `json:"recovery_score"`
	AttitudinalFlags *AttitudinalFlags       `json:"attitudinal_flags,omitempty"`
}

// Level реализует Payload.
func (p ElementaryPayload) Level() academic.EducationLevel { return p.EducationLevel }
func (ElementaryPayload) payload()                         {}

// Scores возвращает заполненные баллы триместров.
func (p ElementaryPayload) Scores() []float64 {
	out := make([]float64, 0, Terms)
	for _, s := range p.TermScores {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Average возвращает среднее заполненных баллов; false, если баллов нет.
func (p ElementaryPayload) Average() (float64, bool) {
	scores := p.Scores()
	if len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}

func (p ElementaryPayload) clone() ElementaryPayload {
	out := ElementaryPayload{EducationLevel: p.EducationLevel}
	for i, s := range p.TermScores {
		if s != nil {
			v := *s
			out.TermScores[i] = &v
		}
	}
	if p.RecoveryScore != nil {
		v := *p.RecoveryScore
		out.RecoveryScore = &v
	}
	if p.AttitudinalFlags != nil {
		f := *p.AttitudinalFlags
		out.AttitudinalFlags = &f
	}
	return out
}

// NewPayload возвращает пустое содержимое для ступени.
func NewPayload(level academic.EducationLevel) (Payload, error) {
	switch level {
	case academic.LevelEarlyChildhood:
		return EarlyChildhoodPayload{}, nil
	case academic.LevelLowerElementary:
		return ElementaryPayload{EducationLevel: level, AttitudinalFlags: &AttitudinalFlags{}}, nil
	case academic.LevelUpperElementary:
		return ElementaryPayload{EducationLevel: level}, nil
	default:
		return nil, shared.NewDomainError("evaluation", "NewPayload", shared.ErrInvalidInput, fmt.Sprintf("unknown education level %q", level))
	}
}

// DecodePayload восстанавливает содержимое из JSON по известной ступени.
func DecodePayload(level academic.EducationLevel, raw []byte) (Payload, error) {
	switch level {
	case academic.LevelEarlyChildhood:
		var p EarlyChildhoodPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, shared.WrapError("evaluation", "DecodePayload", shared.ErrInvalidFormat, "malformed payload", err)
		}
		return p, nil
	case academic.LevelLowerElementary, academic.LevelUpperElementary:
		p := ElementaryPayload{EducationLevel: level}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, shared.WrapError("evaluation", "DecodePayload", shared.ErrInvalidFormat, "malformed payload", err)
		}
		if level == academic.LevelUpperElementary {
			p.AttitudinalFlags = nil
		} else if p.AttitudinalFlags == nil {
			p.AttitudinalFlags = &AttitudinalFlags{}
		}
		return p, nil
	default:
		return nil, shared.NewDomainError("evaluation", "DecodePayload", shared.ErrInvalidInput, fmt.Sprintf("unknown education level %q", level))
	}
}
