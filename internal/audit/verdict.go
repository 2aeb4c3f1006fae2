package audit

import (
	"fmt"
	"strings"
)

// Decision is the auditor's overall verdict.
type Decision string

const (
	Approved Decision = "aprobado"
	Rejected Decision = "rechazado"
)

// CriterionResult is the outcome of one rubric criterion.
type CriterionResult struct {
	Criterion Criterion `json:"criterio"`
	Passed    bool      `json:"cumple"`
	Comment   string    `json:"comentario"`
}

// Verdict is the parsed audit of one candidate item.
type Verdict struct {
	Criteria []CriterionResult `json:"criterios"`
	Decision Decision          `json:"veredicto"`
	Feedback string            `json:"retroalimentacion"`
}

// Approved reports whether the overall decision is approval. The overall
// decision is authoritative even when individual criteria disagree.
func (v *Verdict) Approved() bool {
	return v.Decision == Approved
}

// Failed returns the criteria marked as not passing.
func (v *Verdict) Failed() []CriterionResult {
	var out []CriterionResult
	for _, c := range v.Criteria {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every rubric criterion is reported exactly once and
// the decision is known.
func (v *Verdict) Validate() []string {
	var reasons []string

	if v.Decision != Approved && v.Decision != Rejected {
		reasons = append(reasons, fmt.Sprintf("unknown verdict %q", v.Decision))
	}

	counts := make(map[Criterion]int, len(Rubric))
	for _, c := range v.Criteria {
		if !c.Criterion.Valid() {
			reasons = append(reasons, fmt.Sprintf("unknown criterion %q", c.Criterion))
			continue
		}
		counts[c.Criterion]++
	}
	for _, r := range Rubric {
		switch counts[r.Criterion] {
		case 1:
		case 0:
			reasons = append(reasons, fmt.Sprintf("criterion %s is missing", r.Criterion))
		default:
			reasons = append(reasons, fmt.Sprintf("criterion %s reported %d times", r.Criterion, counts[r.Criterion]))
		}
	}

	return reasons
}

// normalize fills in corrective feedback for a rejection that came without
// any, so the next attempt always has something to act on.
func (v *Verdict) normalize() {
	v.Feedback = strings.TrimSpace(v.Feedback)
	if v.Approved() || v.Feedback != "" {
		return
	}

	failed := v.Failed()
	if len(failed) == 0 {
		v.Feedback = "El auditor rechazó el ítem sin detallar los motivos. Revisa todos los criterios de la rúbrica."
		return
	}

	var b strings.Builder
	b.WriteString("Corrige los siguientes criterios no cumplidos:")
	for _, c := range failed {
		fmt.Fprintf(&b, "\n- %s", c.Criterion.Label())
		if comment := strings.TrimSpace(c.Comment); comment != "" {
			fmt.Fprintf(&b, ": %s", comment)
		}
	}
	v.Feedback = b.String()
}
