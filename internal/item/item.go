// Package item defines the mirror item produced by the generator, the
// chart specifications embedded in it, and the parse boundary that turns
// raw model text into validated values.
package item

import (
	"fmt"
	"strings"
)

// Letter identifies an answer option.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
)

// Letters lists the option letters in display order.
var Letters = []Letter{LetterA, LetterB, LetterC, LetterD}

// Valid reports whether l is one of A-D.
func (l Letter) Valid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD:
		return true
	}
	return false
}

// Option is the text of one answer option plus any charts it embeds.
type Option struct {
	Text   string      `json:"texto"`
	Charts []ChartSpec `json:"graficos,omitempty"`
}

// OptionJustification explains why an option is the key or a distractor.
type OptionJustification struct {
	Option        Letter `json:"opcion"`
	Justification string `json:"justificacion"`
}

// CandidateItem is one generated mirror item. Field names on the wire are
// the ones downstream consumers of the original tool parse.
type CandidateItem struct {
	Stem                     string                `json:"pregunta_espejo"`
	StemCharts               []ChartSpec           `json:"graficos_enunciado,omitempty"`
	Options                  map[Letter]Option     `json:"opciones"`
	Key                      Letter                `json:"clave"`
	OriginalImageDescription string                `json:"descripcion_imagen_original"`
	StemJustification        string                `json:"justificacion_enunciado"`
	KeyJustification         string                `json:"justificacion_clave"`
	OptionJustifications     []OptionJustification `json:"justificaciones_distractores"`
}

// Justification returns the justification recorded for option l.
func (c *CandidateItem) Justification(l Letter) string {
	for _, j := range c.OptionJustifications {
		if j.Option == l {
			return j.Justification
		}
	}
	return ""
}

// Charts returns every chart in the item, stem first, then options A-D.
func (c *CandidateItem) Charts() []ChartSpec {
	out := append([]ChartSpec(nil), c.StemCharts...)
	for _, l := range Letters {
		out = append(out, c.Options[l].Charts...)
	}
	return out
}

// Validate checks the structural contract and returns one reason per
// violation, or nil when the item is well-formed.
func (c *CandidateItem) Validate() []string {
	var reasons []string

	if strings.TrimSpace(c.Stem) == "" {
		reasons = append(reasons, "stem is empty")
	}

	if len(c.Options) != len(Letters) {
		reasons = append(reasons, fmt.Sprintf("expected 4 options A-D, got %d", len(c.Options)))
	}
	for l, opt := range c.Options {
		if !l.Valid() {
			reasons = append(reasons, fmt.Sprintf("unexpected option letter %q", l))
			continue
		}
		if strings.TrimSpace(opt.Text) == "" && len(opt.Charts) == 0 {
			reasons = append(reasons, fmt.Sprintf("option %s is empty", l))
		}
	}
	for _, l := range Letters {
		if _, ok := c.Options[l]; !ok {
			reasons = append(reasons, fmt.Sprintf("option %s is missing", l))
		}
	}

	if !c.Key.Valid() {
		reasons = append(reasons, fmt.Sprintf("key %q is not one of A-D", c.Key))
	} else if _, ok := c.Options[c.Key]; !ok {
		reasons = append(reasons, fmt.Sprintf("key %s has no matching option", c.Key))
	}

	if strings.TrimSpace(c.StemJustification) == "" {
		reasons = append(reasons, "stem justification is missing")
	}
	if strings.TrimSpace(c.KeyJustification) == "" {
		reasons = append(reasons, "key justification is missing")
	}
	seen := make(map[Letter]bool, len(c.OptionJustifications))
	for _, j := range c.OptionJustifications {
		if !j.Option.Valid() {
			reasons = append(reasons, fmt.Sprintf("justification for unknown option %q", j.Option))
			continue
		}
		if seen[j.Option] {
			reasons = append(reasons, fmt.Sprintf("duplicate justification for option %s", j.Option))
		}
		seen[j.Option] = true
	}
	for _, l := range Letters {
		if strings.TrimSpace(c.Justification(l)) == "" {
			reasons = append(reasons, fmt.Sprintf("option %s has no justification", l))
		}
	}

	for i, ch := range c.StemCharts {
		if err := ch.Validate(); err != nil {
			reasons = append(reasons, fmt.Sprintf("stem chart %d: %v", i+1, err))
		}
	}
	for _, l := range Letters {
		for i, ch := range c.Options[l].Charts {
			if err := ch.Validate(); err != nil {
				reasons = append(reasons, fmt.Sprintf("option %s chart %d: %v", l, i+1, err))
			}
		}
	}

	return reasons
}
