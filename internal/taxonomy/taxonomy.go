// Package taxonomy holds the pedagogical classification a mirror item must
// align with.
package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Facet names, in the order they are presented to the model.
const (
	Grade               = "grado"
	Area                = "area"
	StructuralComponent = "componente_estructural"
	ThematicComponent   = "componente_tematico"
	Competency          = "competencia"
	Claim               = "afirmacion"
	Evidence            = "evidencia"
	ThematicReference   = "referencia_tematica"
)

// RequiredFacets must all be present with a non-blank value.
var RequiredFacets = []string{
	Grade, Area, StructuralComponent, ThematicComponent,
	Competency, Claim, Evidence, ThematicReference,
}

var labels = map[string]string{
	Grade:               "Grado",
	Area:                "Área",
	StructuralComponent: "Componente estructural",
	ThematicComponent:   "Componente temático",
	Competency:          "Competencia",
	Claim:               "Afirmación",
	Evidence:            "Evidencia",
	ThematicReference:   "Referencia temática",
}

// Label returns the human-readable label for a facet name. Unknown facets
// are returned as-is.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// Facet is one (name, value) pair.
type Facet struct {
	Name  string `json:"faceta" yaml:"faceta"`
	Value string `json:"valor" yaml:"valor"`
}

// Selection is an ordered, immutable list of facets. The zero value is an
// empty selection.
type Selection struct {
	facets []Facet
}

// New builds a Selection from facets, keeping their order. Names are
// normalized to lower case and values trimmed.
func New(facets []Facet) (Selection, error) {
	out := make([]Facet, 0, len(facets))
	seen := make(map[string]bool, len(facets))
	for _, f := range facets {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		if name == "" {
			return Selection{}, errors.New("facet with empty name")
		}
		if seen[name] {
			return Selection{}, fmt.Errorf("facet %q given twice", name)
		}
		seen[name] = true
		out = append(out, Facet{Name: name, Value: strings.TrimSpace(f.Value)})
	}
	return Selection{facets: out}, nil
}

// FromPairs builds a Selection from alternating name, value arguments.
func FromPairs(pairs ...string) (Selection, error) {
	if len(pairs)%2 != 0 {
		return Selection{}, errors.New("odd number of arguments: expected name, value pairs")
	}
	facets := make([]Facet, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		facets = append(facets, Facet{Name: pairs[i], Value: pairs[i+1]})
	}
	return New(facets)
}

// Facets returns a copy of the facets in order.
func (s Selection) Facets() []Facet {
	return append([]Facet(nil), s.facets...)
}

// Get returns the value of a facet.
func (s Selection) Get(name string) (string, bool) {
	for _, f := range s.facets {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of facets.
func (s Selection) Len() int {
	return len(s.facets)
}

// Validate checks that every required facet is present and non-blank.
func (s Selection) Validate() error {
	var missing []string
	for _, name := range RequiredFacets {
		if v, ok := s.Get(name); !ok || v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("taxonomy is missing required facets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Ordered returns the facets with required ones first in canonical order,
// followed by any extra facets in their original order.
func (s Selection) Ordered() []Facet {
	out := make([]Facet, 0, len(s.facets))
	for _, name := range RequiredFacets {
		if v, ok := s.Get(name); ok {
			out = append(out, Facet{Name: name, Value: v})
		}
	}
	required := make(map[string]bool, len(RequiredFacets))
	for _, name := range RequiredFacets {
		required[name] = true
	}
	for _, f := range s.facets {
		if !required[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON encodes the selection as a list of {faceta, valor} objects.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ordered())
}

// UnmarshalJSON accepts the list form written by MarshalJSON.
func (s *Selection) UnmarshalJSON(b []byte) error {
	var facets []Facet
	if err := json.Unmarshal(b, &facets); err != nil {
		return err
	}
	sel, err := New(facets)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
