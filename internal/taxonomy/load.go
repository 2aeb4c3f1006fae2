package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a resolved selection from a YAML file. Two layouts are
// accepted: a mapping of facet name to value (order preserved)
//
//	grado: "5"
//	area: Matemáticas
//
// or a list of {faceta, valor} entries. The result is validated.
func Load(path string) (Selection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, fmt.Errorf("read taxonomy: %w", err)
	}
	sel, err := Parse(data)
	if err != nil {
		return Selection{}, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	return sel, nil
}

// Parse decodes YAML taxonomy data. See Load for the accepted layouts.
func Parse(data []byte) (Selection, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Selection{}, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Selection{}, fmt.Errorf("empty document")
	}
	root := doc.Content[0]

	var facets []Facet
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			k, v := root.Content[i], root.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return Selection{}, fmt.Errorf("line %d: facet %q must have a scalar value", v.Line, k.Value)
			}
			facets = append(facets, Facet{Name: k.Value, Value: v.Value})
		}
	case yaml.SequenceNode:
		if err := root.Decode(&facets); err != nil {
			return Selection{}, err
		}
	default:
		return Selection{}, fmt.Errorf("line %d: expected a mapping or a list of facets", root.Line)
	}

	sel, err := New(facets)
	if err != nil {
		return Selection{}, err
	}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}
