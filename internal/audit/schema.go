package audit

import "github.com/abhisek/mirrorgen/internal/item"

func criterionNames() []any {
	names := make([]any, len(Rubric))
	for i, r := range Rubric {
		names[i] = string(r.Criterion)
	}
	return names
}

// VerdictSchema is the JSON Schema an audit response must satisfy.
var VerdictSchema = &item.Schema{
	Name:        "audit-verdict",
	Description: "Per-criterion audit of a mirror item with an overall decision",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"criterios": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"criterio":   map[string]any{"type": "string", "enum": criterionNames()},
						"cumple":     map[string]any{"type": "boolean"},
						"comentario": map[string]any{"type": "string"},
					},
					"required": []any{"criterio", "cumple"},
				},
				"minItems": len(Rubric),
			},
			"veredicto": map[string]any{
				"type": "string",
				"enum": []any{string(Approved), string(Rejected)},
			},
			"retroalimentacion": map[string]any{"type": "string"},
		},
		"required": []any{"criterios", "veredicto"},
	},
}
