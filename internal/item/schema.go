package item

// chartSpecSchema describes one ChartSpec object.
var chartSpecSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tipo_elemento": map[string]any{
			"type": "string",
			"enum": []any{
				"grafico_barras", "grafico_circular", "tabla", "construccion_geometrica",
				"diagrama_arbol", "diagrama_flujo", "pictograma", "diagrama_dispersion",
				"grafico_lineas", "histograma", "diagrama_caja", "otro",
			},
		},
		"datos": map[string]any{
			"description": `Tabular types: {"columnas": [...], "filas": [[...]]}. Descriptive types: a string.`,
		},
		"configuracion": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"titulo": map[string]any{"type": "string"},
				"eje_x":  map[string]any{"type": "string"},
				"eje_y":  map[string]any{"type": "string"},
			},
		},
		"descripcion": map[string]any{"type": "string", "minLength": 1},
	},
	"required": []any{"tipo_elemento", "datos", "descripcion"},
}

func chartListSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": chartSpecSchema,
	}
}

func optionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"texto":    map[string]any{"type": "string"},
			"graficos": chartListSchema(),
		},
		"required": []any{"texto"},
	}
}

// CandidateSchema is the JSON Schema every generated item must satisfy.
var CandidateSchema = &Schema{
	Name:        "mirror-item",
	Description: "A multiple-choice mirror item with four options, key and justifications",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pregunta_espejo":    map[string]any{"type": "string", "minLength": 1},
			"graficos_enunciado": chartListSchema(),
			"opciones": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"A": optionSchema(),
					"B": optionSchema(),
					"C": optionSchema(),
					"D": optionSchema(),
				},
				"required":             []any{"A", "B", "C", "D"},
				"additionalProperties": false,
			},
			"clave": map[string]any{
				"type": "string",
				"enum": []any{"A", "B", "C", "D"},
			},
			"descripcion_imagen_original": map[string]any{"type": "string"},
			"justificacion_enunciado":     map[string]any{"type": "string", "minLength": 1},
			"justificacion_clave":         map[string]any{"type": "string", "minLength": 1},
			"justificaciones_distractores": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"opcion":        map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
						"justificacion": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []any{"opcion", "justificacion"},
				},
				"minItems": 4,
				"maxItems": 4,
			},
		},
		"required": []any{
			"pregunta_espejo", "opciones", "clave", "descripcion_imagen_original",
			"justificacion_enunciado", "justificacion_clave", "justificaciones_distractores",
		},
	},
}
