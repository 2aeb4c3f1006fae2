package itemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

const systemPrompt = `Eres un experto en psicometría y diseño de ítems educativos de selección múltiple con única respuesta.
Analizas una pregunta original (presentada como imagen) y generas una "pregunta espejo" basada en el concepto de shell cognitivo de Shavelson: la misma estructura lógica, la misma habilidad cognitiva y la misma dificultad, con un contenido temático diferente.
Respondes únicamente con un objeto JSON válido, sin texto adicional.`

const instructions = `**Instrucciones de generación:**

1. Analiza la estructura lógica, la habilidad cognitiva evaluada y el formato de la pregunta en la imagen adjunta.
2. Crea una pregunta espejo con exactamente cuatro opciones (A, B, C, D) y una única respuesta correcta.
3. El enunciado no debe pedir ordenar, jerarquizar ni comparar opciones ("¿cuál es la mejor...?", "¿cuál es más...?").
4. Si la pregunta original usa una imagen, describe esa imagen en "descripcion_imagen_original". Si no, escribe "N/A".
5. Si la pregunta espejo necesita un gráfico, tabla o diagrama, descríbelo como especificación en "graficos_enunciado" o en "graficos" de la opción correspondiente. Si no hace falta, usa una lista vacía.
6. Justifica el enunciado, la clave y CADA una de las cuatro opciones. Para los distractores, explica el error conceptual que representa cada uno.`

const chartRules = `**Especificación de gráficos:**

- "tipo_elemento" es uno de: grafico_barras, grafico_circular, tabla, construccion_geometrica, diagrama_arbol, diagrama_flujo, pictograma, diagrama_dispersion, grafico_lineas, histograma, diagrama_caja, otro.
- Para tipos tabulares (grafico_barras, grafico_circular, tabla, pictograma, diagrama_dispersion, grafico_lineas, histograma, diagrama_caja), "datos" es {"columnas": [...], "filas": [[...], ...]}; cada fila tiene tantas celdas como columnas.
- Para construccion_geometrica, diagrama_arbol, diagrama_flujo y otro, "datos" es un texto que describe el elemento.
- "configuracion" admite "titulo", "eje_x" y "eje_y". "descripcion" es obligatoria.`

const outputSchema = `**Formato de salida (JSON):**
Responde ÚNICAMENTE con un objeto JSON válido con la siguiente estructura:
{
  "pregunta_espejo": "Texto completo del enunciado de la nueva pregunta...",
  "graficos_enunciado": [
    {
      "tipo_elemento": "grafico_barras",
      "datos": {"columnas": ["Categoría", "Valor"], "filas": [["X", 10], ["Y", 7]]},
      "configuracion": {"titulo": "...", "eje_x": "...", "eje_y": "..."},
      "descripcion": "Descripción legible del gráfico..."
    }
  ],
  "opciones": {
    "A": {"texto": "Texto de la opción A", "graficos": []},
    "B": {"texto": "Texto de la opción B", "graficos": []},
    "C": {"texto": "Texto de la opción C", "graficos": []},
    "D": {"texto": "Texto de la opción D", "graficos": []}
  },
  "clave": "%s",
  "descripcion_imagen_original": "Descripción de la imagen en la pregunta de entrada...",
  "justificacion_enunciado": "Por qué el enunciado evalúa la habilidad de la taxonomía...",
  "justificacion_clave": "Razón por la que la clave es correcta...",
  "justificaciones_distractores": [
    {"opcion": "A", "justificacion": "..."},
    {"opcion": "B", "justificacion": "..."},
    {"opcion": "C", "justificacion": "..."},
    {"opcion": "D", "justificacion": "..."}
  ]
}`

// BuildPrompt renders the user message for one generation attempt.
func BuildPrompt(req GenerationRequest) string {
	var b strings.Builder

	b.WriteString("**Shell cognitivo (pregunta original):** la imagen adjunta.\n\n")

	b.WriteString("**Taxonomía requerida:**\n")
	b.WriteString(formatTaxonomy(req.Taxonomy))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**Clave obligatoria:** la respuesta correcta DEBE ser la opción %s. "+
		"Esta restricción no es negociable: construye el enunciado y las opciones para que la clave sea %s, "+
		"y escribe \"clave\": \"%s\" en la salida.\n\n", req.ForcedKey, req.ForcedKey, req.ForcedKey)

	if fb := strings.TrimSpace(req.Feedback); fb != "" {
		b.WriteString("**Retroalimentación del auditor sobre el intento anterior (corrige todos los puntos):**\n")
		b.WriteString(fb)
		b.WriteString("\n\n")
	}

	b.WriteString("**Contexto adicional del usuario:**\n")
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		b.WriteString(ctx)
	} else {
		b.WriteString("Ninguno")
	}
	b.WriteString("\n\n")

	b.WriteString(instructions)
	b.WriteString("\n\n")
	b.WriteString(chartRules)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, outputSchema, req.ForcedKey)

	return b.String()
}

// formatTaxonomy renders the selection as a numbered "label: value" list.
func formatTaxonomy(sel taxonomy.Selection) string {
	facets := sel.Ordered()
	if len(facets) == 0 {
		return "Ninguna"
	}
	var b strings.Builder
	for i, f := range facets {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, taxonomy.Label(f.Name), f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
