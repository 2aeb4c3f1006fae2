package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

const systemPrompt = `Eres un auditor psicométrico que revisa ítems de selección múltiple con única respuesta.
Evalúas cada criterio de la rúbrica de forma independiente y emites un veredicto global.
Respondes únicamente con un objeto JSON válido, sin texto adicional.`

const outputFormat = `**Formato de salida (JSON):**
{
  "criterios": [
    {"criterio": "alineacion_taxonomica", "cumple": true, "comentario": "..."},
    {"criterio": "estilo_enunciado", "cumple": true, "comentario": "..."},
    {"criterio": "calidad_justificaciones", "cumple": true, "comentario": "..."},
    {"criterio": "consistencia_clave", "cumple": true, "comentario": "..."},
    {"criterio": "coherencia_graficos", "cumple": true, "comentario": "..."}
  ],
  "veredicto": "aprobado",
  "retroalimentacion": "Si el veredicto es rechazado, instrucciones concretas para corregir el ítem."
}

Usa "aprobado" solo si todos los criterios se cumplen; en otro caso usa "rechazado" y explica en "retroalimentacion" qué debe cambiar.`

// BuildPrompt renders the audit request for one candidate.
func BuildPrompt(c *item.CandidateItem, sel taxonomy.Selection) (string, error) {
	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode candidate: %w", err)
	}

	var b strings.Builder

	b.WriteString("**Taxonomía objetivo:**\n")
	facets := sel.Ordered()
	if len(facets) == 0 {
		b.WriteString("Ninguna\n")
	}
	for i, f := range facets {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, taxonomy.Label(f.Name), f.Value)
	}
	b.WriteString("\n")

	b.WriteString("**Ítem a auditar:**\n```json\n")
	b.Write(body)
	b.WriteString("\n```\n\n")

	b.WriteString("**Rúbrica:**\n")
	for _, r := range Rubric {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Label, r.Criterion, r.Instruction)
	}
	b.WriteString("\n")

	b.WriteString(outputFormat)

	return b.String(), nil
}
