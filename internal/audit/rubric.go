package audit

// Criterion names one rubric criterion on the wire.
type Criterion string

const (
	TaxonomyAlignment    Criterion = "alineacion_taxonomica"
	StemStyle            Criterion = "estilo_enunciado"
	JustificationQuality Criterion = "calidad_justificaciones"
	KeyConsistency       Criterion = "consistencia_clave"
	ChartCoherence       Criterion = "coherencia_graficos"
)

// RubricEntry describes a criterion for the auditor.
type RubricEntry struct {
	Criterion   Criterion
	Label       string
	Instruction string
}

// Rubric is the fixed five-criterion audit rubric, in evaluation order.
var Rubric = []RubricEntry{
	{
		Criterion:   TaxonomyAlignment,
		Label:       "Alineación taxonómica",
		Instruction: "El ítem evalúa la competencia, la afirmación y la evidencia indicadas, en el grado y componente indicados.",
	},
	{
		Criterion:   StemStyle,
		Label:       "Estilo del enunciado",
		Instruction: "El enunciado es claro y autocontenido, y no usa fórmulas de jerarquización o comparación entre opciones (\"la mejor\", \"la más adecuada\", \"cuál es más\").",
	},
	{
		Criterion:   JustificationQuality,
		Label:       "Calidad de las justificaciones",
		Instruction: "Cada distractor tiene una justificación que explica un error conceptual plausible, y la justificación de la clave demuestra por qué es correcta.",
	},
	{
		Criterion:   KeyConsistency,
		Label:       "Consistencia de la clave",
		Instruction: "La clave indicada es la única opción correcta y coincide con su justificación; ningún distractor es también correcto.",
	},
	{
		Criterion:   ChartCoherence,
		Label:       "Coherencia de los gráficos",
		Instruction: "Los gráficos o tablas especificados son coherentes con el enunciado y las opciones, y sus datos permiten resolver el ítem. Si no hay gráficos, el ítem no los necesita.",
	},
}

// Valid reports whether c is a rubric criterion.
func (c Criterion) Valid() bool {
	for _, r := range Rubric {
		if r.Criterion == c {
			return true
		}
	}
	return false
}

// Label returns the human-readable name of c.
func (c Criterion) Label() string {
	for _, r := range Rubric {
		if r.Criterion == c {
			return r.Label
		}
	}
	return string(c)
}
