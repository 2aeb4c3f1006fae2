// Package itemtest provides well-formed item fixtures for tests.
package itemtest

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/mirrorgen/internal/item"
)

// New returns a well-formed item whose key is key. The stem carries a bar
// chart and option A a table.
func New(key item.Letter) *item.CandidateItem {
	opts := map[item.Letter]item.Option{
		item.LetterA: {
			Text: "La tabla muestra 12 estudiantes en fútbol.",
			Charts: []item.ChartSpec{{
				Type:        item.ElementTable,
				Data:        json.RawMessage(`{"columnas":["Deporte","Estudiantes"],"filas":[["Fútbol",12],["Baloncesto",8]]}`),
				Config:      item.ChartConfig{Title: "Deportes"},
				Description: "Tabla de frecuencias por deporte",
			}},
		},
		item.LetterB: {Text: "20 estudiantes"},
		item.LetterC: {Text: "8 estudiantes"},
		item.LetterD: {Text: "4 estudiantes"},
	}
	var justs []item.OptionJustification
	for _, l := range item.Letters {
		j := fmt.Sprintf("La opción %s confunde la frecuencia con el total.", l)
		if l == key {
			j = fmt.Sprintf("La opción %s es correcta porque lee la barra más alta.", l)
		}
		justs = append(justs, item.OptionJustification{Option: l, Justification: j})
	}
	return &item.CandidateItem{
		Stem: "Según el gráfico, ¿cuántos estudiantes prefieren el fútbol?",
		StemCharts: []item.ChartSpec{{
			Type:        item.ElementBarChart,
			Data:        json.RawMessage(`{"columnas":["Deporte","Estudiantes"],"filas":[["Fútbol",12],["Baloncesto",8],["Tenis",4]]}`),
			Config:      item.ChartConfig{Title: "Deporte favorito", XLabel: "Deporte", YLabel: "Estudiantes"},
			Description: "Gráfico de barras con la preferencia deportiva de un curso",
		}},
		Options:                  opts,
		Key:                      key,
		OriginalImageDescription: "Gráfico de barras sobre frutas favoritas.",
		StemJustification:        "El enunciado pide leer un dato puntual sin comparar.",
		KeyJustification:         fmt.Sprintf("%s corresponde al valor de la barra de fútbol.", key),
		OptionJustifications:     justs,
	}
}

// JSON returns New(key) serialized as the model would emit it.
func JSON(key item.Letter) string {
	b, err := json.Marshal(New(key))
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Wrapped returns JSON(key) surrounded by prose and a code fence, the way
// chatty models answer.
func Wrapped(key item.Letter) string {
	return "Aquí está el ítem solicitado:\n```json\n" + JSON(key) + "\n```\nEspero que sea útil."
}
