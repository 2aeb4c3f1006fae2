// Package export writes an approved item as a Word document, an Excel
// workbook or JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/pipeline"
)

// ErrNotApproved is returned when asked to export a run that did not end
// with an approved item.
var ErrNotApproved = errors.New("run did not produce an approved item")

// FromOutcome returns the item of an approved outcome. Exhausted runs are
// never exported.
func FromOutcome(out *pipeline.Outcome) (*item.CandidateItem, error) {
	if out == nil || !out.Approved() {
		return nil, ErrNotApproved
	}
	return out.Item, nil
}

// Row is one component/content pair of the exported layout.
type Row struct {
	Component string
	Content   string
}

// ChartRow locates one chart spec within the item.
type ChartRow struct {
	Location string
	Option   item.Letter // empty for stem charts
	Index    int
	Spec     item.ChartSpec
}

// Slug names the chart for files: "enunciado-1", "opcion-b-2".
func (r ChartRow) Slug() string {
	if r.Option == "" {
		return fmt.Sprintf("enunciado-%d", r.Index)
	}
	return fmt.Sprintf("opcion-%s-%d", strings.ToLower(string(r.Option)), r.Index)
}

// Rows lays the item out in reading order: stem, options, key and the
// justifications.
func Rows(c *item.CandidateItem) []Row {
	rows := []Row{{"Enunciado", c.Stem}}
	for _, l := range item.Letters {
		rows = append(rows, Row{"Opción " + string(l), c.Options[l].Text})
	}
	rows = append(rows,
		Row{"Clave", string(c.Key)},
		Row{"Justificación de la clave", c.KeyJustification},
	)
	for _, l := range item.Letters {
		rows = append(rows, Row{"Justificación opción " + string(l), c.Justification(l)})
	}
	rows = append(rows,
		Row{"Justificación del enunciado", c.StemJustification},
		Row{"Descripción de la imagen original", c.OriginalImageDescription},
	)
	return rows
}

// ChartRows lists every chart spec with where it appears.
func ChartRows(c *item.CandidateItem) []ChartRow {
	var out []ChartRow
	for i, s := range c.StemCharts {
		out = append(out, ChartRow{Location: "Enunciado", Index: i + 1, Spec: s})
	}
	for _, l := range item.Letters {
		for i, s := range c.Options[l].Charts {
			out = append(out, ChartRow{Location: "Opción " + string(l), Option: l, Index: i + 1, Spec: s})
		}
	}
	return out
}

// JSON writes the item in its wire form.
func JSON(w io.Writer, c *item.CandidateItem) error {
	if reasons := c.Validate(); len(reasons) > 0 {
		return fmt.Errorf("item is not well-formed: %s", strings.Join(reasons, "; "))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
