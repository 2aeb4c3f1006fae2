package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ElementType is the kind of visual a ChartSpec describes.
type ElementType string

const (
	ElementBarChart    ElementType = "grafico_barras"
	ElementPieChart    ElementType = "grafico_circular"
	ElementTable       ElementType = "tabla"
	ElementGeometric   ElementType = "construccion_geometrica"
	ElementTreeDiagram ElementType = "diagrama_arbol"
	ElementFlowchart   ElementType = "diagrama_flujo"
	ElementPictogram   ElementType = "pictograma"
	ElementScatterPlot ElementType = "diagrama_dispersion"
	ElementLinePlot    ElementType = "grafico_lineas"
	ElementHistogram   ElementType = "histograma"
	ElementBoxPlot     ElementType = "diagrama_caja"
	ElementOther       ElementType = "otro"
)

// ElementTypes lists every accepted element type.
var ElementTypes = []ElementType{
	ElementBarChart, ElementPieChart, ElementTable, ElementGeometric,
	ElementTreeDiagram, ElementFlowchart, ElementPictogram, ElementScatterPlot,
	ElementLinePlot, ElementHistogram, ElementBoxPlot, ElementOther,
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	for _, e := range ElementTypes {
		if t == e {
			return true
		}
	}
	return false
}

// Tabular reports whether t carries column/row data rather than a
// natural-language description.
func (t ElementType) Tabular() bool {
	switch t {
	case ElementGeometric, ElementTreeDiagram, ElementFlowchart, ElementOther:
		return false
	}
	return true
}

// ChartConfig holds display settings for a chart.
type ChartConfig struct {
	Title  string `json:"titulo,omitempty"`
	XLabel string `json:"eje_x,omitempty"`
	YLabel string `json:"eje_y,omitempty"`
}

// ChartSpec describes a chart, table or diagram embedded in the stem or in
// an option. Data is kept raw because its shape depends on Type.
type ChartSpec struct {
	Type        ElementType     `json:"tipo_elemento"`
	Data        json.RawMessage `json:"datos"`
	Config      ChartConfig     `json:"configuracion"`
	Description string          `json:"descripcion"`
}

// TableData is the payload of tabular element types.
type TableData struct {
	Columns []string `json:"columnas"`
	Rows    [][]any  `json:"filas"`
}

// Table decodes Data as tabular data.
func (c ChartSpec) Table() (*TableData, error) {
	if len(c.Data) == 0 {
		return nil, errors.New("no data")
	}
	var t TableData
	if err := json.Unmarshal(c.Data, &t); err != nil {
		return nil, fmt.Errorf("decode table data: %w", err)
	}
	return &t, nil
}

// Text returns the natural-language payload of a descriptive element. It
// falls back to Description when Data is absent or not a JSON string.
func (c ChartSpec) Text() string {
	var s string
	if len(c.Data) > 0 && json.Unmarshal(c.Data, &s) == nil && strings.TrimSpace(s) != "" {
		return s
	}
	return c.Description
}

// Validate checks that the spec is well-formed for its element type.
func (c ChartSpec) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("unknown element type %q", c.Type)
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("description is empty")
	}
	if !c.Type.Tabular() {
		return nil
	}

	t, err := c.Table()
	if err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return errors.New("table has no columns")
	}
	if len(t.Rows) == 0 {
		return errors.New("table has no rows")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", i+1, len(row), len(t.Columns))
		}
	}
	return nil
}
