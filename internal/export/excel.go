package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mirrorgen/internal/item"
)

// Sheet names of the workbook written by Excel.
const (
	ItemSheet  = "Item Generado"
	ChartSheet = "Graficos"
)

// Excel writes the item as an .xlsx workbook: one component/content row
// per part of the item, and a second sheet describing every chart.
func Excel(w io.Writer, c *item.CandidateItem) error {
	if reasons := c.Validate(); len(reasons) > 0 {
		return fmt.Errorf("item is not well-formed: %s", strings.Join(reasons, "; "))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ChartSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EEF6"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("wrap style: %w", err)
	}

	rows := [][]any{{"Componente", "Contenido"}}
	for _, r := range Rows(c) {
		rows = append(rows, []any{r.Component, r.Content})
	}
	if err := writeSheet(f, ItemSheet, rows, header, wrap); err != nil {
		return err
	}
	if err := f.SetColWidth(ItemSheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(ItemSheet, "B", "B", 100); err != nil {
		return err
	}

	charts := [][]any{{"Ubicación", "N°", "Tipo", "Título", "Eje X", "Eje Y", "Descripción", "Datos"}}
	for _, cr := range ChartRows(c) {
		charts = append(charts, []any{
			cr.Location,
			cr.Index,
			string(cr.Spec.Type),
			cr.Spec.Config.Title,
			cr.Spec.Config.XLabel,
			cr.Spec.Config.YLabel,
			cr.Spec.Description,
			string(cr.Spec.Data),
		})
	}
	if err := writeSheet(f, ChartSheet, charts, header, wrap); err != nil {
		return err
	}
	if err := f.SetColWidth(ChartSheet, "G", "H", 60); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet writes rows starting at A1. The first row is the header.
func writeSheet(f *excelize.File, sheet string, rows [][]any, header, body int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}

		last, err := excelize.CoordinatesToCellName(len(row), i+1)
		if err != nil {
			return err
		}
		style := body
		if i == 0 {
			style = header
		}
		if err := f.SetCellStyle(sheet, cell, last, style); err != nil {
			return fmt.Errorf("style %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
