package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/item/itemtest"
	"github.com/abhisek/mirrorgen/internal/pipeline"
)

func TestFromOutcome(t *testing.T) {
	c := itemtest.New(item.LetterB)

	got, err := FromOutcome(&pipeline.Outcome{Status: pipeline.StateApproved, Item: c})
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = FromOutcome(&pipeline.Outcome{Status: pipeline.StateExhausted, LastFeedback: "mal"})
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = FromOutcome(nil)
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestRows(t *testing.T) {
	c := itemtest.New(item.LetterC)
	rows := Rows(c)

	require.Len(t, rows, 1+4+2+4+2)
	assert.Equal(t, Row{"Enunciado", c.Stem}, rows[0])
	assert.Equal(t, "Opción A", rows[1].Component)
	assert.Equal(t, Row{"Clave", "C"}, rows[5])
	assert.Equal(t, c.Justification(item.LetterD), rows[10].Content)
}

func TestChartRows(t *testing.T) {
	rows := ChartRows(itemtest.New(item.LetterA))
	require.Len(t, rows, 2)
	assert.Equal(t, "Enunciado", rows[0].Location)
	assert.Equal(t, "Opción A", rows[1].Location)
	assert.Equal(t, item.ElementTable, rows[1].Spec.Type)
	assert.Equal(t, "enunciado-1", rows[0].Slug())
	assert.Equal(t, "opcion-a-1", rows[1].Slug())
}

func TestJSON(t *testing.T) {
	c := itemtest.New(item.LetterD)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, c))

	var back item.CandidateItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, item.LetterD, back.Key)
	assert.Contains(t, buf.String(), `"pregunta_espejo"`)
	assert.Contains(t, buf.String(), "¿cuántos")
}

func TestExport_RejectsMalformedItem(t *testing.T) {
	c := itemtest.New(item.LetterA)
	c.Key = "E"
	assert.Error(t, JSON(io.Discard, c))
	assert.Error(t, Word(io.Discard, c))
	assert.Error(t, Excel(io.Discard, c))
}

// documentParagraphs returns the text of every paragraph in document.xml.
func documentParagraphs(t *testing.T, b []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	names := map[string]*zip.File{}
	for _, f := range zr.File {
		names[f.Name] = f
	}
	require.Contains(t, names, "[Content_Types].xml")
	require.Contains(t, names, "_rels/.rels")
	require.Contains(t, names, "word/document.xml")

	rc, err := names["word/document.xml"].Open()
	require.NoError(t, err)
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		paras []string
		cur   strings.Builder
		inT   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inT = true
			}
		case xml.CharData:
			if inT {
				cur.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inT = false
			case "p":
				paras = append(paras, cur.String())
				cur.Reset()
			}
		}
	}
	return paras
}

func TestWord(t *testing.T) {
	c := itemtest.New(item.LetterB)
	c.Stem = "¿Cuál es el valor de x si 3 < x & x < 5?"

	var buf bytes.Buffer
	require.NoError(t, Word(&buf, c))

	paras := documentParagraphs(t, buf.Bytes())
	require.NotEmpty(t, paras)
	assert.Equal(t, "Pregunta espejo", paras[0])
	assert.Contains(t, paras, c.Stem, "special characters survive escaping")
	assert.Contains(t, paras, "A: "+c.Options[item.LetterA].Text)
	assert.Contains(t, paras, "Clave: B")
	assert.Contains(t, paras, "Opción B: "+c.Justification(item.LetterB))
	assert.Contains(t, paras, "Deporte | Estudiantes")
	assert.Contains(t, paras, c.OriginalImageDescription)
}

func TestExcel(t *testing.T) {
	c := itemtest.New(item.LetterA)
	var buf bytes.Buffer
	require.NoError(t, Excel(&buf, c))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ItemSheet, ChartSheet}, f.GetSheetList())

	rows, err := f.GetRows(ItemSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(Rows(c)))
	assert.Equal(t, []string{"Componente", "Contenido"}, rows[0])
	assert.Equal(t, []string{"Enunciado", c.Stem}, rows[1])
	assert.Equal(t, []string{"Clave", "A"}, rows[6])

	charts, err := f.GetRows(ChartSheet)
	require.NoError(t, err)
	require.Len(t, charts, 3)
	assert.Equal(t, "Enunciado", charts[1][0])
	assert.Equal(t, "grafico_barras", charts[1][2])
	assert.Equal(t, "Opción A", charts[2][0])
	assert.JSONEq(t, string(c.Options[item.LetterA].Charts[0].Data), charts[2][7])
}
