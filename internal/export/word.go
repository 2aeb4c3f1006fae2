package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/mirrorgen/internal/item"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// WordprocessingML subset. Prefixed tag names are written literally.
type docxDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    docxBody `xml:"w:body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"w:p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"w:r"`
}

type docxRun struct {
	Props *docxRunProps `xml:"w:rPr,omitempty"`
	Text  docxText      `xml:"w:t"`
}

type docxRunProps struct {
	Bold *struct{} `xml:"w:b,omitempty"`
	Size *docxVal  `xml:"w:sz,omitempty"`
}

type docxVal struct {
	Val string `xml:"w:val,attr"`
}

type docxText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

// docxBuilder accumulates paragraphs.
type docxBuilder struct {
	paras []docxParagraph
}

func (b *docxBuilder) heading(text string, halfPoints int) {
	b.paras = append(b.paras, docxParagraph{Runs: []docxRun{{
		Props: &docxRunProps{Bold: &struct{}{}, Size: &docxVal{Val: fmt.Sprint(halfPoints)}},
		Text:  docxText{Space: "preserve", Value: text},
	}}})
}

// labeled writes "label: text" with the label in bold.
func (b *docxBuilder) labeled(label, text string) {
	b.paras = append(b.paras, docxParagraph{Runs: []docxRun{
		{Props: &docxRunProps{Bold: &struct{}{}}, Text: docxText{Space: "preserve", Value: label + ": "}},
		{Text: docxText{Space: "preserve", Value: text}},
	}})
}

func (b *docxBuilder) text(text string) {
	// Each line becomes its own paragraph; w:t does not honor newlines.
	for _, line := range strings.Split(text, "\n") {
		b.paras = append(b.paras, docxParagraph{Runs: []docxRun{
			{Text: docxText{Space: "preserve", Value: line}},
		}})
	}
}

func (b *docxBuilder) blank() {
	b.paras = append(b.paras, docxParagraph{})
}

func (b *docxBuilder) chart(cr ChartRow) {
	title := cr.Spec.Config.Title
	if title == "" {
		title = string(cr.Spec.Type)
	}
	b.labeled(fmt.Sprintf("Gráfico %d (%s)", cr.Index, cr.Spec.Type), title)
	b.text(cr.Spec.Description)
	if !cr.Spec.Type.Tabular() {
		if txt := cr.Spec.Text(); txt != cr.Spec.Description {
			b.text(txt)
		}
		return
	}
	if t, err := cr.Spec.Table(); err == nil {
		b.text(strings.Join(t.Columns, " | "))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				if c != nil {
					cells[i] = fmt.Sprint(c)
				}
			}
			b.text(strings.Join(cells, " | "))
		}
	}
}

// Word writes the item as a .docx document.
func Word(w io.Writer, c *item.CandidateItem) error {
	if reasons := c.Validate(); len(reasons) > 0 {
		return fmt.Errorf("item is not well-formed: %s", strings.Join(reasons, "; "))
	}

	var b docxBuilder
	b.heading("Pregunta espejo", 32)
	b.blank()

	b.heading("Enunciado", 26)
	b.text(c.Stem)
	charts := ChartRows(c)
	for _, cr := range charts {
		if cr.Option == "" {
			b.chart(cr)
		}
	}
	b.blank()

	b.heading("Opciones", 26)
	for _, l := range item.Letters {
		b.labeled(string(l), c.Options[l].Text)
		for _, cr := range charts {
			if cr.Option == l {
				b.chart(cr)
			}
		}
	}
	b.blank()

	b.labeled("Clave", string(c.Key))
	b.blank()

	b.heading("Justificaciones", 26)
	b.labeled("Enunciado", c.StemJustification)
	b.labeled("Clave", c.KeyJustification)
	for _, l := range item.Letters {
		b.labeled("Opción "+string(l), c.Justification(l))
	}
	b.blank()

	b.heading("Descripción de la imagen original", 26)
	b.text(c.OriginalImageDescription)

	doc := docxDocument{NS: wordNamespace, Body: docxBody{Paragraphs: b.paras}}
	body, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/document.xml", append([]byte(xml.Header), body...)},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish docx: %w", err)
	}
	return nil
}
