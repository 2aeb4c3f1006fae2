// Package chart draws PNG previews of chart specs. Previews are a
// convenience for reviewing an item; nothing depends on them succeeding.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/abhisek/mirrorgen/internal/item"
)

// ErrNotRenderable is returned for element types that only carry a text
// description (geometric constructions, trees, flowcharts, other).
var ErrNotRenderable = errors.New("element type has no graphic preview")

const (
	defaultWidth  = 800
	defaultHeight = 500

	marginLeft   = 70.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 60.0
)

var palette = []color.Color{
	color.RGBA{0x1f, 0x77, 0xb4, 0xff},
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
	color.RGBA{0x8c, 0x56, 0x4b, 0xff},
}

var (
	axisColor = color.RGBA{0x33, 0x33, 0x33, 0xff}
	gridColor = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
)

// Renderer draws chart specs at a fixed size with one font face.
type Renderer struct {
	Width  int
	Height int
	face   font.Face
}

// NewRenderer returns a renderer using the built-in bitmap font.
func NewRenderer() *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight, face: basicfont.Face7x13}
}

// NewRendererWithFont loads a TrueType font for labels.
func NewRendererWithFont(path string, size float64) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	r := NewRenderer()
	r.face = truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return r, nil
}

// RendererFromEnv uses the TTF at MIRRORGEN_CHART_FONT when set. The
// bitmap font has no glyphs beyond ASCII, so accented labels need it.
func RendererFromEnv() (*Renderer, error) {
	if path := os.Getenv("MIRRORGEN_CHART_FONT"); path != "" {
		return NewRendererWithFont(path, 13)
	}
	return NewRenderer(), nil
}

// Render draws spec with the default renderer.
func Render(spec item.ChartSpec) ([]byte, error) {
	return NewRenderer().Render(spec)
}

// Render draws spec and returns it PNG-encoded.
func (r *Renderer) Render(spec item.ChartSpec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart spec: %w", err)
	}
	if !spec.Type.Tabular() {
		return nil, ErrNotRenderable
	}
	t, err := spec.Table()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(r.Width, r.Height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(r.face)

	switch spec.Type {
	case item.ElementBarChart, item.ElementPictogram:
		err = r.drawBars(dc, spec, t, 0.2)
	case item.ElementHistogram:
		err = r.drawBars(dc, spec, t, 0)
	case item.ElementLinePlot:
		err = r.drawLines(dc, spec, t)
	case item.ElementScatterPlot:
		err = r.drawScatter(dc, spec, t)
	case item.ElementPieChart:
		err = r.drawPie(dc, spec, t)
	case item.ElementBoxPlot:
		err = r.drawBoxes(dc, spec, t)
	case item.ElementTable:
		r.drawTable(dc, spec, t)
	default:
		err = ErrNotRenderable
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.Type, err)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// plot is the drawable area inside the margins.
type plot struct {
	x0, y0, x1, y1 float64
	lo, hi         float64
}

func (p plot) y(v float64) float64 {
	return p.y1 - (v-p.lo)/(p.hi-p.lo)*(p.y1-p.y0)
}

func (r *Renderer) frame(dc *gg.Context, spec item.ChartSpec, lo, hi float64) plot {
	p := plot{
		x0: marginLeft, y0: marginTop,
		x1: float64(r.Width) - marginRight, y1: float64(r.Height) - marginBottom,
		lo: lo, hi: hi,
	}

	dc.SetColor(axisColor)
	if spec.Config.Title != "" {
		dc.DrawStringAnchored(spec.Config.Title, float64(r.Width)/2, marginTop/2, 0.5, 0.5)
	}
	if spec.Config.XLabel != "" {
		dc.DrawStringAnchored(spec.Config.XLabel, (p.x0+p.x1)/2, float64(r.Height)-15, 0.5, 0.5)
	}
	if spec.Config.YLabel != "" {
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), 18, (p.y0+p.y1)/2)
		dc.DrawStringAnchored(spec.Config.YLabel, 18, (p.y0+p.y1)/2, 0.5, 0.5)
		dc.Pop()
	}

	const ticks = 5
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*float64(i)/ticks
		y := p.y(v)
		dc.SetColor(gridColor)
		dc.DrawLine(p.x0, y, p.x1, y)
		dc.Stroke()
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(formatTick(v), p.x0-8, y, 1, 0.5)
	}

	dc.SetColor(axisColor)
	dc.DrawLine(p.x0, p.y0, p.x0, p.y1)
	dc.DrawLine(p.x0, p.y1, p.x1, p.y1)
	dc.Stroke()
	return p
}

func (r *Renderer) legend(dc *gg.Context, ss []series) {
	if len(ss) < 2 {
		return
	}
	x := float64(r.Width) - marginRight - 150
	for i, s := range ss {
		y := marginTop + float64(i)*18
		dc.SetColor(palette[i%len(palette)])
		dc.DrawRectangle(x, y-5, 10, 10)
		dc.Fill()
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(s.Name, x+16, y, 0, 0.5)
	}
}

// drawBars draws grouped bars. gap is the fraction of each category slot
// left empty; histograms use zero.
func (r *Renderer) drawBars(dc *gg.Context, spec item.ChartSpec, t *item.TableData, gap float64) error {
	ds, err := categorical(t)
	if err != nil {
		return err
	}
	vals := make([][]float64, len(ds.Series))
	for i, s := range ds.Series {
		vals[i] = s.Values
	}
	lo, hi := bounds(true, vals...)
	p := r.frame(dc, spec, lo, hi)

	slot := (p.x1 - p.x0) / float64(len(ds.Labels))
	barW := slot * (1 - gap) / float64(len(ds.Series))
	for i, lbl := range ds.Labels {
		left := p.x0 + float64(i)*slot + slot*gap/2
		for j, s := range ds.Series {
			top, base := p.y(s.Values[i]), p.y(0)
			if top > base {
				top, base = base, top
			}
			dc.SetColor(palette[j%len(palette)])
			dc.DrawRectangle(left+float64(j)*barW, top, barW, base-top)
			dc.Fill()
			if gap == 0 {
				dc.SetColor(color.White)
				dc.DrawRectangle(left+float64(j)*barW, top, barW, base-top)
				dc.Stroke()
			}
		}
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(lbl, p.x0+(float64(i)+0.5)*slot, p.y1+14, 0.5, 0.5)
	}
	r.legend(dc, ds.Series)
	return nil
}

func (r *Renderer) drawLines(dc *gg.Context, spec item.ChartSpec, t *item.TableData) error {
	ds, err := categorical(t)
	if err != nil {
		return err
	}
	vals := make([][]float64, len(ds.Series))
	for i, s := range ds.Series {
		vals[i] = s.Values
	}
	lo, hi := bounds(false, vals...)
	p := r.frame(dc, spec, lo, hi)

	step := (p.x1 - p.x0) / float64(len(ds.Labels))
	x := func(i int) float64 { return p.x0 + (float64(i)+0.5)*step }

	for j, s := range ds.Series {
		dc.SetColor(palette[j%len(palette)])
		dc.SetLineWidth(2)
		for i, v := range s.Values {
			if i == 0 {
				dc.MoveTo(x(i), p.y(v))
			} else {
				dc.LineTo(x(i), p.y(v))
			}
		}
		dc.Stroke()
		for i, v := range s.Values {
			dc.DrawCircle(x(i), p.y(v), 3.5)
			dc.Fill()
		}
	}
	dc.SetColor(axisColor)
	for i, lbl := range ds.Labels {
		dc.DrawStringAnchored(lbl, x(i), p.y1+14, 0.5, 0.5)
	}
	r.legend(dc, ds.Series)
	return nil
}

func (r *Renderer) drawScatter(dc *gg.Context, spec item.ChartSpec, t *item.TableData) error {
	pts, err := points(t)
	if err != nil {
		return err
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt[0], pt[1]
	}
	xlo, xhi := bounds(false, xs)
	lo, hi := bounds(false, ys)
	p := r.frame(dc, spec, lo, hi)

	x := func(v float64) float64 { return p.x0 + (v-xlo)/(xhi-xlo)*(p.x1-p.x0) }
	dc.SetColor(axisColor)
	for i := 0; i <= 5; i++ {
		v := xlo + (xhi-xlo)*float64(i)/5
		dc.DrawStringAnchored(formatTick(v), x(v), p.y1+14, 0.5, 0.5)
	}
	dc.SetColor(palette[0])
	for _, pt := range pts {
		dc.DrawCircle(x(pt[0]), p.y(pt[1]), 4)
		dc.Fill()
	}
	return nil
}

func (r *Renderer) drawPie(dc *gg.Context, spec item.ChartSpec, t *item.TableData) error {
	ds, err := categorical(t)
	if err != nil {
		return err
	}
	values := ds.Series[0].Values

	var total float64
	for _, v := range values {
		if v < 0 {
			return fmt.Errorf("negative slice value %v", v)
		}
		total += v
	}
	if total == 0 {
		return errors.New("slice values sum to zero")
	}

	dc.SetColor(axisColor)
	if spec.Config.Title != "" {
		dc.DrawStringAnchored(spec.Config.Title, float64(r.Width)/2, marginTop/2, 0.5, 0.5)
	}

	cx := float64(r.Width) * 0.4
	cy := float64(r.Height)/2 + 10
	radius := math.Min(float64(r.Width)*0.3, float64(r.Height)/2-marginTop)

	angle := -math.Pi / 2
	for i, v := range values {
		sweep := v / total * 2 * math.Pi
		dc.SetColor(palette[i%len(palette)])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.Fill()
		angle += sweep

		y := marginTop + float64(i)*20
		x := cx + radius + 40
		dc.DrawRectangle(x, y-6, 12, 12)
		dc.Fill()
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(fmt.Sprintf("%s (%.0f%%)", ds.Labels[i], v/total*100), x+18, y, 0, 0.5)
	}
	return nil
}

func (r *Renderer) drawBoxes(dc *gg.Context, spec item.ChartSpec, t *item.TableData) error {
	samples := columns(t)
	if len(samples) == 0 {
		return errors.New("no numeric column")
	}
	vals := make([][]float64, len(samples))
	for i, s := range samples {
		vals[i] = s.Values
	}
	lo, hi := bounds(false, vals...)
	p := r.frame(dc, spec, lo, hi)

	slot := (p.x1 - p.x0) / float64(len(samples))
	for i, s := range samples {
		sorted := append([]float64(nil), s.Values...)
		sort.Float64s(sorted)
		q := quartiles(sorted)

		cx := p.x0 + (float64(i)+0.5)*slot
		half := slot * 0.2

		dc.SetColor(palette[i%len(palette)])
		dc.DrawRectangle(cx-half, p.y(q[3]), 2*half, p.y(q[1])-p.y(q[3]))
		dc.Fill()

		dc.SetColor(axisColor)
		dc.SetLineWidth(1.5)
		dc.DrawLine(cx-half, p.y(q[2]), cx+half, p.y(q[2]))
		dc.DrawLine(cx, p.y(q[0]), cx, p.y(q[1]))
		dc.DrawLine(cx, p.y(q[3]), cx, p.y(q[4]))
		dc.DrawLine(cx-half/2, p.y(q[0]), cx+half/2, p.y(q[0]))
		dc.DrawLine(cx-half/2, p.y(q[4]), cx+half/2, p.y(q[4]))
		dc.Stroke()

		dc.DrawStringAnchored(s.Name, cx, p.y1+14, 0.5, 0.5)
	}
	return nil
}

func (r *Renderer) drawTable(dc *gg.Context, spec item.ChartSpec, t *item.TableData) {
	top := 20.0
	if spec.Config.Title != "" {
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(spec.Config.Title, float64(r.Width)/2, marginTop/2, 0.5, 0.5)
		top = marginTop
	}

	left, right := 20.0, float64(r.Width)-20
	colW := (right - left) / float64(len(t.Columns))
	rowH := math.Min(28, (float64(r.Height)-top-20)/float64(len(t.Rows)+1))

	dc.SetColor(color.RGBA{0xe8, 0xee, 0xf6, 0xff})
	dc.DrawRectangle(left, top, right-left, rowH)
	dc.Fill()

	dc.SetColor(axisColor)
	for c, name := range t.Columns {
		dc.DrawStringAnchored(name, left+(float64(c)+0.5)*colW, top+rowH/2, 0.5, 0.5)
	}
	for i, row := range t.Rows {
		y := top + float64(i+1)*rowH
		for c, cell := range row {
			dc.DrawStringAnchored(label(cell), left+(float64(c)+0.5)*colW, y+rowH/2, 0.5, 0.5)
		}
	}

	dc.SetLineWidth(1)
	rows := len(t.Rows) + 1
	for i := 0; i <= rows; i++ {
		y := top + float64(i)*rowH
		dc.DrawLine(left, y, right, y)
	}
	for c := 0; c <= len(t.Columns); c++ {
		x := left + float64(c)*colW
		dc.DrawLine(x, top, x, top+float64(rows)*rowH)
	}
	dc.Stroke()
}
