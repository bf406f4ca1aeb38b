// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package render

import (
	"image/color"
	"strconv"

	"github.com/grailbio/methplot/annotation"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	figureWidth = 10 * vg.Inch
	// rowUnitHeight is the height of one row unit of a plan.
	rowUnitHeight = 1.25 * vg.Inch
)

// Artifact is something a Target can render.  Figure and QCReport are the
// implementations.
type Artifact interface {
	// Title is the document title.
	Title() string
	size() (w, h vg.Length)
	draw(dc draw.Canvas) error
	// data is embedded in HTML output for scripts to use.
	data() interface{}
}

// Title implements Artifact.
func (f *Figure) Title() string { return f.Plan.Title + " " + f.Plan.Window }

func (f *Figure) size() (vg.Length, vg.Length) {
	return figureWidth, vg.Length(f.Plan.TotalSpan()) * rowUnitHeight
}

func (f *Figure) data() interface{} { return f }

func (f *Figure) draw(dc draw.Canvas) error {
	plan := f.Plan
	tiles := draw.Tiles{Rows: plan.Rows, Cols: 1, PadY: vg.Points(2), PadTop: vg.Points(4), PadBottom: vg.Points(4)}
	first := true
	for row := 1; row <= plan.Rows; row++ {
		ax := plan.Axis(row)
		traces := f.Rows[row-1]
		if ax.Span == 0 || len(traces) == 0 {
			continue
		}
		p := plot.New()
		if first {
			p.Title.Text = plan.Title
			first = false
		}
		p.Y.Label.Text = ax.Title
		p.X.Tick.Marker = thousandsTicks{}
		for _, t := range traces {
			if err := addTrace(p, t, plan.ShowLegend); err != nil {
				return err
			}
		}
		if ax.Range != nil {
			p.Y.Min, p.Y.Max = ax.Range.Low, ax.Range.High
		}
		if ax.Bare {
			p.HideY()
		}
		p.X.Min, p.X.Max = float64(plan.XRange.Begin), float64(plan.XRange.End)
		if plan.ShowLegend && row == 1 {
			p.Legend.Top = true
		}
		c := tiles.At(dc, 0, row-1)
		if ax.Span > 1 {
			last := tiles.At(dc, 0, row+ax.Span-2)
			c.Rectangle.Min.Y = last.Rectangle.Min.Y
		}
		p.Draw(c)
	}
	return nil
}

func addTrace(p *plot.Plot, t Trace, legend bool) error {
	switch t.Kind {
	case Line:
		return addLine(p, t, legend)
	case Markers:
		return addMarkers(p, t)
	case Annotation:
		return addAnnotation(p, t.Features)
	}
	return nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	return pts
}

func parseHex(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func addLine(p *plot.Plot, t Trace, legend bool) error {
	if len(t.X) == 0 {
		return nil
	}
	l, err := plotter.NewLine(xys(t.X, t.Y))
	if err != nil {
		return err
	}
	l.LineStyle.Color = parseHex(t.Color)
	l.LineStyle.Width = vg.Points(1.5)
	p.Add(l)
	if legend {
		p.Legend.Add(t.Name, l)
	}
	return nil
}

func addMarkers(p *plot.Plot, t Trace) error {
	byClass := map[CallClass]plotter.XYs{}
	for i := range t.X {
		byClass[t.Class[i]] = append(byClass[t.Class[i]], plotter.XY{X: t.X[i], Y: t.Y[i]})
	}
	for _, class := range []CallClass{Ambiguous, Unmethylated, Methylated} {
		pts := byClass[class]
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = callColors[class]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
	}
	p.Y.Min, p.Y.Max = -1, float64(len(t.Reads))
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
	return nil
}

func box(start, end int, y, half float64) plotter.XYs {
	return plotter.XYs{
		{X: float64(start), Y: y - half},
		{X: float64(end), Y: y - half},
		{X: float64(end), Y: y + half},
		{X: float64(start), Y: y + half},
	}
}

func addAnnotation(p *plot.Plot, features []annotation.Feature) error {
	var labels plotter.XYLabels
	for _, f := range features {
		y := float64(f.Depth)
		if f.Kind == annotation.Region {
			poly, err := plotter.NewPolygon(box(f.Start, f.End, y, 0.4))
			if err != nil {
				return err
			}
			poly.Color = color.RGBA{R: 0xff, G: 0xcc, B: 0x00, A: 0x80}
			poly.LineStyle.Width = 0
			p.Add(poly)
			continue
		}
		span, err := plotter.NewLine(plotter.XYs{{X: float64(f.Start), Y: y}, {X: float64(f.End), Y: y}})
		if err != nil {
			return err
		}
		span.LineStyle.Color = color.Gray{Y: 0x60}
		p.Add(span)
		for _, e := range f.Exons {
			poly, err := plotter.NewPolygon(box(e.Start, e.End, y, 0.3))
			if err != nil {
				return err
			}
			poly.Color = color.Gray{Y: 0x40}
			p.Add(poly)
		}
		labels.XYs = append(labels.XYs, plotter.XY{X: float64(f.Start), Y: y + 0.45})
		labels.Labels = append(labels.Labels, f.Name)
	}
	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		p.Add(l)
	}
	return nil
}

// thousandsTicks labels the default ticks with thousands separators.
type thousandsTicks struct{}

func (thousandsTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = separateThousands(int64(ticks[i].Value))
		}
	}
	return ticks
}

func separateThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := v < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
