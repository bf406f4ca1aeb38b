// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/methplot/qc"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	qcPanelWidth  = 5 * vg.Inch
	qcPanelHeight = 4 * vg.Inch
	histBins      = 20
)

// QCReport is the QC artifact of one window.
type QCReport struct {
	Window  string      `json:"window"`
	Summary *qc.Summary `json:"summary"`
	// Correlation and PCA are derived from Summary.Table when it is present
	// and large enough.
	Correlation [][]float64    `json:"correlation,omitempty"`
	PCA         *qc.Projection `json:"pca,omitempty"`
}

// NewQCReport computes the derived statistics of s.  Statistics that cannot be
// computed for this window are left out with a log message.
func NewQCReport(window string, s *qc.Summary) *QCReport {
	r := &QCReport{Window: window, Summary: s}
	if s.Table == nil {
		return r
	}
	if corr, err := s.Table.Correlation(); err != nil {
		log.Printf("render.NewQCReport %s: %v", window, err)
	} else {
		r.Correlation = symRows(corr)
	}
	if p, err := s.Table.PCA(); err != nil {
		log.Printf("render.NewQCReport %s: %v", window, err)
	} else {
		r.PCA = p
	}
	return r
}

func symRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			// A constant sample has no correlation; it is drawn as 0.
			if v := m.At(i, j); !math.IsNaN(v) {
				rows[i][j] = v
			}
		}
	}
	return rows
}

// Title implements Artifact.
func (r *QCReport) Title() string { return "Methylation QC " + r.Window }

func (r *QCReport) panels() []func() (*plot.Plot, error) {
	panels := []func() (*plot.Plot, error){r.histogram}
	if r.Correlation != nil {
		panels = append(panels, r.heatmap)
	}
	if r.PCA != nil {
		panels = append(panels, r.pcaScatter)
	}
	if r.Summary.Table != nil && r.Summary.Table.Len() > 0 {
		panels = append(panels, r.boxplot)
	}
	return panels
}

func (r *QCReport) size() (vg.Length, vg.Length) {
	n := len(r.panels())
	cols := 2
	if n < 2 {
		cols = n
	}
	rows := (n + cols - 1) / cols
	return vg.Length(cols) * qcPanelWidth, vg.Length(rows) * qcPanelHeight
}

func (r *QCReport) data() interface{} { return r }

func (r *QCReport) draw(dc draw.Canvas) error {
	panels := r.panels()
	cols := 2
	if len(panels) < 2 {
		cols = len(panels)
	}
	tiles := draw.Tiles{
		Rows: (len(panels) + cols - 1) / cols,
		Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4), PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	for i, panel := range panels {
		p, err := panel()
		if err != nil {
			return err
		}
		p.Draw(tiles.At(dc, i%cols, i/cols))
	}
	return nil
}

func (r *QCReport) histogram() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Modified fraction " + r.Window
	p.X.Label.Text = "Modified fraction"
	p.Y.Label.Text = "Density"
	for _, d := range r.Summary.Distributions {
		if len(d.Values) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(d.Values), histBins)
		if err != nil {
			return nil, err
		}
		h.Normalize(1)
		c := SampleColor(d.Name)
		cr, cg, cb, _ := c.RGBA()
		h.FillColor = color.NRGBA{R: uint8(cr >> 8), G: uint8(cg >> 8), B: uint8(cb >> 8), A: 0x60}
		h.LineStyle.Color = c
		p.Add(h)
		p.Legend.Add(d.Name, h)
	}
	p.X.Min, p.X.Max = 0, 1
	return p, nil
}

// correlationGrid adapts a correlation matrix to plotter.GridXYZ.
type correlationGrid [][]float64

func (g correlationGrid) Dims() (c, r int) { return len(g), len(g) }
func (g correlationGrid) X(c int) float64  { return float64(c) }
func (g correlationGrid) Y(r int) float64  { return float64(r) }
func (g correlationGrid) Z(c, r int) float64 { return g[r][c] }

func (r *QCReport) heatmap() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pearson correlation"
	h := plotter.NewHeatMap(correlationGrid(r.Correlation), palette.Heat(64, 1))
	h.Min, h.Max = -1, 1
	p.Add(h)
	names := r.Summary.Table.Names
	p.NominalX(names...)
	p.NominalY(names...)
	return p, nil
}

func (r *QCReport) pcaScatter() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Principal components"
	p.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", 100*r.PCA.Explained[0])
	p.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", 100*r.PCA.Explained[1])
	var labels plotter.XYLabels
	for i, name := range r.PCA.Names {
		xy := plotter.XY{X: r.PCA.PC1[i], Y: r.PCA.PC2[i]}
		s, err := plotter.NewScatter(plotter.XYs{xy})
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = SampleColor(name)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		labels.XYs = append(labels.XYs, xy)
		labels.Labels = append(labels.Labels, name)
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

func (r *QCReport) boxplot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Modified fraction at shared positions"
	table := r.Summary.Table
	for j := range table.Names {
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(j), plotter.Values(table.Column(j)))
		if err != nil {
			return nil, err
		}
		b.FillColor = SampleColor(table.Names[j])
		p.Add(b)
	}
	p.NominalX(table.Names...)
	return p, nil
}
