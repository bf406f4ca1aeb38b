// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package render draws browser figures and QC reports.  A Figure pairs a
// layout.Plan with the traces of each row; a Target turns a Figure or a
// QCReport into a self-contained HTML document or a static image.
package render

import (
	"fmt"
	"image/color"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/methplot/annotation"
	"github.com/grailbio/methplot/layout"
	"github.com/grailbio/methplot/methylation"
	"gonum.org/v1/plot/palette"
)

// CallThreshold is the absolute log-likelihood ratio at or beyond which a
// per-read call is considered confident.
const CallThreshold = 2.5

// CallClass is the interpretation of one per-read call.
type CallClass int

const (
	// Ambiguous calls lie strictly between -CallThreshold and CallThreshold.
	Ambiguous CallClass = iota
	// Methylated calls have llr >= CallThreshold.
	Methylated
	// Unmethylated calls have llr <= -CallThreshold.
	Unmethylated
)

// Classify interprets a log-likelihood ratio.
func Classify(llr float64) CallClass {
	switch {
	case llr >= CallThreshold:
		return Methylated
	case llr <= -CallThreshold:
		return Unmethylated
	}
	return Ambiguous
}

var callColors = map[CallClass]color.Color{
	Methylated:   color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	Unmethylated: color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	Ambiguous:    color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff},
}

// TraceKind distinguishes the trace variants.
type TraceKind int

const (
	// Line is a Frequency dataset drawn as a line through its sites.
	Line TraceKind = iota
	// Markers is a Raw dataset drawn as one row of markers per read.
	Markers
	// Annotation is the annotation records of the window.
	Annotation
)

// Trace is one drawable series.
type Trace struct {
	Kind  TraceKind `json:"kind"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
	X     []float64 `json:"x,omitempty"`
	Y     []float64 `json:"y,omitempty"`
	// Class[i] is the call class of marker i.  Markers only.
	Class []CallClass `json:"class,omitempty"`
	// Reads names the read of each marker row, from 0.  Markers only.
	Reads []string `json:"reads,omitempty"`
	// Features are the annotation records.  Annotation only.
	Features []annotation.Feature `json:"features,omitempty"`
}

// Figure is a plan and the traces of each of its rows.
type Figure struct {
	Plan *layout.Plan `json:"plan"`
	// Rows[r-1] holds the traces of row r.
	Rows [][]Trace `json:"rows"`
}

// NewFigure places one trace per dataset in the row the plan assigns it, and
// the annotation records, if any, in the annotation row.
func NewFigure(plan *layout.Plan, datasets []methylation.Dataset, features []annotation.Feature) *Figure {
	if len(plan.RowOf) != len(datasets) {
		panic(fmt.Sprintf("render.NewFigure: plan has %d datasets, got %d", len(plan.RowOf), len(datasets)))
	}
	fig := &Figure{Plan: plan, Rows: make([][]Trace, plan.Rows)}
	for i, d := range datasets {
		row := plan.RowOf[i] - 1
		fig.Rows[row] = append(fig.Rows[row], datasetTrace(d))
	}
	if plan.Annotated {
		row := plan.AnnotationRow - 1
		fig.Rows[row] = append(fig.Rows[row], Trace{Kind: Annotation, Name: "annotation", Features: features})
	}
	return fig
}

func datasetTrace(d methylation.Dataset) Trace {
	t := Trace{Name: d.Name(), Color: hexColor(SampleColor(d.Name()))}
	switch d := d.(type) {
	case *methylation.FrequencyData:
		t.Kind = Line
		for _, s := range d.Sites() {
			t.X = append(t.X, float64(s.Pos))
			t.Y = append(t.Y, s.Value)
		}
	case *methylation.RawData:
		t.Kind = Markers
		// Calls are grouped by read, so a read's ordinal changes exactly when
		// its name does.
		for _, c := range d.Calls() {
			if n := len(t.Reads); n == 0 || t.Reads[n-1] != c.ReadID {
				t.Reads = append(t.Reads, c.ReadID)
			}
			t.X = append(t.X, float64(c.Pos))
			t.Y = append(t.Y, float64(len(t.Reads)-1))
			t.Class = append(t.Class, Classify(c.LogLikRatio))
		}
	}
	return t
}

// SampleColor returns a colour derived from a sample name, so a sample keeps
// its colour across windows and runs.
func SampleColor(name string) color.Color {
	h := farm.Hash32([]byte(name))
	return palette.HSVA{H: float64(h%360) / 360, S: 0.65, V: 0.8, A: 1}
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
