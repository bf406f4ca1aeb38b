// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package layout decides how a window's datasets are arranged into the rows of
// a browser figure.  A Plan carries no graphics; it only says which row each
// dataset goes to, how tall each row is, and how each row's y axis is
// configured.  Rows are numbered from 1.
package layout

import (
	"fmt"

	"github.com/grailbio/methplot/interval"
	"github.com/grailbio/methplot/methylation"
)

const (
	// Title is the figure title.
	Title = "Nucleotide modifications"
	// FrequencyAxisTitle labels the y axis of a row holding Frequency data.
	FrequencyAxisTitle = "Modified frequency"
	// RawAxisTitle labels the y axis of a row holding Raw data.
	RawAxisTitle = "Reads"

	// overlayUnits is the number of row units of an overlay figure; the shared
	// data row takes all but the last, which holds the annotation.
	overlayUnits = 5
)

// Range is a closed axis range.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Axis configures the y axis of one row.
type Axis struct {
	Title string `json:"title,omitempty"`
	// Range is nil when the renderer should fit the data.
	Range *Range `json:"range,omitempty"`
	// Span is the height of the row in row units.  Rows covered by a taller row
	// above them have Span 0 and are not drawn.
	Span int `json:"span"`
	// Bare suppresses grid, zero line, axis line, ticks and tick labels.
	Bare bool `json:"bare,omitempty"`
}

// XRange is the shared x axis range.
type XRange struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// AnnotationSummary describes an annotation track to be placed in the
// annotation row.
type AnnotationSummary struct {
	// MaxDepth is the deepest packing row used by any annotation record.
	MaxDepth int
}

// Plan is the layout of one window's figure.  It is a value: once returned by
// New it is not modified.
type Plan struct {
	Rows int `json:"rows"`
	// RowOf[i] is the row of dataset i.
	RowOf         []int `json:"row_of"`
	AnnotationRow int   `json:"annotation_row"`
	// Axes[r-1] configures row r.
	Axes       []Axis `json:"axes"`
	Split      bool   `json:"split"`
	XRange     XRange `json:"x_range"`
	Annotated  bool   `json:"annotated"`
	ShowLegend bool   `json:"show_legend"`
	// LegendOrientation is "h" when the legend is shown.
	LegendOrientation string `json:"legend_orientation,omitempty"`
	Title             string `json:"title"`
	Window            string `json:"window"`
}

// Axis returns the axis of the given 1-based row.
func (p *Plan) Axis(row int) Axis {
	if row < 1 || row > len(p.Axes) {
		panic(fmt.Sprintf("layout: row %d out of range [1,%d]", row, len(p.Axes)))
	}
	return p.Axes[row-1]
}

// DataRows returns the distinct rows that hold datasets, ascending.
func (p *Plan) DataRows() []int {
	var rows []int
	seen := make(map[int]bool)
	for _, r := range p.RowOf {
		if !seen[r] {
			seen[r] = true
			rows = append(rows, r)
		}
	}
	return rows
}

// New plans the figure for datasets in window w.
//
// Raw datasets cannot be overlaid, so their presence forces split mode
// regardless of forceSplit.  In split mode every dataset gets its own row and
// the annotation row follows them.  Otherwise all datasets share one row four
// units tall above a one-unit annotation row.
//
// annot is nil when no annotation track is drawn.
func New(datasets []methylation.Dataset, w interval.Window, forceSplit bool, annot *AnnotationSummary) *Plan {
	p := &Plan{
		Split:  forceSplit || methylation.HasRaw(datasets),
		RowOf:  make([]int, len(datasets)),
		XRange: XRange{Begin: w.Begin, End: w.End},
		Title:  Title,
		Window: w.Label,
	}
	if p.Split {
		p.Rows = len(datasets) + 1
		p.Axes = make([]Axis, p.Rows)
		for i, d := range datasets {
			row := i + 1
			p.RowOf[i] = row
			p.Axes[row-1] = Axis{Title: axisTitle(d.Kind()), Span: 1}
		}
	} else {
		p.Rows = overlayUnits
		p.Axes = make([]Axis, p.Rows)
		for i := range datasets {
			p.RowOf[i] = 1
		}
		p.Axes[0] = Axis{Title: FrequencyAxisTitle, Span: overlayUnits - 1}
		p.ShowLegend = true
		p.LegendOrientation = "h"
	}
	p.AnnotationRow = p.Rows
	ax := Axis{Span: 1}
	if annot != nil {
		p.Annotated = true
		ax.Range = &Range{Low: -2, High: float64(annot.MaxDepth + 1)}
		ax.Bare = true
	}
	p.Axes[p.AnnotationRow-1] = ax
	return p
}

func axisTitle(k methylation.Kind) string {
	if k == methylation.Raw {
		return RawAxisTitle
	}
	return FrequencyAxisTitle
}

// TotalSpan is the sum of all row spans, which equals Rows.
func (p *Plan) TotalSpan() int {
	n := 0
	for _, a := range p.Axes {
		n += a.Span
	}
	return n
}
