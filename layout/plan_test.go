// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package layout_test

import (
	"encoding/json"
	"testing"

	"github.com/grailbio/methplot/interval"
	"github.com/grailbio/methplot/layout"
	"github.com/grailbio/methplot/methylation"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func freq(t *testing.T, name string) methylation.Dataset {
	d, err := methylation.NewFrequencyData(name, []methylation.Site{{Pos: 10, Value: 0.5}})
	assert.NoError(t, err)
	return d
}

func raw(t *testing.T, name string) methylation.Dataset {
	d, err := methylation.NewRawData(name, []methylation.Call{{ReadID: "r", Pos: 10, LogLikRatio: 3, Strand: methylation.StrandFwd}})
	assert.NoError(t, err)
	return d
}

func window(t *testing.T) interval.Window {
	w, err := interval.NewWindow("chr7", 100, 200)
	assert.NoError(t, err)
	return w
}

func TestOverlay(t *testing.T) {
	datasets := []methylation.Dataset{freq(t, "a"), freq(t, "b"), freq(t, "c")}
	p := layout.New(datasets, window(t), false, nil)
	expect.False(t, p.Split)
	expect.EQ(t, p.Rows, 5)
	expect.EQ(t, p.RowOf, []int{1, 1, 1})
	expect.EQ(t, p.AnnotationRow, 5)
	expect.EQ(t, p.Axis(1).Title, layout.FrequencyAxisTitle)
	expect.EQ(t, p.Axis(1).Span, 4)
	for row := 2; row <= 4; row++ {
		expect.EQ(t, p.Axis(row).Span, 0)
	}
	expect.True(t, p.ShowLegend)
	expect.EQ(t, p.LegendOrientation, "h")
	expect.EQ(t, p.XRange, layout.XRange{Begin: 100, End: 200})
	expect.EQ(t, p.TotalSpan(), p.Rows)
	expect.EQ(t, p.DataRows(), []int{1})
	expect.False(t, p.Annotated)
	expect.True(t, p.Axis(5).Range == nil)
}

func TestRawForcesSplit(t *testing.T) {
	datasets := []methylation.Dataset{freq(t, "a"), raw(t, "b"), freq(t, "c")}
	for _, force := range []bool{false, true} {
		p := layout.New(datasets, window(t), force, nil)
		expect.True(t, p.Split)
		expect.EQ(t, p.Rows, 4)
		expect.EQ(t, p.RowOf, []int{1, 2, 3})
		expect.EQ(t, p.AnnotationRow, 4)
		expect.EQ(t, p.Axis(1).Title, layout.FrequencyAxisTitle)
		expect.EQ(t, p.Axis(2).Title, layout.RawAxisTitle)
		expect.EQ(t, p.Axis(3).Title, layout.FrequencyAxisTitle)
		expect.False(t, p.ShowLegend)
		expect.EQ(t, p.TotalSpan(), p.Rows)
	}
}

func TestForceSplit(t *testing.T) {
	datasets := []methylation.Dataset{freq(t, "a"), freq(t, "b")}
	p := layout.New(datasets, window(t), true, nil)
	expect.True(t, p.Split)
	expect.EQ(t, p.Rows, 3)
	expect.EQ(t, p.RowOf, []int{1, 2})
	expect.EQ(t, p.DataRows(), []int{1, 2})
}

func TestAnnotationAxis(t *testing.T) {
	datasets := []methylation.Dataset{freq(t, "a")}
	p := layout.New(datasets, window(t), false, &layout.AnnotationSummary{MaxDepth: 3})
	expect.True(t, p.Annotated)
	ax := p.Axis(p.AnnotationRow)
	require.NotNil(t, ax.Range)
	expect.EQ(t, *ax.Range, layout.Range{Low: -2, High: 4})
	expect.True(t, ax.Bare)
	expect.EQ(t, ax.Title, "")
}

func TestPlanJSON(t *testing.T) {
	p := layout.New([]methylation.Dataset{raw(t, "a")}, window(t), false, nil)
	data, err := json.Marshal(p)
	assert.NoError(t, err)
	var got map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &got))
	expect.EQ(t, got["rows"], float64(2))
	expect.EQ(t, got["split"], true)
	expect.EQ(t, got["window"], "chr7:100-200")
}
