// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package qc

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/methplot/methylation"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func freq(t *testing.T, name string, pos []int, values []float64) *methylation.FrequencyData {
	sites := make([]methylation.Site, len(pos))
	for i := range pos {
		sites[i] = methylation.Site{Pos: pos[i], Value: values[i]}
	}
	d, err := methylation.NewFrequencyData(name, sites)
	assert.NoError(t, err)
	return d
}

func TestInnerJoin(t *testing.T) {
	a := freq(t, "A", []int{10, 20, 30}, []float64{0.1, 0.2, 0.3})
	b := freq(t, "B", []int{20, 30, 40}, []float64{0.5, 0.6, 0.7})
	table := InnerJoin([]*methylation.FrequencyData{a, b})
	expect.EQ(t, table.Names, []string{"A", "B"})
	expect.EQ(t, table.Positions, []int{20, 30})
	expect.EQ(t, table.Values, [][]float64{{0.2, 0.5}, {0.3, 0.6}})
	expect.EQ(t, table.Column(1), []float64{0.5, 0.6})
}

func TestInnerJoinDisjoint(t *testing.T) {
	a := freq(t, "A", []int{1, 3, 5}, []float64{0, 0, 0})
	b := freq(t, "B", []int{2, 4, 6}, []float64{0, 0, 0})
	c := freq(t, "C", []int{1, 2, 3, 4, 5, 6}, []float64{0, 0, 0, 0, 0, 0})
	table := InnerJoin([]*methylation.FrequencyData{a, b, c})
	expect.EQ(t, table.Len(), 0)
	expect.True(t, table.Matrix() == nil)
}

func TestInnerJoinThree(t *testing.T) {
	a := freq(t, "A", []int{1, 2, 3, 7, 9}, []float64{1, 2, 3, 7, 9})
	b := freq(t, "B", []int{2, 3, 4, 9}, []float64{2, 3, 4, 9})
	c := freq(t, "C", []int{0, 2, 5, 9, 11}, []float64{0, 2, 5, 9, 11})
	table := InnerJoin([]*methylation.FrequencyData{a, b, c})
	expect.EQ(t, table.Positions, []int{2, 9})
	for i, pos := range table.Positions {
		for _, v := range table.Values[i] {
			expect.EQ(t, v, float64(pos))
		}
	}
}

func TestAggregate(t *testing.T) {
	a := freq(t, "A", []int{10, 20, 30}, []float64{0.1, 0.2, 0.3})
	b := freq(t, "B", []int{20, 30, 40}, []float64{0.5, 0.6, 0.7})
	c := freq(t, "C", []int{20, 30}, []float64{0.9, 1})
	r, err := methylation.NewRawData("R", []methylation.Call{{ReadID: "x", Pos: 10, Strand: methylation.StrandFwd}})
	assert.NoError(t, err)

	s := Aggregate([]methylation.Dataset{a, r, b})
	expect.EQ(t, len(s.Distributions), 2)
	expect.EQ(t, s.Distributions[1].Name, "B")
	expect.True(t, s.Table == nil)
	expect.EQ(t, s.RawDatasets, 1)
	expect.False(t, s.Empty())

	s = Aggregate([]methylation.Dataset{a, b, c})
	require.NotNil(t, s.Table)
	expect.EQ(t, s.Table.Positions, []int{20, 30})
	expect.EQ(t, s.Table.Names, []string{"A", "B", "C"})

	s = Aggregate([]methylation.Dataset{r, r, r})
	expect.True(t, s.Empty())
	expect.EQ(t, s.RawDatasets, 3)
}

func TestCorrelation(t *testing.T) {
	a := freq(t, "A", []int{1, 2, 3, 4}, []float64{0.1, 0.2, 0.3, 0.4})
	b := freq(t, "B", []int{1, 2, 3, 4}, []float64{0.2, 0.4, 0.6, 0.8})
	c := freq(t, "C", []int{1, 2, 3, 4}, []float64{0.4, 0.3, 0.2, 0.1})
	table := InnerJoin([]*methylation.FrequencyData{a, b, c})
	corr, err := table.Correlation()
	assert.NoError(t, err)
	require.InDelta(t, 1, corr.At(0, 1), 1e-9)
	require.InDelta(t, -1, corr.At(0, 2), 1e-9)
	require.InDelta(t, 1, corr.At(2, 2), 1e-9)

	short := InnerJoin([]*methylation.FrequencyData{freq(t, "A", []int{1}, []float64{0})})
	_, err = short.Correlation()
	require.Error(t, err)
}

func TestPCA(t *testing.T) {
	a := freq(t, "A", []int{1, 2, 3, 4}, []float64{0.1, 0.2, 0.3, 0.4})
	b := freq(t, "B", []int{1, 2, 3, 4}, []float64{0.1, 0.2, 0.3, 0.5})
	c := freq(t, "C", []int{1, 2, 3, 4}, []float64{0.9, 0.8, 0.7, 0.6})
	table := InnerJoin([]*methylation.FrequencyData{a, b, c})
	p, err := table.PCA()
	assert.NoError(t, err)
	expect.EQ(t, len(p.PC1), 3)
	expect.EQ(t, len(p.PC2), 3)
	// Scores are centered.
	require.InDelta(t, 0, p.PC1[0]+p.PC1[1]+p.PC1[2], 1e-9)
	// C is the outlier along the first component.
	expect.True(t, math.Abs(p.PC1[2]) > math.Abs(p.PC1[0]))
	expect.True(t, p.Explained[0] >= p.Explained[1])
	require.InDelta(t, 1, p.Explained[0]+p.Explained[1], 1e-9)

	_, err = InnerJoin([]*methylation.FrequencyData{a, b}).PCA()
	require.Error(t, err)
}

func TestWriteTSV(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	a := freq(t, "A", []int{10, 20}, []float64{0.25, 0.5})
	b := freq(t, "B", []int{10, 20}, []float64{1, 0})
	path := filepath.Join(tmpdir, "qc.tsv")
	assert.NoError(t, InnerJoin([]*methylation.FrequencyData{a, b}).WriteTSV(context.Background(), path))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "pos\tA\tB\n10\t0.25\t1\n20\t0.5\t0\n")
}
