// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package qc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/methplot/methylation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Table is a wide table of frequency values, one row per position and one
// column per sample.
type Table struct {
	// Names are the column names, one per sample.
	Names []string
	// Positions are ascending.
	Positions []int
	// Values[i][j] is sample j's value at Positions[i].
	Values [][]float64
}

// Len returns the number of positions.
func (t *Table) Len() int { return len(t.Positions) }

// Column returns a fresh copy of sample j's values.
func (t *Table) Column(j int) []float64 {
	col := make([]float64, len(t.Values))
	for i, row := range t.Values {
		col[i] = row[j]
	}
	return col
}

// InnerJoin joins datasets on position.  A position is kept only if every
// dataset has it; the column of dataset j is named after it.
func InnerJoin(datasets []*methylation.FrequencyData) *Table {
	t := &Table{Names: make([]string, len(datasets))}
	for j, d := range datasets {
		t.Names[j] = d.Name()
	}
	if len(datasets) == 0 {
		return t
	}
	// Sites are strictly ascending, so a k-way merge over cursors finds the
	// common positions in one pass.
	cursors := make([]int, len(datasets))
	for {
		// The largest current position is the next candidate.
		target, done := 0, false
		for j, d := range datasets {
			sites := d.Sites()
			if cursors[j] >= len(sites) {
				done = true
				break
			}
			if p := sites[cursors[j]].Pos; j == 0 || p > target {
				target = p
			}
		}
		if done {
			break
		}
		matched := true
		for j, d := range datasets {
			sites := d.Sites()
			for cursors[j] < len(sites) && sites[cursors[j]].Pos < target {
				cursors[j]++
			}
			if cursors[j] >= len(sites) || sites[cursors[j]].Pos != target {
				matched = false
			}
		}
		if !matched {
			continue
		}
		row := make([]float64, len(datasets))
		for j, d := range datasets {
			row[j] = d.Sites()[cursors[j]].Value
			cursors[j]++
		}
		t.Positions = append(t.Positions, target)
		t.Values = append(t.Values, row)
	}
	return t
}

// Matrix returns the table as a positions x samples matrix.
func (t *Table) Matrix() *mat.Dense {
	if t.Len() == 0 || len(t.Names) == 0 {
		return nil
	}
	m := mat.NewDense(t.Len(), len(t.Names), nil)
	for i, row := range t.Values {
		m.SetRow(i, row)
	}
	return m
}

// Correlation returns the Pearson correlation between every pair of samples.
func (t *Table) Correlation() (*mat.SymDense, error) {
	if t.Len() < 2 {
		return nil, fmt.Errorf("qc: correlation needs at least 2 shared positions, got %d", t.Len())
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, t.Matrix(), nil)
	return &corr, nil
}

// Projection is the position of every sample on the first two principal
// components of the table, treating samples as observations.
type Projection struct {
	Names []string
	PC1   []float64
	PC2   []float64
	// Explained is the fraction of variance carried by each of the two
	// components.
	Explained [2]float64
}

// PCA projects the samples onto their first two principal components.
func (t *Table) PCA() (*Projection, error) {
	if t.Len() < 2 || len(t.Names) < 3 {
		return nil, fmt.Errorf("qc: PCA needs at least 3 samples and 2 positions, got %d and %d", len(t.Names), t.Len())
	}
	// samples x positions
	var obs mat.Dense
	obs.CloneFrom(t.Matrix().T())
	r, c := obs.Dims()
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, &obs)
		mean := stat.Mean(col, nil)
		for i := 0; i < r; i++ {
			obs.Set(i, j, col[i]-mean)
		}
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(&obs, nil); !ok {
		return nil, fmt.Errorf("qc: principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)
	_, k := vecs.Dims()
	if k < 2 {
		return nil, fmt.Errorf("qc: only %d principal components", k)
	}
	var scores mat.Dense
	scores.Mul(&obs, vecs.Slice(0, c, 0, 2))
	p := &Projection{
		Names: t.Names,
		PC1:   mat.Col(nil, 0, &scores),
		PC2:   mat.Col(nil, 1, &scores),
	}
	total := 0.0
	for _, v := range vars {
		total += v
	}
	if total > 0 {
		p.Explained = [2]float64{vars[0] / total, vars[1] / total}
	}
	return p, nil
}

// WriteTSV writes the table with a "pos" column followed by one column per
// sample.
func (t *Table) WriteTSV(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "qc.WriteTSV", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString("pos")
	for _, name := range t.Names {
		w.WriteString(name)
	}
	if err = w.EndLine(); err != nil {
		return errors.E(err, "qc.WriteTSV", path)
	}
	for i, pos := range t.Positions {
		w.WriteString(strconv.Itoa(pos))
		for _, v := range t.Values[i] {
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err = w.EndLine(); err != nil {
			return errors.E(err, "qc.WriteTSV", path)
		}
	}
	return w.Flush()
}
