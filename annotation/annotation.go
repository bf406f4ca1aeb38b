// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package annotation turns GTF transcripts and BED regions into the records
// drawn in a browser's annotation row.  Records are packed into depth rows so
// that no two records on the same row overlap.
package annotation

import (
	"context"
	"sort"

	"github.com/grailbio/methplot/interval"
)

// Kind distinguishes the glyphs of an annotation record.
type Kind int

const (
	// Transcript is drawn as a thin line over its span, boxes over its exons,
	// and its label.
	Transcript Kind = iota
	// Region is drawn as a shaded box over its span.
	Region
)

// Span is a closed coordinate range.
type Span struct {
	Start, End int
}

// Feature is one annotation record placed in the annotation row.
type Feature struct {
	Kind   Kind
	Name   string
	Strand string
	Start  int
	End    int
	// Exons is ascending and non-overlapping.  It is empty for regions.
	Exons []Span
	// Depth is the packing row, from 0.
	Depth int
}

// Provider produces the annotation records of a window.
type Provider interface {
	// Tracks returns the records overlapping w with their depths assigned, and
	// the deepest depth used.  With simplify, the transcripts of each gene are
	// merged into one record.
	Tracks(ctx context.Context, w interval.Window, simplify bool) ([]Feature, int, error)
}

// pack assigns each feature the lowest depth whose previous feature ended
// before it starts, and returns the deepest depth used.  features is sorted
// by start in place.
func pack(features []Feature) int {
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Start != features[j].Start {
			return features[i].Start < features[j].Start
		}
		return features[i].End < features[j].End
	})
	var rowEnd []int
	maxDepth := 0
	for i := range features {
		f := &features[i]
		depth := -1
		for d, end := range rowEnd {
			if end < f.Start {
				depth = d
				break
			}
		}
		if depth < 0 {
			depth = len(rowEnd)
			rowEnd = append(rowEnd, 0)
		}
		rowEnd[depth] = f.End
		f.Depth = depth
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

type stack []Provider

// Stack combines providers.  The records of each provider are placed below
// those of the providers before it.
func Stack(providers ...Provider) Provider {
	return stack(providers)
}

func (s stack) Tracks(ctx context.Context, w interval.Window, simplify bool) ([]Feature, int, error) {
	var (
		all      []Feature
		offset   int
		maxDepth int
	)
	for _, p := range s {
		features, depth, err := p.Tracks(ctx, w, simplify)
		if err != nil {
			return nil, 0, err
		}
		if len(features) == 0 {
			continue
		}
		for _, f := range features {
			f.Depth += offset
			all = append(all, f)
		}
		maxDepth = offset + depth
		offset = maxDepth + 1
	}
	return all, maxDepth, nil
}
