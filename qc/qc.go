// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package qc assembles the cross-sample summary of a window's Frequency
// datasets: the per-sample value distributions and, when there are enough
// samples, a table of the positions covered by every sample.
package qc

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/methplot/methylation"
)

// MinJoinedSamples is the number of Frequency datasets above which the
// joined table is built.
const MinJoinedSamples = 2

// Distribution holds the modified-frequency values of one sample.
type Distribution struct {
	Name   string
	Values []float64
}

// Summary is the input of the QC report for one window.
type Summary struct {
	// Distributions has one entry per Frequency dataset, in input order.
	Distributions []Distribution
	// Table is the inner join of all Frequency datasets on position.  It is
	// nil unless there are more than MinJoinedSamples Frequency datasets.
	Table *Table
	// RawDatasets counts the Raw datasets, which take no part in QC.
	RawDatasets int
}

// Empty reports whether there is nothing to draw.
func (s *Summary) Empty() bool { return len(s.Distributions) == 0 }

// Aggregate builds the QC summary of datasets.  Raw datasets are skipped.
func Aggregate(datasets []methylation.Dataset) *Summary {
	freqs := methylation.FrequencyOnly(datasets)
	s := &Summary{RawDatasets: len(datasets) - len(freqs)}
	for _, f := range freqs {
		s.Distributions = append(s.Distributions, Distribution{Name: f.Name(), Values: f.Values()})
	}
	if len(freqs) > MinJoinedSamples {
		s.Table = InnerJoin(freqs)
		log.Debug.Printf("qc.Aggregate: %d samples share %d positions", len(freqs), s.Table.Len())
	}
	if s.RawDatasets > 2 {
		// No cross-sample comparison is defined for per-read calls.
		log.Printf("qc.Aggregate: %d raw datasets present; skipping them in QC", s.RawDatasets)
	}
	return s
}
