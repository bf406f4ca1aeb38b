// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package methylation

import (
	"fmt"
)

// Kind tags the two Dataset variants.
type Kind int

const (
	// Frequency is per-site aggregated methylation frequency.
	Frequency Kind = iota
	// Raw is per-read log-likelihood-ratio calls.
	Raw
)

func (k Kind) String() string {
	switch k {
	case Frequency:
		return "frequency"
	case Raw:
		return "raw"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Dataset is one sample's methylation evidence within one window.  The only
// implementations are *FrequencyData and *RawData; use a type switch to get at
// the rows.
//
// Every row of a Dataset lies inside the window it was loaded for.  Datasets
// are read-only after construction: the slices returned by Sites and Calls
// must not be modified.
type Dataset interface {
	// Name is the sample name given by the caller.
	Name() string
	Kind() Kind
	// Len is the number of rows.
	Len() int

	isDataset()
}

// Site is one Frequency row.
type Site struct {
	Pos   int
	Value float64
}

// Strand is the strand of a Raw call.
type Strand byte

const (
	// StrandFwd is '+'.
	StrandFwd Strand = '+'
	// StrandRev is '-'.
	StrandRev Strand = '-'
)

func (s Strand) String() string { return string(s) }

func parseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return StrandFwd, nil
	case "-":
		return StrandRev, nil
	}
	return 0, fmt.Errorf("invalid strand %q", s)
}

// Call is one Raw row.
type Call struct {
	ReadID      string
	Pos         int
	LogLikRatio float64
	Strand      Strand
}

// FrequencyData is the Frequency variant.  Sites are strictly ascending by Pos.
type FrequencyData struct {
	name  string
	sites []Site
}

// NewFrequencyData creates a FrequencyData from sites, which must be strictly
// ascending by Pos.
func NewFrequencyData(name string, sites []Site) (*FrequencyData, error) {
	for i := 1; i < len(sites); i++ {
		if sites[i].Pos <= sites[i-1].Pos {
			return nil, fmt.Errorf("methylation.NewFrequencyData %s: positions not strictly ascending at index %d (%d after %d)", name, i, sites[i].Pos, sites[i-1].Pos)
		}
	}
	return &FrequencyData{name: name, sites: sites}, nil
}

// Name implements Dataset.
func (d *FrequencyData) Name() string { return d.name }

// Kind implements Dataset.
func (d *FrequencyData) Kind() Kind { return Frequency }

// Len implements Dataset.
func (d *FrequencyData) Len() int { return len(d.sites) }

// Sites returns the rows, ascending by Pos.
func (d *FrequencyData) Sites() []Site { return d.sites }

// Values returns a fresh slice holding just the frequency values.
func (d *FrequencyData) Values() []float64 {
	v := make([]float64, len(d.sites))
	for i, s := range d.sites {
		v[i] = s.Value
	}
	return v
}

func (d *FrequencyData) isDataset() {}

// RawData is the Raw variant.  Calls are sorted by (ReadID, Pos).
type RawData struct {
	name  string
	calls []Call
}

// NewRawData creates a RawData from calls, which must be sorted by (ReadID,
// Pos).
func NewRawData(name string, calls []Call) (*RawData, error) {
	for i := 1; i < len(calls); i++ {
		if callLess(calls[i], calls[i-1]) {
			return nil, fmt.Errorf("methylation.NewRawData %s: calls not sorted by (read, pos) at index %d", name, i)
		}
	}
	return &RawData{name: name, calls: calls}, nil
}

// Name implements Dataset.
func (d *RawData) Name() string { return d.name }

// Kind implements Dataset.
func (d *RawData) Kind() Kind { return Raw }

// Len implements Dataset.
func (d *RawData) Len() int { return len(d.calls) }

// Calls returns the rows, sorted by (ReadID, Pos).
func (d *RawData) Calls() []Call { return d.calls }

func (d *RawData) isDataset() {}

func callLess(a, b Call) bool {
	if a.ReadID != b.ReadID {
		return a.ReadID < b.ReadID
	}
	return a.Pos < b.Pos
}

// HasRaw reports whether any dataset is of the Raw variant.
func HasRaw(datasets []Dataset) bool {
	for _, d := range datasets {
		if d.Kind() == Raw {
			return true
		}
	}
	return false
}

// FrequencyOnly returns the Frequency datasets, in input order.
func FrequencyOnly(datasets []Dataset) []*FrequencyData {
	var result []*FrequencyData
	for _, d := range datasets {
		if f, ok := d.(*FrequencyData); ok {
			result = append(result, f)
		}
	}
	return result
}

// TotalLen returns the number of rows across all datasets.
func TotalLen(datasets []Dataset) int {
	n := 0
	for _, d := range datasets {
		n += d.Len()
	}
	return n
}
