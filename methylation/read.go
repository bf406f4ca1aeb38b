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
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/methplot/interval"
)

// frequencyRow is the part of a calculate_methylation_frequency row that
// survives loading.  num_motifs_in_group, called_sites,
// called_sites_methylated and group_sequence are never decoded.
type frequencyRow struct {
	Chromosome string  `tsv:"chromosome"`
	Start      int64   `tsv:"start"`
	End        int64   `tsv:"end"`
	Frequency  float64 `tsv:"methylated_frequency"`
}

// rawRow is the part of a per-read call row that survives loading.
// log_lik_methylated, log_lik_unmethylated, num_calling_strands, num_motifs
// and sequence are never decoded.
type rawRow struct {
	Chromosome  string  `tsv:"chromosome"`
	Start       int64   `tsv:"start"`
	End         int64   `tsv:"end"`
	ReadName    string  `tsv:"read_name"`
	LogLikRatio float64 `tsv:"log_lik_ratio"`
	Strand      string  `tsv:"strand"`
}

// representativePos is floor((start+end)/2).
func representativePos(start, end int64) int {
	sum := start + end
	q := sum / 2
	if sum%2 != 0 && sum < 0 {
		q--
	}
	return int(q)
}

// readHeader consumes the header line of r and splits it into column names.
func readHeader(r *bufio.Reader) (line string, cols []string, err error) {
	line, err = r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", nil, err
	}
	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return "", nil, fmt.Errorf("missing header row")
	}
	return line, strings.Split(trimmed, "\t"), nil
}

// ReadTable parses a methylation table from r and builds the Dataset for w.
// See ReadMeth.
func ReadTable(r io.Reader, name string, w interval.Window, span int) (Dataset, error) {
	if err := ValidateSpan(span); err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(r, 64<<10)
	headerLine, header, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	kind, err := Classify(header)
	if err != nil {
		return nil, err
	}
	reader := tsv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	reader.LazyQuotes = true
	if kind == Raw {
		d, err := readRaw(reader, name, w)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	d, err := readFrequency(reader, name, w, span)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func readFrequency(reader *tsv.Reader, name string, w interval.Window, span int) (*FrequencyData, error) {
	var sites []Site
	for line := 2; ; line++ {
		var row frequencyRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		pos := representativePos(row.Start, row.End)
		if !w.Contains(row.Chromosome, pos) {
			continue
		}
		sites = append(sites, Site{Pos: pos, Value: row.Frequency})
	}
	// Groups reported at the same flattened position are merged before
	// smoothing.
	sites = collapseSites(sites)
	return &FrequencyData{name: name, sites: Smooth(sites, span)}, nil
}

func readRaw(reader *tsv.Reader, name string, w interval.Window) (*RawData, error) {
	var calls []Call
	for line := 2; ; line++ {
		var row rawRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		pos := representativePos(row.Start, row.End)
		if !w.Contains(row.Chromosome, pos) {
			continue
		}
		strand, err := parseStrand(row.Strand)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		calls = append(calls, Call{
			ReadID:      row.ReadName,
			Pos:         pos,
			LogLikRatio: row.LogLikRatio,
			Strand:      strand,
		})
	}
	sort.SliceStable(calls, func(i, j int) bool { return callLess(calls[i], calls[j]) })
	return &RawData{name: name, calls: calls}, nil
}

// ReadMeth loads one methylation table (nanopolish call-methylation or
// calculate_methylation_frequency output, optionally compressed) into a
// Dataset confined to w.
//
// Each row is placed at floor((start+end)/2) and kept only if that position is
// inside w.  A table with a log_lik_ratio column becomes a *RawData sorted by
// (read, pos); any other table becomes a *FrequencyData whose duplicate
// positions are averaged and which is then smoothed with a centered moving
// average of the given span.
//
// Any failure, including a close error, is returned as a *ParseError naming
// path; no partial Dataset is returned.
func ReadMeth(ctx context.Context, path, name string, w interval.Window, span int) (d Dataset, err error) {
	if err = ValidateSpan(span); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			d = nil
			if _, ok := err.(*ParseError); !ok {
				err = &ParseError{File: path, Err: err}
			}
		}
	}()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	var r io.Reader = infile.Reader(ctx)
	if u := compress.NewReaderPath(r, infile.Name()); u != nil {
		r = u
	}
	return ReadTable(r, name, w, span)
}
