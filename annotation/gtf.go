// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package annotation

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/methplot/interval"
	"github.com/pkg/errors"
)

type genomicRanges []Span

// Append a Span to g. If last item in g overlaps with r, r is merged.
func (g *genomicRanges) merge(r Span) {
	if overlap, newRange := (*g).overlaps(r); overlap {
		(*g)[len(*g)-1] = newRange
		return
	}
	*g = append(*g, r)
}

// If the new range overlaps with or touches the last range of g, return true
// and the union.
func (g genomicRanges) overlaps(r2 Span) (bool, Span) {
	if len(g) == 0 {
		return false, Span{}
	}
	r1 := g[len(g)-1]
	if r1.Start <= r2.Start {
		if r2.Start <= r1.End+1 {
			// r1:                |----------|
			// r2:                           |---...
			// r2:                     |---...
			return true, Span{r1.Start, max(r1.End, r2.End)}
		}
		return false, Span{}
	} else if r1.Start-1 <= r2.End {
		// r1:                |----------|
		// r2:         ...----|
		// r2:              ...----------|
		return true, Span{r2.Start, max(r1.End, r2.End)}
	}
	return false, Span{}
}

// Sort g by start and collapse all overlapping ranges.
func (g *genomicRanges) collapse() {
	sort.Slice(*g, func(i, j int) bool { return (*g)[i].Start < (*g)[j].Start })
	newGR := genomicRanges{}
	for _, gr := range *g {
		newGR.merge(gr)
	}
	*g = newGR
}

func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// gtfRecord stores one line of a GTF file.
type gtfRecord struct {
	Chrom   string
	Source  string
	Feature string
	Start   int
	Stop    int
	Score   string // may be "."
	Strand  string
	Frame   string
	Fields  string
}

// parseInfoFields parses the attribute column of a record into key, value
// pairs.
func parseInfoFields(parsedInfo map[string]string, info string) {
	for k := range parsedInfo {
		delete(parsedInfo, k)
	}
	for _, field := range strings.Split(strings.TrimSpace(info), ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pair := strings.SplitN(field, " ", 2)
		if len(pair) != 2 {
			continue
		}
		parsedInfo[pair[0]] = strings.Trim(strings.TrimSpace(pair[1]), "\"")
	}
}

// readRawGTF returns the transcript and exon lines of a GTF file.
func readRawGTF(ctx context.Context, path string) (transcripts []gtfRecord, exons []gtfRecord, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	scanner := tsv.NewReader(bufio.NewReaderSize(inr, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	var line gtfRecord
	for {
		if err = scanner.Read(&line); err != nil {
			if err != io.EOF {
				return nil, nil, errors.Wrapf(err, "%s", path)
			}
			err = nil
			break
		}
		switch line.Feature {
		case "transcript":
			transcripts = append(transcripts, line)
		case "exon":
			exons = append(exons, line)
		}
	}
	return
}

// gtfTranscript is one transcript of a GTF file.
type gtfTranscript struct {
	chrom  string
	id     string
	geneID string
	// label is gene_name, or gene_id when the gene has no name.
	label  string
	strand string
	start  int
	end    int
	exons  genomicRanges
}

type indexKey struct {
	start int
	id    string
	t     *gtfTranscript
}

// Compare compares two index keys for use in llrb.
func (k indexKey) Compare(c2 llrb.Comparable) int {
	k2 := c2.(indexKey)
	if diff := k.start - k2.start; diff != 0 {
		return diff
	}
	return strings.Compare(k.id, k2.id)
}

type chromIndex struct {
	tree llrb.Tree
	// maxLen bounds how far before a window a transcript overlapping it can
	// start.
	maxLen int
}

// GTF is an in-memory index of the transcripts of a GTF file.
type GTF struct {
	byChrom map[string]*chromIndex
}

// ReadGTF reads path and indexes its transcripts.  Transcripts are grouped by
// transcript_id; a transcript without a "transcript" line spans its exons.
func ReadGTF(ctx context.Context, path string) (*GTF, error) {
	transcriptLines, exonLines, err := readRawGTF(ctx, path)
	if err != nil {
		return nil, err
	}
	records := map[string]*gtfTranscript{}
	fields := map[string]string{}
	get := func(line gtfRecord) *gtfTranscript {
		id := fields["transcript_id"]
		t, ok := records[id]
		if !ok {
			t = &gtfTranscript{
				chrom:  line.Chrom,
				id:     id,
				geneID: fields["gene_id"],
				label:  fields["gene_name"],
				strand: line.Strand,
				start:  line.Start,
				end:    line.Stop,
			}
			if t.label == "" {
				t.label = t.geneID
			}
			records[id] = t
		}
		return t
	}
	for _, line := range transcriptLines {
		parseInfoFields(fields, line.Fields)
		if fields["transcript_id"] == "" {
			continue
		}
		t := get(line)
		t.start, t.end = line.Start, line.Stop
	}
	for _, line := range exonLines {
		parseInfoFields(fields, line.Fields)
		if fields["transcript_id"] == "" {
			continue
		}
		t := get(line)
		if t.chrom != line.Chrom {
			return nil, errors.Errorf("%s: transcript %s spans chromosomes %s and %s", path, t.id, t.chrom, line.Chrom)
		}
		t.start = min(t.start, line.Start)
		t.end = max(t.end, line.Stop)
		t.exons = append(t.exons, Span{line.Start, line.Stop})
	}
	g := &GTF{byChrom: map[string]*chromIndex{}}
	for _, t := range records {
		t.exons.collapse()
		idx, ok := g.byChrom[t.chrom]
		if !ok {
			idx = &chromIndex{}
			g.byChrom[t.chrom] = idx
		}
		idx.tree.Insert(indexKey{start: t.start, id: t.id, t: t})
		idx.maxLen = max(idx.maxLen, t.end-t.start)
	}
	log.Printf("annotation.ReadGTF: %s: %d transcripts (%d transcript lines, %d exon lines)",
		path, len(records), len(transcriptLines), len(exonLines))
	return g, nil
}

// overlapping returns the transcripts overlapping w, ordered by start.
func (g *GTF) overlapping(w interval.Window) []*gtfTranscript {
	idx, ok := g.byChrom[w.Chromosome]
	if !ok {
		return nil
	}
	var result []*gtfTranscript
	from := indexKey{start: w.Begin - idx.maxLen}
	to := indexKey{start: w.End + 1}
	idx.tree.DoRange(func(c llrb.Comparable) bool {
		if t := c.(indexKey).t; t.end >= w.Begin {
			result = append(result, t)
		}
		return false
	}, from, to)
	return result
}

// Tracks implements Provider.
func (g *GTF) Tracks(ctx context.Context, w interval.Window, simplify bool) ([]Feature, int, error) {
	transcripts := g.overlapping(w)
	var features []Feature
	if simplify {
		byGene := map[string]int{}
		for _, t := range transcripts {
			i, ok := byGene[t.geneID]
			if !ok {
				byGene[t.geneID] = len(features)
				features = append(features, transcriptFeature(t))
				continue
			}
			f := &features[i]
			f.Start = min(f.Start, t.start)
			f.End = max(f.End, t.end)
			exons := genomicRanges(append(f.Exons, t.exons...))
			exons.collapse()
			f.Exons = exons
		}
	} else {
		for _, t := range transcripts {
			features = append(features, transcriptFeature(t))
		}
	}
	maxDepth := pack(features)
	log.Debug.Printf("annotation: %d records in %s, max depth %d", len(features), w.Label, maxDepth)
	return features, maxDepth, nil
}

func transcriptFeature(t *gtfTranscript) Feature {
	return Feature{
		Kind:   Transcript,
		Name:   t.label,
		Strand: t.strand,
		Start:  t.start,
		End:    t.end,
		Exons:  append([]Span(nil), t.exons...),
	}
}
