package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// NewBEDOpts defines behavior of this package's BED-loading function(s).
type NewBEDOpts struct {
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// PosType is BEDUnion's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// BEDUnion is a chromosome-keyed collection of length-2N sequences, where N is
// the number of disjoint intervals on that chromosome.  The (0-based) start of
// interval #k is in element [2k], its end in element [2k+1], and the intervals
// are stored in increasing order.
type BEDUnion struct {
	nameMap map[string][]PosType
}

// Entry represents a single interval, with 0-based half-open coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// Overlap returns the intervals overlapping w, clipped to it.  The result is in
// increasing order.
func (u *BEDUnion) Overlap(w Window) []Entry {
	chrIntervals := u.nameMap[w.Chromosome]
	if len(chrIntervals) == 0 {
		return nil
	}
	begin := PosType(w.Begin)
	// Windows are closed, BED intervals half-open.
	limit := PosType(w.End) + 1
	var result []Entry
	// First end boundary strictly after begin.
	idx := searchPosType(chrIntervals, begin+1)
	if idx&1 == 1 {
		idx--
	}
	for ; idx < len(chrIntervals); idx += 2 {
		start, end := chrIntervals[idx], chrIntervals[idx+1]
		if start >= limit {
			break
		}
		if start < begin {
			start = begin
		}
		if end > limit {
			end = limit
		}
		result = append(result, Entry{ChrName: w.Chromosome, Start0: start, End: end})
	}
	return result
}

// NumIntervals returns the number of disjoint intervals in the union.
func (u *BEDUnion) NumIntervals() int {
	n := 0
	for _, chrIntervals := range u.nameMap {
		n += len(chrIntervals) / 2
	}
	return n
}

func scanBEDUnion(scanner *bufio.Scanner, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	bedUnion.nameMap = make(map[string][]PosType)

	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}

	var tokens [3][]byte

	lineIdx := 0
	prevChr := ""
	totBases := 0
	var prevStart, prevEnd PosType
	var chrIntervals []PosType
	flush := func() {
		if prevEnd != -1 {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
		}
		bedUnion.nameMap[prevChr] = chrIntervals
	}
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken != 3 {
			if nToken == 0 || curLine[0] == '#' {
				continue
			}
			if isBEDHeader(tokens[0]) {
				continue
			}
			err = fmt.Errorf("interval.scanBEDUnion: line %d has fewer tokens than expected", lineIdx)
			return
		}
		if isBEDHeader(tokens[0]) {
			continue
		}

		curChr := tokens[0]
		var parsedStart int
		if parsedStart, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return
		}
		parsedStart -= startSubtract
		if parsedStart < 0 {
			err = fmt.Errorf("interval.scanBEDUnion: negative start coordinate %s on line %d", tokens[1], lineIdx)
			return
		}
		start := PosType(parsedStart)

		var parsedEnd int
		if parsedEnd, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			return
		}
		if (parsedEnd < parsedStart) || (parsedEnd >= posTypeMax) {
			err = fmt.Errorf("interval.scanBEDUnion: invalid coordinate pair on line %d", lineIdx)
			return
		}
		end := PosType(parsedEnd)
		if prevChr != gunsafe.BytesToString(curChr) {
			if prevChr != "" {
				flush()
			}
			// curChr refers to bytes on curLine that will be overwritten soon, and
			// this needs to persist as a map key.
			prevChr = string(curChr)
			if _, found := bedUnion.nameMap[prevChr]; found {
				err = fmt.Errorf("interval.scanBEDUnion: unsorted input (split chromosome %s)", curChr)
				return
			}
			chrIntervals = []PosType{}
			if end == start {
				prevStart = -1
				prevEnd = -1
			} else {
				prevStart = start
				prevEnd = end
			}
			totBases += int(end - start)
			continue
		}
		if end == start {
			continue
		}
		if prevEnd == -1 {
			prevStart = start
			prevEnd = end
			totBases += int(end - start)
			continue
		}
		if start > prevEnd {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
			prevStart = start
			prevEnd = end
			totBases += int(end - start)
		} else {
			if start < prevStart {
				err = fmt.Errorf("interval.scanBEDUnion: unsorted input on line %d", lineIdx)
				return
			}
			// Intervals overlap, merge them.
			if end > prevEnd {
				totBases += int(end - prevEnd)
				prevEnd = end
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Debug.Printf("BED loaded, %d base(s) covered.", totBases)
	if prevChr != "" {
		flush()
	}
	return
}

// isBEDHeader recognizes UCSC "track" and "browser" lines.
func isBEDHeader(token []byte) bool {
	s := gunsafe.BytesToString(token)
	return s == "track" || s == "browser"
}

// NewBEDUnion loads just the intervals from a sorted (by first coordinate)
// interval-BED, merging touching/overlapping intervals and eliminating empty
// ones in the process.
func NewBEDUnion(reader io.Reader, opts NewBEDOpts) (BEDUnion, error) {
	return scanBEDUnion(bufio.NewScanner(reader), opts)
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped input is detected from the path.
func NewBEDUnionFromPath(ctx context.Context, path string, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		reader = gz
	}
	return NewBEDUnion(reader, opts)
}
