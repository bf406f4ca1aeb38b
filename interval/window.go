package interval

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Window is a closed genomic interval [Begin, End] on one chromosome.  It is a
// value type; copies never alias.
type Window struct {
	Chromosome string
	Begin      int
	End        int
	// Label is the human-readable rendering, e.g. "chr7:5525542-5543028".
	// ParseWindows(Label) resolves to the same Window.
	Label string
}

// NewWindow validates the coordinates and fills in the label.
func NewWindow(chrom string, begin, end int) (Window, error) {
	if chrom == "" {
		return Window{}, &InvalidRegionError{Reason: "missing chromosome"}
	}
	if begin < 0 || end < 0 {
		return Window{}, &InvalidRegionError{Region: fmt.Sprintf("%s:%d-%d", chrom, begin, end), Reason: "negative coordinate"}
	}
	if begin >= end {
		return Window{}, &InvalidRegionError{Region: fmt.Sprintf("%s:%d-%d", chrom, begin, end), Reason: "start must be smaller than end"}
	}
	return Window{
		Chromosome: chrom,
		Begin:      begin,
		End:        end,
		Label:      fmt.Sprintf("%s:%d-%d", chrom, begin, end),
	}, nil
}

// Contains reports whether pos on chrom lies in the window.  Both bounds are
// inclusive.
func (w Window) Contains(chrom string, pos int) bool {
	return chrom == w.Chromosome && w.Begin <= pos && pos <= w.End
}

// String implements fmt.Stringer.
func (w Window) String() string { return w.Label }

// InvalidRegionError reports a malformed region specification.
type InvalidRegionError struct {
	Region string
	Reason string
}

func (e *InvalidRegionError) Error() string {
	if e.Region == "" {
		return "interval: invalid region: " + e.Reason
	}
	return fmt.Sprintf("interval: invalid region %q: %s", e.Region, e.Reason)
}

// Extents supplies the length of a chromosome.  It is consulted for bare
// chromosome names ("chr7"), which resolve to [0, length].
type Extents interface {
	Len(chrom string) (int, bool)
}

// SplitRegions splits a region list into individual region strings.
// Whitespace always separates regions.  A comma separates regions only when the
// character after it is not a digit, so thousands separators such as
// "chr7:5,525,542-5,543,028" stay inside their region.
func SplitRegions(spec string) []string {
	var regions []string
	for _, field := range strings.Fields(spec) {
		start := 0
		for i := 0; i < len(field); i++ {
			if field[i] != ',' {
				continue
			}
			if i+1 < len(field) && unicode.IsDigit(rune(field[i+1])) {
				continue
			}
			if i > start {
				regions = append(regions, field[start:i])
			}
			start = i + 1
		}
		if start < len(field) {
			regions = append(regions, field[start:])
		}
	}
	return regions
}

// ParseWindows resolves every region in spec (see SplitRegions) into a Window,
// preserving order.  ext may be nil, in which case bare chromosome names are
// rejected.
func ParseWindows(spec string, ext Extents) ([]Window, error) {
	regions := SplitRegions(spec)
	if len(regions) == 0 {
		return nil, &InvalidRegionError{Region: spec, Reason: "empty region list"}
	}
	windows := make([]Window, 0, len(regions))
	for _, region := range regions {
		w, err := ParseWindow(region, ext)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// ParseWindow parses a region string of one of the forms
//   [chromosome]:[start]-[end]
//   [chromosome]
// Commas inside the numbers are stripped.  The coordinates must be
// non-negative integers with start < end.
func ParseWindow(region string, ext Extents) (Window, error) {
	region = strings.TrimSpace(region)
	if len(region) == 0 {
		return Window{}, &InvalidRegionError{Reason: "empty region string"}
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		if ext == nil {
			return Window{}, &InvalidRegionError{Region: region, Reason: "no coordinates given and no chromosome sizes available"}
		}
		chrLen, ok := ext.Len(region)
		if !ok {
			return Window{}, &InvalidRegionError{Region: region, Reason: "unknown chromosome"}
		}
		return NewWindow(region, 0, chrLen)
	}
	if colonPos == 0 {
		return Window{}, &InvalidRegionError{Region: region, Reason: "missing chromosome"}
	}
	chrom := region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		return Window{}, &InvalidRegionError{Region: region, Reason: "expected start-end"}
	}
	start, err := strconv.ParseUint(rangeStr[:dashPos], 10, 63)
	if err != nil {
		return Window{}, &InvalidRegionError{Region: region, Reason: fmt.Sprintf("non-numeric start %q", rangeStr[:dashPos])}
	}
	end, err := strconv.ParseUint(rangeStr[dashPos+1:], 10, 63)
	if err != nil {
		return Window{}, &InvalidRegionError{Region: region, Reason: fmt.Sprintf("non-numeric end %q", rangeStr[dashPos+1:])}
	}
	if start >= end {
		return Window{}, &InvalidRegionError{Region: region, Reason: "start must be smaller than end"}
	}
	return NewWindow(chrom, int(start), int(end))
}
