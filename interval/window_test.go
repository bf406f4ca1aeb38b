package interval

import (
	"errors"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSplitRegions(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"chr7:5525542-5543028", []string{"chr7:5525542-5543028"}},
		{"chr7:5,525,542-5,543,028", []string{"chr7:5,525,542-5,543,028"}},
		{"chr7:1-100,chr8:200-300", []string{"chr7:1-100", "chr8:200-300"}},
		{"chr7:1,000-2,000, chr8:2-3", []string{"chr7:1,000-2,000", "chr8:2-3"}},
		{"  chr1   chr2:1-2 ", []string{"chr1", "chr2:1-2"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		expect.EQ(t, SplitRegions(tt.spec), tt.want, "spec %q", tt.spec)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		region string
		chrom  string
		begin  int
		end    int
	}{
		{"chr7:5525542-5543028", "chr7", 5525542, 5543028},
		{"chr7:5,525,542-5,543,028", "chr7", 5525542, 5543028},
		{"chrX:0-1", "chrX", 0, 1},
	}
	for _, tt := range tests {
		w, err := ParseWindow(tt.region, nil)
		assert.NoError(t, err)
		expect.EQ(t, w.Chromosome, tt.chrom)
		expect.EQ(t, w.Begin, tt.begin)
		expect.EQ(t, w.End, tt.end)
		expect.True(t, w.Begin < w.End)

		// The label resolves back to the same window.
		again, err := ParseWindow(w.Label, nil)
		assert.NoError(t, err)
		expect.EQ(t, again, w)
	}
}

func TestParseWindowLabel(t *testing.T) {
	w, err := ParseWindow("chr7:5,525,542-5,543,028", nil)
	assert.NoError(t, err)
	expect.EQ(t, w.Label, "chr7:5525542-5543028")
	expect.EQ(t, w.String(), w.Label)
}

func TestParseWindowErrors(t *testing.T) {
	for _, region := range []string{
		"",
		":1-2",
		"chr1:a-2",
		"chr1:1-b",
		"chr1:5-5",
		"chr1:10-5",
		"chr1:-1-5",
		"chr1:100",
		"chr1",
	} {
		_, err := ParseWindow(region, nil)
		var invalid *InvalidRegionError
		expect.True(t, errors.As(err, &invalid), "region %q: %v", region, err)
	}
}

func TestParseWindowBareChromosome(t *testing.T) {
	sizes := ChromSizes{"chr1": 1000}
	w, err := ParseWindow("chr1", sizes)
	assert.NoError(t, err)
	expect.EQ(t, w, Window{Chromosome: "chr1", Begin: 0, End: 1000, Label: "chr1:0-1000"})

	_, err = ParseWindow("chr2", sizes)
	var invalid *InvalidRegionError
	expect.True(t, errors.As(err, &invalid))
}

func TestParseWindows(t *testing.T) {
	windows, err := ParseWindows("chr7:1,000-2,000,chr8:5-10 chr1", ChromSizes{"chr1": 50})
	assert.NoError(t, err)
	assert.EQ(t, len(windows), 3)
	expect.EQ(t, windows[0].Label, "chr7:1000-2000")
	expect.EQ(t, windows[1].Label, "chr8:5-10")
	expect.EQ(t, windows[2].Label, "chr1:0-50")

	_, err = ParseWindows("  ", nil)
	var invalid *InvalidRegionError
	expect.True(t, errors.As(err, &invalid))

	// One bad region fails the whole list.
	_, err = ParseWindows("chr7:1-2 chr8:3-1", nil)
	expect.True(t, errors.As(err, &invalid))
}

func TestWindowContains(t *testing.T) {
	w, err := NewWindow("chr1", 10, 20)
	assert.NoError(t, err)
	expect.True(t, w.Contains("chr1", 10))
	expect.True(t, w.Contains("chr1", 20))
	expect.False(t, w.Contains("chr1", 9))
	expect.False(t, w.Contains("chr1", 21))
	expect.False(t, w.Contains("chr2", 15))
}
