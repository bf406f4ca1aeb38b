package methylation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/methplot/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const frequencyHeader = "chromosome\tstart\tend\tnum_motifs_in_group\tcalled_sites\tcalled_sites_methylated\tmethylated_frequency\tgroup_sequence\n"

const rawHeader = "chromosome\tstrand\tstart\tend\tread_name\tlog_lik_ratio\tlog_lik_methylated\tlog_lik_unmethylated\tnum_calling_strands\tnum_motifs\tsequence\n"

func mustWindow(t *testing.T, region string) interval.Window {
	w, err := interval.ParseWindow(region, nil)
	assert.NoError(t, err)
	return w
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeGzipFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())
	return path
}

func frequencyTable(rows ...string) string {
	return frequencyHeader + strings.Join(rows, "\n") + "\n"
}

func TestRepresentativePos(t *testing.T) {
	expect.EQ(t, representativePos(100, 100), 100)
	expect.EQ(t, representativePos(101, 102), 101)
	expect.EQ(t, representativePos(100, 105), 102)
	expect.EQ(t, representativePos(-3, 0), -2)
}

func TestReadTableFrequency(t *testing.T) {
	w := mustWindow(t, "chr7:100-200")
	table := frequencyTable(
		"chr7\t98\t100\t1\t10\t1\t0.1\tCG",  // 99, outside
		"chr7\t100\t100\t1\t10\t2\t0.2\tCG", // 100
		"chr8\t150\t150\t1\t10\t9\t0.9\tCG", // other chromosome
		"chr7\t150\t151\t1\t10\t4\t0.4\tCG", // 150
		"chr7\t200\t200\t1\t10\t6\t0.6\tCG", // 200
		"chr7\t201\t201\t1\t10\t7\t0.7\tCG", // 201, outside
	)
	d, err := ReadTable(strings.NewReader(table), "a", w, 1)
	assert.NoError(t, err)
	expect.EQ(t, d.Kind(), Frequency)
	expect.EQ(t, d.Name(), "a")
	f := d.(*FrequencyData)
	expect.EQ(t, f.Sites(), []Site{{100, 0.2}, {150, 0.4}, {200, 0.6}})
	for _, s := range f.Sites() {
		expect.True(t, w.Contains("chr7", s.Pos))
	}
}

func TestReadTableFrequencyUnsortedAndDuplicates(t *testing.T) {
	w := mustWindow(t, "chr1:0-1000")
	table := frequencyTable(
		"chr1\t30\t30\t1\t1\t1\t0.3\tCG",
		"chr1\t10\t10\t1\t1\t1\t0.2\tCG",
		"chr1\t20\t20\t1\t1\t1\t0.5\tCG",
		"chr1\t10\t11\t1\t1\t1\t0.4\tCG",
	)
	d, err := ReadTable(strings.NewReader(table), "a", w, 1)
	assert.NoError(t, err)
	sites := d.(*FrequencyData).Sites()
	require.Len(t, sites, 3)
	expect.EQ(t, sites[0].Pos, 10)
	require.InDelta(t, 0.3, sites[0].Value, 1e-9)
	expect.EQ(t, sites[1], Site{20, 0.5})
	expect.EQ(t, sites[2], Site{30, 0.3})
}

func TestReadTableSmoothing(t *testing.T) {
	w := mustWindow(t, "chr1:0-1000")
	var rows []string
	for i, v := range []string{"0.1", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7"} {
		pos := 10 * (i + 1)
		rows = append(rows, strings.Join([]string{"chr1", strconv.Itoa(pos), strconv.Itoa(pos), "1", "1", "1", v, "CG"}, "\t"))
	}
	d, err := ReadTable(strings.NewReader(frequencyTable(rows...)), "a", w, 5)
	assert.NoError(t, err)
	sites := d.(*FrequencyData).Sites()
	// N-(W-1) sites survive, each placed at the center of its window.
	require.Len(t, sites, 3)
	for i, want := range []Site{{30, 0.3}, {40, 0.4}, {50, 0.5}} {
		expect.EQ(t, sites[i].Pos, want.Pos)
		require.InDelta(t, want.Value, sites[i].Value, 1e-9)
	}

	// A span wider than the data leaves nothing.
	d, err = ReadTable(strings.NewReader(frequencyTable(rows...)), "a", w, 9)
	assert.NoError(t, err)
	expect.EQ(t, d.Len(), 0)
}

func TestReadTableColumnOrder(t *testing.T) {
	w := mustWindow(t, "chr1:0-100")
	a := "chromosome\tstart\tend\tmethylated_frequency\n" +
		"chr1\t10\t10\t0.25\n" +
		"chr1\t20\t20\t0.75\n"
	b := "methylated_frequency\tend\tchromosome\tstart\n" +
		"0.25\t10\tchr1\t10\n" +
		"0.75\t20\tchr1\t20\n"
	da, err := ReadTable(strings.NewReader(a), "x", w, 1)
	assert.NoError(t, err)
	db, err := ReadTable(strings.NewReader(b), "x", w, 1)
	assert.NoError(t, err)
	expect.EQ(t, da, db)
}

func TestReadTableRaw(t *testing.T) {
	w := mustWindow(t, "chr2:1000-2000")
	table := rawHeader +
		"chr2\t+\t1500\t1500\treadB\t-3.1\t-10\t-7\t1\t1\tCG\n" +
		"chr2\t-\t1100\t1101\treadB\t4.0\t-5\t-9\t1\t1\tCG\n" +
		"chr2\t+\t1200\t1200\treadA\t0.5\t-5\t-5.5\t1\t1\tCG\n" +
		"chr2\t+\t5000\t5000\treadA\t2.0\t-5\t-7\t1\t1\tCG\n" +
		"chr3\t+\t1200\t1200\treadC\t2.0\t-5\t-7\t1\t1\tCG\n"
	d, err := ReadTable(strings.NewReader(table), "r", w, DefaultSmooth)
	assert.NoError(t, err)
	expect.EQ(t, d.Kind(), Raw)
	expect.EQ(t, d.(*RawData).Calls(), []Call{
		{ReadID: "readA", Pos: 1200, LogLikRatio: 0.5, Strand: StrandFwd},
		{ReadID: "readB", Pos: 1100, LogLikRatio: 4.0, Strand: StrandRev},
		{ReadID: "readB", Pos: 1500, LogLikRatio: -3.1, Strand: StrandFwd},
	})
}

func TestReadTableErrors(t *testing.T) {
	w := mustWindow(t, "chr1:0-100")
	tests := []struct {
		name  string
		table string
		want  string
	}{
		{"empty", "", "missing header row"},
		{"no schema", "chromosome\tstart\tend\n", "methylated_frequency"},
		{"typo", "chromosome\tstart\tend\tmethylated_frequncy\n", "found \"methylated_frequncy\""},
		{"raw missing strand", "chromosome\tstart\tend\tread_name\tlog_lik_ratio\n", "\"strand\""},
		{"bad number", "chromosome\tstart\tend\tmethylated_frequency\nchr1\tx\t1\t0.5\n", "line 2"},
		{"bad strand", "chromosome\tstrand\tstart\tend\tread_name\tlog_lik_ratio\nchr1\t.\t1\t1\tr\t1.0\n", "invalid strand"},
	}
	for _, tt := range tests {
		d, err := ReadTable(strings.NewReader(tt.table), "a", w, 1)
		require.Error(t, err, tt.name)
		require.Contains(t, err.Error(), tt.want, tt.name)
		expect.True(t, d == nil, tt.name)
	}
}

func TestReadMeth(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()
	w := mustWindow(t, "chr1:0-100")
	table := frequencyTable("chr1\t10\t10\t1\t1\t1\t0.5\tCG")

	plain := writeFile(t, tmpdir, "a.tsv", table)
	gz := writeGzipFile(t, tmpdir, "a.tsv.gz", table)
	dp, err := ReadMeth(ctx, plain, "a", w, 1)
	assert.NoError(t, err)
	dg, err := ReadMeth(ctx, gz, "a", w, 1)
	assert.NoError(t, err)
	expect.EQ(t, dp, dg)
	expect.EQ(t, dp.Len(), 1)

	missing := filepath.Join(tmpdir, "missing.tsv")
	_, err = ReadMeth(ctx, missing, "a", w, 1)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	expect.EQ(t, perr.File, missing)

	bad := writeFile(t, tmpdir, "bad.tsv", "foo\tbar\n1\t2\n")
	_, err = ReadMeth(ctx, bad, "a", w, 1)
	require.True(t, errors.As(err, &perr))
	expect.EQ(t, perr.File, bad)

	_, err = ReadMeth(ctx, plain, "a", w, 4)
	require.Error(t, err)
	expect.False(t, errors.As(err, &perr))
}
