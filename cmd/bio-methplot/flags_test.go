// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/methplot/browser"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*flag.FlagSet, *runFlags) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := newRunFlags(fs)
	assert.NoError(t, fs.Parse(args))
	return fs, f
}

func TestOptsDefaults(t *testing.T) {
	fs, f := parse(t, "-window", "chr1:1-100", "-names", "a, b")
	opts, err := f.opts(fs, []string{"x.tsv", "y.tsv"})
	assert.NoError(t, err)
	expect.EQ(t, opts.Names, []string{"a", "b"})
	expect.EQ(t, opts.Region, "chr1:1-100")
	expect.EQ(t, opts.Smooth, browser.DefaultOpts.Smooth)
	expect.True(t, opts.QC)
	expect.EQ(t, opts.Out, browser.DefaultOut)

	_, err = f.opts(fs, nil)
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	config := filepath.Join(tmpdir, "methplot.yaml")
	assert.NoError(t, os.WriteFile(config, []byte(`
window: chr2:10-20
smooth: 7
names: [s1, s2]
keep-going: true
qc: false
`), 0644))

	fs, f := parse(t, "-config", config, "-smooth", "3")
	opts, err := f.opts(fs, []string{"x.tsv", "y.tsv"})
	assert.NoError(t, err)
	expect.EQ(t, opts.Region, "chr2:10-20")
	// The command line wins over the config file.
	expect.EQ(t, opts.Smooth, 3)
	expect.EQ(t, opts.Names, []string{"s1", "s2"})
	expect.True(t, opts.KeepGoing)
	expect.False(t, opts.QC)

	bad := filepath.Join(tmpdir, "bad.yaml")
	assert.NoError(t, os.WriteFile(bad, []byte("smooth: many\n"), 0644))
	fs, f = parse(t, "-config", bad)
	_, err = f.opts(fs, []string{"x.tsv"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "smooth")

	fs, f = parse(t, "-config", filepath.Join(tmpdir, "missing.yaml"))
	_, err = f.opts(fs, []string{"x.tsv"})
	require.Error(t, err)
}
