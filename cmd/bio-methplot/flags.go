// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/methplot/browser"
	"github.com/spf13/viper"
)

// runFlags are the flags shared by browse and serve.
type runFlags struct {
	names       *string
	window      *string
	smooth      *int
	split       *bool
	gtf         *string
	bed         *string
	simplify    *bool
	chromSizes  *string
	out         *string
	qcOut       *string
	qc          *bool
	parallelism *int
	keepGoing   *bool
	failOnEmpty *bool
	config      *string
}

func newRunFlags(fs *flag.FlagSet) *runFlags {
	d := browser.DefaultOpts
	return &runFlags{
		names:  fs.String("names", "", "Comma-separated sample names, one per file. Defaults to the file base names"),
		window: fs.String("window", "", `Regions to draw, separated by commas or whitespace.
Each is 'chr:start-end' or a bare chromosome name; the latter needs -chrom-sizes.`),
		smooth:      fs.Int("smooth", d.Smooth, "Odd moving-average span applied to frequency data"),
		split:       fs.Bool("split", d.Split, "Give every sample its own row"),
		gtf:         fs.String("gtf", "", "GTF file of transcripts to draw below the samples"),
		bed:         fs.String("bed", "", "BED file of regions to highlight below the samples"),
		simplify:    fs.Bool("simplify", d.Simplify, "Collapse the transcripts of each gene into one record"),
		chromSizes:  fs.String("chrom-sizes", "", "FASTA index or chrom.sizes file used to resolve bare chromosome regions"),
		out:         fs.String("out", browser.DefaultOut, "Browser output path template. The extension picks the format"),
		qcOut:       fs.String("qc-out", browser.DefaultQCOut, "QC report output path template"),
		qc:          fs.Bool("qc", d.QC, "Write a QC report per window"),
		parallelism: fs.Int("parallelism", d.Parallelism, "Number of windows processed at once; 0 = runtime.NumCPU()"),
		keepGoing:   fs.Bool("keep-going", d.KeepGoing, "Process the remaining windows after one fails"),
		failOnEmpty: fs.Bool("fail-on-empty", d.FailOnEmpty, "Fail on windows without any data instead of drawing an empty figure"),
		config: fs.String("config", "", `YAML, JSON or TOML file of flag values, keyed by flag name.
Flags given on the command line take precedence.`),
	}
}

// applyConfig sets every flag of fs that was not given on the command line
// and has a value in the config file at path.
func applyConfig(fs *flag.FlagSet, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.E(err, "reading config", path)
	}
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || explicit[f.Name] || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		var value string
		if _, ok := v.Get(f.Name).([]interface{}); ok {
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if e := fs.Set(f.Name, value); e != nil {
			err = fmt.Errorf("config %s: %s: %v", path, f.Name, e)
		}
	})
	return err
}

func splitList(s string) []string {
	var result []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			result = append(result, e)
		}
	}
	return result
}

// opts builds the browser options from the parsed flags and the positional
// file arguments.
func (f *runFlags) opts(fs *flag.FlagSet, files []string) (browser.Opts, error) {
	if *f.config != "" {
		if err := applyConfig(fs, *f.config); err != nil {
			return browser.Opts{}, err
		}
	}
	if len(files) == 0 {
		return browser.Opts{}, fmt.Errorf("at least one methylation file is required")
	}
	return browser.Opts{
		Files:          files,
		Names:          splitList(*f.names),
		Region:         *f.window,
		Smooth:         *f.smooth,
		Split:          *f.split,
		GTFPath:        *f.gtf,
		BEDPath:        *f.bed,
		Simplify:       *f.simplify,
		ChromSizesPath: *f.chromSizes,
		Out:            *f.out,
		QCOut:          *f.qcOut,
		QC:             *f.qc,
		Parallelism:    *f.parallelism,
		KeepGoing:      *f.keepGoing,
		FailOnEmpty:    *f.failOnEmpty,
	}, nil
}
