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
package browser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grailbio/methplot/methylation"
)

// Opts configures a browser run.
type Opts struct {
	// Files are the methylation tables, one per sample.
	Files []string
	// Names are the sample names, index-aligned with Files.  When empty, the
	// base names of Files are used.
	Names []string
	// Region is one or more region strings separated by whitespace or commas.
	Region string
	// Smooth is the moving-average span applied to Frequency data.
	Smooth int
	// Split gives every sample its own row even without Raw data.
	Split bool

	GTFPath  string
	BEDPath  string
	Simplify bool
	// ChromSizesPath is a .fai or chrom.sizes file used to resolve bare
	// chromosome regions.
	ChromSizesPath string

	// Out and QCOut are output path templates; RegionPlaceholder is replaced
	// with the window label.  Empty means DefaultOut / DefaultQCOut.
	Out   string
	QCOut string
	// QC enables the QC report.
	QC bool

	// Parallelism is the number of windows processed at once; 0 means
	// runtime.NumCPU().
	Parallelism int
	// KeepGoing continues with the remaining windows after one fails.
	KeepGoing bool
	// FailOnEmpty makes a window without any row in range an error instead of
	// an empty figure.
	FailOnEmpty bool
}

// DefaultOpts are the defaults of the command line.
var DefaultOpts = Opts{
	Smooth:      methylation.DefaultSmooth,
	QC:          true,
	Parallelism: 0,
}

const (
	// RegionPlaceholder is substituted with the window label in output
	// templates.
	RegionPlaceholder = "{region}"
	// DefaultOut is the browser output template.
	DefaultOut = "methylation_browser_" + RegionPlaceholder + ".html"
	// DefaultQCOut is the QC report output template.
	DefaultQCOut = "qc_report_" + RegionPlaceholder + ".html"
)

// SampleNames returns names when given, otherwise the base names of files
// without their extensions.
func SampleNames(files, names []string) []string {
	if len(names) > 0 {
		return names
	}
	result := make([]string, len(files))
	for i, f := range files {
		base := filepath.Base(f)
		for _, ext := range []string{".gz", ".zst", ".bz2"} {
			base = strings.TrimSuffix(base, ext)
		}
		result[i] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return result
}

func (o *Opts) validate() error {
	if len(o.Files) == 0 {
		return fmt.Errorf("browser: no methylation files given")
	}
	o.Names = SampleNames(o.Files, o.Names)
	if len(o.Names) != len(o.Files) {
		return fmt.Errorf("browser: %d files but %d names", len(o.Files), len(o.Names))
	}
	seen := map[string]bool{}
	for _, n := range o.Names {
		if seen[n] {
			return fmt.Errorf("browser: duplicate sample name %q", n)
		}
		seen[n] = true
	}
	if err := methylation.ValidateSpan(o.Smooth); err != nil {
		return err
	}
	if o.Out == "" {
		o.Out = DefaultOut
	}
	if o.QCOut == "" {
		o.QCOut = DefaultQCOut
	}
	return nil
}

// OutputPath expands an output template for a window label.
func OutputPath(template, label string) string {
	return strings.ReplaceAll(template, RegionPlaceholder, label)
}
