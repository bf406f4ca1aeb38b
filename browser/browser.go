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

// Package browser runs the per-window pipeline: load every sample's data in
// the window, plan the figure, render it, and summarize the samples for QC.
// Windows are independent and may be processed in parallel; within a window
// the steps run in order.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/methplot/annotation"
	"github.com/grailbio/methplot/interval"
	"github.com/grailbio/methplot/layout"
	"github.com/grailbio/methplot/methylation"
	"github.com/grailbio/methplot/qc"
	"github.com/grailbio/methplot/render"
)

// Browser holds what is shared by all windows of a run: the options, the
// chromosome extents and the annotation index.  It is safe for concurrent use.
type Browser struct {
	opts    Opts
	extents interval.Extents
	annot   annotation.Provider
}

// New validates opts and loads the chromosome sizes and annotation files they
// name.
func New(ctx context.Context, opts Opts) (*Browser, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	b := &Browser{opts: opts}
	if opts.ChromSizesPath != "" {
		sizes, err := interval.ReadChromSizesFromPath(ctx, opts.ChromSizesPath)
		if err != nil {
			return nil, err
		}
		b.extents = sizes
	}
	var providers []annotation.Provider
	if opts.GTFPath != "" {
		g, err := annotation.ReadGTF(ctx, opts.GTFPath)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}
	if opts.BEDPath != "" {
		bed, err := annotation.ReadBED(ctx, opts.BEDPath)
		if err != nil {
			return nil, err
		}
		providers = append(providers, bed)
	}
	if len(providers) > 0 {
		b.annot = annotation.Stack(providers...)
	}
	return b, nil
}

// Opts returns the validated options.
func (b *Browser) Opts() Opts { return b.opts }

// Windows resolves a region spec.
func (b *Browser) Windows(region string) ([]interval.Window, error) {
	return interval.ParseWindows(region, b.extents)
}

// Load reads every sample's data in w.  A window without any row is an
// *methylation.EmptyResultError if FailOnEmpty is set, and a warning
// otherwise.
func (b *Browser) Load(ctx context.Context, w interval.Window) ([]methylation.Dataset, error) {
	datasets, err := methylation.GetData(ctx, b.opts.Files, b.opts.Names, w, b.opts.Smooth)
	if err != nil {
		return nil, err
	}
	if err := methylation.CheckNonEmpty(datasets, w); err != nil {
		if b.opts.FailOnEmpty {
			return nil, err
		}
		log.Printf("browser: warning: %v; drawing an empty figure", err)
	}
	return datasets, nil
}

// Figure plans and assembles the browser figure of w.
func (b *Browser) Figure(ctx context.Context, w interval.Window, datasets []methylation.Dataset, split bool) (*render.Figure, error) {
	var (
		summary  *layout.AnnotationSummary
		features []annotation.Feature
	)
	if b.annot != nil {
		var (
			maxDepth int
			err      error
		)
		if features, maxDepth, err = b.annot.Tracks(ctx, w, b.opts.Simplify); err != nil {
			return nil, err
		}
		summary = &layout.AnnotationSummary{MaxDepth: maxDepth}
	}
	plan := layout.New(datasets, w, split, summary)
	return render.NewFigure(plan, datasets, features), nil
}

// Result reports the outputs of one window.
type Result struct {
	Window interval.Window
	// BrowserPath is the file the figure was written to, which differs from
	// the template when the format fell back to HTML.
	BrowserPath string
	// QCPath and QCTablePath are empty when no QC report was written.
	QCPath      string
	QCTablePath string
}

func ensureDir(path string) error {
	if strings.Contains(path, "://") {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// ProcessWindow runs the whole pipeline for w and writes its artifacts.
func (b *Browser) ProcessWindow(ctx context.Context, w interval.Window) (Result, error) {
	res := Result{Window: w}
	datasets, err := b.Load(ctx, w)
	if err != nil {
		return res, err
	}
	fig, err := b.Figure(ctx, w, datasets, b.opts.Split)
	if err != nil {
		return res, err
	}
	out := OutputPath(b.opts.Out, w.Label)
	if err = ensureDir(out); err != nil {
		return res, err
	}
	if res.BrowserPath, err = render.WriteFile(ctx, out, fig); err != nil {
		return res, gerrors.E(err, "writing", out)
	}
	if !b.opts.QC {
		return res, nil
	}
	summary := qc.Aggregate(datasets)
	if summary.Empty() {
		log.Debug.Printf("browser: %s: no frequency data, skipping QC", w.Label)
		return res, nil
	}
	qcOut := OutputPath(b.opts.QCOut, w.Label)
	if err = ensureDir(qcOut); err != nil {
		return res, err
	}
	if res.QCPath, err = render.WriteFile(ctx, qcOut, render.NewQCReport(w.Label, summary)); err != nil {
		return res, gerrors.E(err, "writing", qcOut)
	}
	if summary.Table != nil {
		res.QCTablePath = strings.TrimSuffix(res.QCPath, filepath.Ext(res.QCPath)) + ".tsv"
		if err = summary.Table.WriteTSV(ctx, res.QCTablePath); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Run processes every window of opts.Region.  Without KeepGoing, the first
// failure stops windows that have not started yet; with it, every window is
// attempted.  Either way the first error is returned, along with the results
// of the windows that succeeded.
func Run(ctx context.Context, opts Opts) ([]Result, error) {
	b, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	opts = b.opts
	windows, err := b.Windows(opts.Region)
	if err != nil {
		return nil, err
	}
	if len(windows) > 1 {
		for _, tmpl := range []string{opts.Out, opts.QCOut} {
			if !strings.Contains(tmpl, RegionPlaceholder) {
				return nil, fmt.Errorf("browser.Run: output %q must contain %s when %d regions are given", tmpl, RegionPlaceholder, len(windows))
			}
		}
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(windows) {
		parallelism = len(windows)
	}
	log.Printf("browser.Run: %d windows, %d samples, %d jobs", len(windows), len(opts.Files), parallelism)

	results := make([]Result, len(windows))
	done := make([]bool, len(windows))
	var once gerrors.Once
	_ = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(windows)) / parallelism
		endIdx := ((jobIdx + 1) * len(windows)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			if !opts.KeepGoing && once.Err() != nil {
				return nil
			}
			res, err := b.ProcessWindow(ctx, windows[i])
			if err != nil {
				log.Error.Printf("browser.Run: %s: %v", windows[i].Label, err)
				once.Set(err)
				continue
			}
			results[i], done[i] = res, true
			log.Printf("browser.Run: %s: wrote %s", windows[i].Label, res.BrowserPath)
		}
		return nil
	})
	var completed []Result
	for i, ok := range done {
		if ok {
			completed = append(completed, results[i])
		}
	}
	return completed, once.Err()
}
