// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"gonum.org/v1/plot/vg/draw"
)

// ErrUnsupportedFormat is returned when no Target can produce the requested
// format.
var ErrUnsupportedFormat = errors.New("render: unsupported output format")

// Target writes an Artifact in one output format.
type Target interface {
	Render(w io.Writer, a Artifact) error
}

// imageFormats are the formats of the static image backend.
var imageFormats = map[string]bool{
	"svg": true, "png": true, "pdf": true, "eps": true, "jpg": true,
	"jpeg": true, "tif": true, "tiff": true, "tex": true,
}

// TargetFor returns the Target for a path's extension: HTML for ".html" and
// ".htm", the image backend for the formats it supports, and
// ErrUnsupportedFormat otherwise.
func TargetFor(path string) (Target, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case ext == "html" || ext == "htm":
		return HTML{}, nil
	case imageFormats[ext]:
		return Image{Format: ext}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Image renders with the gonum/plot canvas backends.
type Image struct {
	// Format is a gonum/plot canvas format, such as "png".
	Format string
}

// Render implements Target.
func (t Image) Render(w io.Writer, a Artifact) error {
	width, height := a.size()
	c, err := draw.NewFormattedCanvas(width, height, t.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if err := a.draw(draw.New(c)); err != nil {
		return err
	}
	_, err = c.WriteTo(w)
	return err
}

// HTML renders a self-contained document: the artifact as inline SVG, its
// data as a JSON island, and a pan/zoom script.
type HTML struct{}

var htmlTemplate = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1em; }
#figure svg { max-width: 100%; height: auto; cursor: grab; }
</style>
</head>
<body>
<div id="figure">{{.SVG}}</div>
<script type="application/json" id="figure-data">{{.Data}}</script>
<script>
(function() {
  var svg = document.querySelector("#figure svg");
  if (!svg) { return; }
  var w = parseFloat(svg.getAttribute("width")), h = parseFloat(svg.getAttribute("height"));
  if (!svg.getAttribute("viewBox")) { svg.setAttribute("viewBox", "0 0 " + w + " " + h); }
  var vb = svg.getAttribute("viewBox").split(/[ ,]+/).map(Number);
  var set = function() { svg.setAttribute("viewBox", vb.join(" ")); };
  svg.addEventListener("wheel", function(e) {
    e.preventDefault();
    var k = e.deltaY > 0 ? 1.1 : 1 / 1.1;
    var r = svg.getBoundingClientRect();
    var fx = (e.clientX - r.left) / r.width;
    var nw = vb[2] * k;
    vb[0] += (vb[2] - nw) * fx;
    vb[2] = nw;
    set();
  });
  var drag = null;
  svg.addEventListener("mousedown", function(e) { drag = e.clientX; });
  window.addEventListener("mouseup", function() { drag = null; });
  window.addEventListener("mousemove", function(e) {
    if (drag === null) { return; }
    var r = svg.getBoundingClientRect();
    vb[0] -= (e.clientX - drag) * vb[2] / r.width;
    drag = e.clientX;
    set();
  });
  svg.addEventListener("dblclick", function() { vb = [0, 0, w, h]; set(); });
})();
</script>
</body>
</html>
`))

// Render implements Target.
func (HTML) Render(w io.Writer, a Artifact) error {
	var svg bytes.Buffer
	if err := (Image{Format: "svg"}).Render(&svg, a); err != nil {
		return err
	}
	return htmlTemplate.Execute(w, struct {
		Title string
		SVG   template.HTML
		Data  interface{}
	}{a.Title(), template.HTML(svg.String()), a.data()})
}

// HTMLPath returns path with its extension replaced by ".html".
func HTMLPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
}

// WriteFile renders a to path in the format its extension selects.  When the
// format is unsupported, the HTML form is written to HTMLPath(path) instead
// and a warning is logged.  It returns the path actually written.
func WriteFile(ctx context.Context, path string, a Artifact) (string, error) {
	t, err := TargetFor(path)
	if err == nil {
		var buf bytes.Buffer
		if err = t.Render(&buf, a); err == nil {
			return path, writeBytes(ctx, path, buf.Bytes())
		}
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		return "", err
	}
	fallback := HTMLPath(path)
	log.Printf("render.WriteFile: cannot write %s (%v); writing %s instead", path, err, fallback)
	var buf bytes.Buffer
	if err := (HTML{}).Render(&buf, a); err != nil {
		return "", err
	}
	return fallback, writeBytes(ctx, fallback, buf.Bytes())
}

func writeBytes(ctx context.Context, path string, data []byte) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = out.Writer(ctx).Write(data)
	return err
}
