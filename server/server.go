// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package server exposes a browser over HTTP.  Every request names a region;
// the samples are loaded for it on demand.
package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grailbio/base/log"
	"github.com/grailbio/methplot/browser"
	"github.com/grailbio/methplot/interval"
	"github.com/grailbio/methplot/layout"
	"github.com/grailbio/methplot/methylation"
	"github.com/grailbio/methplot/qc"
	"github.com/grailbio/methplot/render"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-Id"

const htmlContentType = "text/html; charset=utf-8"

// New returns an engine serving:
//
//   GET /plan?region=R[&split=true]     layout plan of every window, as JSON
//   GET /browser?region=R[&split=true]  browser figure of the first window
//   GET /qc?region=R                    QC report of the first window
func New(b *browser.Browser) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID)
	h := handler{b: b}
	router.GET("/plan", h.plan)
	router.GET("/browser", h.browser)
	router.GET("/qc", h.qc)
	return router
}

func requestID(c *gin.Context) {
	id := uuid.New().String()
	c.Set(RequestIDHeader, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	var (
		regionErr *interval.InvalidRegionError
		parseErr  *methylation.ParseError
		emptyErr  *methylation.EmptyResultError
	)
	switch {
	case errors.As(err, &regionErr):
		return http.StatusBadRequest
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &emptyErr):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type handler struct {
	b *browser.Browser
}

func (h handler) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	id := c.GetString(RequestIDHeader)
	if status == http.StatusInternalServerError {
		log.Error.Printf("server %s %s: %v", id, c.Request.URL, err)
	} else {
		log.Debug.Printf("server %s %s: %v", id, c.Request.URL, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "request_id": id})
}

func (h handler) windows(c *gin.Context) ([]interval.Window, error) {
	region := c.Query("region")
	if region == "" {
		return nil, &interval.InvalidRegionError{Region: region, Reason: "missing region parameter"}
	}
	return h.b.Windows(region)
}

func (h handler) split(c *gin.Context) bool {
	split, err := strconv.ParseBool(c.DefaultQuery("split", "false"))
	if err != nil {
		return h.b.Opts().Split
	}
	return split || h.b.Opts().Split
}

func (h handler) figure(c *gin.Context, w interval.Window) (*render.Figure, []methylation.Dataset, error) {
	ctx := c.Request.Context()
	datasets, err := h.b.Load(ctx, w)
	if err != nil {
		return nil, nil, err
	}
	fig, err := h.b.Figure(ctx, w, datasets, h.split(c))
	if err != nil {
		return nil, nil, err
	}
	return fig, datasets, nil
}

func (h handler) plan(c *gin.Context) {
	windows, err := h.windows(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	plans := make([]*layout.Plan, len(windows))
	for i, w := range windows {
		fig, _, err := h.figure(c, w)
		if err != nil {
			h.fail(c, err)
			return
		}
		plans[i] = fig.Plan
	}
	c.JSON(http.StatusOK, plans)
}

func (h handler) render(c *gin.Context, a render.Artifact) {
	var buf bytes.Buffer
	if err := (render.HTML{}).Render(&buf, a); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (h handler) browser(c *gin.Context) {
	windows, err := h.windows(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	fig, _, err := h.figure(c, windows[0])
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, fig)
}

func (h handler) qc(c *gin.Context) {
	windows, err := h.windows(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	w := windows[0]
	datasets, err := h.b.Load(c.Request.Context(), w)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, render.NewQCReport(w.Label, qc.Aggregate(datasets)))
}
