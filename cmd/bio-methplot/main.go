// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// bio-methplot draws methylation browser figures and QC reports for one or
// more genomic windows, or serves them over HTTP.
//
// Each positional argument is a methylation table, either a per-site
// frequency table or a per-read call table, optionally compressed.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/methplot/browser"
	"github.com/grailbio/methplot/server"
	"v.io/x/lib/cmdline"
)

func newCmdBrowse() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "browse",
		Short:    "Write a browser figure and QC report per window",
		ArgsName: "file...",
	}
	flags := newRunFlags(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := flags.opts(&cmd.Flags, argv)
		if err != nil {
			return err
		}
		if strings.TrimSpace(opts.Region) == "" {
			return fmt.Errorf("browse: -window is required")
		}
		results, err := browser.Run(context.Background(), opts)
		for _, res := range results {
			fmt.Fprintf(env.Stdout, "%s\t%s", res.Window.Label, res.BrowserPath)
			if res.QCPath != "" {
				fmt.Fprintf(env.Stdout, "\t%s", res.QCPath)
			}
			fmt.Fprintln(env.Stdout)
		}
		return err
	})
	return cmd
}

func newCmdServe() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "serve",
		Short:    "Serve browser figures, layout plans and QC reports over HTTP",
		ArgsName: "file...",
	}
	flags := newRunFlags(&cmd.Flags)
	port := cmd.Flags.Int("port", 8080, "TCP port to listen on")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		opts, err := flags.opts(&cmd.Flags, argv)
		if err != nil {
			return err
		}
		b, err := browser.New(context.Background(), opts)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf(":%d", *port)
		log.Printf("bio-methplot: serving %d samples on %s", len(opts.Files), addr)
		return server.New(b).Run(addr)
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-methplot",
			Short:    "Methylation browser and QC reports",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdBrowse(),
				newCmdServe(),
			},
		})
}
