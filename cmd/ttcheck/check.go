package main

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runCheck analyses every file concurrently. Each file owns its own type
// graph, so the analyses share nothing but the metrics recorder.
func runCheck(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("check", stderr)
	format := fs.String("format", "text", "output format (text|json)")
	withMetrics := fs.Bool("metrics", false, "print Prometheus metrics after the run")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", *format)
		return 2
	}

	c, err := newChecker(*configPath, stderr, *withMetrics)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	files := fs.Args()
	analyses := make([]*analysis, len(files))
	failures := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			analyses[i], failures[i] = c.analyze(path, c.clock.Next())
			return nil
		})
	}
	_ = g.Wait()

	code := 0
	var reports []jsonReport
	for i, a := range analyses {
		if failures[i] != nil {
			c.log.Error().Err(failures[i]).Str("path", files[i]).Msg("cannot load fixture")
			reports = append(reports, jsonReport{File: files[i], Error: failures[i].Error()})
			code = 1
			continue
		}
		if a.Diags.HasErrors() {
			code = 1
		}
		if *format == "json" {
			reports = append(reports, a.report())
		} else {
			a.writeText(stdout)
		}
	}

	if *format == "json" {
		if err := writeJSON(stdout, reports); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *withMetrics {
		if err := c.metrics.WriteText(stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	return code
}
