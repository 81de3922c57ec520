package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/orizon-lang/ttcheck/internal/cli"
	"github.com/orizon-lang/ttcheck/internal/config"
	"github.com/orizon-lang/ttcheck/internal/diagnostic"
	"github.com/orizon-lang/ttcheck/internal/fixture"
	"github.com/orizon-lang/ttcheck/internal/metrics"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// checker holds what every analysis of a run shares
type checker struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Recorder // nil unless metrics are wanted
	clock   *types.Clock
}

func newChecker(configPath string, stderr io.Writer, wantMetrics bool) (*checker, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := cli.NewLogger(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	c := &checker{cfg: cfg, log: log, clock: types.NewClock()}
	if wantMetrics || cfg.Metrics.Enabled {
		c.metrics = metrics.NewRecorder(cfg.Metrics.Prefix)
	}
	return c, nil
}

// analysis is the outcome of checking one fixture file
type analysis struct {
	Path    string
	Doc     *fixture.Document
	Diags   *diagnostic.DiagnosticEngine
	Results []fixture.Result
}

func (c *checker) newDiagnostics() *diagnostic.DiagnosticEngine {
	return diagnostic.NewDiagnosticEngine(diagnostic.DiagnosticConfig{
		MaxErrors:        c.cfg.Diagnostics.MaxErrors,
		WarningsAsErrors: c.cfg.Diagnostics.WarningsAsErrors,
	})
}

// newPass creates a pass of generation gen that resolves names in doc
func (c *checker) newPass(gen types.Generation, doc *fixture.Document, diags *diagnostic.DiagnosticEngine) *types.Pass {
	var sink diagnostic.Sink = diags
	if c.metrics != nil {
		sink = &metrics.CountingSink{Next: diags, Recorder: c.metrics}
	}

	p := types.NewPass(gen, sink, doc)
	p.Log = c.log
	p.Metrics = c.metrics
	p.StrongKinds = c.cfg.StrongKinds()
	p.Structured = c.cfg.IsStructured()
	return p
}

// analyze loads path and checks it as generation gen
func (c *checker) analyze(path string, gen types.Generation) (*analysis, error) {
	doc, err := fixture.Load(path)
	if err != nil {
		return nil, err
	}

	diags := c.newDiagnostics()
	p := c.newPass(gen, doc, diags)
	results := doc.Run(p)
	diags.SortDiagnostics()

	c.log.Debug().
		Str("path", path).
		Str("module", doc.Module).
		Uint64("generation", uint64(gen)).
		Int("errors", len(diags.GetErrors())).
		Msg("checked")

	return &analysis{Path: path, Doc: doc, Diags: diags, Results: results}, nil
}

func formatResult(r fixture.Result) string {
	q := r.Query
	line := fmt.Sprintf("%s(%s, %s): %t", q.Kind, q.Left, q.Right, r.Answer)
	if r.Info != nil {
		line += "\n    " + r.Info.Error()
	}
	return line
}

func (a *analysis) writeText(w io.Writer) {
	fmt.Fprintf(w, "== %s (module %s)\n", a.Path, a.Doc.Module)
	fmt.Fprint(w, a.Diags.FormatDiagnostics())
	for _, r := range a.Results {
		fmt.Fprintln(w, formatResult(r))
	}
}

type jsonQuery struct {
	Kind   string `json:"kind"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	Answer bool   `json:"answer"`
	Reason string `json:"reason,omitempty"`
}

type jsonReport struct {
	File        string                       `json:"file"`
	Module      string                       `json:"module,omitempty"`
	Error       string                       `json:"error,omitempty"`
	Diagnostics *diagnostic.DiagnosticEngine `json:"diagnostics,omitempty"`
	Queries     []jsonQuery                  `json:"queries,omitempty"`
}

func (a *analysis) report() jsonReport {
	rep := jsonReport{File: a.Path, Module: a.Doc.Module, Diagnostics: a.Diags}
	for _, r := range a.Results {
		q := jsonQuery{
			Kind:   r.Query.Kind.String(),
			Left:   r.Query.Left.String(),
			Right:  r.Query.Right.String(),
			Answer: r.Answer,
		}
		if r.Info != nil {
			q.Reason = r.Info.Error()
		}
		rep.Queries = append(rep.Queries, q)
	}
	return rep
}

func writeJSON(w io.Writer, reports []jsonReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
