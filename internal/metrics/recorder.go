// Package metrics instruments the checker with Prometheus counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/orizon-lang/ttcheck/internal/diagnostic"
	"github.com/orizon-lang/ttcheck/internal/position"
)

// Recorder owns a private registry with the checker counters.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	prefix   string

	typeChecks    *prometheus.CounterVec
	compatQueries *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
}

// NewRecorder creates a recorder whose metric names start with prefix
// (default "ttcheck").
func NewRecorder(prefix string) *Recorder {
	if prefix == "" {
		prefix = "ttcheck"
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		prefix:   prefix,
	}

	r.typeChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_type_checks_total",
			Help: "Structural type checks performed, by type kind",
		},
		[]string{"kind"},
	)
	r.compatQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_compat_queries_total",
			Help: "Top-level compatibility queries, by outcome",
		},
		[]string{"result"},
	)
	r.diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_diagnostics_total",
			Help: "Diagnostics reported, by level",
		},
		[]string{"level"},
	)

	r.registry.MustRegister(r.typeChecks, r.compatQueries, r.diagnostics)

	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// TypeChecked counts one structural walk of a type of the given kind.
func (r *Recorder) TypeChecked(kind string) {
	if r == nil {
		return
	}
	r.typeChecks.WithLabelValues(kind).Inc()
}

// CompatQuery counts one top-level compatibility query.
func (r *Recorder) CompatQuery(compatible bool) {
	if r == nil {
		return
	}
	result := "incompatible"
	if compatible {
		result = "compatible"
	}
	r.compatQueries.WithLabelValues(result).Inc()
}

// Diagnostic counts one reported diagnostic.
func (r *Recorder) Diagnostic(level string) {
	if r == nil {
		return
	}
	r.diagnostics.WithLabelValues(level).Inc()
}

// TypeChecks returns the number of structural walks recorded for kind.
func (r *Recorder) TypeChecks(kind string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.typeChecks.WithLabelValues(kind))
}

// CompatQueries returns the number of queries recorded with the given outcome.
func (r *Recorder) CompatQueries(compatible bool) float64 {
	if r == nil {
		return 0
	}
	result := "incompatible"
	if compatible {
		result = "compatible"
	}
	return counterValue(r.compatQueries.WithLabelValues(result))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// WriteText writes every metric in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}

	return nil
}

// CountingSink forwards to another sink and counts each diagnostic.
type CountingSink struct {
	Next     diagnostic.Sink
	Recorder *Recorder
}

// ReportError implements diagnostic.Sink.
func (s *CountingSink) ReportError(span position.Span, message string) {
	s.Recorder.Diagnostic(diagnostic.DiagnosticError.String())
	s.Next.ReportError(span, message)
}

// ReportWarning implements diagnostic.Sink.
func (s *CountingSink) ReportWarning(span position.Span, message string) {
	s.Recorder.Diagnostic(diagnostic.DiagnosticWarning.String())
	s.Next.ReportWarning(span, message)
}
