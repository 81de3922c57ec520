package types

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/orizon-lang/ttcheck/internal/diagnostic"
	"github.com/orizon-lang/ttcheck/internal/errors"
	"github.com/orizon-lang/ttcheck/internal/metrics"
	"github.com/orizon-lang/ttcheck/internal/position"
)

// Generation identifies one semantic-checking pass. A node whose recorded
// generation equals the current one is not re-checked.
type Generation uint64

// Clock hands out increasing generations. A fresh pass over the same type
// graph must use a newer generation than every earlier one.
type Clock struct {
	current atomic.Uint64
}

// NewClock creates a clock whose first generation is 1
func NewClock() *Clock {
	return &Clock{}
}

// Next starts a new generation and returns it
func (c *Clock) Next() Generation {
	return Generation(c.current.Add(1))
}

// Current returns the most recent generation
func (c *Clock) Current() Generation {
	return Generation(c.current.Load())
}

// Pass carries the collaborators of one checking pass.
// A Pass and the type graph it walks are confined to one goroutine.
type Pass struct {
	Gen      Generation
	Diags    diagnostic.Sink
	Resolver NameResolver
	Log      zerolog.Logger
	Metrics  *metrics.Recorder

	// StrongKinds lists the element kinds for which two set of types are
	// accepted without walking their structure.
	StrongKinds KindSet

	// Structured enables structural compatibility of list and field types;
	// when false such types are compatible only with themselves.
	Structured bool
}

// NewPass creates a pass with default options
func NewPass(gen Generation, diags diagnostic.Sink, resolver NameResolver) *Pass {
	return &Pass{
		Gen:         gen,
		Diags:       diags,
		Resolver:    resolver,
		Log:         zerolog.Nop(),
		StrongKinds: DefaultStrongKinds(),
		Structured:  true,
	}
}

// Errorf reports an error diagnostic
func (p *Pass) Errorf(span position.Span, format string, args ...interface{}) {
	if p.Diags == nil {
		p.internalNil("diagnostic sink")
		return
	}
	p.Diags.ReportError(span, fmt.Sprintf(format, args...))
}

// Warnf reports a warning diagnostic
func (p *Pass) Warnf(span position.Span, format string, args ...interface{}) {
	if p.Diags == nil {
		p.internalNil("diagnostic sink")
		return
	}
	p.Diags.ReportWarning(span, fmt.Sprintf(format, args...))
}

func (p *Pass) internalNil(what string) {
	errors.NilCollaborator(p.Log, what)
}

func (p *Pass) internalNoFields(t *Type) {
	errors.NoFields(p.Log, t.String())
}

func (p *Pass) internalKind(operation string, kind TypeKind) {
	errors.UnexpectedKind(p.Log, operation, kind.String())
}
