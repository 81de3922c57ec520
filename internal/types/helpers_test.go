package types

import (
	"github.com/orizon-lang/ttcheck/internal/diagnostic"
	"github.com/orizon-lang/ttcheck/internal/metrics"
)

type mapResolver map[string]*Definition

func (m mapResolver) Lookup(ref Reference) (*Definition, bool) {
	d, ok := m[ref.Name]
	return d, ok
}

// declare registers named types with the resolver
func (m mapResolver) declare(ts ...*Type) {
	for _, t := range ts {
		m[t.Name] = &Definition{Kind: DefinitionType, Name: t.Name, Type: t}
	}
}

func newTestPass(gen Generation) (*Pass, *diagnostic.DiagnosticEngine, mapResolver) {
	engine := diagnostic.NewDiagnosticEngine(diagnostic.DefaultConfig())
	resolver := mapResolver{}
	p := NewPass(gen, engine, resolver)
	p.Metrics = metrics.NewRecorder("")
	return p, engine, resolver
}

func ref(name string) *Type {
	return NewReferencedType(Reference{Name: name})
}

func messages(ds []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Message)
	}
	return out
}
