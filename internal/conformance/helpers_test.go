package conformance

import (
	"github.com/orizon-lang/ttcheck/internal/diagnostic"
	"github.com/orizon-lang/ttcheck/internal/types"
)

type mapResolver map[string]*types.Definition

func (m mapResolver) Lookup(ref types.Reference) (*types.Definition, bool) {
	d, ok := m[ref.Name]
	return d, ok
}

func newTestPass() (*types.Pass, *diagnostic.DiagnosticEngine) {
	engine := diagnostic.NewDiagnosticEngine(diagnostic.DefaultConfig())
	return types.NewPass(1, engine, mapResolver{}), engine
}

func integer() *types.Type   { return types.NewLeafType(types.TypeKindInteger) }
func charstring() *types.Type { return types.NewLeafType(types.TypeKindCharstring) }

func pointType() *types.Type {
	return types.NewRecordType("Point",
		types.NewField("x", integer()),
		types.NewField("y", integer()))
}

func errorMessages(engine *diagnostic.DiagnosticEngine) []string {
	out := []string{}
	for _, d := range engine.GetErrors() {
		out = append(out, d.Message)
	}
	return out
}

func warningMessages(engine *diagnostic.DiagnosticEngine) []string {
	out := []string{}
	for _, d := range engine.GetWarnings() {
		out = append(out, d.Message)
	}
	return out
}
