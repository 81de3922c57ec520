// Package fixture loads module descriptions from YAML documents.
// A document declares types, constants, templates and compatibility
// queries; loading builds the type graph and the value and template trees
// the checker consumes, and the document itself resolves the names used
// inside it.
package fixture

import (
	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/position"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Document is one loaded module
type Document struct {
	Module   string
	Requires string
	Source   *position.SourceFile

	Types     []*TypeDef
	Constants []*Constant
	Templates []*TemplateDef
	Queries   []*Query

	defs   map[string]*types.Definition
	leaves map[types.TypeKind]*types.Type
}

// TypeDef is a named type declaration
type TypeDef struct {
	Name string
	Type *types.Type
}

// Constant is a constant declaration with its value
type Constant struct {
	Name         string
	Type         *types.Type
	Value        *ast.Value
	Dynamic      bool // checked as a run-time value: holes are allowed
	ImplicitOmit bool
	Span         position.Span
}

// TemplateDef is a template declaration
type TemplateDef struct {
	Name         string
	Type         *types.Type
	Body         *ast.Template
	Modifies     string
	Incomplete   bool
	ImplicitOmit bool
	Span         position.Span
}

// QueryKind selects the relation a query asks about
type QueryKind int

const (
	QueryCompatible QueryKind = iota
	QueryIdentical
)

func (k QueryKind) String() string {
	if k == QueryIdentical {
		return "identical"
	}
	return "compatible"
}

// Query asks whether two types are compatible or identical
type Query struct {
	Kind        QueryKind
	Left, Right *types.Type
	Expect      *bool // the answer the document expects, if any
	Span        position.Span
}

func newDocument(src *position.SourceFile) *Document {
	return &Document{
		Source: src,
		defs:   make(map[string]*types.Definition),
		leaves: make(map[types.TypeKind]*types.Type),
	}
}

// Lookup implements types.NameResolver. References qualified with another
// module are not found.
func (d *Document) Lookup(ref types.Reference) (*types.Definition, bool) {
	if ref.Module != "" && ref.Module != d.Module {
		return nil, false
	}
	def, ok := d.defs[ref.Name]
	return def, ok
}

// Type returns the declared type called name
func (d *Document) Type(name string) (*types.Type, bool) {
	def, ok := d.defs[name]
	if !ok || def.Kind != types.DefinitionType {
		return nil, false
	}
	return def.Type, true
}

// Definitions returns every definition of the module in declaration order
func (d *Document) Definitions() []*types.Definition {
	out := make([]*types.Definition, 0, len(d.defs))
	for _, td := range d.Types {
		out = append(out, d.defs[td.Name])
	}
	for _, c := range d.Constants {
		out = append(out, d.defs[c.Name])
	}
	for _, t := range d.Templates {
		out = append(out, d.defs[t.Name])
	}
	return out
}

// leaf returns the module's node for a built-in kind
func (d *Document) leaf(kind types.TypeKind) *types.Type {
	t, ok := d.leaves[kind]
	if !ok {
		t = types.NewLeafType(kind)
		t.Module = d.Module
		d.leaves[kind] = t
	}
	return t
}
