package types

import (
	"strings"

	"github.com/orizon-lang/ttcheck/internal/position"
)

// Reference names a definition, optionally qualified by its module
type Reference struct {
	Module string
	Name   string
}

func (r Reference) String() string {
	if r.Module != "" {
		return r.Module + "." + r.Name
	}
	return r.Name
}

// DefinitionKind classifies what a name resolves to
type DefinitionKind int

const (
	DefinitionType DefinitionKind = iota
	DefinitionConstant
	DefinitionTemplate
	DefinitionFunction
	DefinitionOther
)

func (k DefinitionKind) String() string {
	switch k {
	case DefinitionType:
		return "type"
	case DefinitionConstant:
		return "constant"
	case DefinitionTemplate:
		return "template"
	case DefinitionFunction:
		return "function"
	default:
		return "definition"
	}
}

// Definition is the result of a name lookup
type Definition struct {
	Kind   DefinitionKind
	Name   string
	Module string
	Type   *Type
	Span   position.Span
}

// NameResolver maps references to definitions
type NameResolver interface {
	Lookup(ref Reference) (*Definition, bool)
}

// RefChain records the referenced types visited by one resolution
type RefChain struct {
	links []*Type
}

// NewRefChain creates an empty chain
func NewRefChain() *RefChain {
	return &RefChain{}
}

// Add appends t and reports false when t is already on the chain
func (c *RefChain) Add(t *Type) bool {
	for _, l := range c.links {
		if l == t {
			return false
		}
	}
	c.links = append(c.links, t)
	return true
}

// loopFrom returns the links from the first occurrence of t onward
func (c *RefChain) loopFrom(t *Type) []*Type {
	for i, l := range c.links {
		if l == t {
			return c.links[i:]
		}
	}
	return nil
}

func describeLoop(loop []*Type) string {
	parts := make([]string, 0, len(loop)+1)
	for _, l := range loop {
		parts = append(parts, "`"+l.String()+"'")
	}
	if len(loop) > 0 {
		parts = append(parts, "`"+loop[0].String()+"'")
	}
	return strings.Join(parts, " -> ")
}

// Resolve performs one resolution step of a referenced type and returns
// its target. Non-referenced types resolve to themselves. A reference
// that cannot be resolved marks t erroneous and resolves to t.
// The result is cached for the current generation.
func (t *Type) Resolve(p *Pass, chain *RefChain) *Type {
	if t.Kind != TypeKindReferenced || t.poisoned {
		return t
	}

	if chain != nil && !chain.Add(t) {
		loop := chain.loopFrom(t)
		p.Errorf(t.Span, "Circular type reference: %s", describeLoop(loop))
		for _, l := range loop {
			l.refd = l
			l.refdGen = p.Gen
			l.erroneous = true
		}
		return t
	}

	if t.refd != nil && t.refdGen >= p.Gen {
		if t.refd == t {
			t.erroneous = true
		}
		return t.refd
	}

	t.refd = t
	t.refdGen = p.Gen

	if p.Resolver == nil {
		p.internalNil("name resolver")
		t.erroneous = true
		return t
	}

	ref := *t.Reference()
	def, ok := p.Resolver.Lookup(ref)
	switch {
	case !ok || def == nil:
		p.Errorf(t.Span, "There is no type with name `%s'", ref)
		t.erroneous = true
	case def.Kind != DefinitionType || def.Type == nil:
		p.Errorf(t.Span, "Reference to a type was expected instead of %s `%s'", def.Kind, ref)
		t.erroneous = true
	case def.Type == t:
		p.Errorf(t.Span, "Circular type reference: %s", describeLoop([]*Type{t}))
		t.erroneous = true
	default:
		t.refd = def.Type
	}

	return t.refd
}

// Last follows references until a non-referenced type is reached.
// An erroneous reference anywhere on the way stops the walk at that node,
// so the result is either a concrete type or an erroneous reference.
func (t *Type) Last(p *Pass) *Type {
	if t == nil || t.Kind != TypeKindReferenced {
		return t
	}

	chain := NewRefChain()
	cur := t
	for cur.Kind == TypeKindReferenced {
		next := cur.Resolve(p, chain)
		if next == cur {
			return cur
		}
		cur = next
	}
	return cur
}

// walkReferences calls fn for t and every type on its reference chain
func (t *Type) walkReferences(p *Pass, fn func(*Type)) {
	chain := NewRefChain()
	cur := t
	for {
		fn(cur)
		if cur.Kind != TypeKindReferenced {
			return
		}
		next := cur.Resolve(p, chain)
		if next == cur {
			return
		}
		cur = next
	}
}
