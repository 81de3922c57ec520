package ast

import "github.com/orizon-lang/ttcheck/internal/types"

// Visitor is called for every node of a tree by Walk. If Visit returns a
// non-nil visitor w, Walk visits each child of node with w, followed by a
// call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a value or template tree in depth-first order. The base
// of a modified template is a separate tree and is not entered.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Value:
		for _, f := range n.Named {
			Walk(v, f.Value)
		}
		for _, e := range n.Elements {
			Walk(v, e)
		}
		for _, e := range n.Indexed {
			Walk(v, e.Value)
		}

	case *Template:
		if n.Value != nil {
			Walk(v, n.Value)
		}
		for _, f := range n.Named {
			Walk(v, f.Template)
		}
		for _, e := range n.Elements {
			Walk(v, e)
		}
		for _, e := range n.Indexed {
			Walk(v, e.Template)
		}
		if n.Lower != nil {
			Walk(v, n.Lower)
		}
		if n.Upper != nil {
			Walk(v, n.Upper)
		}
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth-first order, calling f for each node
// and then f(nil) after its children. Children are skipped when f
// returns false.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// GovernorOf returns the type recorded on a value or template node by
// the last conformance check, or nil
func GovernorOf(node Node) *types.Type {
	switch n := node.(type) {
	case *Value:
		return n.Governor
	case *Template:
		return n.Governor
	}
	return nil
}
