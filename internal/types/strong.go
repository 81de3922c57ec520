package types

import (
	"fmt"
	"sort"
)

// KindSet is a set of type kinds
type KindSet map[TypeKind]bool

// DefaultStrongKinds returns the element kinds for which two set of types
// are compared without a structural walk
func DefaultStrongKinds() KindSet {
	return NewKindSet(
		TypeKindBoolean, TypeKindInteger, TypeKindFloat,
		TypeKindBitstring, TypeKindHexstring, TypeKindOctetstring,
		TypeKindCharstring, TypeKindUniversalString,
		TypeKindVerdict, TypeKindEnumerated,
	)
}

// NewKindSet creates a set of the given kinds
func NewKindSet(kinds ...TypeKind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// ParseKindSet builds a set from kind names such as "integer" or
// "universal charstring"
func ParseKindSet(names []string) (KindSet, error) {
	s := make(KindSet, len(names))
	for _, name := range names {
		k, ok := ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown type kind %q", name)
		}
		s[k] = true
	}
	return s, nil
}

// Has reports whether k is in the set
func (s KindSet) Has(k TypeKind) bool {
	return s[k]
}

// Names returns the sorted kind names
func (s KindSet) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

// stronglyCompatible reports whether two element types are compatible
// without a structural walk: both are built-in kinds of the strong set, or
// set of types whose elements are strongly compatible in turn.
func stronglyCompatible(p *Pass, a, b *Type, seen map[[2]*Type]bool) bool {
	l, r := a.Last(p), b.Last(p)
	if l == r {
		return true
	}
	key := [2]*Type{l, r}
	if seen[key] {
		return true
	}
	seen[key] = true

	if l.Kind == TypeKindSetOf && r.Kind == TypeKindSetOf {
		if len(a.SubTypes(p)) > 0 || len(b.SubTypes(p)) > 0 {
			return false
		}
		return stronglyCompatible(p, l.Element(), r.Element(), seen)
	}
	if !p.StrongKinds.Has(l.Kind) || !p.StrongKinds.Has(r.Kind) {
		return false
	}

	switch l.Kind {
	case TypeKindEnumerated:
		return false
	case TypeKindCharstring, TypeKindUniversalString:
		return r.Kind == TypeKindCharstring || r.Kind == TypeKindUniversalString
	default:
		return l.Kind == r.Kind
	}
}
