package types

import (
	"fmt"
	"strings"
)

const (
	reasonFieldCount      = "The number of fields in %s types must be the same"
	reasonOptionality     = "The optionality of fields in %s types must be the same"
	reasonRecordCategory  = "record/SEQUENCE, record of/SEQUENCE OF and array types are compatible only with other record/SEQUENCE, record of/SEQUENCE OF and array types"
	reasonSetCategory     = "set/SET and set of/SET OF types are compatible only with other set/SET and set of/SET OF types"
	reasonUnionCategory   = "union/CHOICE types are compatible only with other union/CHOICE types"
	reasonAnytypeCategory = "anytype types are compatible only with other anytype types"
	reasonListSubtype     = "Incompatible record of/SEQUENCE OF subtypes"
	reasonArraySize       = "Array sizes must be the same"
	reasonArrayFields     = "The number of fields in record/SEQUENCE type must be the same as the size of the array"
	reasonNoUnionField    = "No compatible field was found between union types `%s' and `%s'"
)

// CompatInfo describes why a compatibility query failed. The operand paths
// grow as the recursion unwinds, so the top-level result names the deepest
// mismatching pair, e.g. "p.x" against "q[]".
type CompatInfo struct {
	Op1Ref string
	Op2Ref string
	Op1    *Type
	Op2    *Type
	Reason string

	// NeedsConversion is set when the types are compatible but not identical
	NeedsConversion bool
}

// NewCompatInfo creates the mismatch record of a top-level query
func NewCompatInfo(a, b *Type) *CompatInfo {
	return &CompatInfo{Op1Ref: a.String(), Op2Ref: b.String(), Op1: a, Op2: b}
}

func (ci *CompatInfo) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type mismatch: `%s' of type `%s' and `%s' of type `%s' are not compatible",
		ci.Op1Ref, ci.Op1, ci.Op2Ref, ci.Op2)
	if ci.Reason != "" {
		b.WriteString(": ")
		b.WriteString(ci.Reason)
	}
	return b.String()
}

func (ci *CompatInfo) absorb(child *CompatInfo, ref1, ref2 string) {
	ci.Op1Ref += ref1 + child.Op1Ref
	ci.Op2Ref += ref2 + child.Op2Ref
	ci.Op1, ci.Op2 = child.Op1, child.Op2
	ci.Reason = child.Reason
}

func (ci *CompatInfo) fail(format string, args ...interface{}) bool {
	if ci != nil {
		ci.Reason = fmt.Sprintf(format, args...)
	}
	return false
}

// IsIdentical reports whether a and b denote the same type after resolving
// references: the same node, or the same built-in kind. Erroneous types are
// identical to everything.
func IsIdentical(p *Pass, a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	l, r := a.Last(p), b.Last(p)
	if l == r || l.IsErroneous() || r.IsErroneous() {
		return true
	}
	return l.Kind.IsLeaf() && l.Kind == r.Kind
}

// IsCompatible reports whether a value of type actual may be used where
// type expected is required. The relation is not symmetric. On failure
// info, when not nil, describes the mismatch.
func IsCompatible(p *Pass, expected, actual *Type, info *CompatInfo) bool {
	if expected == nil || actual == nil {
		p.internalNil("compatibility operand")
		return true
	}
	if info == nil {
		info = NewCompatInfo(expected, actual)
	}
	ok := isCompatible(p, expected, actual, info, nil, nil)
	p.Metrics.CompatQuery(ok)
	return ok
}

func isCompatible(p *Pass, a, b *Type, info *CompatInfo, lc, rc *Chain) bool {
	a.Check(p)
	b.Check(p)
	l, r := a.Last(p), b.Last(p)
	if l == r || l.IsErroneous() || r.IsErroneous() {
		return true
	}

	if lc == nil {
		lc = NewChain()
		lc.Add(l)
	}
	if rc == nil {
		rc = NewChain()
		rc.Add(r)
	}

	if !p.Structured && (l.Kind.IsStructured() || r.Kind.IsStructured()) {
		return false
	}

	switch l.Kind {
	case TypeKindBoolean, TypeKindInteger, TypeKindFloat,
		TypeKindBitstring, TypeKindHexstring, TypeKindOctetstring, TypeKindVerdict:
		return l.Kind == r.Kind

	case TypeKindCharstring, TypeKindUniversalString:
		return r.Kind == TypeKindCharstring || r.Kind == TypeKindUniversalString

	case TypeKindEnumerated, TypeKindSignature:
		// only compatible with the very same type
		return false

	case TypeKindRecord:
		return compatRecord(p, l, r, info, lc, rc)
	case TypeKindSet:
		return compatSet(p, l, r, info, lc, rc)
	case TypeKindRecordOf:
		return compatRecordOf(p, l, r, info, lc, rc)
	case TypeKindSetOf:
		return compatSetOf(p, l, r, info, lc, rc)
	case TypeKindArray:
		return compatArray(p, l, r, info, lc, rc)
	case TypeKindChoice, TypeKindAnytype:
		return compatUnion(p, l, r, info, lc, rc)
	case TypeKindComponent:
		return compatComponent(p, l, r, info)
	case TypeKindFunction, TypeKindTestcase:
		return compatFunction(p, l, r, info)

	default:
		p.internalKind("isCompatible", l.Kind)
		return true
	}
}

// descend compares one child pair under a chain savepoint
func descend(p *Pass, info *CompatInfo, lc, rc *Chain, lt, rt *Type, ref1, ref2 string) bool {
	if lt == nil || rt == nil {
		p.internalNil("child type")
		return true
	}
	lt, rt = lt.Last(p), rt.Last(p)

	var child *CompatInfo
	if info != nil {
		child = &CompatInfo{Op1: lt, Op2: rt}
	}

	lc.Mark()
	rc.Mark()
	lc.Add(lt)
	rc.Add(rt)
	ok := lt == rt || pairRecursion(lc, rc) || isCompatible(p, lt, rt, child, lc, rc)
	lc.Rewind()
	rc.Rewind()

	if !ok && info != nil {
		info.absorb(child, ref1, ref2)
	}
	return ok
}

func categoryMismatch(info *CompatInfo, r *Type, own string) bool {
	switch r.Kind {
	case TypeKindChoice:
		return info.fail(reasonUnionCategory)
	case TypeKindAnytype:
		return info.fail(reasonAnytypeCategory)
	}
	return info.fail(own)
}

func compatRecord(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	switch r.Kind {
	case TypeKindRecord:
		return compatSameShape(p, l, r, info, lc, rc, "record/SEQUENCE")
	case TypeKindRecordOf:
		if !fieldsAgainstElement(p, info, lc, rc, l, r.Element(), true) {
			return false
		}
		if !r.IsSubtypeCompatible(p, l) {
			return info.fail(reasonListSubtype)
		}
		return true
	case TypeKindArray:
		if l.Fields().Len() != r.Dimension().Size {
			return info.fail(reasonArrayFields)
		}
		return fieldsAgainstElement(p, info, lc, rc, l, r.Element(), true)
	default:
		return categoryMismatch(info, r, reasonRecordCategory)
	}
}

func compatSet(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	switch r.Kind {
	case TypeKindSet:
		return compatSameShape(p, l, r, info, lc, rc, "set/SET")
	case TypeKindSetOf:
		if !fieldsAgainstElement(p, info, lc, rc, l, r.Element(), true) {
			return false
		}
		if !r.IsSubtypeCompatible(p, l) {
			return info.fail(reasonListSubtype)
		}
		return true
	default:
		return categoryMismatch(info, r, reasonSetCategory)
	}
}

func compatRecordOf(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	switch r.Kind {
	case TypeKindRecord:
		if !fieldsAgainstElement(p, info, lc, rc, r, l.Element(), false) {
			return false
		}
	case TypeKindRecordOf, TypeKindArray:
		if !descend(p, info, lc, rc, l.Element(), r.Element(), "[]", "[]") {
			return false
		}
	default:
		return categoryMismatch(info, r, reasonRecordCategory)
	}
	if !l.IsSubtypeCompatible(p, r) {
		return info.fail(reasonListSubtype)
	}
	return true
}

func compatSetOf(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	switch r.Kind {
	case TypeKindSet:
		if !fieldsAgainstElement(p, info, lc, rc, r, l.Element(), false) {
			return false
		}
	case TypeKindSetOf:
		if !stronglyCompatible(p, l.Element(), r.Element(), make(map[[2]*Type]bool)) &&
			!descend(p, info, lc, rc, l.Element(), r.Element(), "[]", "[]") {
			return false
		}
	default:
		return categoryMismatch(info, r, reasonSetCategory)
	}
	if !l.IsSubtypeCompatible(p, r) {
		return info.fail(reasonListSubtype)
	}
	return true
}

func compatArray(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	switch r.Kind {
	case TypeKindArray:
		if l.Dimension().Size != r.Dimension().Size {
			return info.fail(reasonArraySize)
		}
		return descend(p, info, lc, rc, l.Element(), r.Element(), "[]", "[]")
	case TypeKindRecordOf:
		if !descend(p, info, lc, rc, l.Element(), r.Element(), "[]", "[]") {
			return false
		}
		if !r.IsSubtypeCompatible(p, l) {
			return info.fail(reasonListSubtype)
		}
		return true
	case TypeKindRecord:
		if r.Fields().Len() != l.Dimension().Size {
			return info.fail(reasonArrayFields)
		}
		return fieldsAgainstElement(p, info, lc, rc, r, l.Element(), false)
	default:
		return categoryMismatch(info, r, reasonRecordCategory)
	}
}

// compatSameShape compares two record or two set types field by field
func compatSameShape(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain, what string) bool {
	lf, rf := l.Fields(), r.Fields()
	if lf.Len() != rf.Len() {
		return info.fail(reasonFieldCount, what)
	}
	for i := 0; i < lf.Len(); i++ {
		a, b := lf.ByIndex(i), rf.ByIndex(i)
		if a.Optional != b.Optional {
			return info.fail(reasonOptionality, what)
		}
		if !descend(p, info, lc, rc, a.Type, b.Type, "."+a.Name, "."+b.Name) {
			return false
		}
	}
	return true
}

// fieldsAgainstElement compares every field of rec with elem. recLeft
// tells whether rec is the expected operand.
func fieldsAgainstElement(p *Pass, info *CompatInfo, lc, rc *Chain, rec, elem *Type, recLeft bool) bool {
	for _, f := range rec.Fields().All() {
		var ok bool
		if recLeft {
			ok = descend(p, info, lc, rc, f.Type, elem, "."+f.Name, "[]")
		} else {
			ok = descend(p, info, lc, rc, elem, f.Type, "[]", "."+f.Name)
		}
		if !ok {
			return false
		}
	}
	return true
}

// compatUnion succeeds on the first same-named alternative pair from the
// same module whose types are compatible.
func compatUnion(p *Pass, l, r *Type, info *CompatInfo, lc, rc *Chain) bool {
	if r.Kind != l.Kind {
		if l.Kind == TypeKindAnytype {
			return info.fail(reasonAnytypeCategory)
		}
		return info.fail(reasonUnionCategory)
	}

	for _, a := range l.Fields().All() {
		b, ok := r.Fields().ByName(a.Name)
		if !ok || definingModule(p, a) != definingModule(p, b) {
			continue
		}
		if descend(p, nil, lc, rc, a.Type, b.Type, "", "") {
			if info != nil {
				info.NeedsConversion = true
			}
			return true
		}
	}
	return info.fail(reasonNoUnionField, l, r)
}

func definingModule(p *Pass, f *Field) string {
	if f.Type == nil {
		return ""
	}
	return f.Type.Last(p).Module
}

// compatComponent: actual must extend expected, or provide every
// definition of expected with an identical type
func compatComponent(p *Pass, l, r *Type, info *CompatInfo) bool {
	if r.Kind != TypeKindComponent {
		return info.fail("component types are compatible only with other component types")
	}
	if extendsTransitively(p, r, l) {
		return true
	}
	for _, d := range allDefinitions(p, l) {
		other := r.LookupDefinition(p, d.Name)
		if other == nil {
			return info.fail("Component type `%s' has no definition with name `%s'", r, d.Name)
		}
		if !IsIdentical(p, d.Type, other.Type) {
			return info.fail("The types of definition `%s' must be identical in component types `%s' and `%s'", d.Name, l, r)
		}
	}
	return true
}

func compatFunction(p *Pass, l, r *Type, info *CompatInfo) bool {
	if r.Kind != l.Kind {
		return info.fail("%s types are compatible only with other %s types", l.Kind, l.Kind)
	}
	lf, rf := l.Data.(*FunctionType), r.Data.(*FunctionType)

	if len(lf.Params) != len(rf.Params) {
		return info.fail("The number of parameters must be the same")
	}
	for i, a := range lf.Params {
		b := rf.Params[i]
		if a.Direction != b.Direction {
			return info.fail("The passing mode of parameter `%s' must be the same", a.Name)
		}
		if !IsIdentical(p, a.Type, b.Type) {
			return info.fail("The type of parameter `%s' must be identical", a.Name)
		}
	}

	if !IsIdentical(p, lf.Return, rf.Return) {
		return info.fail("The return types must be identical")
	}
	if lf.ReturnsTemplate != rf.ReturnsTemplate {
		return info.fail("The `return template' clauses must be the same")
	}
	if !IsIdentical(p, lf.RunsOn, rf.RunsOn) {
		return info.fail("The `runs on' clauses must refer to the same component type")
	}
	return true
}
