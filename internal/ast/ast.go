// Package ast defines the value and template trees checked against types.
// The trees are produced by a front end; the checker walks them through the
// kind tag, named and indexed element lists, and records the governing type
// of every node it visits.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/ttcheck/internal/position"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Node is the base interface for value and template nodes
type Node interface {
	// GetSpan returns the source span covered by this node
	GetSpan() position.Span
	// String returns a human-readable representation of the node
	String() string
}

// ===== Values =====

// ValueKind represents the kind of a value node
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueFloat
	ValueBoolean
	ValueBitstring
	ValueHexstring
	ValueOctetstring
	ValueCharstring
	ValueUniversalString
	ValueVerdict
	ValueEnumerated // bare identifier naming an enumeration item
	ValueOmit
	ValueNotUsed // "-"
	ValueNamedList
	ValueList // positional, value-list notation
	ValueIndexedList
	ValueReference  // reference to a constant; RefType is its type
	ValueExpression // already evaluated elsewhere
)

func (vk ValueKind) String() string {
	switch vk {
	case ValueInteger:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueBoolean:
		return "boolean"
	case ValueBitstring:
		return "bitstring"
	case ValueHexstring:
		return "hexstring"
	case ValueOctetstring:
		return "octetstring"
	case ValueCharstring:
		return "charstring"
	case ValueUniversalString:
		return "universal charstring"
	case ValueVerdict:
		return "verdict"
	case ValueEnumerated:
		return "enumerated"
	case ValueOmit:
		return "omit"
	case ValueNotUsed:
		return "not used symbol"
	case ValueNamedList:
		return "assignment notation"
	case ValueList:
		return "value list notation"
	case ValueIndexedList:
		return "indexed list notation"
	case ValueReference:
		return "reference"
	case ValueExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// Value is a literal value
type Value struct {
	Kind ValueKind
	Span position.Span

	Int   int64
	Float float64
	Bool  bool
	Text  string // string literals, verdicts, enumeration items, reference names

	Named    []*NamedValue
	Elements []*Value
	Indexed  []*IndexedValue

	RefType *types.Type // type of the referenced constant

	// Governor is set by the checker to the type the value was checked against
	Governor *types.Type
}

// NamedValue is one "name := value" element of an assignment list
type NamedValue struct {
	Name  string
	Value *Value
	Span  position.Span

	// Implicit marks an omit added by the checker for a missing optional field
	Implicit bool
}

// IndexedValue is one "[index] := value" element of an indexed list
type IndexedValue struct {
	Index int64
	Value *Value
	Span  position.Span
}

func (v *Value) GetSpan() position.Span { return v.Span }

func (v *Value) String() string {
	switch v.Kind {
	case ValueInteger:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBoolean:
		return strconv.FormatBool(v.Bool)
	case ValueBitstring:
		return "'" + v.Text + "'B"
	case ValueHexstring:
		return "'" + v.Text + "'H"
	case ValueOctetstring:
		return "'" + v.Text + "'O"
	case ValueCharstring, ValueUniversalString:
		return strconv.Quote(v.Text)
	case ValueVerdict, ValueEnumerated, ValueReference:
		return v.Text
	case ValueOmit:
		return "omit"
	case ValueNotUsed:
		return "-"
	case ValueNamedList:
		parts := make([]string, len(v.Named))
		for i, n := range v.Named {
			parts[i] = n.Name + " := " + n.Value.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ValueList:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = e.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ValueIndexedList:
		parts := make([]string, len(v.Indexed))
		for i, e := range v.Indexed {
			parts[i] = fmt.Sprintf("[%d] := %s", e.Index, e.Value)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ValueExpression:
		return "<expression>"
	default:
		return "<unknown>"
	}
}

// At sets the source span
func (v *Value) At(span position.Span) *Value {
	v.Span = span
	return v
}

// Value constructors

func Int(i int64) *Value                { return &Value{Kind: ValueInteger, Int: i} }
func Float(f float64) *Value            { return &Value{Kind: ValueFloat, Float: f} }
func Bool(b bool) *Value                { return &Value{Kind: ValueBoolean, Bool: b} }
func Bitstring(s string) *Value         { return &Value{Kind: ValueBitstring, Text: s} }
func Hexstring(s string) *Value         { return &Value{Kind: ValueHexstring, Text: s} }
func Octetstring(s string) *Value       { return &Value{Kind: ValueOctetstring, Text: s} }
func Charstring(s string) *Value        { return &Value{Kind: ValueCharstring, Text: s} }
func UniversalString(s string) *Value   { return &Value{Kind: ValueUniversalString, Text: s} }
func Verdict(s string) *Value           { return &Value{Kind: ValueVerdict, Text: s} }
func Enum(item string) *Value           { return &Value{Kind: ValueEnumerated, Text: item} }
func Omit() *Value                      { return &Value{Kind: ValueOmit} }
func NotUsed() *Value                   { return &Value{Kind: ValueNotUsed} }
func Expression() *Value                { return &Value{Kind: ValueExpression} }
func List(elems ...*Value) *Value       { return &Value{Kind: ValueList, Elements: elems} }
func NamedList(n ...*NamedValue) *Value { return &Value{Kind: ValueNamedList, Named: n} }

// IndexedList creates an indexed list value
func IndexedList(elems ...*IndexedValue) *Value {
	return &Value{Kind: ValueIndexedList, Indexed: elems}
}

// Field creates one element of an assignment list
func Field(name string, v *Value) *NamedValue {
	return &NamedValue{Name: name, Value: v, Span: v.Span}
}

// Elem creates one element of an indexed list
func Elem(index int64, v *Value) *IndexedValue {
	return &IndexedValue{Index: index, Value: v, Span: v.Span}
}

// Ref creates a reference to a constant of type refType
func Ref(name string, refType *types.Type) *Value {
	return &Value{Kind: ValueReference, Text: name, RefType: refType}
}

// ===== Templates =====

// TemplateKind represents the kind of a template node
type TemplateKind int

const (
	TemplateSpecific TemplateKind = iota // a value
	TemplateOmit
	TemplateAnyValue  // "?"
	TemplateAnyOrOmit // "*"
	TemplateNotUsed   // "-"
	TemplateNamedList
	TemplateList
	TemplateIndexedList
	TemplatePermutation
	TemplateSubset
	TemplateSuperset
	TemplateValueList
	TemplateComplement
	TemplateRange
)

func (tk TemplateKind) String() string {
	switch tk {
	case TemplateSpecific:
		return "specific value"
	case TemplateOmit:
		return "omit"
	case TemplateAnyValue:
		return "any value"
	case TemplateAnyOrOmit:
		return "any or omit"
	case TemplateNotUsed:
		return "not used symbol"
	case TemplateNamedList:
		return "assignment notation"
	case TemplateList:
		return "value list notation"
	case TemplateIndexedList:
		return "indexed list notation"
	case TemplatePermutation:
		return "permutation match"
	case TemplateSubset:
		return "subset match"
	case TemplateSuperset:
		return "superset match"
	case TemplateValueList:
		return "value list match"
	case TemplateComplement:
		return "complemented list match"
	case TemplateRange:
		return "value range match"
	default:
		return "unknown"
	}
}

// Template is a matching template
type Template struct {
	Kind TemplateKind
	Span position.Span

	Value *Value // TemplateSpecific

	Named    []*NamedTemplate
	Elements []*Template // positional lists and matching lists
	Indexed  []*IndexedTemplate

	Lower *Value // TemplateRange; nil means infinity
	Upper *Value

	// Base is the template this one modifies
	Base *Template

	Governor *types.Type
}

// NamedTemplate is one "name := template" element
type NamedTemplate struct {
	Name     string
	Template *Template
	Span     position.Span

	// Implicit marks an omit added by the checker for a missing optional field
	Implicit bool
}

// IndexedTemplate is one "[index] := template" element
type IndexedTemplate struct {
	Index    int64
	Template *Template
	Span     position.Span
}

func (t *Template) GetSpan() position.Span { return t.Span }

func (t *Template) String() string {
	list := func(ts []*Template) string {
		parts := make([]string, len(ts))
		for i, e := range ts {
			parts[i] = e.String()
		}
		return strings.Join(parts, ", ")
	}

	switch t.Kind {
	case TemplateSpecific:
		return t.Value.String()
	case TemplateOmit:
		return "omit"
	case TemplateAnyValue:
		return "?"
	case TemplateAnyOrOmit:
		return "*"
	case TemplateNotUsed:
		return "-"
	case TemplateNamedList:
		parts := make([]string, len(t.Named))
		for i, n := range t.Named {
			parts[i] = n.Name + " := " + n.Template.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case TemplateList:
		return "{ " + list(t.Elements) + " }"
	case TemplateIndexedList:
		parts := make([]string, len(t.Indexed))
		for i, e := range t.Indexed {
			parts[i] = fmt.Sprintf("[%d] := %s", e.Index, e.Template)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case TemplatePermutation:
		return "permutation(" + list(t.Elements) + ")"
	case TemplateSubset:
		return "subset(" + list(t.Elements) + ")"
	case TemplateSuperset:
		return "superset(" + list(t.Elements) + ")"
	case TemplateValueList:
		return "(" + list(t.Elements) + ")"
	case TemplateComplement:
		return "complement(" + list(t.Elements) + ")"
	case TemplateRange:
		lo, hi := "-infinity", "infinity"
		if t.Lower != nil {
			lo = t.Lower.String()
		}
		if t.Upper != nil {
			hi = t.Upper.String()
		}
		return "(" + lo + " .. " + hi + ")"
	default:
		return "<unknown>"
	}
}

// At sets the source span
func (t *Template) At(span position.Span) *Template {
	t.Span = span
	return t
}

// Modifies records the base template of a modified template
func (t *Template) Modifies(base *Template) *Template {
	t.Base = base
	return t
}

// IsModified reports whether the template modifies a base template
func (t *Template) IsModified() bool {
	return t.Base != nil
}

// Template constructors

func Specific(v *Value) *Template     { return &Template{Kind: TemplateSpecific, Value: v, Span: v.Span} }
func AnyValue() *Template             { return &Template{Kind: TemplateAnyValue} }
func AnyOrOmit() *Template            { return &Template{Kind: TemplateAnyOrOmit} }
func OmitTemplate() *Template         { return &Template{Kind: TemplateOmit} }
func NotUsedTemplate() *Template      { return &Template{Kind: TemplateNotUsed} }
func TList(ts ...*Template) *Template { return &Template{Kind: TemplateList, Elements: ts} }

// TNamedList creates a template in assignment notation
func TNamedList(n ...*NamedTemplate) *Template {
	return &Template{Kind: TemplateNamedList, Named: n}
}

// TIndexedList creates a template in indexed list notation
func TIndexedList(elems ...*IndexedTemplate) *Template {
	return &Template{Kind: TemplateIndexedList, Indexed: elems}
}

// TField creates one element of a template assignment list
func TField(name string, t *Template) *NamedTemplate {
	return &NamedTemplate{Name: name, Template: t, Span: t.Span}
}

// TElem creates one element of an indexed template list
func TElem(index int64, t *Template) *IndexedTemplate {
	return &IndexedTemplate{Index: index, Template: t, Span: t.Span}
}

// Matching creates a permutation, subset, superset, value list or
// complemented list template
func Matching(kind TemplateKind, ts ...*Template) *Template {
	return &Template{Kind: kind, Elements: ts}
}

// Range creates a value range template; nil bounds are infinite
func Range(lower, upper *Value) *Template {
	return &Template{Kind: TemplateRange, Lower: lower, Upper: upper}
}
