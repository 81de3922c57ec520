// Type model of the checker.
// A Type is a closed tagged union: Kind selects the shape and Data holds the
// kind-specific children. Nodes are created once by the front end and never
// change kind; only their checked state mutates, and only inside Check.

package types

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/ttcheck/internal/position"
)

// ====== Core Type System ======

// TypeKind represents the kind of a type
type TypeKind int

const (
	// Built-in leaf types
	TypeKindBoolean TypeKind = iota
	TypeKindInteger
	TypeKindFloat
	TypeKindBitstring
	TypeKindHexstring
	TypeKindOctetstring
	TypeKindCharstring
	TypeKindUniversalString
	TypeKindVerdict
	TypeKindEnumerated

	// List types
	TypeKindRecordOf
	TypeKindSetOf
	TypeKindArray

	// Types with named fields
	TypeKindRecord
	TypeKindSet
	TypeKindChoice
	TypeKindAnytype

	// Behaviour and configuration types
	TypeKindComponent
	TypeKindFunction
	TypeKindTestcase
	TypeKindSignature

	// Named reference to another type
	TypeKindReferenced
)

var kindNames = map[TypeKind]string{
	TypeKindBoolean:         "boolean",
	TypeKindInteger:         "integer",
	TypeKindFloat:           "float",
	TypeKindBitstring:       "bitstring",
	TypeKindHexstring:       "hexstring",
	TypeKindOctetstring:     "octetstring",
	TypeKindCharstring:      "charstring",
	TypeKindUniversalString: "universal charstring",
	TypeKindVerdict:         "verdicttype",
	TypeKindEnumerated:      "enumerated",
	TypeKindRecordOf:        "record of",
	TypeKindSetOf:           "set of",
	TypeKindArray:           "array",
	TypeKindRecord:          "record",
	TypeKindSet:             "set",
	TypeKindChoice:          "union",
	TypeKindAnytype:         "anytype",
	TypeKindComponent:       "component",
	TypeKindFunction:        "function",
	TypeKindTestcase:        "testcase",
	TypeKindSignature:       "signature",
	TypeKindReferenced:      "referenced",
}

// String returns the string representation of a TypeKind
func (tk TypeKind) String() string {
	if name, ok := kindNames[tk]; ok {
		return name
	}
	return "invalid"
}

// ParseKind looks a kind up by the name String returns.
func ParseKind(name string) (TypeKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Type represents a type node
type Type struct {
	Kind    TypeKind
	Name    string // declared name, empty for anonymous types
	Module  string // defining module
	Span    position.Span
	SubType *SubType
	Data    interface{} // kind-specific data

	poisoned    bool
	erroneous   bool
	lastChecked Generation
	refd        *Type
	refdGen     Generation
}

// ====== Kind-specific data ======

// ListType is the data of record of and set of types
type ListType struct {
	Element *Type
}

// Dimension describes the index range of an array type.
type Dimension struct {
	Size    int
	Offset  int
	Invalid bool   // the size expression could not be evaluated
	Reason  string // why, when Invalid
}

// ArrayType is the data of array types
type ArrayType struct {
	Element   *Type
	Dimension Dimension
}

// StructType is the data of record, set, union and anytype types
type StructType struct {
	Fields *FieldMap
}

// EnumItem is one enumeration item
type EnumItem struct {
	Name     string
	Value    int64
	Explicit bool
	Span     position.Span
}

// EnumType is the data of enumerated types
type EnumType struct {
	Items []*EnumItem
}

// ComponentDef is a definition owned by a component type
type ComponentDef struct {
	Name string
	Type *Type
	Span position.Span
}

// ComponentType is the data of component types
type ComponentType struct {
	Defs    []*ComponentDef
	Extends []*Type
}

// ParamDirection is the passing mode of a formal parameter
type ParamDirection int

const (
	ParamIn ParamDirection = iota
	ParamOut
	ParamInout
)

func (d ParamDirection) String() string {
	switch d {
	case ParamOut:
		return "out"
	case ParamInout:
		return "inout"
	default:
		return "in"
	}
}

// Param is a formal parameter of a function, testcase or signature type
type Param struct {
	Name      string
	Type      *Type
	Direction ParamDirection
	Span      position.Span
}

// FunctionType is the data of function and testcase types
type FunctionType struct {
	Params          []*Param
	RunsOn          *Type
	Return          *Type
	ReturnsTemplate bool
}

// SignatureType is the data of signature types
type SignatureType struct {
	Params      []*Param
	Return      *Type
	Exceptions  []*Type
	NonBlocking bool
}

// ====== Type Construction Functions ======

// NewLeafType creates a built-in leaf type such as integer or charstring
func NewLeafType(kind TypeKind) *Type {
	return &Type{Kind: kind}
}

// NewEnumeratedType creates a new enumerated type
func NewEnumeratedType(name string, items ...*EnumItem) *Type {
	return &Type{Kind: TypeKindEnumerated, Name: name, Data: &EnumType{Items: items}}
}

// NewRecordOfType creates a new record of type
func NewRecordOfType(element *Type) *Type {
	return &Type{Kind: TypeKindRecordOf, Data: &ListType{Element: element}}
}

// NewSetOfType creates a new set of type
func NewSetOfType(element *Type) *Type {
	return &Type{Kind: TypeKindSetOf, Data: &ListType{Element: element}}
}

// NewArrayType creates a new array type
func NewArrayType(element *Type, dim Dimension) *Type {
	return &Type{Kind: TypeKindArray, Data: &ArrayType{Element: element, Dimension: dim}}
}

func newStructType(kind TypeKind, name string, fields []*Field) *Type {
	return &Type{Kind: kind, Name: name, Data: &StructType{Fields: NewFieldMap(fields...)}}
}

// NewRecordType creates a new record type
func NewRecordType(name string, fields ...*Field) *Type {
	return newStructType(TypeKindRecord, name, fields)
}

// NewSetType creates a new set type
func NewSetType(name string, fields ...*Field) *Type {
	return newStructType(TypeKindSet, name, fields)
}

// NewChoiceType creates a new union type
func NewChoiceType(name string, fields ...*Field) *Type {
	return newStructType(TypeKindChoice, name, fields)
}

// NewAnytype creates the anytype of a module; its fields are named after types
func NewAnytype(fields ...*Field) *Type {
	return newStructType(TypeKindAnytype, "anytype", fields)
}

// NewComponentType creates a new component type
func NewComponentType(name string, defs []*ComponentDef, extends []*Type) *Type {
	return &Type{Kind: TypeKindComponent, Name: name, Data: &ComponentType{Defs: defs, Extends: extends}}
}

// NewFunctionType creates a new function type
func NewFunctionType(params []*Param, runsOn, ret *Type, returnsTemplate bool) *Type {
	return &Type{Kind: TypeKindFunction, Data: &FunctionType{
		Params:          params,
		RunsOn:          runsOn,
		Return:          ret,
		ReturnsTemplate: returnsTemplate,
	}}
}

// NewTestcaseType creates a new testcase type
func NewTestcaseType(params []*Param, runsOn *Type) *Type {
	return &Type{Kind: TypeKindTestcase, Data: &FunctionType{Params: params, RunsOn: runsOn}}
}

// NewSignatureType creates a new signature type
func NewSignatureType(params []*Param, ret *Type, exceptions []*Type, nonBlocking bool) *Type {
	return &Type{Kind: TypeKindSignature, Data: &SignatureType{
		Params:      params,
		Return:      ret,
		Exceptions:  exceptions,
		NonBlocking: nonBlocking,
	}}
}

// NewReferencedType creates a reference to a named type
func NewReferencedType(ref Reference) *Type {
	return &Type{Kind: TypeKindReferenced, Data: &ref}
}

// Named sets the declared name and defining module
func (t *Type) Named(module, name string) *Type {
	t.Module = module
	t.Name = name
	return t
}

// At sets the source location
func (t *Type) At(span position.Span) *Type {
	t.Span = span
	return t
}

// Restrict attaches a subtype restriction
func (t *Type) Restrict(st *SubType) *Type {
	t.SubType = st
	return t
}

// ====== Checked state ======

// Poison marks the node erroneous for good, e.g. after a parse error.
func (t *Type) Poison() {
	t.poisoned = true
}

// IsErroneous reports whether the node is known to be invalid
func (t *Type) IsErroneous() bool {
	return t.poisoned || t.erroneous
}

// LastChecked returns the generation of the last structural check
func (t *Type) LastChecked() Generation {
	return t.lastChecked
}

// ====== Accessors ======

// Fields returns the field map of record, set, union and anytype types
func (t *Type) Fields() *FieldMap {
	if st, ok := t.Data.(*StructType); ok {
		return st.Fields
	}
	return nil
}

// Element returns the element type of record of, set of and array types
func (t *Type) Element() *Type {
	switch d := t.Data.(type) {
	case *ListType:
		return d.Element
	case *ArrayType:
		return d.Element
	}
	return nil
}

// Dimension returns the dimension of an array type
func (t *Type) Dimension() Dimension {
	if a, ok := t.Data.(*ArrayType); ok {
		return a.Dimension
	}
	return Dimension{}
}

// EnumItem returns the enumeration item called name, or nil
func (t *Type) EnumItem(name string) *EnumItem {
	e, ok := t.Data.(*EnumType)
	if !ok {
		return nil
	}
	for _, item := range e.Items {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Reference returns the target reference of a referenced type
func (t *Type) Reference() *Reference {
	if r, ok := t.Data.(*Reference); ok {
		return r
	}
	return nil
}

// ====== Type Properties ======

// IsLeaf reports whether the kind is a built-in non-enumerated type
func (tk TypeKind) IsLeaf() bool {
	return tk <= TypeKindVerdict
}

// IsString reports whether the kind is one of the string families
func (tk TypeKind) IsString() bool {
	switch tk {
	case TypeKindBitstring, TypeKindHexstring, TypeKindOctetstring,
		TypeKindCharstring, TypeKindUniversalString:
		return true
	default:
		return false
	}
}

// IsList reports whether the kind is record of, set of or array
func (tk TypeKind) IsList() bool {
	return tk == TypeKindRecordOf || tk == TypeKindSetOf || tk == TypeKindArray
}

// HasFields reports whether the kind is record, set, union or anytype
func (tk TypeKind) HasFields() bool {
	switch tk {
	case TypeKindRecord, TypeKindSet, TypeKindChoice, TypeKindAnytype:
		return true
	default:
		return false
	}
}

// IsStructured reports whether the kind is a list or has fields
func (tk TypeKind) IsStructured() bool {
	return tk.IsList() || tk.HasFields()
}

// ====== String Representation ======

// String returns the display name of the type
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}

	switch t.Kind {
	case TypeKindRecordOf, TypeKindSetOf:
		return fmt.Sprintf("%s %s", t.Kind, t.Element())

	case TypeKindArray:
		dim := t.Dimension()
		if dim.Offset != 0 {
			return fmt.Sprintf("%s[%d..%d]", t.Element(), dim.Offset, dim.Offset+dim.Size-1)
		}
		return fmt.Sprintf("%s[%d]", t.Element(), dim.Size)

	case TypeKindRecord, TypeKindSet, TypeKindChoice:
		fields := t.Fields()
		parts := make([]string, 0, fields.Len())
		for _, f := range fields.All() {
			part := fmt.Sprintf("%s %s", f.Type, f.Name)
			if f.Optional {
				part += " optional"
			}
			parts = append(parts, part)
		}
		return fmt.Sprintf("%s { %s }", t.Kind, strings.Join(parts, ", "))

	case TypeKindReferenced:
		return t.Reference().String()

	default:
		return t.Kind.String()
	}
}
