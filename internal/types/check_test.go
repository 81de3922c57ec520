package types

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIsIdempotentPerGeneration(t *testing.T) {
	p, engine, _ := newTestPass(5)

	rec := NewRecordType("R",
		NewField("a", NewLeafType(TypeKindInteger)),
		NewField("a", NewLeafType(TypeKindInteger)),
	)

	rec.Check(p)
	rec.Check(p)

	assert.Equal(t, 1.0, p.Metrics.TypeChecks("record"))
	assert.Len(t, engine.GetErrors(), 2)
	assert.Equal(t, Generation(5), rec.LastChecked())

	// an older generation is a no-op too
	p.Gen = 4
	rec.Check(p)
	assert.Equal(t, 1.0, p.Metrics.TypeChecks("record"))

	p.Gen = 6
	rec.Check(p)
	assert.Equal(t, 2.0, p.Metrics.TypeChecks("record"))
	assert.Len(t, engine.GetErrors(), 4)
}

func TestCheckRecordWithoutFieldMap(t *testing.T) {
	var buf bytes.Buffer
	p, engine, _ := newTestPass(1)
	p.Log = zerolog.New(&buf)

	rec := &Type{Kind: TypeKindRecord, Name: "R"}
	rec.Check(p)

	assert.True(t, rec.IsErroneous())
	assert.Empty(t, engine.GetDiagnostics())
	assert.Contains(t, buf.String(), `"code":"NO_FIELDS"`)
	assert.Contains(t, buf.String(), "field access on type R that cannot have fields")
}

func TestCheckSelfReferentialRecordTerminates(t *testing.T) {
	p, engine, resolver := newTestPass(1)

	node := NewRecordType("Node",
		NewField("value", NewLeafType(TypeKindInteger)),
		NewOptionalField("next", ref("Node")),
	)
	resolver.declare(node)

	node.Check(p)

	assert.False(t, engine.HasErrors())
	assert.False(t, node.IsErroneous())
	assert.Equal(t, 1.0, p.Metrics.TypeChecks("record"))
}

func TestCheckEnumeratedValues(t *testing.T) {
	p, engine, _ := newTestPass(1)

	a := &EnumItem{Name: "a"}
	b := &EnumItem{Name: "b", Value: 0, Explicit: true}
	c := &EnumItem{Name: "c"}
	enum := NewEnumeratedType("E", a, b, c)

	enum.Check(p)

	assert.False(t, engine.HasErrors())
	assert.Equal(t, int64(1), a.Value)
	assert.Equal(t, int64(0), b.Value)
	assert.Equal(t, int64(2), c.Value)
}

func TestCheckEnumeratedDuplicates(t *testing.T) {
	p, engine, _ := newTestPass(1)

	enum := NewEnumeratedType("E",
		&EnumItem{Name: "a", Value: 1, Explicit: true},
		&EnumItem{Name: "b", Value: 1, Explicit: true},
		&EnumItem{Name: "a"},
	)
	enum.Check(p)

	assert.Equal(t, []string{
		"Value 1 is already assigned to `a'",
		"Duplicate enumeration identifier `a' was first declared here",
		"Duplicate enumeration identifier `a' was declared here again",
	}, messages(engine.GetErrors()))
}

func TestCheckArrayDimension(t *testing.T) {
	p, engine, _ := newTestPass(1)

	bad := NewArrayType(NewLeafType(TypeKindInteger), Dimension{Invalid: true, Reason: "size is not a constant"})
	zero := NewArrayType(NewLeafType(TypeKindInteger), Dimension{Size: 0})
	good := NewArrayType(NewLeafType(TypeKindInteger), Dimension{Size: 3, Offset: 1})

	bad.Check(p)
	zero.Check(p)
	good.Check(p)

	assert.True(t, bad.IsErroneous())
	assert.True(t, zero.IsErroneous())
	assert.False(t, good.IsErroneous())
	assert.Equal(t, []string{
		"Invalid array dimension: size is not a constant",
		"A positive integer value was expected as array size instead of `0'",
	}, messages(engine.GetErrors()))
	assert.Equal(t, "integer[1..3]", good.String())
}

func TestCheckSubTypeRestrictions(t *testing.T) {
	p, engine, _ := newTestPass(1)

	okList := NewRecordOfType(NewLeafType(TypeKindInteger)).Restrict(&SubType{Length: &LengthRange{Min: 1, Max: 3}})
	badKind := NewLeafType(TypeKindBoolean).Restrict(&SubType{Length: &LengthRange{Min: 1, Max: 3}})
	badBounds := NewLeafType(TypeKindCharstring).Restrict(&SubType{Length: &LengthRange{Min: 4, Max: 3}})
	badRange := NewLeafType(TypeKindFloat).Restrict(&SubType{Ranges: []IntRange{{Min: 0, Max: 1}}})

	for _, typ := range []*Type{okList, badKind, badBounds, badRange} {
		typ.Check(p)
	}

	assert.False(t, okList.IsErroneous())
	assert.True(t, badKind.IsErroneous())
	assert.True(t, badBounds.IsErroneous())
	assert.True(t, badRange.IsErroneous())
	assert.Len(t, engine.GetErrors(), 3)
}

func TestCheckComponentInheritance(t *testing.T) {
	p, engine, resolver := newTestPass(1)

	base := NewComponentType("Base", []*ComponentDef{{Name: "v", Type: NewLeafType(TypeKindInteger)}}, nil)
	clash := NewComponentType("Clash",
		[]*ComponentDef{{Name: "v", Type: NewLeafType(TypeKindInteger)}},
		[]*Type{ref("Base")})
	notComp := NewComponentType("Odd", nil, []*Type{ref("I")})
	loopA := NewComponentType("LoopA", nil, []*Type{ref("LoopB")})
	loopB := NewComponentType("LoopB", nil, []*Type{ref("LoopA")})
	resolver.declare(base, clash, loopA, loopB, NewLeafType(TypeKindInteger).Named("", "I"))

	for _, typ := range []*Type{base, clash, notComp, loopA} {
		typ.Check(p)
	}

	errs := messages(engine.GetErrors())
	assert.Contains(t, errs, "Definition `v' clashes with a definition inherited from `Base'")
	assert.Contains(t, errs, "Reference to a component type was expected in the `extends' clause instead of `I'")
	assert.Contains(t, errs, "Circular extension of component type `LoopA'")
	assert.True(t, loopA.IsErroneous())
	assert.False(t, base.IsErroneous())

	d := clash.LookupDefinition(p, "v")
	require.NotNil(t, d)
}

func TestCheckFunctionAndSignature(t *testing.T) {
	p, engine, _ := newTestPass(1)

	tc := NewTestcaseType(nil, nil)
	tc.Data.(*FunctionType).Return = NewLeafType(TypeKindInteger)
	fn := NewFunctionType([]*Param{
		{Name: "a", Type: NewLeafType(TypeKindInteger)},
		{Name: "a", Type: NewLeafType(TypeKindInteger)},
	}, nil, nil, true)
	sig := NewSignatureType(
		[]*Param{{Name: "o", Type: NewLeafType(TypeKindInteger), Direction: ParamOut}},
		NewLeafType(TypeKindInteger),
		[]*Type{NewLeafType(TypeKindCharstring), NewLeafType(TypeKindCharstring)},
		true,
	)

	tc.Check(p)
	fn.Check(p)
	sig.Check(p)

	assert.Equal(t, []string{
		"A testcase type cannot have a return type",
		"Duplicate parameter with name `a' was first declared here",
		"Duplicate parameter with name `a' was declared here again",
		"A function type with `return template' must have a return type",
		"A non-blocking signature cannot have a return type",
		"A non-blocking signature cannot have `out' parameter `o'",
		"Duplicate type `charstring' in the exception list",
	}, messages(engine.GetErrors()))
}
