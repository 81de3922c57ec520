package conformance

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/types"
)

func TestPointValues(t *testing.T) {
	tests := []struct {
		name   string
		value  *ast.Value
		errors []string
	}{
		{
			name:  "complete",
			value: ast.NamedList(ast.Field("x", ast.Int(1)), ast.Field("y", ast.Int(2))),
		},
		{
			name:   "missing field",
			value:  ast.NamedList(ast.Field("x", ast.Int(1))),
			errors: []string{"Field `y' is missing from record value"},
		},
		{
			name:  "unknown field",
			value: ast.NamedList(ast.Field("x", ast.Int(1)), ast.Field("z", ast.Int(2))),
			errors: []string{
				"Reference to a non-existent field `z' in record value for type `Point'",
				"Field `y' is missing from record value",
			},
		},
		{
			name:   "wrong order",
			value:  ast.NamedList(ast.Field("y", ast.Int(1)), ast.Field("x", ast.Int(2))),
			errors: []string{"Field `x' cannot appear after field `y' in record value"},
		},
		{
			name:  "positional",
			value: ast.List(ast.Int(1), ast.Int(2)),
		},
		{
			name:   "positional too short",
			value:  ast.List(ast.Int(1)),
			errors: []string{"Too few elements in value list notation for type `Point': 2 was expected instead of 1"},
		},
		{
			name:   "wrong element kind",
			value:  ast.List(ast.Int(1), ast.Charstring("a")),
			errors: []string{"integer value was expected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, engine := newTestPass()
			ok := CheckValue(p, pointType(), tt.value, ValueOptions{Expected: ExpectedConstant})
			assert.Equal(t, len(tt.errors) == 0, ok)
			if tt.errors == nil {
				tt.errors = []string{}
			}
			assert.Equal(t, tt.errors, errorMessages(engine))
		})
	}
}

func TestDuplicateFieldReportedAsPair(t *testing.T) {
	p, engine := newTestPass()

	v := ast.NamedList(
		ast.Field("x", ast.Int(1)),
		ast.Field("x", ast.Int(2)),
		ast.Field("y", ast.Int(3)),
		ast.Field("x", ast.Int(4)),
	)
	assert.False(t, CheckValue(p, pointType(), v, ValueOptions{}))
	assert.Equal(t, []string{
		"Field `x' is already given here",
		"Duplicate record field `x'",
		"Duplicate record field `x'",
	}, errorMessages(engine))
}

func TestSetValueIgnoresOrder(t *testing.T) {
	p, engine := newTestPass()

	set := types.NewSetType("S", types.NewField("a", integer()), types.NewField("b", integer()))
	v := ast.NamedList(ast.Field("b", ast.Int(1)), ast.Field("a", ast.Int(2)))
	assert.True(t, CheckValue(p, set, v, ValueOptions{}))
	assert.Empty(t, errorMessages(engine))

	assert.False(t, CheckValue(p, set, ast.List(ast.Int(1), ast.Int(2)), ValueOptions{}))
	assert.Equal(t, []string{"Value list notation cannot be used for set type `S'"}, errorMessages(engine))
}

func TestIncompleteValue(t *testing.T) {
	p, engine := newTestPass()

	v := ast.NamedList(ast.Field("y", ast.Int(1)), ast.Field("x", ast.NotUsed()))
	assert.True(t, CheckValue(p, pointType(), v, ValueOptions{Incomplete: true}))
	assert.Empty(t, errorMessages(engine))

	v = ast.NamedList(ast.Field("x", ast.NotUsed()), ast.Field("y", ast.Int(1)))
	assert.False(t, CheckValue(p, pointType(), v, ValueOptions{}))
	assert.Equal(t, []string{"Not used symbol (`-') is not allowed in this context"}, errorMessages(engine))
}

func TestImplicitOmit(t *testing.T) {
	rec := types.NewRecordType("R",
		types.NewField("a", integer()),
		types.NewOptionalField("b", integer()))

	p, engine := newTestPass()
	v := ast.NamedList(ast.Field("a", ast.Int(1)))
	assert.True(t, CheckValue(p, rec, v, ValueOptions{ImplicitOmit: true}))
	assert.Empty(t, errorMessages(engine))
	require.Len(t, v.Named, 2)
	assert.Equal(t, "b", v.Named[1].Name)
	assert.Equal(t, ast.ValueOmit, v.Named[1].Value.Kind)

	positional := ast.List(ast.Int(1))
	assert.True(t, CheckValue(p, rec, positional, ValueOptions{ImplicitOmit: true}))
	require.Len(t, positional.Elements, 2)
	assert.Equal(t, ast.ValueOmit, positional.Elements[1].Kind)
	assert.True(t, CheckValue(p, rec, positional, ValueOptions{ImplicitOmit: true}))
	assert.Len(t, positional.Elements, 2)
	assert.Empty(t, errorMessages(engine))

	p, engine = newTestPass()
	assert.False(t, CheckValue(p, rec, ast.NamedList(ast.Field("a", ast.Int(1))), ValueOptions{}))
	assert.Equal(t, []string{"Field `b' is missing from record value"}, errorMessages(engine))
}

func TestImplicitOmitKeepsDeclarationOrder(t *testing.T) {
	rec := types.NewRecordType("R",
		types.NewField("a", integer()),
		types.NewOptionalField("b", integer()),
		types.NewField("c", integer()))

	p, engine := newTestPass()
	v := ast.NamedList(ast.Field("a", ast.Int(1)), ast.Field("c", ast.Int(2)))
	for i := 0; i < 2; i++ {
		assert.True(t, CheckValue(p, rec, v, ValueOptions{ImplicitOmit: true}), "check %d", i+1)
	}
	assert.Empty(t, errorMessages(engine))
	assert.Equal(t, "{ a := 1, b := omit, c := 2 }", v.String())
	assert.True(t, v.Named[1].Implicit)
}

func TestOmitOnlyForOptionalFields(t *testing.T) {
	rec := types.NewRecordType("R",
		types.NewField("a", integer()),
		types.NewOptionalField("b", integer()))

	p, engine := newTestPass()
	v := ast.NamedList(ast.Field("a", ast.Omit()), ast.Field("b", ast.Omit()))
	assert.False(t, CheckValue(p, rec, v, ValueOptions{}))
	assert.Equal(t, []string{"`omit' value is not allowed in this context"}, errorMessages(engine))
}

func TestIndexedListHoles(t *testing.T) {
	list := types.NewRecordOfType(integer()).Named("", "Ints")
	holey := func() *ast.Value {
		return ast.IndexedList(
			ast.Elem(0, ast.Int(1)),
			ast.Elem(1, ast.Int(2)),
			ast.Elem(3, ast.Int(3)),
		)
	}

	p, engine := newTestPass()
	assert.False(t, CheckValue(p, list, holey(), ValueOptions{Expected: ExpectedConstant}))
	assert.Equal(t, []string{"It's not allowed to create hole(s) in constant values"}, errorMessages(engine))

	p, engine = newTestPass()
	assert.True(t, CheckValue(p, list, holey(), ValueOptions{Expected: ExpectedDynamic}))
	assert.Empty(t, errorMessages(engine))
}

func TestIndexedListIndices(t *testing.T) {
	list := types.NewRecordOfType(integer()).Named("", "Ints")

	p, engine := newTestPass()
	v := ast.IndexedList(ast.Elem(0, ast.Int(1)), ast.Elem(0, ast.Int(2)), ast.Elem(-1, ast.Int(3)))
	assert.False(t, CheckValue(p, list, v, ValueOptions{Expected: ExpectedDynamic}))
	assert.Equal(t, []string{
		"Index value `0' is already given here",
		"Duplicate index value `0' for components 1 and 2",
		"A non-negative integer value was expected for indexing type `Ints' instead of -1",
	}, errorMessages(engine))

	arr := types.NewArrayType(integer(), types.Dimension{Size: 2, Offset: 5})
	p, engine = newTestPass()
	v = ast.IndexedList(ast.Elem(4, ast.Int(1)), ast.Elem(7, ast.Int(2)), ast.Elem(5, ast.Int(3)), ast.Elem(6, ast.Int(4)))
	assert.False(t, CheckValue(p, arr, v, ValueOptions{Expected: ExpectedConstant}))
	assert.Equal(t, []string{
		"Array index underflow: the index value must be at least 5 instead of 4",
		"Array index overflow: the index value must be at most 6 instead of 7",
	}, errorMessages(engine))
}

func TestArrayValueSize(t *testing.T) {
	arr := types.NewArrayType(integer(), types.Dimension{Size: 2})

	p, engine := newTestPass()
	assert.False(t, CheckValue(p, arr, ast.List(ast.Int(1), ast.Int(2), ast.Int(3)), ValueOptions{}))
	assert.Equal(t, []string{"Too many elements in the array value: 2 was expected instead of 3"}, errorMessages(engine))

	p, engine = newTestPass()
	assert.True(t, CheckValue(p, arr, ast.List(ast.Int(1)), ValueOptions{Incomplete: true}))
	assert.Empty(t, errorMessages(engine))
}

func TestUnionValue(t *testing.T) {
	u := types.NewChoiceType("U", types.NewField("i", integer()), types.NewField("s", charstring()))

	p, engine := newTestPass()
	assert.True(t, CheckValue(p, u, ast.NamedList(ast.Field("s", ast.Charstring("a"))), ValueOptions{}))
	assert.Empty(t, errorMessages(engine))

	assert.False(t, CheckValue(p, u, ast.NamedList(), ValueOptions{}))
	assert.False(t, CheckValue(p, u, ast.NamedList(ast.Field("i", ast.Int(1)), ast.Field("s", ast.Charstring("a"))), ValueOptions{}))
	assert.Equal(t, []string{
		"The union value must have one active field",
		"Only one field was expected in union value instead of 2",
	}, errorMessages(engine))
}

func TestLeafValues(t *testing.T) {
	enum := types.NewEnumeratedType("Color", &types.EnumItem{Name: "red"}, &types.EnumItem{Name: "blue", Value: 1})

	tests := []struct {
		name  string
		typ   *types.Type
		value *ast.Value
		opts  ValueOptions
		err   string
	}{
		{name: "bitstring", typ: types.NewLeafType(types.TypeKindBitstring), value: ast.Bitstring("0101")},
		{name: "bad bitstring", typ: types.NewLeafType(types.TypeKindBitstring), value: ast.Bitstring("012"), err: "bitstring value contains invalid character `2'"},
		{name: "odd octetstring", typ: types.NewLeafType(types.TypeKindOctetstring), value: ast.Octetstring("ABC"), err: "octetstring value contains odd number of hexadecimal digits"},
		{name: "verdict", typ: types.NewLeafType(types.TypeKindVerdict), value: ast.Verdict("pass")},
		{name: "bad verdict", typ: types.NewLeafType(types.TypeKindVerdict), value: ast.Verdict("maybe"), err: "verdict value was expected"},
		{name: "enum", typ: enum, value: ast.Enum("blue")},
		{name: "bad enum", typ: enum, value: ast.Enum("green"), err: "`green' is not a valid enumeration item of type `Color'"},
		{name: "charstring into universal", typ: types.NewLeafType(types.TypeKindUniversalString), value: ast.Charstring("abc")},
		{name: "string element", typ: charstring(), value: ast.Charstring("a"), opts: ValueOptions{StrElem: true}},
		{name: "long string element", typ: charstring(), value: ast.Charstring("ab"), opts: ValueOptions{StrElem: true}, err: "The length of the string must be exactly 1 instead of 2 when it is used as a string element"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, engine := newTestPass()
			ok := CheckValue(p, tt.typ, tt.value, tt.opts)
			if tt.err == "" {
				assert.True(t, ok)
				assert.Empty(t, errorMessages(engine))
				return
			}
			assert.False(t, ok)
			assert.Equal(t, []string{tt.err}, errorMessages(engine))
		})
	}
}

func TestReferenceValue(t *testing.T) {
	other := types.NewRecordType("Pair", types.NewField("a", integer()), types.NewField("b", integer()))

	p, engine := newTestPass()
	assert.True(t, CheckValue(p, pointType(), ast.Ref("c", other), ValueOptions{}))
	assert.Empty(t, errorMessages(engine))

	assert.False(t, CheckValue(p, integer(), ast.Ref("s", charstring()), ValueOptions{}))
	errs := errorMessages(engine)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Type mismatch")

	// unresolved references were reported by whoever built them
	assert.True(t, CheckValue(p, integer(), ast.Ref("missing", nil), ValueOptions{}))
}

func TestGovernorIsRecorded(t *testing.T) {
	p, _ := newTestPass()
	point := pointType()
	x := ast.Int(1)
	v := ast.NamedList(ast.Field("x", x), ast.Field("y", ast.Int(2)))

	CheckValue(p, point, v, ValueOptions{})
	assert.Same(t, point, v.Governor)
	assert.Equal(t, types.TypeKindInteger, x.Governor.Kind)
}

func TestSubtypeValues(t *testing.T) {
	small := integer().Named("", "Small").Restrict(&types.SubType{Ranges: []types.IntRange{{Min: 0, Max: 9}}})
	short := charstring().Named("", "Short").Restrict(&types.SubType{Length: &types.LengthRange{Min: 1, Max: 3}})

	p, engine := newTestPass()
	assert.True(t, CheckValue(p, small, ast.Int(5), ValueOptions{SubCheck: true}))
	assert.True(t, CheckValue(p, short, ast.Charstring("abc"), ValueOptions{SubCheck: true}))
	assert.Empty(t, errorMessages(engine))

	assert.False(t, CheckValue(p, small, ast.Int(10), ValueOptions{SubCheck: true}))
	assert.False(t, CheckValue(p, short, ast.Charstring("abcd"), ValueOptions{SubCheck: true}))
	errs := errorMessages(engine)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "10 is not a valid value for type `Small'")
	assert.Contains(t, errs[1], "\"abcd\" is not a valid value for type `Short'")

	// without SubCheck restrictions are ignored
	assert.True(t, CheckValue(p, small, ast.Int(10), ValueOptions{}))
}

func TestScanNamedWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	p, engine := newTestPass()
	p.Log = zerolog.New(&buf)

	scan := scanNamed(p, integer(), integer(), []namedEntry{{name: "x"}}, "value", true)
	assert.False(t, scan.ok)
	assert.Equal(t, []int{-1}, scan.fieldIndex)
	assert.Contains(t, buf.String(), `"code":"NO_FIELDS"`)
	assert.Empty(t, errorMessages(engine))
}
