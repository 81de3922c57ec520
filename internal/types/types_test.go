package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	integer := NewLeafType(TypeKindInteger)
	point := NewRecordType("Point", NewField("x", integer), NewField("y", integer))

	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"leaf", integer, "integer"},
		{"universal", NewLeafType(TypeKindUniversalString), "universal charstring"},
		{"named", point, "Point"},
		{"record of", NewRecordOfType(integer), "record of integer"},
		{"set of", NewSetOfType(point), "set of Point"},
		{"array", NewArrayType(integer, Dimension{Size: 3}), "integer[3]"},
		{"array with offset", NewArrayType(integer, Dimension{Size: 2, Offset: 5}), "integer[5..6]"},
		{"anonymous record", NewRecordType("", NewField("a", integer), NewOptionalField("b", point)),
			"record { integer a, Point b optional }"},
		{"anonymous union", NewChoiceType("", NewField("i", integer)), "union { integer i }"},
		{"reference", NewReferencedType(Reference{Module: "M", Name: "T"}), "M.T"},
		{"function", NewFunctionType(nil, nil, nil, false), "function"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, TypeKindVerdict.IsLeaf())
	assert.False(t, TypeKindEnumerated.IsLeaf())
	assert.True(t, TypeKindOctetstring.IsString())
	assert.False(t, TypeKindInteger.IsString())
	assert.True(t, TypeKindArray.IsList())
	assert.False(t, TypeKindRecord.IsList())
	assert.True(t, TypeKindAnytype.HasFields())
	assert.False(t, TypeKindComponent.HasFields())
	assert.True(t, TypeKindSetOf.IsStructured())
	assert.False(t, TypeKindSignature.IsStructured())
	assert.Equal(t, "invalid", TypeKind(-1).String())
}

func TestParseKind(t *testing.T) {
	for k := TypeKindBoolean; k <= TypeKindReferenced; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("int")
	assert.False(t, ok)
}

func TestKindSets(t *testing.T) {
	s, err := ParseKindSet([]string{"integer", "universal charstring"})
	require.NoError(t, err)
	assert.True(t, s.Has(TypeKindUniversalString))
	assert.False(t, s.Has(TypeKindFloat))
	assert.Equal(t, []string{"integer", "universal charstring"}, s.Names())

	_, err = ParseKindSet([]string{"integer", "bytes"})
	assert.EqualError(t, err, `unknown type kind "bytes"`)

	assert.Len(t, DefaultStrongKinds(), 10)
}

func TestAccessorsOnOtherKinds(t *testing.T) {
	integer := NewLeafType(TypeKindInteger)
	assert.Nil(t, integer.Fields())
	assert.Nil(t, integer.Element())
	assert.Equal(t, Dimension{}, integer.Dimension())
	assert.Nil(t, integer.EnumItem("red"))
	assert.Nil(t, integer.Reference())

	color := NewEnumeratedType("Color", &EnumItem{Name: "red"}, &EnumItem{Name: "blue", Value: 5, Explicit: true})
	require.NotNil(t, color.EnumItem("blue"))
	assert.EqualValues(t, 5, color.EnumItem("blue").Value)
	assert.Nil(t, color.EnumItem("green"))

	named := NewRecordOfType(integer).Named("M", "Ints")
	assert.Equal(t, "M", named.Module)
	assert.Equal(t, "Ints", named.String())
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, Generation(0), c.Current())
	assert.Equal(t, Generation(1), c.Next())
	assert.Equal(t, Generation(2), c.Next())
	assert.Equal(t, Generation(2), c.Current())
}
