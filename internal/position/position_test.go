package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		pos      Position
		isValid  bool
	}{
		{
			name:     "Valid position with filename",
			pos:      Position{Filename: "defs/types.yaml", Line: 10, Column: 5, Offset: 100},
			isValid:  true,
			expected: "types.yaml:10:5",
		},
		{
			name:     "Valid position without filename",
			pos:      Position{Line: 1, Column: 1, Offset: 0},
			isValid:  true,
			expected: "1:1",
		},
		{
			name:    "Invalid position - zero line",
			pos:     Position{Line: 0, Column: 1},
			isValid: false,
		},
		{
			name:    "Invalid position - negative offset",
			pos:     Position{Line: 1, Column: 1, Offset: -1},
			isValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.pos.IsValid())
			if tt.isValid {
				assert.Equal(t, tt.expected, tt.pos.String())
			}
		})
	}
}

func TestPositionBefore(t *testing.T) {
	a := Position{Filename: "a.yaml", Line: 1, Column: 5}
	b := Position{Filename: "a.yaml", Line: 1, Column: 9}
	c := Position{Filename: "a.yaml", Line: 2, Column: 1}
	other := Position{Filename: "0.yaml", Line: 9, Column: 9}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
	assert.True(t, other.Before(a))
}

func TestSpanString(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		expected string
	}{
		{
			name: "same line",
			span: Span{
				Start: Position{Filename: "t.yaml", Line: 1, Column: 5, Offset: 4},
				End:   Position{Filename: "t.yaml", Line: 1, Column: 10, Offset: 9},
			},
			expected: "t.yaml:1:5-10",
		},
		{
			name: "multiple lines",
			span: Span{
				Start: Position{Filename: "t.yaml", Line: 1, Column: 5, Offset: 4},
				End:   Position{Filename: "t.yaml", Line: 3, Column: 2, Offset: 20},
			},
			expected: "t.yaml:1:5-3:2",
		},
		{
			name:     "point",
			span:     Point(Position{Filename: "t.yaml", Line: 4, Column: 3, Offset: 30}),
			expected: "t.yaml:4:3",
		},
		{
			name:     "unknown",
			span:     Span{},
			expected: "<unknown>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.span.String())
		})
	}
}

func TestSpanUnion(t *testing.T) {
	a := Span{
		Start: Position{Filename: "t.yaml", Line: 1, Column: 1, Offset: 0},
		End:   Position{Filename: "t.yaml", Line: 1, Column: 4, Offset: 3},
	}
	b := Span{
		Start: Position{Filename: "t.yaml", Line: 2, Column: 1, Offset: 10},
		End:   Position{Filename: "t.yaml", Line: 2, Column: 6, Offset: 15},
	}

	u := a.Union(b)
	assert.Equal(t, a.Start, u.Start)
	assert.Equal(t, b.End, u.End)
	assert.Equal(t, a, a.Union(Span{}))
}

func TestSourceFile(t *testing.T) {
	sf := NewSourceFile("m.yaml", "module: M\ntypes:\n  P: integer\n")

	require.Equal(t, "types:", sf.GetLine(2))
	assert.Equal(t, "  P: integer", sf.GetLine(3))
	assert.Equal(t, "", sf.GetLine(42))

	pos := sf.Pos(3, 3)
	assert.Equal(t, Position{Filename: "m.yaml", Line: 3, Column: 3, Offset: 19}, pos)
	assert.True(t, pos.IsValid())
	assert.False(t, sf.Pos(0, 1).IsValid())
}
