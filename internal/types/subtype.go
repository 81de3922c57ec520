package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/ttcheck/internal/position"
)

// LengthRange restricts the number of elements or characters
type LengthRange struct {
	Min       int
	Max       int
	Unbounded bool // no upper limit; Max is ignored
}

// Contains reports whether n satisfies the restriction
func (l LengthRange) Contains(n int) bool {
	if n < l.Min {
		return false
	}
	return l.Unbounded || n <= l.Max
}

// Overlaps reports whether some length satisfies both restrictions
func (l LengthRange) Overlaps(o LengthRange) bool {
	lo := l.Min
	if o.Min > lo {
		lo = o.Min
	}
	return l.Contains(lo) && o.Contains(lo)
}

func (l LengthRange) String() string {
	if l.Unbounded {
		return fmt.Sprintf("length(%d..infinity)", l.Min)
	}
	if l.Min == l.Max {
		return fmt.Sprintf("length(%d)", l.Min)
	}
	return fmt.Sprintf("length(%d..%d)", l.Min, l.Max)
}

// IntRange is an inclusive integer range; NoMin and NoMax open either end
type IntRange struct {
	Min   int64
	Max   int64
	NoMin bool
	NoMax bool
}

// Contains reports whether v lies in the range
func (r IntRange) Contains(v int64) bool {
	return (r.NoMin || v >= r.Min) && (r.NoMax || v <= r.Max)
}

func (r IntRange) String() string {
	lo, hi := "-infinity", "infinity"
	if !r.NoMin {
		lo = strconv.FormatInt(r.Min, 10)
	}
	if !r.NoMax {
		hi = strconv.FormatInt(r.Max, 10)
	}
	return lo + ".." + hi
}

// SubType is the restriction attached to a type declaration
type SubType struct {
	Length *LengthRange
	Ranges []IntRange
	Values []int64
	Span   position.Span
}

func (s *SubType) String() string {
	var parts []string
	if len(s.Values) > 0 || len(s.Ranges) > 0 {
		var items []string
		for _, v := range s.Values {
			items = append(items, strconv.FormatInt(v, 10))
		}
		for _, r := range s.Ranges {
			items = append(items, r.String())
		}
		parts = append(parts, "("+strings.Join(items, ", ")+")")
	}
	if s.Length != nil {
		parts = append(parts, s.Length.String())
	}
	return strings.Join(parts, " ")
}

// AllowsLength reports whether a value with n elements satisfies s
func (s *SubType) AllowsLength(n int) bool {
	if s == nil || s.Length == nil {
		return true
	}
	return s.Length.Contains(n)
}

// AllowsInt reports whether the integer v satisfies s
func (s *SubType) AllowsInt(v int64) bool {
	if s == nil || (len(s.Values) == 0 && len(s.Ranges) == 0) {
		return true
	}
	for _, x := range s.Values {
		if x == v {
			return true
		}
	}
	for _, r := range s.Ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// SubTypes returns every restriction that applies to t: its own and those
// of the types it refers to, nearest first.
func (t *Type) SubTypes(p *Pass) []*SubType {
	var out []*SubType
	seen := make(map[*SubType]bool)
	t.walkReferences(p, func(cur *Type) {
		if cur.SubType != nil && !seen[cur.SubType] {
			seen[cur.SubType] = true
			out = append(out, cur.SubType)
		}
	})
	return out
}

// AllowsLength reports whether every restriction of t accepts n elements
func (t *Type) AllowsLength(p *Pass, n int) bool {
	for _, s := range t.SubTypes(p) {
		if !s.AllowsLength(n) {
			return false
		}
	}
	return true
}

// AllowsInt reports whether every restriction of t accepts v
func (t *Type) AllowsInt(p *Pass, v int64) bool {
	for _, s := range t.SubTypes(p) {
		if !s.AllowsInt(v) {
			return false
		}
	}
	return true
}

// IsSubtypeCompatible reports whether a value shaped like other can satisfy
// the length restrictions of t. Fixed-size shapes (types with fields and
// arrays) are tested by their size; list shapes by overlapping ranges.
func (t *Type) IsSubtypeCompatible(p *Pass, other *Type) bool {
	own := t.SubTypes(p)
	if len(own) == 0 {
		return true
	}

	last := other.Last(p)
	size := -1
	switch {
	case last.Kind.HasFields():
		size = last.Fields().Len()
	case last.Kind == TypeKindArray:
		size = last.Dimension().Size
	case last.Kind == TypeKindRecordOf || last.Kind == TypeKindSetOf:
		for _, s := range own {
			if s.Length == nil {
				continue
			}
			for _, o := range other.SubTypes(p) {
				if o.Length != nil && !s.Length.Overlaps(*o.Length) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}

	for _, s := range own {
		if !s.AllowsLength(size) {
			return false
		}
	}
	return true
}

func (t *Type) checkSubType(p *Pass) {
	s := t.SubType
	if s == nil {
		return
	}
	last := t.Last(p)
	if last.IsErroneous() {
		return
	}

	if l := s.Length; l != nil {
		switch {
		case !last.Kind.IsList() && !last.Kind.IsString():
			p.Errorf(s.Span, "Length restriction cannot be used in type `%s'", last)
			t.erroneous = true
		case l.Min < 0:
			p.Errorf(s.Span, "The lower boundary of the length restriction must be a non-negative integer instead of %d", l.Min)
			t.erroneous = true
		case !l.Unbounded && l.Max < l.Min:
			p.Errorf(s.Span, "The upper boundary of the length restriction (%d) cannot be smaller than the lower boundary (%d)", l.Max, l.Min)
			t.erroneous = true
		case last.Kind == TypeKindArray && !l.Contains(last.Dimension().Size):
			p.Errorf(s.Span, "The number of elements allowed by the length restriction (%s) contradicts the array size (%d)", l, last.Dimension().Size)
			t.erroneous = true
		}
	}

	if len(s.Ranges) > 0 || len(s.Values) > 0 {
		if last.Kind != TypeKindInteger {
			p.Errorf(s.Span, "Value range restriction cannot be used in type `%s'", last)
			t.erroneous = true
			return
		}
		for _, r := range s.Ranges {
			if !r.NoMin && !r.NoMax && r.Max < r.Min {
				p.Errorf(s.Span, "The lower boundary is higher than the upper boundary in range %s", r)
				t.erroneous = true
			}
		}
	}
}
