// Package conformance checks values and templates against types.
// Every check reports through the pass's diagnostic sink and returns
// whether the checked tree is free of errors; it always walks the whole
// tree so a single run yields every diagnostic.
package conformance

import (
	"math"

	"github.com/orizon-lang/ttcheck/internal/errors"
	"github.com/orizon-lang/ttcheck/internal/position"
	"github.com/orizon-lang/ttcheck/internal/types"
)

func kindWord(last *types.Type) string {
	switch last.Kind {
	case types.TypeKindChoice:
		return "union"
	default:
		return last.Kind.String()
	}
}

// namedEntry is one element of an assignment list
type namedEntry struct {
	name string
	span position.Span
}

// namedScan is the outcome of scanning an assignment list
type namedScan struct {
	// fieldIndex holds the declaration index of each entry, or -1 for
	// entries that were rejected (unknown name or repetition)
	fieldIndex []int
	present    map[string]bool
	ok         bool
}

// scanNamed validates the names of an assignment list: unknown fields,
// repeated fields and, when checkOrder is set, declaration order.
// A repeated name is reported once at its first occurrence and once at
// every repetition. Only the first ordering violation is reported.
func scanNamed(p *types.Pass, t, last *types.Type, entries []namedEntry, noun string, checkOrder bool) namedScan {
	fields := last.Fields()
	what := kindWord(last)

	res := namedScan{
		fieldIndex: make([]int, len(entries)),
		present:    make(map[string]bool, len(entries)),
		ok:         true,
	}
	if fields == nil {
		errors.NoFields(p.Log, t.String())
		for i := range res.fieldIndex {
			res.fieldIndex[i] = -1
		}
		res.ok = false
		return res
	}
	first := make(map[string]int, len(entries))
	reported := make(map[string]bool)

	inSynch := checkOrder
	next := 0
	prev := ""

	for i, e := range entries {
		res.fieldIndex[i] = -1

		fi := fields.IndexOf(e.name)
		if fi < 0 {
			p.Errorf(e.span, "Reference to a non-existent field `%s' in %s %s for type `%s'", e.name, what, noun, t)
			res.ok = false
			continue
		}

		if j, dup := first[e.name]; dup {
			if !reported[e.name] {
				reported[e.name] = true
				p.Errorf(entries[j].span, "Field `%s' is already given here", e.name)
			}
			p.Errorf(e.span, "Duplicate %s field `%s'", what, e.name)
			res.ok = false
			continue
		}
		first[e.name] = i
		res.present[e.name] = true
		res.fieldIndex[i] = fi

		if !inSynch {
			continue
		}
		if fi < next {
			p.Errorf(e.span, "Field `%s' cannot appear after field `%s' in %s %s", e.name, prev, what, noun)
			res.ok = false
			inSynch = false
			continue
		}
		next = fi + 1
		prev = e.name
	}

	return res
}

// checkUnionArity reports assignment lists of unions that do not select
// exactly one alternative
func checkUnionArity(p *types.Pass, last *types.Type, span position.Span, n int, noun string) bool {
	switch {
	case n == 0:
		p.Errorf(span, "The %s %s must have one active field", kindWord(last), noun)
		return false
	case n > 1:
		p.Errorf(span, "Only one field was expected in %s %s instead of %d", kindWord(last), noun, n)
		return false
	}
	return true
}

// insertPos returns where an entry for the field declared at fi goes in a
// list whose entries have the given declaration indices
func insertPos(order []int, fi int) int {
	for i, j := range order {
		if j > fi {
			return i
		}
	}
	return len(order)
}

// indexEntry is one element of an indexed list
type indexEntry struct {
	index int64
	span  position.Span
}

// checkIndices validates the indices of an indexed list against a list
// type and returns which entries may be checked further.
func checkIndices(p *types.Pass, t, last *types.Type, entries []indexEntry) ([]bool, bool) {
	valid := make([]bool, len(entries))
	used := make(map[int64]int, len(entries))
	reported := make(map[int64]bool)
	ok := true

	for i, e := range entries {
		if last.Kind == types.TypeKindArray {
			dim := last.Dimension()
			lo := int64(dim.Offset)
			hi := lo + int64(dim.Size) - 1
			if e.index < lo {
				p.Errorf(e.span, "Array index underflow: the index value must be at least %d instead of %d", lo, e.index)
				ok = false
				continue
			}
			if e.index > hi {
				p.Errorf(e.span, "Array index overflow: the index value must be at most %d instead of %d", hi, e.index)
				ok = false
				continue
			}
		} else {
			if e.index < 0 {
				p.Errorf(e.span, "A non-negative integer value was expected for indexing type `%s' instead of %d", t, e.index)
				ok = false
				continue
			}
			if e.index > math.MaxInt32 {
				p.Errorf(e.span, "Integer value `%d' is too big for indexing type `%s'", e.index, t)
				ok = false
				continue
			}
		}

		if j, dup := used[e.index]; dup {
			if !reported[e.index] {
				reported[e.index] = true
				p.Errorf(entries[j].span, "Index value `%d' is already given here", e.index)
			}
			p.Errorf(e.span, "Duplicate index value `%d' for components %d and %d", e.index, j+1, i+1)
			ok = false
			continue
		}
		used[e.index] = i
		valid[i] = true
	}

	return valid, ok
}

// hasHoles reports whether the valid indices do not form a contiguous
// range starting at base
func hasHoles(entries []indexEntry, valid []bool, base int64) bool {
	n := int64(0)
	highest := base - 1
	for i, e := range entries {
		if !valid[i] {
			continue
		}
		n++
		if e.index > highest {
			highest = e.index
		}
	}
	return n > 0 && highest-base+1 != n
}
