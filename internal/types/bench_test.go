package types

import (
	"fmt"
	"testing"
)

// nestedRecord builds a chain of records depth levels deep, each holding
// an integer and the next level
func nestedRecord(prefix string, depth int) *Type {
	integer := NewLeafType(TypeKindInteger)
	inner := NewRecordType(fmt.Sprintf("%s%d", prefix, depth), NewField("v", integer))
	for i := depth - 1; i >= 0; i-- {
		inner = NewRecordType(fmt.Sprintf("%s%d", prefix, i), NewField("v", integer), NewField("next", inner))
	}
	return inner
}

// BenchmarkCompatNestedRecords benchmarks structural compatibility of two
// unrelated but equally shaped record chains.
func BenchmarkCompatNestedRecords(b *testing.B) {
	left, right := nestedRecord("L", 32), nestedRecord("R", 32)
	p, _, _ := newTestPass(1)
	p.Metrics = nil

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !IsCompatible(p, left, right, nil) {
			b.Fatal("records should be compatible")
		}
	}
}

// BenchmarkCheckNewGeneration benchmarks a full structural check of a
// type graph in a fresh generation each time.
func BenchmarkCheckNewGeneration(b *testing.B) {
	root := nestedRecord("T", 64)
	clock := NewClock()
	p, _, _ := newTestPass(clock.Next())
	p.Metrics = nil

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Gen = clock.Next()
		root.Check(p)
	}
}

// BenchmarkSetOfStrongShortcut benchmarks set of compatibility where the
// element kinds allow skipping the structural walk.
func BenchmarkSetOfStrongShortcut(b *testing.B) {
	left := NewSetOfType(NewSetOfType(NewLeafType(TypeKindCharstring)))
	right := NewSetOfType(NewSetOfType(NewLeafType(TypeKindUniversalString)))
	p, _, _ := newTestPass(1)
	p.Metrics = nil

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsCompatible(p, left, right, nil)
	}
}
