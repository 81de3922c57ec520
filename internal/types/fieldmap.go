package types

import (
	"github.com/orizon-lang/ttcheck/internal/position"
)

// Field is a named component of a record, set, union or anytype
type Field struct {
	Name     string
	Type     *Type
	Optional bool
	Span     position.Span
}

// NewField creates a mandatory field
func NewField(name string, typ *Type) *Field {
	return &Field{Name: name, Type: typ}
}

// NewOptionalField creates an optional field
func NewOptionalField(name string, typ *Type) *Field {
	return &Field{Name: name, Type: typ, Optional: true}
}

// FieldMap is the ordered field list of a type with fields.
// Fields keep their declaration order and duplicates are retained in the
// list; name lookup always finds the first declaration.
type FieldMap struct {
	fields     []*Field
	byName     map[string]int
	duplicates []*Field
	checkedAt  Generation
}

// NewFieldMap creates a field map in declaration order
func NewFieldMap(fields ...*Field) *FieldMap {
	m := &FieldMap{}
	for _, f := range fields {
		m.Add(f)
	}
	return m
}

// Add appends a field
func (m *FieldMap) Add(f *Field) {
	m.fields = append(m.fields, f)
	m.byName = nil
	m.checkedAt = 0
}

// Len returns the number of declared fields, duplicates included
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.fields)
}

// ByIndex returns the field at declaration position i
func (m *FieldMap) ByIndex(i int) *Field {
	return m.fields[i]
}

// All returns the fields in declaration order
func (m *FieldMap) All() []*Field {
	if m == nil {
		return nil
	}
	return m.fields
}

// ByName returns the first field declared with the given name
func (m *FieldMap) ByName(name string) (*Field, bool) {
	i := m.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return m.fields[i], true
}

// Has reports whether a field with the given name exists
func (m *FieldMap) Has(name string) bool {
	return m.IndexOf(name) >= 0
}

// IndexOf returns the declaration position of name, or -1
func (m *FieldMap) IndexOf(name string) int {
	if m == nil {
		return -1
	}
	m.ensureIndex()
	if i, ok := m.byName[name]; ok {
		return i
	}
	return -1
}

// Duplicates returns the repeated declarations found by the last index build
func (m *FieldMap) Duplicates() []*Field {
	if m == nil {
		return nil
	}
	m.ensureIndex()
	return m.duplicates
}

func (m *FieldMap) ensureIndex() {
	if m.byName == nil {
		m.rebuild(nil)
	}
}

func (m *FieldMap) rebuild(onDuplicate func(first, again *Field)) {
	m.byName = make(map[string]int, len(m.fields))
	m.duplicates = nil

	for i, f := range m.fields {
		if j, dup := m.byName[f.Name]; dup {
			m.duplicates = append(m.duplicates, f)
			if onDuplicate != nil {
				onDuplicate(m.fields[j], f)
			}
			continue
		}
		m.byName[f.Name] = i
	}
}

// Check reports duplicate field names and checks every field type.
// Each repeated name is reported once at its first declaration and once at
// every repetition. what names the owning construct in messages.
func (m *FieldMap) Check(p *Pass, what string) {
	if m == nil || m.checkedAt >= p.Gen {
		return
	}
	m.checkedAt = p.Gen

	reported := make(map[string]bool)
	m.rebuild(func(first, again *Field) {
		if !reported[first.Name] {
			reported[first.Name] = true
			p.Errorf(first.Span, "Duplicate %s field name `%s' was first declared here", what, first.Name)
		}
		p.Errorf(again.Span, "Duplicate %s field name `%s' was declared here again", what, again.Name)
	})

	for _, f := range m.fields {
		if f.Type == nil {
			p.internalNil("field type of " + f.Name)
			continue
		}
		f.Type.Check(p)
	}
}
