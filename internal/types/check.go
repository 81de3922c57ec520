package types

// Check validates the structure of t and of everything it refers to.
// It runs at most once per generation; cycles in the type graph terminate
// because the generation is recorded before descending.
func (t *Type) Check(p *Pass) {
	if t == nil {
		p.internalNil("type")
		return
	}
	if t.lastChecked >= p.Gen {
		return
	}
	t.lastChecked = p.Gen
	t.erroneous = false
	p.Metrics.TypeChecked(t.Kind.String())

	switch t.Kind {
	case TypeKindBoolean, TypeKindInteger, TypeKindFloat,
		TypeKindBitstring, TypeKindHexstring, TypeKindOctetstring,
		TypeKindCharstring, TypeKindUniversalString, TypeKindVerdict:
		// nothing to check

	case TypeKindEnumerated:
		t.checkEnumerated(p)

	case TypeKindRecordOf, TypeKindSetOf:
		if elem := t.Element(); elem != nil {
			elem.Check(p)
		} else {
			p.internalNil("element type")
		}

	case TypeKindArray:
		t.checkArray(p)

	case TypeKindRecord, TypeKindSet, TypeKindChoice, TypeKindAnytype:
		t.checkFields(p)

	case TypeKindComponent:
		t.checkComponent(p)

	case TypeKindFunction, TypeKindTestcase:
		t.checkFunction(p)

	case TypeKindSignature:
		t.checkSignature(p)

	case TypeKindReferenced:
		t.checkReferenced(p)

	default:
		p.internalKind("check", t.Kind)
		t.erroneous = true
	}

	t.checkSubType(p)
}

func (t *Type) checkReferenced(p *Pass) {
	last := t.Last(p)
	if last == t || last.Kind == TypeKindReferenced {
		t.erroneous = true
		return
	}
	// checks every intermediate reference on the way
	t.refd.Check(p)
	last.Check(p)
	if last.IsErroneous() {
		t.erroneous = true
	}
}

func (t *Type) checkFields(p *Pass) {
	fields := t.Fields()
	if fields == nil {
		p.internalNoFields(t)
		t.erroneous = true
		return
	}
	if t.Kind == TypeKindChoice && fields.Len() == 0 {
		p.Errorf(t.Span, "A union type must have at least one alternative")
	}
	fields.Check(p, t.Kind.String())
}

func (t *Type) checkEnumerated(p *Pass) {
	items := t.Data.(*EnumType).Items

	names := make(map[string]*EnumItem, len(items))
	reported := make(map[string]bool)
	used := make(map[int64]*EnumItem, len(items))

	for _, item := range items {
		if first, dup := names[item.Name]; dup {
			if !reported[item.Name] {
				reported[item.Name] = true
				p.Errorf(first.Span, "Duplicate enumeration identifier `%s' was first declared here", item.Name)
			}
			p.Errorf(item.Span, "Duplicate enumeration identifier `%s' was declared here again", item.Name)
			continue
		}
		names[item.Name] = item

		if !item.Explicit {
			continue
		}
		if other, dup := used[item.Value]; dup {
			p.Errorf(item.Span, "Value %d is already assigned to `%s'", item.Value, other.Name)
			continue
		}
		used[item.Value] = item
	}

	// items without an explicit value take the smallest unused number
	next := int64(0)
	for _, item := range items {
		if item.Explicit {
			continue
		}
		for used[next] != nil {
			next++
		}
		item.Value = next
		used[next] = item
	}
}

func (t *Type) checkArray(p *Pass) {
	a := t.Data.(*ArrayType)
	switch {
	case a.Dimension.Invalid:
		p.Errorf(t.Span, "Invalid array dimension: %s", a.Dimension.Reason)
		t.erroneous = true
	case a.Dimension.Size <= 0:
		p.Errorf(t.Span, "A positive integer value was expected as array size instead of `%d'", a.Dimension.Size)
		t.erroneous = true
	}

	if a.Element == nil {
		p.internalNil("array element type")
		t.erroneous = true
		return
	}
	a.Element.Check(p)
}

func checkParams(p *Pass, params []*Param) {
	first := make(map[string]*Param, len(params))
	reported := make(map[string]bool)
	for _, param := range params {
		if prev, dup := first[param.Name]; dup {
			if !reported[param.Name] {
				reported[param.Name] = true
				p.Errorf(prev.Span, "Duplicate parameter with name `%s' was first declared here", param.Name)
			}
			p.Errorf(param.Span, "Duplicate parameter with name `%s' was declared here again", param.Name)
		} else {
			first[param.Name] = param
		}
		if param.Type != nil {
			param.Type.Check(p)
		}
	}
}

func (t *Type) checkFunction(p *Pass) {
	f := t.Data.(*FunctionType)
	checkParams(p, f.Params)

	if f.RunsOn != nil {
		f.RunsOn.Check(p)
		if last := f.RunsOn.Last(p); !last.IsErroneous() && last.Kind != TypeKindComponent {
			p.Errorf(f.RunsOn.Span, "Reference to a component type was expected in the `runs on' clause instead of `%s'", last)
		}
	}

	if t.Kind == TypeKindTestcase && f.Return != nil {
		p.Errorf(f.Return.Span, "A testcase type cannot have a return type")
	}
	if f.ReturnsTemplate && f.Return == nil {
		p.Errorf(t.Span, "A function type with `return template' must have a return type")
	}
	if f.Return != nil {
		f.Return.Check(p)
	}
}

func (t *Type) checkSignature(p *Pass) {
	s := t.Data.(*SignatureType)
	checkParams(p, s.Params)

	if s.NonBlocking {
		if s.Return != nil {
			p.Errorf(s.Return.Span, "A non-blocking signature cannot have a return type")
		}
		for _, param := range s.Params {
			if param.Direction != ParamIn {
				p.Errorf(param.Span, "A non-blocking signature cannot have `%s' parameter `%s'", param.Direction, param.Name)
			}
		}
	}
	if s.Return != nil {
		s.Return.Check(p)
	}

	reported := make(map[int]bool)
	for i, exc := range s.Exceptions {
		exc.Check(p)
		for j := 0; j < i; j++ {
			if reported[j] || !IsIdentical(p, s.Exceptions[j], exc) {
				continue
			}
			reported[i] = true
			p.Errorf(exc.Span, "Duplicate type `%s' in the exception list", exc)
			break
		}
	}
}

func (t *Type) checkComponent(p *Pass) {
	c := t.Data.(*ComponentType)

	own := make(map[string]*ComponentDef, len(c.Defs))
	reported := make(map[string]bool)
	for _, d := range c.Defs {
		if first, dup := own[d.Name]; dup {
			if !reported[d.Name] {
				reported[d.Name] = true
				p.Errorf(first.Span, "Duplicate definition with name `%s' was first declared here", d.Name)
			}
			p.Errorf(d.Span, "Duplicate definition with name `%s' was declared here again", d.Name)
			continue
		}
		own[d.Name] = d
		if d.Type != nil {
			d.Type.Check(p)
		}
	}

	for _, ext := range c.Extends {
		ext.Check(p)
		last := ext.Last(p)
		if last.IsErroneous() {
			continue
		}
		if last.Kind != TypeKindComponent {
			p.Errorf(ext.Span, "Reference to a component type was expected in the `extends' clause instead of `%s'", last)
		}
	}

	if extendsTransitively(p, t, t) {
		p.Errorf(t.Span, "Circular extension of component type `%s'", t)
		t.erroneous = true
		return
	}

	// own definitions may not hide inherited ones, and two parents may not
	// provide the same name with different types
	inherited := make(map[string]*ComponentDef)
	origin := make(map[string]*Type)
	for _, parent := range componentParents(p, t) {
		for _, d := range allDefinitions(p, parent) {
			if mine, ok := own[d.Name]; ok {
				if !reported[d.Name] {
					reported[d.Name] = true
					p.Errorf(mine.Span, "Definition `%s' clashes with a definition inherited from `%s'", d.Name, parent)
				}
				continue
			}
			if prev, ok := inherited[d.Name]; ok {
				if prev != d && !IsIdentical(p, prev.Type, d.Type) && !reported[d.Name] {
					reported[d.Name] = true
					p.Errorf(t.Span, "Definition `%s' inherited from `%s' clashes with the one inherited from `%s'", d.Name, parent, origin[d.Name])
				}
				continue
			}
			inherited[d.Name] = d
			origin[d.Name] = parent
		}
	}
}

// componentParents returns the component types t extends directly
func componentParents(p *Pass, t *Type) []*Type {
	c, ok := t.Data.(*ComponentType)
	if !ok {
		return nil
	}
	var out []*Type
	for _, ext := range c.Extends {
		if last := ext.Last(p); last.Kind == TypeKindComponent {
			out = append(out, last)
		}
	}
	return out
}

// extendsTransitively reports whether child reaches ancestor through one
// or more extends clauses
func extendsTransitively(p *Pass, child, ancestor *Type) bool {
	visited := make(map[*Type]bool)
	stack := componentParents(p, child)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == ancestor {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, componentParents(p, cur)...)
	}
	return false
}

// allDefinitions returns the own and inherited definitions of a component,
// own first; a name hidden by a nearer definition is left out
func allDefinitions(p *Pass, t *Type) []*ComponentDef {
	var out []*ComponentDef
	seen := make(map[string]bool)
	visited := make(map[*Type]bool)

	var walk func(*Type)
	walk = func(cur *Type) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		c, ok := cur.Data.(*ComponentType)
		if !ok {
			return
		}
		for _, d := range c.Defs {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
		for _, parent := range componentParents(p, cur) {
			walk(parent)
		}
	}
	walk(t)
	return out
}

// LookupDefinition finds a definition of a component type by name,
// searching inherited definitions too
func (t *Type) LookupDefinition(p *Pass, name string) *ComponentDef {
	for _, d := range allDefinitions(p, t.Last(p)) {
		if d.Name == name {
			return d
		}
	}
	return nil
}
