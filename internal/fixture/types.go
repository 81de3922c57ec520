package fixture

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/ttcheck/internal/types"
)

// formKeys select the kind of a type written as a mapping
var formKeys = map[string]bool{
	"type": true, "record": true, "set": true, "union": true, "anytype": true,
	"record_of": true, "set_of": true, "array": true, "enumerated": true,
	"component": true, "function": true, "testcase": true, "signature": true,
}

// attrKeys may accompany a form key
var attrKeys = map[string]bool{
	"length": true, "range": true, "values": true, "size": true, "offset": true,
	"extends": true, "runs_on": true, "return": true, "template": true,
	"exceptions": true, "noblock": true,
}

// builtinKind maps a type name to a built-in leaf kind
func builtinKind(name string) (types.TypeKind, bool) {
	k, ok := types.ParseKind(name)
	if !ok || !k.IsLeaf() {
		return 0, false
	}
	return k, true
}

func reference(name string) types.Reference {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return types.Reference{Module: name[:i], Name: name[i+1:]}
	}
	return types.Reference{Name: name}
}

// parseType parses a type expression in an anonymous position. Built-in
// names yield the module's shared leaf node.
func (d *Document) parseType(n *yaml.Node) (*types.Type, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if k, ok := builtinKind(n.Value); ok {
			return d.leaf(k), nil
		}
		return types.NewReferencedType(reference(n.Value)).At(d.span(n)), nil
	case yaml.MappingNode:
		return d.parseTypeMapping(n)
	default:
		return nil, d.errorf(n, "a type name or a type mapping was expected")
	}
}

// parseNamedType parses the right-hand side of a type declaration. The
// result is always a fresh node that can carry the declared name.
func (d *Document) parseNamedType(n *yaml.Node) (*types.Type, error) {
	if n.Kind == yaml.ScalarNode {
		if k, ok := builtinKind(n.Value); ok {
			return types.NewLeafType(k), nil
		}
	}
	return d.parseType(n)
}

func (d *Document) parseTypeMapping(n *yaml.Node) (*types.Type, error) {
	var form, formKey *yaml.Node
	attrs := make(map[string]*yaml.Node)

	err := pairs(n, func(k, v *yaml.Node) error {
		switch {
		case formKeys[k.Value]:
			if form != nil {
				return d.errorf(k, "a type has one form, `%s' and `%s' were both given", formKey.Value, k.Value)
			}
			form, formKey = v, k
		case attrKeys[k.Value]:
			attrs[k.Value] = v
		default:
			return d.errorf(k, "unknown type attribute `%s'", k.Value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, d.errorf(n, "a type mapping needs one of record, set, union, anytype, record_of, set_of, array, enumerated, component, function, testcase, signature or type")
	}

	t, err := d.parseForm(formKey.Value, form, attrs)
	if err != nil {
		return nil, err
	}
	if t.Module == "" {
		t.Module = d.Module
	}
	t.At(d.span(n))

	st, err := d.parseRestriction(n, attrs)
	if err != nil {
		return nil, err
	}
	if st != nil {
		t.Restrict(st)
	}
	return t, nil
}

func (d *Document) parseForm(key string, form *yaml.Node, attrs map[string]*yaml.Node) (*types.Type, error) {
	switch key {
	case "type":
		inner, err := d.parseType(form)
		if err != nil {
			return nil, err
		}
		switch {
		case inner.Kind.IsLeaf():
			return types.NewLeafType(inner.Kind), nil
		case inner.Kind == types.TypeKindReferenced:
			return types.NewReferencedType(*inner.Reference()), nil
		default:
			return inner, nil
		}

	case "record", "set", "union":
		fields, err := d.parseFields(form)
		if err != nil {
			return nil, err
		}
		switch key {
		case "record":
			return types.NewRecordType("", fields...), nil
		case "set":
			return types.NewSetType("", fields...), nil
		default:
			return types.NewChoiceType("", fields...), nil
		}

	case "anytype":
		if err := d.expectKind(form, yaml.SequenceNode, "a list of types"); err != nil {
			return nil, err
		}
		var fields []*types.Field
		for _, item := range form.Content {
			item = deref(item)
			if item.Kind == yaml.ScalarNode {
				ft, err := d.parseType(item)
				if err != nil {
					return nil, err
				}
				f := types.NewField(item.Value, ft)
				f.Span = d.span(item)
				fields = append(fields, f)
				continue
			}
			f, err := d.parseField(item)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return types.NewAnytype(fields...), nil

	case "record_of", "set_of":
		elem, err := d.parseType(form)
		if err != nil {
			return nil, err
		}
		if key == "record_of" {
			return types.NewRecordOfType(elem), nil
		}
		return types.NewSetOfType(elem), nil

	case "array":
		elem, err := d.parseType(form)
		if err != nil {
			return nil, err
		}
		dim, err := d.parseDimension(form, attrs)
		if err != nil {
			return nil, err
		}
		return types.NewArrayType(elem, dim), nil

	case "enumerated":
		items, err := d.parseEnumItems(form)
		if err != nil {
			return nil, err
		}
		return types.NewEnumeratedType("", items...), nil

	case "component":
		return d.parseComponent(form, attrs)

	case "function", "testcase", "signature":
		return d.parseBehaviour(key, form, attrs)
	}

	return nil, d.errorf(form, "unknown type form `%s'", key)
}

func (d *Document) parseFields(n *yaml.Node) ([]*types.Field, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of fields"); err != nil {
		return nil, err
	}
	fields := make([]*types.Field, 0, len(n.Content))
	for _, item := range n.Content {
		f, err := d.parseField(deref(item))
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseField parses {name: type} with an optional `optional: true`
func (d *Document) parseField(n *yaml.Node) (*types.Field, error) {
	if err := d.expectKind(n, yaml.MappingNode, "a field {name: type}"); err != nil {
		return nil, err
	}
	var f *types.Field
	optional := false
	err := pairs(n, func(k, v *yaml.Node) error {
		if k.Value == "optional" {
			var err error
			optional, err = d.boolScalar(v)
			return err
		}
		if f != nil {
			return d.errorf(k, "a field has one name, `%s' and `%s' were both given", f.Name, k.Value)
		}
		ft, err := d.parseType(v)
		if err != nil {
			return err
		}
		f = types.NewField(k.Value, ft)
		f.Span = d.span(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, d.errorf(n, "a field needs a name")
	}
	f.Optional = optional
	return f, nil
}

func (d *Document) parseDimension(at *yaml.Node, attrs map[string]*yaml.Node) (types.Dimension, error) {
	var dim types.Dimension
	size, ok := attrs["size"]
	if !ok {
		return dim, d.errorf(at, "an array needs a size")
	}
	if size.Kind == yaml.ScalarNode && size.ShortTag() != "!!int" {
		dim.Invalid = true
		dim.Reason = "`" + size.Value + "' is not an integer constant"
	} else {
		n, err := d.intScalar(size)
		if err != nil {
			return dim, err
		}
		dim.Size = int(n)
	}
	if off, ok := attrs["offset"]; ok {
		n, err := d.intScalar(off)
		if err != nil {
			return dim, err
		}
		dim.Offset = int(n)
	}
	return dim, nil
}

func (d *Document) parseEnumItems(n *yaml.Node) ([]*types.EnumItem, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of enumeration items"); err != nil {
		return nil, err
	}
	items := make([]*types.EnumItem, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		switch item.Kind {
		case yaml.ScalarNode:
			items = append(items, &types.EnumItem{Name: item.Value, Span: d.span(item)})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, d.errorf(item, "an enumeration item {name: value} was expected")
			}
			v, err := d.intScalar(deref(item.Content[1]))
			if err != nil {
				return nil, err
			}
			items = append(items, &types.EnumItem{
				Name:     item.Content[0].Value,
				Value:    v,
				Explicit: true,
				Span:     d.span(item.Content[0]),
			})
		default:
			return nil, d.errorf(item, "an enumeration item was expected")
		}
	}
	return items, nil
}

func (d *Document) parseTypeList(n *yaml.Node) ([]*types.Type, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of types"); err != nil {
		return nil, err
	}
	out := make([]*types.Type, 0, len(n.Content))
	for _, item := range n.Content {
		t, err := d.parseType(deref(item))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *Document) parseComponent(form *yaml.Node, attrs map[string]*yaml.Node) (*types.Type, error) {
	if err := d.expectKind(form, yaml.SequenceNode, "a list of component definitions"); err != nil {
		return nil, err
	}
	var defs []*types.ComponentDef
	for _, item := range form.Content {
		item = deref(item)
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, d.errorf(item, "a component definition {name: type} was expected")
		}
		t, err := d.parseType(deref(item.Content[1]))
		if err != nil {
			return nil, err
		}
		defs = append(defs, &types.ComponentDef{
			Name: item.Content[0].Value,
			Type: t,
			Span: d.span(item.Content[0]),
		})
	}

	var extends []*types.Type
	if n, ok := attrs["extends"]; ok {
		var err error
		if extends, err = d.parseTypeList(n); err != nil {
			return nil, err
		}
	}
	return types.NewComponentType("", defs, extends), nil
}

var directions = map[string]types.ParamDirection{
	"in":    types.ParamIn,
	"out":   types.ParamOut,
	"inout": types.ParamInout,
}

func (d *Document) parseParams(n *yaml.Node) ([]*types.Param, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of parameters"); err != nil {
		return nil, err
	}
	params := make([]*types.Param, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		if err := d.expectKind(item, yaml.MappingNode, "a parameter {name: type}"); err != nil {
			return nil, err
		}
		var p *types.Param
		dir := types.ParamIn
		err := pairs(item, func(k, v *yaml.Node) error {
			if k.Value == "dir" {
				dd, ok := directions[v.Value]
				if !ok {
					return d.errorf(v, "unknown parameter direction `%s'", v.Value)
				}
				dir = dd
				return nil
			}
			if p != nil {
				return d.errorf(k, "a parameter has one name, `%s' and `%s' were both given", p.Name, k.Value)
			}
			t, err := d.parseType(v)
			if err != nil {
				return err
			}
			p = &types.Param{Name: k.Value, Type: t, Span: d.span(k)}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, d.errorf(item, "a parameter needs a name")
		}
		p.Direction = dir
		params = append(params, p)
	}
	return params, nil
}

func (d *Document) parseBehaviour(key string, form *yaml.Node, attrs map[string]*yaml.Node) (*types.Type, error) {
	params, err := d.parseParams(form)
	if err != nil {
		return nil, err
	}

	optType := func(name string) (*types.Type, error) {
		n, ok := attrs[name]
		if !ok {
			return nil, nil
		}
		return d.parseType(n)
	}
	optBool := func(name string) (bool, error) {
		n, ok := attrs[name]
		if !ok {
			return false, nil
		}
		return d.boolScalar(n)
	}

	ret, err := optType("return")
	if err != nil {
		return nil, err
	}

	switch key {
	case "signature":
		var exceptions []*types.Type
		if n, ok := attrs["exceptions"]; ok {
			if exceptions, err = d.parseTypeList(n); err != nil {
				return nil, err
			}
		}
		noblock, err := optBool("noblock")
		if err != nil {
			return nil, err
		}
		return types.NewSignatureType(params, ret, exceptions, noblock), nil

	default:
		runsOn, err := optType("runs_on")
		if err != nil {
			return nil, err
		}
		if key == "testcase" {
			t := types.NewTestcaseType(params, runsOn)
			// kept so the checker can reject it
			t.Data.(*types.FunctionType).Return = ret
			return t, nil
		}
		tmpl, err := optBool("template")
		if err != nil {
			return nil, err
		}
		return types.NewFunctionType(params, runsOn, ret, tmpl), nil
	}
}

func (d *Document) parseRestriction(at *yaml.Node, attrs map[string]*yaml.Node) (*types.SubType, error) {
	var st types.SubType
	found := false

	if n, ok := attrs["length"]; ok {
		found = true
		lr, err := d.parseLength(n)
		if err != nil {
			return nil, err
		}
		st.Length = &lr
	}

	if n, ok := attrs["range"]; ok {
		found = true
		if err := d.expectKind(n, yaml.SequenceNode, "a range [lower, upper] or a list of ranges"); err != nil {
			return nil, err
		}
		ranges := n.Content
		if len(ranges) > 0 && deref(ranges[0]).Kind == yaml.ScalarNode {
			ranges = []*yaml.Node{n}
		}
		for _, r := range ranges {
			ir, err := d.parseIntRange(deref(r))
			if err != nil {
				return nil, err
			}
			st.Ranges = append(st.Ranges, ir)
		}
	}

	if n, ok := attrs["values"]; ok {
		found = true
		if err := d.expectKind(n, yaml.SequenceNode, "a list of values"); err != nil {
			return nil, err
		}
		for _, item := range n.Content {
			v, err := d.intScalar(deref(item))
			if err != nil {
				return nil, err
			}
			st.Values = append(st.Values, v)
		}
	}

	if !found {
		return nil, nil
	}
	st.Span = d.span(at)
	return &st, nil
}

func (d *Document) parseLength(n *yaml.Node) (types.LengthRange, error) {
	if n.Kind == yaml.ScalarNode {
		v, err := d.intScalar(n)
		if err != nil {
			return types.LengthRange{}, err
		}
		return types.LengthRange{Min: int(v), Max: int(v)}, nil
	}
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return types.LengthRange{}, d.errorf(n, "a length n or [lower, upper] was expected")
	}
	lo, err := d.intScalar(deref(n.Content[0]))
	if err != nil {
		return types.LengthRange{}, err
	}
	upper := deref(n.Content[1])
	if upper.Value == "infinity" {
		return types.LengthRange{Min: int(lo), Unbounded: true}, nil
	}
	hi, err := d.intScalar(upper)
	if err != nil {
		return types.LengthRange{}, err
	}
	return types.LengthRange{Min: int(lo), Max: int(hi)}, nil
}

func (d *Document) parseIntRange(n *yaml.Node) (types.IntRange, error) {
	var r types.IntRange
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return r, d.errorf(n, "a range [lower, upper] was expected")
	}
	lo, hi := deref(n.Content[0]), deref(n.Content[1])

	if lo.Value == "-infinity" {
		r.NoMin = true
	} else {
		v, err := d.intScalar(lo)
		if err != nil {
			return r, err
		}
		r.Min = v
	}
	if hi.Value == "infinity" {
		r.NoMax = true
	} else {
		v, err := d.intScalar(hi)
		if err != nil {
			return r, err
		}
		r.Max = v
	}
	return r, nil
}
