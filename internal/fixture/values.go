package fixture

import (
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// string literals keep their TTCN-3 quotes inside the YAML scalar:
// "'abc'" is a charstring, "'01'B", "'AF'H" and "'AF'O" are bit, hex and
// octet strings
var stringLiteral = regexp.MustCompile(`^'(.*)'([BHO]?)$`)

// matchingKeys are the one-key mappings that denote matching mechanisms
// instead of an assignment list
var matchingKeys = map[string]ast.TemplateKind{
	"permutation": ast.TemplatePermutation,
	"subset":      ast.TemplateSubset,
	"superset":    ast.TemplateSuperset,
	"list":        ast.TemplateValueList,
	"complement":  ast.TemplateComplement,
}

// singleKey returns the key of a one-entry mapping
func singleKey(n *yaml.Node) (string, *yaml.Node, bool) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, false
	}
	return n.Content[0].Value, deref(n.Content[1]), true
}

// parseValue parses a literal value. Mappings are assignment lists,
// sequences are value lists; {indexed: [[i, v], ...]} and {expr: text}
// are the only reserved one-key mappings.
func (d *Document) parseValue(n *yaml.Node) (*ast.Value, error) {
	n = deref(n)
	span := d.span(n)

	switch n.Kind {
	case yaml.ScalarNode:
		v, err := d.parseScalarValue(n)
		if err != nil {
			return nil, err
		}
		return v.At(span), nil

	case yaml.SequenceNode:
		elems := make([]*ast.Value, 0, len(n.Content))
		for _, item := range n.Content {
			e, err := d.parseValue(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return ast.List(elems...).At(span), nil

	case yaml.MappingNode:
		if key, val, ok := singleKey(n); ok {
			switch key {
			case "indexed":
				return d.parseIndexedValue(val)
			case "expr":
				return ast.Expression().At(span), nil
			}
		}
		var named []*ast.NamedValue
		err := pairs(n, func(k, v *yaml.Node) error {
			e, err := d.parseValue(v)
			if err != nil {
				return err
			}
			named = append(named, &ast.NamedValue{Name: k.Value, Value: e, Span: d.span(k)})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ast.NamedList(named...).At(span), nil
	}

	return nil, d.errorf(n, "a value was expected")
}

func (d *Document) parseScalarValue(n *yaml.Node) (*ast.Value, error) {
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, d.errorf(n, "integer `%s' is out of range", n.Value)
		}
		return ast.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		return ast.Float(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		return ast.Bool(b), nil
	case "!!null":
		return nil, d.errorf(n, "a value was expected")
	}

	if m := stringLiteral.FindStringSubmatch(n.Value); m != nil {
		switch m[2] {
		case "B":
			return ast.Bitstring(m[1]), nil
		case "H":
			return ast.Hexstring(m[1]), nil
		case "O":
			return ast.Octetstring(m[1]), nil
		default:
			return ast.Charstring(m[1]), nil
		}
	}

	switch n.Value {
	case "omit":
		return ast.Omit(), nil
	case "-":
		return ast.NotUsed(), nil
	}
	if def, ok := d.defs[n.Value]; ok && def.Kind == types.DefinitionConstant {
		return ast.Ref(n.Value, def.Type), nil
	}
	return ast.Enum(n.Value), nil
}

func (d *Document) parseIndexedValue(n *yaml.Node) (*ast.Value, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of [index, value] pairs"); err != nil {
		return nil, err
	}
	elems := make([]*ast.IndexedValue, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
			return nil, d.errorf(item, "an [index, value] pair was expected")
		}
		idx, err := d.intScalar(deref(item.Content[0]))
		if err != nil {
			return nil, err
		}
		v, err := d.parseValue(item.Content[1])
		if err != nil {
			return nil, err
		}
		elems = append(elems, &ast.IndexedValue{Index: idx, Value: v, Span: d.span(item)})
	}
	return ast.IndexedList(elems...).At(d.span(n)), nil
}

// parseTemplate parses a template body. Besides the value forms it accepts
// "?", "*", the matching mechanisms of matchingKeys and {range: [lo, hi]}.
func (d *Document) parseTemplate(n *yaml.Node) (*ast.Template, error) {
	n = deref(n)
	span := d.span(n)

	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Value {
		case "?":
			return ast.AnyValue().At(span), nil
		case "*":
			return ast.AnyOrOmit().At(span), nil
		case "-":
			return ast.NotUsedTemplate().At(span), nil
		case "omit":
			return ast.OmitTemplate().At(span), nil
		}
		v, err := d.parseValue(n)
		if err != nil {
			return nil, err
		}
		return ast.Specific(v), nil

	case yaml.SequenceNode:
		elems, err := d.parseTemplateList(n)
		if err != nil {
			return nil, err
		}
		return ast.TList(elems...).At(span), nil

	case yaml.MappingNode:
		if key, val, ok := singleKey(n); ok {
			if kind, ok := matchingKeys[key]; ok {
				if err := d.expectKind(val, yaml.SequenceNode, "a list of templates"); err != nil {
					return nil, err
				}
				elems, err := d.parseTemplateList(val)
				if err != nil {
					return nil, err
				}
				return ast.Matching(kind, elems...).At(span), nil
			}
			switch key {
			case "range":
				return d.parseRangeTemplate(val)
			case "indexed":
				return d.parseIndexedTemplate(val)
			case "expr":
				return ast.Specific(ast.Expression().At(span)), nil
			}
		}
		var named []*ast.NamedTemplate
		err := pairs(n, func(k, v *yaml.Node) error {
			t, err := d.parseTemplate(v)
			if err != nil {
				return err
			}
			named = append(named, &ast.NamedTemplate{Name: k.Value, Template: t, Span: d.span(k)})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ast.TNamedList(named...).At(span), nil
	}

	return nil, d.errorf(n, "a template was expected")
}

func (d *Document) parseTemplateList(n *yaml.Node) ([]*ast.Template, error) {
	elems := make([]*ast.Template, 0, len(n.Content))
	for _, item := range n.Content {
		t, err := d.parseTemplate(item)
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
	}
	return elems, nil
}

func (d *Document) parseRangeTemplate(n *yaml.Node) (*ast.Template, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, d.errorf(n, "a range [lower, upper] was expected")
	}
	bound := func(b *yaml.Node, infinity string) (*ast.Value, error) {
		b = deref(b)
		if b.Kind == yaml.ScalarNode && b.Value == infinity {
			return nil, nil
		}
		return d.parseValue(b)
	}
	lo, err := bound(n.Content[0], "-infinity")
	if err != nil {
		return nil, err
	}
	hi, err := bound(n.Content[1], "infinity")
	if err != nil {
		return nil, err
	}
	return ast.Range(lo, hi).At(d.span(n)), nil
}

func (d *Document) parseIndexedTemplate(n *yaml.Node) (*ast.Template, error) {
	if err := d.expectKind(n, yaml.SequenceNode, "a list of [index, template] pairs"); err != nil {
		return nil, err
	}
	elems := make([]*ast.IndexedTemplate, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
			return nil, d.errorf(item, "an [index, template] pair was expected")
		}
		idx, err := d.intScalar(deref(item.Content[0]))
		if err != nil {
			return nil, err
		}
		t, err := d.parseTemplate(item.Content[1])
		if err != nil {
			return nil, err
		}
		elems = append(elems, &ast.IndexedTemplate{Index: idx, Template: t, Span: d.span(item)})
	}
	return ast.TIndexedList(elems...).At(d.span(n)), nil
}
