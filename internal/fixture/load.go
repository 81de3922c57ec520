package fixture

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/ttcheck/internal/cli"
	"github.com/orizon-lang/ttcheck/internal/position"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Load reads and parses a fixture file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(path, data)
}

// Parse builds a document from YAML source. Structural mistakes in the
// document are returned as errors; semantic mistakes in the declared
// types, values and templates are left for the checker to report.
func Parse(filename string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", filename, err)
	}

	src := position.NewSourceFile(filename, string(data))
	d := newDocument(src)

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("parse fixture %s: empty document", filename)
	}
	top := deref(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, d.errorf(top, "a mapping was expected at the top level")
	}

	sections := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], deref(top.Content[i+1])
		switch key.Value {
		case "module":
			d.Module = val.Value
		case "requires":
			d.Requires = val.Value
		case "types", "constants", "templates", "queries":
			sections[key.Value] = val
		default:
			return nil, d.errorf(key, "unknown section `%s'", key.Value)
		}
	}
	if d.Module == "" {
		return nil, d.errorf(top, "the `module' key is required")
	}
	if err := d.checkRequires(top); err != nil {
		return nil, err
	}

	// declarations are registered before any body is parsed so that bodies
	// may refer to names declared later
	if err := d.declareTypes(sections["types"]); err != nil {
		return nil, err
	}
	if err := d.declareConstants(sections["constants"]); err != nil {
		return nil, err
	}
	if err := d.declareTemplates(sections["templates"]); err != nil {
		return nil, err
	}
	if err := d.parseQueries(sections["queries"]); err != nil {
		return nil, err
	}
	if err := d.linkTemplates(); err != nil {
		return nil, err
	}

	return d, nil
}

// checkRequires matches the document's version constraint against the
// running tool
func (d *Document) checkRequires(at *yaml.Node) error {
	if d.Requires == "" {
		return nil
	}
	c, err := semver.NewConstraint(d.Requires)
	if err != nil {
		return d.errorf(at, "invalid version constraint %q: %v", d.Requires, err)
	}
	v, err := semver.NewVersion(cli.Version)
	if err != nil {
		return fmt.Errorf("tool version %q: %w", cli.Version, err)
	}
	if !c.Check(v) {
		return d.errorf(at, "module `%s' requires ttcheck %s, this is %s", d.Module, d.Requires, cli.Version)
	}
	return nil
}

func (d *Document) span(n *yaml.Node) position.Span {
	return position.Point(d.Source.Pos(n.Line, n.Column))
}

func (d *Document) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", d.Source.Pos(n.Line, n.Column), fmt.Sprintf(format, args...))
}

func (d *Document) define(key *yaml.Node, def *types.Definition) error {
	if prev, dup := d.defs[def.Name]; dup {
		return d.errorf(key, "duplicate definition `%s', previous %s declared at %s", def.Name, prev.Kind, prev.Span)
	}
	def.Module = d.Module
	def.Span = d.span(key)
	d.defs[def.Name] = def
	return nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// pairs iterates the key/value pairs of a mapping node
func pairs(n *yaml.Node, fn func(key, val *yaml.Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i], deref(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) expectKind(n *yaml.Node, kind yaml.Kind, what string) error {
	if n.Kind != kind {
		return d.errorf(n, "%s was expected", what)
	}
	return nil
}

func (d *Document) intScalar(n *yaml.Node) (int64, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, d.errorf(n, "an integer was expected instead of `%s'", n.Value)
	}
	i, err := strconv.ParseInt(n.Value, 0, 64)
	if err != nil {
		return 0, d.errorf(n, "integer `%s' is out of range", n.Value)
	}
	return i, nil
}

func (d *Document) boolScalar(n *yaml.Node) (bool, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false, d.errorf(n, "a boolean was expected instead of `%s'", n.Value)
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, d.errorf(n, "%v", err)
	}
	return b, nil
}

func (d *Document) declareTypes(section *yaml.Node) error {
	if section == nil {
		return nil
	}
	if err := d.expectKind(section, yaml.MappingNode, "a mapping of type declarations"); err != nil {
		return err
	}
	return pairs(section, func(key, val *yaml.Node) error {
		t, err := d.parseNamedType(val)
		if err != nil {
			return err
		}
		t.Named(d.Module, key.Value).At(d.span(key))
		if err := d.define(key, &types.Definition{Kind: types.DefinitionType, Name: key.Value, Type: t}); err != nil {
			return err
		}
		d.Types = append(d.Types, &TypeDef{Name: key.Value, Type: t})
		return nil
	})
}

func (d *Document) declareConstants(section *yaml.Node) error {
	if section == nil {
		return nil
	}
	if err := d.expectKind(section, yaml.MappingNode, "a mapping of constant declarations"); err != nil {
		return err
	}

	type pending struct {
		c    *Constant
		body *yaml.Node
	}
	var bodies []pending

	err := pairs(section, func(key, val *yaml.Node) error {
		if err := d.expectKind(val, yaml.MappingNode, "a constant declaration"); err != nil {
			return err
		}
		c := &Constant{Name: key.Value, Span: d.span(key)}
		var body *yaml.Node
		err := pairs(val, func(k, v *yaml.Node) error {
			var err error
			switch k.Value {
			case "type":
				c.Type, err = d.parseType(v)
			case "value":
				body = v
			case "dynamic":
				c.Dynamic, err = d.boolScalar(v)
			case "implicit_omit":
				c.ImplicitOmit, err = d.boolScalar(v)
			default:
				err = d.errorf(k, "unknown constant attribute `%s'", k.Value)
			}
			return err
		})
		if err != nil {
			return err
		}
		if c.Type == nil || body == nil {
			return d.errorf(key, "constant `%s' needs a type and a value", c.Name)
		}
		if err := d.define(key, &types.Definition{Kind: types.DefinitionConstant, Name: c.Name, Type: c.Type}); err != nil {
			return err
		}
		d.Constants = append(d.Constants, c)
		bodies = append(bodies, pending{c, body})
		return nil
	})
	if err != nil {
		return err
	}

	// values may refer to any constant, so they are parsed last
	for _, b := range bodies {
		v, err := d.parseValue(b.body)
		if err != nil {
			return err
		}
		b.c.Value = v
	}
	return nil
}

func (d *Document) declareTemplates(section *yaml.Node) error {
	if section == nil {
		return nil
	}
	if err := d.expectKind(section, yaml.MappingNode, "a mapping of template declarations"); err != nil {
		return err
	}
	return pairs(section, func(key, val *yaml.Node) error {
		if err := d.expectKind(val, yaml.MappingNode, "a template declaration"); err != nil {
			return err
		}
		t := &TemplateDef{Name: key.Value, Span: d.span(key)}
		err := pairs(val, func(k, v *yaml.Node) error {
			var err error
			switch k.Value {
			case "type":
				t.Type, err = d.parseType(v)
			case "body":
				t.Body, err = d.parseTemplate(v)
			case "modifies":
				t.Modifies = v.Value
			case "incomplete":
				t.Incomplete, err = d.boolScalar(v)
			case "implicit_omit":
				t.ImplicitOmit, err = d.boolScalar(v)
			default:
				err = d.errorf(k, "unknown template attribute `%s'", k.Value)
			}
			return err
		})
		if err != nil {
			return err
		}
		if t.Type == nil || t.Body == nil {
			return d.errorf(key, "template `%s' needs a type and a body", t.Name)
		}
		if err := d.define(key, &types.Definition{Kind: types.DefinitionTemplate, Name: t.Name, Type: t.Type}); err != nil {
			return err
		}
		d.Templates = append(d.Templates, t)
		return nil
	})
}

// linkTemplates attaches the base body of every modified template
func (d *Document) linkTemplates() error {
	byName := make(map[string]*TemplateDef, len(d.Templates))
	for _, t := range d.Templates {
		byName[t.Name] = t
	}

	for _, t := range d.Templates {
		if t.Modifies == "" {
			continue
		}
		base, ok := byName[t.Modifies]
		if !ok {
			return fmt.Errorf("%s: template `%s' modifies unknown template `%s'", t.Span, t.Name, t.Modifies)
		}
		seen := map[string]bool{t.Name: true}
		for b := base; b != nil; b = byName[b.Modifies] {
			if seen[b.Name] {
				return fmt.Errorf("%s: circular modification chain through template `%s'", t.Span, b.Name)
			}
			seen[b.Name] = true
		}
		t.Body.Modifies(base.Body)
	}
	return nil
}

func (d *Document) parseQueries(section *yaml.Node) error {
	if section == nil {
		return nil
	}
	if err := d.expectKind(section, yaml.SequenceNode, "a list of queries"); err != nil {
		return err
	}
	for _, item := range section.Content {
		item = deref(item)
		if err := d.expectKind(item, yaml.MappingNode, "a query"); err != nil {
			return err
		}
		q := &Query{Span: d.span(item)}
		found := false
		err := pairs(item, func(k, v *yaml.Node) error {
			switch k.Value {
			case "compatible", "identical":
				if found {
					return d.errorf(k, "a query asks exactly one question")
				}
				found = true
				if k.Value == "identical" {
					q.Kind = QueryIdentical
				}
				if v.Kind != yaml.SequenceNode || len(v.Content) != 2 {
					return d.errorf(v, "a query needs exactly two types")
				}
				var err error
				if q.Left, err = d.parseType(deref(v.Content[0])); err != nil {
					return err
				}
				q.Right, err = d.parseType(deref(v.Content[1]))
				return err
			case "expect":
				b, err := d.boolScalar(v)
				if err != nil {
					return err
				}
				q.Expect = &b
				return nil
			default:
				return d.errorf(k, "unknown query attribute `%s'", k.Value)
			}
		})
		if err != nil {
			return err
		}
		if !found {
			return d.errorf(item, "a query needs a `compatible' or `identical' key")
		}
		d.Queries = append(d.Queries, q)
	}
	return nil
}
