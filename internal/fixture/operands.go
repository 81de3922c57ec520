package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/position"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// operands parses src as the inside of a YAML flow sequence and expects n
// items. The returned document shares every declaration with d; only
// positions refer to src.
func (d *Document) operands(src string, n int) (*Document, []*yaml.Node, error) {
	text := "[" + src + "]"
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, nil, fmt.Errorf("parse operands: %w", err)
	}

	q := *d
	q.Source = position.NewSourceFile("<input>", text)

	seq := deref(root.Content[0])
	if len(seq.Content) != n {
		return nil, nil, fmt.Errorf("%d operands were expected instead of %d", n, len(seq.Content))
	}
	for i := range seq.Content {
		seq.Content[i] = deref(seq.Content[i])
	}
	return &q, seq.Content, nil
}

// ParseTypes parses n comma separated type expressions written in
// fixture syntax, e.g. `Ints, {record_of: integer}`.
func (d *Document) ParseTypes(src string, n int) ([]*types.Type, error) {
	q, nodes, err := d.operands(src, n)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Type, 0, n)
	for _, node := range nodes {
		t, err := q.parseType(node)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseTypedValue parses `type, value`
func (d *Document) ParseTypedValue(src string) (*types.Type, *ast.Value, error) {
	q, nodes, err := d.operands(src, 2)
	if err != nil {
		return nil, nil, err
	}
	t, err := q.parseType(nodes[0])
	if err != nil {
		return nil, nil, err
	}
	v, err := q.parseValue(nodes[1])
	if err != nil {
		return nil, nil, err
	}
	return t, v, nil
}

// ParseTypedTemplate parses `type, template`
func (d *Document) ParseTypedTemplate(src string) (*types.Type, *ast.Template, error) {
	q, nodes, err := d.operands(src, 2)
	if err != nil {
		return nil, nil, err
	}
	t, err := q.parseType(nodes[0])
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := q.parseTemplate(nodes[1])
	if err != nil {
		return nil, nil, err
	}
	return t, tmpl, nil
}
