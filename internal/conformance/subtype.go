package conformance

import (
	"unicode/utf8"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// CheckSubtypeValue checks v against the subtype restrictions of t and
// of the types t refers to. Values whose size or magnitude is not known
// (references, expressions, omit) are accepted.
func CheckSubtypeValue(p *types.Pass, t *types.Type, v *ast.Value) bool {
	restrictions := t.SubTypes(p)
	if len(restrictions) == 0 {
		return true
	}

	for _, s := range restrictions {
		var ok bool
		switch v.Kind {
		case ast.ValueInteger:
			ok = s.AllowsInt(v.Int)
		case ast.ValueCharstring, ast.ValueUniversalString:
			ok = s.AllowsLength(utf8.RuneCountInString(v.Text))
		case ast.ValueBitstring, ast.ValueHexstring:
			ok = s.AllowsLength(len(v.Text))
		case ast.ValueOctetstring:
			ok = s.AllowsLength(len(v.Text) / 2)
		case ast.ValueList:
			ok = s.AllowsLength(len(v.Elements))
		case ast.ValueIndexedList:
			ok = s.AllowsLength(len(v.Indexed))
		case ast.ValueNamedList:
			if t.Last(p).Kind.IsList() {
				ok = s.AllowsLength(len(v.Named))
			} else {
				ok = true
			}
		default:
			ok = true
		}

		if !ok {
			p.Errorf(v.Span, "%s is not a valid value for type `%s' which has subtype %s", v, t, s)
			return false
		}
	}
	return true
}
