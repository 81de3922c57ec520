package fixture

import (
	"github.com/orizon-lang/ttcheck/internal/conformance"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Result is the answer to one query
type Result struct {
	Query  *Query
	Answer bool
	// Info describes the mismatch of a failed compatibility query
	Info *types.CompatInfo
}

// Run checks every declaration of the document in one pass and answers
// its queries. The pass resolves names through the document unless it
// already has a resolver.
func (d *Document) Run(p *types.Pass) []Result {
	if p.Resolver == nil {
		p.Resolver = d
	}

	for _, td := range d.Types {
		td.Type.Check(p)
	}

	for _, c := range d.Constants {
		expected := conformance.ExpectedConstant
		if c.Dynamic {
			expected = conformance.ExpectedDynamic
		}
		conformance.CheckValue(p, c.Type, c.Value, conformance.ValueOptions{
			Expected:     expected,
			SubCheck:     true,
			ImplicitOmit: c.ImplicitOmit,
		})
	}

	for _, t := range d.Templates {
		conformance.CheckTemplate(p, t.Type, t.Body, conformance.TemplateOptions{
			IsModified:   t.Modifies != "",
			ImplicitOmit: t.ImplicitOmit,
			Incomplete:   t.Incomplete,
		})
	}

	results := make([]Result, 0, len(d.Queries))
	for _, q := range d.Queries {
		results = append(results, d.answer(p, q))
	}
	return results
}

func (d *Document) answer(p *types.Pass, q *Query) Result {
	q.Left.Check(p)
	q.Right.Check(p)

	res := Result{Query: q}
	switch q.Kind {
	case QueryIdentical:
		res.Answer = types.IsIdentical(p, q.Left, q.Right)
	default:
		info := types.NewCompatInfo(q.Left, q.Right)
		res.Answer = types.IsCompatible(p, q.Left, q.Right, info)
		if !res.Answer {
			res.Info = info
		}
	}

	if q.Expect != nil && *q.Expect != res.Answer {
		p.Errorf(q.Span, "Query %s(%s, %s) answered %t instead of the expected %t", q.Kind, q.Left, q.Right, res.Answer, *q.Expect)
	}
	return res
}
