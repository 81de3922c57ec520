package conformance

import (
	"slices"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/errors"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Completeness tells which elements a template list has to give
type Completeness int

const (
	// MustComplete: every field is given, "-" is rejected
	MustComplete Completeness = iota
	// MayIncomplete: any field may be left out or given as "-"
	MayIncomplete
	// Partial: a modified template; fields and "-" fall back to the base
	Partial
)

func (c Completeness) String() string {
	switch c {
	case MayIncomplete:
		return "may be incomplete"
	case Partial:
		return "partial"
	default:
		return "must be complete"
	}
}

// TemplateOptions controls CheckTemplate
type TemplateOptions struct {
	IsModified   bool // also implied by a non-nil Base
	ImplicitOmit bool
	Incomplete   bool
}

type tmplCtx struct {
	incomplete   bool
	implicitOmit bool
	omitAllowed  bool
	mandatory    bool // a field that is not optional
	modified     bool
	base         *ast.Template
}

func (c tmplCtx) completeness() Completeness {
	switch {
	case c.incomplete:
		return MayIncomplete
	case c.modified && c.base != nil && isListTemplate(c.base):
		return Partial
	default:
		return MustComplete
	}
}

func (c tmplCtx) field(f *types.Field, base *ast.Template) tmplCtx {
	return tmplCtx{
		incomplete:   c.incomplete,
		implicitOmit: c.implicitOmit,
		omitAllowed:  f.Optional,
		mandatory:    !f.Optional,
		modified:     c.modified,
		base:         base,
	}
}

func (c tmplCtx) element(base *ast.Template) tmplCtx {
	return tmplCtx{
		incomplete:   c.incomplete,
		implicitOmit: c.implicitOmit,
		modified:     c.modified,
		base:         base,
	}
}

func isListTemplate(t *ast.Template) bool {
	switch t.Kind {
	case ast.TemplateNamedList, ast.TemplateList, ast.TemplateIndexedList:
		return true
	default:
		return false
	}
}

// CheckTemplate checks tmpl against t. A template with a Base is checked
// as a modification of it.
func CheckTemplate(p *types.Pass, t *types.Type, tmpl *ast.Template, opts TemplateOptions) bool {
	if t == nil || tmpl == nil {
		errors.NilCollaborator(p.Log, "type or template")
		return true
	}
	ctx := tmplCtx{
		incomplete:   opts.Incomplete,
		implicitOmit: opts.ImplicitOmit,
		omitAllowed:  true,
		modified:     opts.IsModified || tmpl.Base != nil,
		base:         tmpl.Base,
	}
	return checkTemplate(p, t, tmpl, ctx)
}

// CompletenessOf reports the mode CheckTemplate applies to the top-level
// list of tmpl
func CompletenessOf(tmpl *ast.Template, opts TemplateOptions) Completeness {
	ctx := tmplCtx{
		incomplete: opts.Incomplete,
		modified:   opts.IsModified || tmpl.Base != nil,
		base:       tmpl.Base,
	}
	return ctx.completeness()
}

func checkTemplate(p *types.Pass, t *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	t.Check(p)
	tmpl.Governor = t
	last := t.Last(p)
	if last.IsErroneous() {
		return true
	}

	switch tmpl.Kind {
	case ast.TemplateSpecific:
		return CheckValue(p, t, tmpl.Value, ValueOptions{
			Expected:     ExpectedTemplate,
			Incomplete:   ctx.incomplete,
			OmitAllowed:  ctx.omitAllowed,
			SubCheck:     true,
			ImplicitOmit: ctx.implicitOmit,
		})

	case ast.TemplateOmit:
		if !ctx.omitAllowed {
			p.Errorf(tmpl.Span, "`omit' value is not allowed in this context")
			return false
		}
		return true

	case ast.TemplateAnyOrOmit:
		if ctx.mandatory {
			p.Errorf(tmpl.Span, "Using `*' for mandatory field")
			return false
		}
		return true

	case ast.TemplateAnyValue:
		return true

	case ast.TemplateNotUsed:
		if !ctx.incomplete {
			p.Errorf(tmpl.Span, "Not used symbol (`-') is not allowed in this context")
			return false
		}
		return true

	case ast.TemplateValueList, ast.TemplateComplement:
		ok := true
		sub := ctx
		sub.base = nil
		for _, m := range tmpl.Elements {
			if !checkTemplate(p, t, m, sub) {
				ok = false
			}
		}
		return ok

	case ast.TemplateRange:
		return checkRangeTemplate(p, t, last, tmpl)

	case ast.TemplatePermutation:
		p.Errorf(tmpl.Span, "Permutation match can be used only inside a value list template of a record of or array type")
		return false

	case ast.TemplateSubset, ast.TemplateSuperset:
		return checkMatchingSet(p, t, last, tmpl, ctx)

	case ast.TemplateNamedList, ast.TemplateList, ast.TemplateIndexedList:
		return checkListShapedTemplate(p, t, last, tmpl, ctx)

	default:
		errors.UnexpectedKind(p.Log, "checkTemplate", tmpl.Kind.String())
		return true
	}
}

func checkListShapedTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	switch {
	case last.Kind == types.TypeKindRecord || last.Kind == types.TypeKindSet:
		switch tmpl.Kind {
		case ast.TemplateNamedList:
			return checkNamedStructTemplate(p, t, last, tmpl, ctx)
		case ast.TemplateList:
			if last.Kind == types.TypeKindSet {
				if len(tmpl.Elements) == 0 && last.Fields().Len() == 0 {
					return true
				}
				p.Errorf(tmpl.Span, "Value list notation cannot be used for set type `%s'", t)
				return false
			}
			return checkPositionalRecordTemplate(p, t, last, tmpl, ctx)
		}

	case last.Kind == types.TypeKindChoice || last.Kind == types.TypeKindAnytype:
		if tmpl.Kind == ast.TemplateNamedList {
			return checkUnionTemplate(p, t, last, tmpl, ctx)
		}

	case last.Kind.IsList():
		switch tmpl.Kind {
		case ast.TemplateNamedList:
			if len(tmpl.Named) == 0 {
				return true
			}
		case ast.TemplateList:
			return checkListTemplate(p, t, last, tmpl, ctx)
		case ast.TemplateIndexedList:
			return checkIndexedTemplate(p, t, last, tmpl, ctx)
		}
	}

	p.Errorf(tmpl.Span, "Template with %s cannot be used for type `%s'", tmpl.Kind, t)
	return false
}

// notUsedAllowed decides whether "-" may stand where base is the
// corresponding element of the base template
func notUsedAllowed(p *types.Pass, mode Completeness, base, node *ast.Template) bool {
	switch mode {
	case MayIncomplete:
		return true
	case Partial:
		if base != nil {
			return true
		}
		p.Errorf(node.Span, "Not used symbol (`-') cannot be used here because there is no corresponding element in the base template")
		return false
	default:
		p.Errorf(node.Span, "Not used symbol (`-') is not allowed in this context")
		return false
	}
}

// baseField finds the element of the base template chain that stands for
// the field called name at declaration index idx
func baseField(base *ast.Template, name string, idx int) *ast.Template {
	for b := base; b != nil; b = b.Base {
		var found *ast.Template
		switch b.Kind {
		case ast.TemplateNamedList:
			for _, n := range b.Named {
				if n.Name == name {
					found = n.Template
					break
				}
			}
		case ast.TemplateList:
			if idx >= 0 && idx < len(b.Elements) {
				found = b.Elements[idx]
			}
		}
		if found != nil && found.Kind != ast.TemplateNotUsed {
			return found
		}
	}
	return nil
}

// baseElement finds the element at index idx of a list base template chain
func baseElement(base *ast.Template, idx int) *ast.Template {
	for b := base; b != nil; b = b.Base {
		var found *ast.Template
		switch b.Kind {
		case ast.TemplateList:
			if idx < len(b.Elements) {
				found = b.Elements[idx]
			}
		case ast.TemplateIndexedList:
			for _, e := range b.Indexed {
				if e.Index == int64(idx) {
					found = e.Template
					break
				}
			}
		}
		if found != nil && found.Kind != ast.TemplateNotUsed {
			return found
		}
	}
	return nil
}

// baseLastField returns the field with the highest declaration index that
// the base template chain gives, or -1
func baseLastField(base *ast.Template, fields *types.FieldMap) int {
	highest := -1
	for b := base; b != nil; b = b.Base {
		switch b.Kind {
		case ast.TemplateNamedList:
			for _, n := range b.Named {
				if i := fields.IndexOf(n.Name); i > highest {
					highest = i
				}
			}
		case ast.TemplateList:
			if i := len(b.Elements) - 1; i > highest && i < fields.Len() {
				highest = i
			}
		}
	}
	return highest
}

func namedTemplateEntries(named []*ast.NamedTemplate) []namedEntry {
	out := make([]namedEntry, len(named))
	for i, n := range named {
		out[i] = namedEntry{name: n.Name, span: n.Span}
	}
	return out
}

func checkNamedStructTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	fields := last.Fields()
	mode := ctx.completeness()
	isRecord := last.Kind == types.TypeKindRecord

	scan := scanNamed(p, t, last, namedTemplateEntries(tmpl.Named), "template", isRecord && mode == MustComplete)
	ok := scan.ok

	// a modified record template may only add fields the base could have
	// given before its last one
	if isRecord && mode == Partial {
		if lastIdx := baseLastField(ctx.base, fields); lastIdx >= 0 {
			for i, nt := range tmpl.Named {
				fi := scan.fieldIndex[i]
				if fi <= lastIdx || nt.Implicit || baseField(ctx.base, nt.Name, fi) != nil {
					continue
				}
				p.Errorf(nt.Span, "Field `%s' cannot appear after field `%s' in a modified template for record type `%s'",
					nt.Name, fields.ByIndex(lastIdx).Name, t)
				ok = false
			}
		}
	}

	for i, nt := range tmpl.Named {
		fi := scan.fieldIndex[i]
		if fi < 0 {
			continue
		}
		f := fields.ByIndex(fi)
		base := baseField(ctx.base, f.Name, fi)
		if nt.Template.Kind == ast.TemplateNotUsed {
			nt.Template.Governor = f.Type
			if !notUsedAllowed(p, mode, base, nt.Template) {
				ok = false
			}
			continue
		}
		if !checkTemplate(p, f.Type, nt.Template, ctx.field(f, base)) {
			ok = false
		}
	}

	if mode == MayIncomplete {
		return ok
	}
	order := slices.Clone(scan.fieldIndex)
	for i, f := range fields.All() {
		if fields.IndexOf(f.Name) != i || scan.present[f.Name] {
			continue
		}
		if mode == Partial && baseField(ctx.base, f.Name, i) != nil {
			continue
		}
		if f.Optional && ctx.implicitOmit {
			omit := ast.OmitTemplate().At(tmpl.Span)
			omit.Governor = f.Type
			nt := ast.TField(f.Name, omit)
			nt.Implicit = true
			at := insertPos(order, i)
			tmpl.Named = slices.Insert(tmpl.Named, at, nt)
			order = slices.Insert(order, at, i)
			continue
		}
		p.Errorf(tmpl.Span, "Field `%s' is missing from template for %s type `%s'", f.Name, kindWord(last), t)
		ok = false
	}

	return ok
}

func checkPositionalRecordTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	fields := last.Fields()
	n := fields.Len()
	mode := ctx.completeness()
	ok := true

	if len(tmpl.Elements) > n {
		p.Errorf(tmpl.Span, "Too many elements in value list notation for type `%s': %d was expected instead of %d", t, n, len(tmpl.Elements))
		ok = false
	}

	for i, e := range tmpl.Elements {
		if i >= n {
			break
		}
		f := fields.ByIndex(i)
		base := baseField(ctx.base, f.Name, i)
		if e.Kind == ast.TemplateNotUsed {
			e.Governor = f.Type
			if !notUsedAllowed(p, mode, base, e) {
				ok = false
			}
			continue
		}
		if !checkTemplate(p, f.Type, e, ctx.field(f, base)) {
			ok = false
		}
	}

	if len(tmpl.Elements) >= n || mode == MayIncomplete {
		return ok
	}

	rest := fields.All()[len(tmpl.Elements):]
	missing := false
	for j, f := range rest {
		if mode == Partial && baseField(ctx.base, f.Name, len(tmpl.Elements)+j) != nil {
			continue
		}
		missing = true
	}
	switch {
	case !missing:
	case ctx.implicitOmit && allOptional(rest):
		for _, f := range rest {
			omit := ast.OmitTemplate().At(tmpl.Span)
			omit.Governor = f.Type
			tmpl.Elements = append(tmpl.Elements, omit)
		}
	default:
		p.Errorf(tmpl.Span, "Too few elements in value list notation for type `%s': %d was expected instead of %d", t, n, len(tmpl.Elements))
		ok = false
	}
	return ok
}

func checkUnionTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	scan := scanNamed(p, t, last, namedTemplateEntries(tmpl.Named), "template", false)
	ok := checkUnionArity(p, last, tmpl.Span, len(tmpl.Named), "template") && scan.ok

	fields := last.Fields()
	for i, nt := range tmpl.Named {
		fi := scan.fieldIndex[i]
		if fi < 0 {
			continue
		}
		f := fields.ByIndex(fi)
		sub := ctx.field(f, baseField(ctx.base, f.Name, -1))
		sub.omitAllowed = false
		sub.mandatory = true
		if !checkTemplate(p, f.Type, nt.Template, sub) {
			ok = false
		}
	}
	return ok
}

func checkListTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	elem := last.Element()
	mode := ctx.completeness()
	ok := true
	count := 0
	variable := false

	for i, e := range tmpl.Elements {
		switch e.Kind {
		case ast.TemplateNotUsed:
			count++
			e.Governor = elem
			if !notUsedAllowed(p, mode, baseElement(ctx.base, i), e) {
				ok = false
			}

		case ast.TemplateAnyOrOmit:
			variable = true
			e.Governor = elem

		case ast.TemplatePermutation:
			e.Governor = t
			if last.Kind == types.TypeKindSetOf {
				p.Errorf(e.Span, "Permutation match cannot be used inside a template of set of type `%s'", t)
				ok = false
				continue
			}
			for _, m := range e.Elements {
				if m.Kind == ast.TemplateAnyOrOmit {
					variable = true
					m.Governor = elem
					continue
				}
				count++
				if !checkTemplate(p, elem, m, ctx.element(nil)) {
					ok = false
				}
			}

		default:
			count++
			if !checkTemplate(p, elem, e, ctx.element(baseElement(ctx.base, i))) {
				ok = false
			}
		}
	}

	if last.Kind == types.TypeKindArray && !variable {
		size := last.Dimension().Size
		switch {
		case count > size:
			p.Errorf(tmpl.Span, "Too many elements in the array template: %d was expected instead of %d", size, count)
			ok = false
		case count < size && mode == MustComplete:
			p.Errorf(tmpl.Span, "Too few elements in the array template: %d was expected instead of %d", size, count)
			ok = false
		}
	}

	return ok
}

// checkIndexedTemplate validates indices like indexed values do; templates
// are patterns, so gaps between indices are allowed
func checkIndexedTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	entries := make([]indexEntry, len(tmpl.Indexed))
	for i, it := range tmpl.Indexed {
		entries[i] = indexEntry{index: it.Index, span: it.Span}
	}
	valid, ok := checkIndices(p, t, last, entries)

	elem := last.Element()
	for i, it := range tmpl.Indexed {
		if !valid[i] {
			continue
		}
		if !checkTemplate(p, elem, it.Template, ctx.element(baseElement(ctx.base, int(it.Index)))) {
			ok = false
		}
	}
	return ok
}

func checkMatchingSet(p *types.Pass, t, last *types.Type, tmpl *ast.Template, ctx tmplCtx) bool {
	if !last.Kind.IsList() {
		p.Errorf(tmpl.Span, "Template with %s cannot be used for type `%s'", tmpl.Kind, t)
		return false
	}

	elem := last.Element()
	members := tmplCtx{incomplete: true, implicitOmit: ctx.implicitOmit}
	ok := true
	for _, m := range tmpl.Elements {
		if m.Kind == ast.TemplateAnyOrOmit {
			m.Governor = elem
			if tmpl.Kind == ast.TemplateSubset {
				p.Warnf(m.Span, "`*' in a subset template matches everything")
			} else {
				p.Warnf(m.Span, "`*' in a superset template has no effect")
			}
			continue
		}
		if !checkTemplate(p, elem, m, members) {
			ok = false
		}
	}
	return ok
}

func checkRangeTemplate(p *types.Pass, t, last *types.Type, tmpl *ast.Template) bool {
	switch last.Kind {
	case types.TypeKindInteger, types.TypeKindFloat, types.TypeKindCharstring, types.TypeKindUniversalString:
	default:
		p.Errorf(tmpl.Span, "Value range match cannot be used for type `%s'", t)
		return false
	}

	opts := ValueOptions{Expected: ExpectedTemplate, StrElem: last.Kind.IsString()}
	ok := true
	for _, bound := range []*ast.Value{tmpl.Lower, tmpl.Upper} {
		if bound != nil && !CheckValue(p, t, bound, opts) {
			ok = false
		}
	}
	if !ok || tmpl.Lower == nil || tmpl.Upper == nil {
		return ok
	}

	lo, hi := tmpl.Lower, tmpl.Upper
	if lo.Kind != hi.Kind {
		return true
	}
	inverted := false
	switch lo.Kind {
	case ast.ValueInteger:
		inverted = lo.Int > hi.Int
	case ast.ValueFloat:
		inverted = lo.Float > hi.Float
	case ast.ValueCharstring, ast.ValueUniversalString:
		inverted = lo.Text > hi.Text
	}
	if inverted {
		p.Errorf(tmpl.Span, "The lower boundary is higher than the upper boundary")
		return false
	}
	return true
}
