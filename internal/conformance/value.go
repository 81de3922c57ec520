package conformance

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/errors"
	"github.com/orizon-lang/ttcheck/internal/types"
)

// Expected is the category of value a context requires
type Expected int

const (
	ExpectedConstant Expected = iota // compile-time constant: no holes
	ExpectedDynamic
	ExpectedTemplate // specific value inside a template
)

func (e Expected) String() string {
	switch e {
	case ExpectedConstant:
		return "constant"
	case ExpectedDynamic:
		return "dynamic"
	default:
		return "template"
	}
}

// ValueOptions controls CheckValue
type ValueOptions struct {
	Expected     Expected
	Incomplete   bool // "-" and missing fields are accepted
	OmitAllowed  bool
	SubCheck     bool // also check subtype restrictions
	ImplicitOmit bool // missing optional fields become omit
	StrElem      bool // a single string element is expected
}

var verdicts = map[string]bool{"none": true, "pass": true, "inconc": true, "fail": true, "error": true}

// CheckValue checks v against t and records t as v's governor.
// Erroneous types accept every value.
func CheckValue(p *types.Pass, t *types.Type, v *ast.Value, opts ValueOptions) bool {
	if t == nil || v == nil {
		errors.NilCollaborator(p.Log, "type or value")
		return true
	}

	t.Check(p)
	v.Governor = t
	last := t.Last(p)
	if last.IsErroneous() {
		return true
	}

	switch v.Kind {
	case ast.ValueOmit:
		if !opts.OmitAllowed {
			p.Errorf(v.Span, "`omit' value is not allowed in this context")
			return false
		}
		return true
	case ast.ValueNotUsed:
		if !opts.Incomplete {
			p.Errorf(v.Span, "Not used symbol (`-') is not allowed in this context")
			return false
		}
		return true
	case ast.ValueExpression:
		return true
	case ast.ValueReference:
		return checkReferenceValue(p, t, v)
	}

	var ok bool
	switch last.Kind {
	case types.TypeKindBoolean, types.TypeKindInteger, types.TypeKindFloat,
		types.TypeKindBitstring, types.TypeKindHexstring, types.TypeKindOctetstring,
		types.TypeKindCharstring, types.TypeKindUniversalString,
		types.TypeKindVerdict, types.TypeKindEnumerated:
		ok = checkLeafValue(p, t, last, v, opts)

	case types.TypeKindRecord, types.TypeKindSet:
		ok = checkStructValue(p, t, last, v, opts)

	case types.TypeKindChoice, types.TypeKindAnytype:
		ok = checkUnionValue(p, t, last, v, opts)

	case types.TypeKindRecordOf, types.TypeKindSetOf, types.TypeKindArray:
		ok = checkListValue(p, t, last, v, opts)

	case types.TypeKindComponent, types.TypeKindFunction, types.TypeKindTestcase, types.TypeKindSignature:
		p.Errorf(v.Span, "Reference to a value of %s type `%s' was expected instead of %s", last.Kind, t, v.Kind)
		ok = false

	default:
		errors.UnexpectedKind(p.Log, "CheckValue", last.Kind.String())
		return true
	}

	if ok && opts.SubCheck {
		ok = CheckSubtypeValue(p, t, v)
	}
	return ok
}

func checkReferenceValue(p *types.Pass, t *types.Type, v *ast.Value) bool {
	if v.RefType == nil {
		// the unresolved reference was reported where it was built
		return true
	}
	info := types.NewCompatInfo(t, v.RefType)
	if !types.IsCompatible(p, t, v.RefType, info) {
		p.Errorf(v.Span, "%s", info.Error())
		return false
	}
	return true
}

func expectValueKind(p *types.Pass, v *ast.Value, msg string, kinds ...ast.ValueKind) bool {
	for _, k := range kinds {
		if v.Kind == k {
			return true
		}
	}
	p.Errorf(v.Span, "%s", msg)
	return false
}

func checkLeafValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	switch last.Kind {
	case types.TypeKindBoolean:
		return expectValueKind(p, v, "boolean value was expected", ast.ValueBoolean)
	case types.TypeKindInteger:
		return expectValueKind(p, v, "integer value was expected", ast.ValueInteger)
	case types.TypeKindFloat:
		return expectValueKind(p, v, "float value was expected", ast.ValueFloat)

	case types.TypeKindBitstring:
		if !expectValueKind(p, v, "bitstring value was expected", ast.ValueBitstring) {
			return false
		}
		return checkStringDigits(p, v, "01", "bitstring") && checkStrElem(p, v, len(v.Text), opts)
	case types.TypeKindHexstring:
		if !expectValueKind(p, v, "hexstring value was expected", ast.ValueHexstring) {
			return false
		}
		return checkStringDigits(p, v, hexDigits, "hexstring") && checkStrElem(p, v, len(v.Text), opts)
	case types.TypeKindOctetstring:
		if !expectValueKind(p, v, "octetstring value was expected", ast.ValueOctetstring) {
			return false
		}
		if !checkStringDigits(p, v, hexDigits, "octetstring") {
			return false
		}
		if len(v.Text)%2 != 0 {
			p.Errorf(v.Span, "octetstring value contains odd number of hexadecimal digits")
			return false
		}
		return checkStrElem(p, v, len(v.Text)/2, opts)

	case types.TypeKindCharstring:
		if !expectValueKind(p, v, "character string value was expected", ast.ValueCharstring) {
			return false
		}
		return checkStrElem(p, v, utf8.RuneCountInString(v.Text), opts)
	case types.TypeKindUniversalString:
		if !expectValueKind(p, v, "character string value was expected", ast.ValueCharstring, ast.ValueUniversalString) {
			return false
		}
		return checkStrElem(p, v, utf8.RuneCountInString(v.Text), opts)

	case types.TypeKindVerdict:
		if (v.Kind == ast.ValueVerdict || v.Kind == ast.ValueEnumerated) && verdicts[v.Text] {
			return true
		}
		p.Errorf(v.Span, "verdict value was expected")
		return false

	case types.TypeKindEnumerated:
		if !expectValueKind(p, v, "Enumerated value was expected", ast.ValueEnumerated) {
			return false
		}
		if last.EnumItem(v.Text) == nil {
			p.Errorf(v.Span, "`%s' is not a valid enumeration item of type `%s'", v.Text, t)
			return false
		}
		return true
	}

	errors.UnexpectedKind(p.Log, "checkLeafValue", last.Kind.String())
	return true
}

const hexDigits = "0123456789ABCDEFabcdef"

func checkStringDigits(p *types.Pass, v *ast.Value, digits, what string) bool {
	for _, r := range v.Text {
		if !strings.ContainsRune(digits, r) {
			p.Errorf(v.Span, "%s value contains invalid character `%c'", what, r)
			return false
		}
	}
	return true
}

func checkStrElem(p *types.Pass, v *ast.Value, n int, opts ValueOptions) bool {
	if opts.StrElem && n != 1 {
		p.Errorf(v.Span, "The length of the string must be exactly 1 instead of %d when it is used as a string element", n)
		return false
	}
	return true
}

func namedEntries(named []*ast.NamedValue) []namedEntry {
	out := make([]namedEntry, len(named))
	for i, n := range named {
		out[i] = namedEntry{name: n.Name, span: n.Span}
	}
	return out
}

func checkStructValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	switch v.Kind {
	case ast.ValueNamedList:
		return checkNamedStructValue(p, t, last, v, opts)
	case ast.ValueList:
		if last.Kind == types.TypeKindSet {
			if len(v.Elements) == 0 && last.Fields().Len() == 0 {
				return true
			}
			p.Errorf(v.Span, "Value list notation cannot be used for set type `%s'", t)
			return false
		}
		return checkPositionalRecordValue(p, t, last, v, opts)
	default:
		p.Errorf(v.Span, "%s value was expected for type `%s' instead of %s", kindWord(last), t, v.Kind)
		return false
	}
}

func fieldValueOptions(opts ValueOptions, f *types.Field) ValueOptions {
	sub := opts
	sub.OmitAllowed = f.Optional
	sub.StrElem = false
	return sub
}

func checkNamedStructValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	fields := last.Fields()
	checkOrder := last.Kind == types.TypeKindRecord && !opts.Incomplete
	scan := scanNamed(p, t, last, namedEntries(v.Named), "value", checkOrder)
	ok := scan.ok

	for i, nv := range v.Named {
		fi := scan.fieldIndex[i]
		if fi < 0 {
			continue
		}
		if !CheckValue(p, fields.ByIndex(fi).Type, nv.Value, fieldValueOptions(opts, fields.ByIndex(fi))) {
			ok = false
		}
	}

	order := slices.Clone(scan.fieldIndex)
	for i, f := range fields.All() {
		if fields.IndexOf(f.Name) != i || scan.present[f.Name] {
			continue
		}
		switch {
		case f.Optional && opts.ImplicitOmit:
			omit := ast.Omit().At(v.Span)
			omit.Governor = f.Type
			at := insertPos(order, i)
			v.Named = slices.Insert(v.Named, at, &ast.NamedValue{Name: f.Name, Value: omit, Span: v.Span, Implicit: true})
			order = slices.Insert(order, at, i)
		case opts.Incomplete:
		default:
			p.Errorf(v.Span, "Field `%s' is missing from %s value", f.Name, kindWord(last))
			ok = false
		}
	}

	return ok
}

func checkPositionalRecordValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	fields := last.Fields()
	n := fields.Len()
	ok := true

	if len(v.Elements) > n {
		p.Errorf(v.Span, "Too many elements in value list notation for type `%s': %d was expected instead of %d", t, n, len(v.Elements))
		ok = false
	}

	for i, e := range v.Elements {
		if i >= n {
			break
		}
		f := fields.ByIndex(i)
		if !CheckValue(p, f.Type, e, fieldValueOptions(opts, f)) {
			ok = false
		}
	}

	if len(v.Elements) < n {
		rest := fields.All()[len(v.Elements):]
		switch {
		case opts.ImplicitOmit && allOptional(rest):
			for _, f := range rest {
				omit := ast.Omit().At(v.Span)
				omit.Governor = f.Type
				v.Elements = append(v.Elements, omit)
			}
		case opts.Incomplete:
		default:
			p.Errorf(v.Span, "Too few elements in value list notation for type `%s': %d was expected instead of %d", t, n, len(v.Elements))
			ok = false
		}
	}

	return ok
}

func allOptional(fields []*types.Field) bool {
	for _, f := range fields {
		if !f.Optional {
			return false
		}
	}
	return true
}

func checkUnionValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	if v.Kind != ast.ValueNamedList {
		p.Errorf(v.Span, "%s value was expected for type `%s' instead of %s", kindWord(last), t, v.Kind)
		return false
	}

	scan := scanNamed(p, t, last, namedEntries(v.Named), "value", false)
	ok := checkUnionArity(p, last, v.Span, len(v.Named), "value") && scan.ok

	fields := last.Fields()
	for i, nv := range v.Named {
		fi := scan.fieldIndex[i]
		if fi < 0 {
			continue
		}
		sub := opts
		sub.OmitAllowed = false
		sub.StrElem = false
		if !CheckValue(p, fields.ByIndex(fi).Type, nv.Value, sub) {
			ok = false
		}
	}
	return ok
}

func elementValueOptions(opts ValueOptions) ValueOptions {
	sub := opts
	sub.OmitAllowed = false
	sub.StrElem = false
	return sub
}

func checkListValue(p *types.Pass, t, last *types.Type, v *ast.Value, opts ValueOptions) bool {
	elem := last.Element()

	switch v.Kind {
	case ast.ValueNamedList:
		if len(v.Named) == 0 {
			return true
		}
		p.Errorf(v.Span, "Assignment notation cannot be used for %s type `%s'", last.Kind, t)
		return false

	case ast.ValueList:
		ok := true
		if last.Kind == types.TypeKindArray {
			size := last.Dimension().Size
			switch {
			case len(v.Elements) > size:
				p.Errorf(v.Span, "Too many elements in the array value: %d was expected instead of %d", size, len(v.Elements))
				ok = false
			case len(v.Elements) < size && !opts.Incomplete:
				p.Errorf(v.Span, "Too few elements in the array value: %d was expected instead of %d", size, len(v.Elements))
				ok = false
			}
		}
		for _, e := range v.Elements {
			if !CheckValue(p, elem, e, elementValueOptions(opts)) {
				ok = false
			}
		}
		return ok

	case ast.ValueIndexedList:
		entries := make([]indexEntry, len(v.Indexed))
		for i, iv := range v.Indexed {
			entries[i] = indexEntry{index: iv.Index, span: iv.Span}
		}
		valid, ok := checkIndices(p, t, last, entries)

		for i, iv := range v.Indexed {
			if !valid[i] {
				continue
			}
			if !CheckValue(p, elem, iv.Value, elementValueOptions(opts)) {
				ok = false
			}
		}

		if opts.Expected == ExpectedConstant {
			base := int64(0)
			if last.Kind == types.TypeKindArray {
				base = int64(last.Dimension().Offset)
			}
			if hasHoles(entries, valid, base) {
				p.Errorf(v.Span, "It's not allowed to create hole(s) in constant values")
				ok = false
			}
		}
		return ok

	default:
		p.Errorf(v.Span, "%s value was expected for type `%s' instead of %s", last.Kind, t, v.Kind)
		return false
	}
}
