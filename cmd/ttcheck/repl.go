package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/orizon-lang/ttcheck/internal/ast"
	"github.com/orizon-lang/ttcheck/internal/conformance"
	"github.com/orizon-lang/ttcheck/internal/types"
)

const replHelp = `Commands (operands use fixture syntax, separated by a comma):
  types                    list the declared types
  compat <type>, <type>    may a value of the second type be used as the first?
  ident <type>, <type>     are the types identical?
  check <type>, <value>    check a value against a type
  match <type>, <template> check a template against a type
  govern <type>, <template> show the type governing each node of a template
  reload                   reload the fixture file
  help                     show this text
  quit                     leave the REPL
`

func runREPL(args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("repl", stderr)
	history := fs.String("history", ".ttcheck_history", "history file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("repl takes exactly one fixture file")
	}

	c, err := newChecker(*configPath, stderr, false)
	if err != nil {
		return err
	}
	s := &replSession{c: c, path: fs.Arg(0)}
	if err := s.reload(stdout); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "ttcheck> ",
		HistoryFile: *history,
		Stdout:      stdout,
		Stderr:      stderr,
	})
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(stdout, "Type `help' for the list of commands.")
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if line != "" {
					continue
				}
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if s.eval(line, stdout) {
			return nil
		}
	}
}

// replSession answers queries against one loaded fixture
type replSession struct {
	c    *checker
	path string
	a    *analysis
	gen  types.Generation
}

func (s *replSession) reload(w io.Writer) error {
	gen := s.c.clock.Next()
	a, err := s.c.analyze(s.path, gen)
	if err != nil {
		return err
	}
	s.a, s.gen = a, gen
	a.writeText(w)
	return nil
}

// eval runs one command line and reports whether the session should end
func (s *replSession) eval(line string, w io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch cmd {
	case "quit", "exit", ":q":
		return true
	case "help", "?":
		fmt.Fprint(w, replHelp)
	case "types":
		s.listTypes(w)
	case "compat", "ident":
		err = s.compare(cmd, rest, w)
	case "check":
		err = s.checkValue(rest, w)
	case "match":
		err = s.checkTemplate(rest, w)
	case "govern":
		err = s.govern(rest, w)
	case "reload":
		err = s.reload(w)
	default:
		err = fmt.Errorf("unknown command `%s', try `help'", cmd)
	}

	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return false
}

func (s *replSession) listTypes(w io.Writer) {
	doc := s.a.Doc
	names := make([]string, 0, len(doc.Types))
	for _, td := range doc.Types {
		names = append(names, td.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		t, _ := doc.Type(name)
		fmt.Fprintf(w, "%-16s %s\n", name, t.Kind)
	}
}

func (s *replSession) compare(cmd, src string, w io.Writer) error {
	operands, err := s.a.Doc.ParseTypes(src, 2)
	if err != nil {
		return err
	}
	diags := s.c.newDiagnostics()
	p := s.c.newPass(s.gen, s.a.Doc, diags)
	left, right := operands[0], operands[1]
	left.Check(p)
	right.Check(p)

	if cmd == "ident" {
		fmt.Fprintln(w, types.IsIdentical(p, left, right))
	} else {
		info := types.NewCompatInfo(left, right)
		if types.IsCompatible(p, left, right, info) {
			fmt.Fprintln(w, "true")
		} else {
			fmt.Fprintf(w, "false\n    %s\n", info.Error())
		}
	}
	fmt.Fprint(w, diags.FormatDiagnostics())
	return nil
}

func (s *replSession) checkValue(src string, w io.Writer) error {
	t, v, err := s.a.Doc.ParseTypedValue(src)
	if err != nil {
		return err
	}
	diags := s.c.newDiagnostics()
	p := s.c.newPass(s.gen, s.a.Doc, diags)
	if conformance.CheckValue(p, t, v, conformance.ValueOptions{Expected: conformance.ExpectedConstant, SubCheck: true}) {
		fmt.Fprintln(w, "ok")
	}
	fmt.Fprint(w, diags.FormatDiagnostics())
	return nil
}

func (s *replSession) checkTemplate(src string, w io.Writer) error {
	t, tmpl, err := s.a.Doc.ParseTypedTemplate(src)
	if err != nil {
		return err
	}
	diags := s.c.newDiagnostics()
	p := s.c.newPass(s.gen, s.a.Doc, diags)
	if conformance.CheckTemplate(p, t, tmpl, conformance.TemplateOptions{}) {
		fmt.Fprintln(w, "ok")
	}
	fmt.Fprint(w, diags.FormatDiagnostics())
	return nil
}

// govern checks a template and prints its tree with the governor recorded
// on every node
func (s *replSession) govern(src string, w io.Writer) error {
	t, tmpl, err := s.a.Doc.ParseTypedTemplate(src)
	if err != nil {
		return err
	}
	diags := s.c.newDiagnostics()
	p := s.c.newPass(s.gen, s.a.Doc, diags)
	conformance.CheckTemplate(p, t, tmpl, conformance.TemplateOptions{})

	depth := 0
	ast.Inspect(tmpl, func(n ast.Node) bool {
		if n == nil {
			depth--
			return true
		}
		governor := "-"
		if g := ast.GovernorOf(n); g != nil {
			governor = g.String()
		}
		fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat("  ", depth), n, governor)
		depth++
		return true
	})
	fmt.Fprint(w, diags.FormatDiagnostics())
	return nil
}
