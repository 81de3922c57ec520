package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demo = filepath.Join("..", "..", "internal", "fixture", "testdata", "demo.yaml")

// noConfig points at a file that does not exist so the defaults apply
func noConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "ttcheck.yaml")
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsageAndVersion(t *testing.T) {
	code, _, stderr := runCmd()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "COMMANDS:")

	code, _, stderr = runCmd("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown subcommand: frobnicate")

	code, stdout, _ := runCmd("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "ttcheck v0.3.0")

	code, stdout, _ = runCmd("version", "--json")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"tool": "ttcheck"`)
}

func TestCheckDemo(t *testing.T) {
	code, stdout, _ := runCmd("check", "--config", noConfig(t), demo)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "(module Demo)")
	assert.Contains(t, stdout, "compatible(Ints, Triple): true")
	assert.Contains(t, stdout, "identical(Point, Point): true")
	assert.Contains(t, stdout, "Component type `Base' has no definition with name `name'")
}

func TestCheckJSON(t *testing.T) {
	code, stdout, _ := runCmd("check", "--config", noConfig(t), "--format", "json", demo, "missing.yaml")
	assert.Equal(t, 1, code)

	var reports []struct {
		File        string            `json:"file"`
		Error       string            `json:"error"`
		Diagnostics []json.RawMessage `json:"diagnostics"`
		Queries     []struct {
			Kind   string `json:"kind"`
			Answer bool   `json:"answer"`
			Reason string `json:"reason"`
		} `json:"queries"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports, 2)

	assert.Empty(t, reports[0].Error)
	assert.Empty(t, reports[0].Diagnostics)
	require.Len(t, reports[0].Queries, 6)
	assert.Equal(t, "compatible", reports[0].Queries[0].Kind)
	assert.True(t, reports[0].Queries[0].Answer)
	assert.NotEmpty(t, reports[0].Queries[2].Reason)

	assert.Equal(t, "missing.yaml", reports[1].File)
	assert.Contains(t, reports[1].Error, "read fixture")
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`module: Broken
types:
  Point: {record: [{x: integer}, {y: integer}]}
constants:
  p: {type: Point, value: {x: 1, z: 2}}
`), 0o644))

	code, stdout, _ := runCmd("check", "--config", noConfig(t), path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "broken.yaml:5:34: error: Reference to a non-existent field `z' in record value for type `Point'")
	assert.Contains(t, stdout, "Found 2 error(s).")
}

func TestCheckMetrics(t *testing.T) {
	code, stdout, _ := runCmd("check", "--config", noConfig(t), "--metrics", demo)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `ttcheck_compat_queries_total{result="compatible"} 4`)
	assert.Contains(t, stdout, `ttcheck_compat_queries_total{result="incompatible"} 2`)
	assert.Contains(t, stdout, "ttcheck_type_checks_total")
}

func TestCheckUsageErrors(t *testing.T) {
	code, _, _ := runCmd("check")
	assert.Equal(t, 2, code)

	code, _, stderr := runCmd("check", "--format", "xml", demo)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown format "xml"`)

	cfg := filepath.Join(t.TempDir(), "ttcheck.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("diagnostics:\n  max_errors: -1\n"), 0o644))
	code, _, _ = runCmd("check", "--config", cfg, demo)
	assert.Equal(t, 1, code)
}

func TestWatchNeedsOneFile(t *testing.T) {
	code, _, stderr := runCmd("watch", "--config", noConfig(t))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "exactly one fixture file")
}

func TestREPLSession(t *testing.T) {
	c, err := newChecker(noConfig(t), io.Discard, false)
	require.NoError(t, err)

	s := &replSession{c: c, path: demo}
	var out bytes.Buffer
	require.NoError(t, s.reload(&out))

	eval := func(line string) string {
		out.Reset()
		assert.False(t, s.eval(line, &out))
		return out.String()
	}

	assert.Equal(t, "true\n", eval("compat Ints, Triple"))
	assert.Contains(t, eval("compat Derived, Base"), "false")
	assert.Equal(t, "true\n", eval("ident Point, Point"))
	assert.Equal(t, "false\n", eval("ident Point, {record: [{x: integer}, {y: integer}]}"))
	assert.Contains(t, eval("check Point, {x: 1}"), "Field `y' is missing from record value")
	assert.Equal(t, "ok\n", eval("check Small, 3"))
	assert.Equal(t, "ok\n", eval(`match U, {i: "?"}`))
	assert.Equal(t, "{ x := 1, y := ? }: Point\n  1: integer\n    1: integer\n  ?: integer\n", eval(`govern Point, {x: 1, y: "?"}`))
	assert.Contains(t, eval("compat Ints"), "2 operands were expected instead of 1")
	assert.Contains(t, eval("frobnicate"), "unknown command `frobnicate'")
	assert.Empty(t, eval("   "))
	assert.Contains(t, eval("help"), "compat <type>, <type>")

	types := eval("types")
	assert.True(t, strings.HasPrefix(types, "Base"))
	assert.Contains(t, types, "Point            record")

	assert.Contains(t, eval("reload"), "(module Demo)")
	assert.True(t, s.eval("quit", &out))
}
