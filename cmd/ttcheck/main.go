// Package main provides the ttcheck command: it checks fixture modules
// for type compatibility and value/template conformance.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/orizon-lang/ttcheck/internal/cli"
)

const toolName = "ttcheck"

var commands = []cli.CommandInfo{
	{
		Name:        "check",
		Usage:       "ttcheck check [OPTIONS] <fixture.yaml>...",
		Description: "Check fixture modules and answer their queries",
		Examples: []string{
			"ttcheck check demo.yaml",
			"ttcheck check --format json --metrics a.yaml b.yaml",
		},
		Flags: []cli.FlagInfo{
			{Name: "config", Usage: "Configuration file", Default: "ttcheck.yaml"},
			{Name: "format", Usage: "Output format (text|json)", Default: "text"},
			{Name: "metrics", Usage: "Print Prometheus metrics after the run"},
		},
	},
	{
		Name:        "watch",
		Usage:       "ttcheck watch [OPTIONS] <fixture.yaml>",
		Description: "Re-check a fixture module whenever it changes",
		Flags: []cli.FlagInfo{
			{Name: "config", Usage: "Configuration file", Default: "ttcheck.yaml"},
			{Name: "poll", Usage: "Poll for changes at this interval instead of using OS notifications"},
		},
	},
	{
		Name:        "repl",
		Usage:       "ttcheck repl [OPTIONS] <fixture.yaml>",
		Description: "Query the types of a fixture module interactively",
		Flags: []cli.FlagInfo{
			{Name: "config", Usage: "Configuration file", Default: "ttcheck.yaml"},
			{Name: "history", Usage: "History file", Default: ".ttcheck_history"},
		},
	},
	{
		Name:        "version",
		Usage:       "ttcheck version [--json]",
		Description: "Show version information",
	},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		cli.PrintUsage(stderr, toolName, commands)
		return 2
	}

	sub, rest := args[0], args[1:]
	var err error
	switch sub {
	case "help", "-h", "--help":
		cli.PrintUsage(stdout, toolName, commands)
		return 0
	case "version", "-v", "--version":
		fs := flag.NewFlagSet("version", flag.ContinueOnError)
		fs.SetOutput(stderr)
		jsonOutput := fs.Bool("json", false, "output version in JSON format")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		err = cli.PrintVersion(stdout, toolName, *jsonOutput)
	case "check":
		return runCheck(rest, stdout, stderr)
	case "watch":
		err = runWatch(rest, stdout, stderr)
	case "repl":
		err = runREPL(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown subcommand: %s\n", sub)
		cli.PrintUsage(stderr, toolName, commands)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newFlagSet creates the flag set of a subcommand with the options every
// subcommand shares
func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		for _, c := range commands {
			if c.Name == name {
				cli.PrintCommandUsage(stderr, toolName, c)
			}
		}
	}
	configPath := fs.String("config", "ttcheck.yaml", "configuration file")
	return fs, configPath
}
