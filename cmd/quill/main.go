// Command quill is the Quill language CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quill-lang/quill/pkg/diagnostics"
	"github.com/quill-lang/quill/pkg/evaluator"
	"github.com/quill-lang/quill/pkg/runtime"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: quill <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, check, repl, help")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "help", "--help", "-h":
		os.Exit(cmdHelp())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func cmdRun(args []string) int {
	file, pretty := scanArgs(args)
	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: quill run <file> [--pretty]")
		return 1
	}

	source, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt, err := runtime.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 4
	}

	result, runErr := rt.Run(source)
	if runErr != nil {
		printError(runErr, pretty)
		return 2
	}

	fmt.Println(evaluator.Display(result))
	return 0
}

func cmdCheck(args []string) int {
	file, pretty := scanArgs(args)
	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: quill check <file> [--pretty]")
		return 1
	}

	source, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	if err := runtime.Check(source); err != nil {
		printError(err, pretty)
		return 2
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdHelp() int {
	fmt.Print(`quill - the Quill language interpreter

usage:
  quill run <file> [--pretty]     execute a program and print main's result
  quill check <file> [--pretty]   lex and parse a program without running it
  quill repl                      start an interactive session
  quill help                      show this text

A program is a sequence of LET fields followed by DEF methods; execution
invokes the zero-argument main method. Pass "-" as the file to read from
stdin. Diagnostics go to stderr as JSON; --pretty switches to annotated
text.
`)
	return 0
}

// scanArgs extracts the file operand and the --pretty flag.
func scanArgs(args []string) (string, bool) {
	file := ""
	pretty := false
	for _, arg := range args {
		switch {
		case arg == "--pretty":
			pretty = true
		case !strings.HasPrefix(arg, "-") || arg == "-":
			file = arg
		}
	}
	return file, pretty
}

func readSource(file string, pretty bool) (string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", 1
		}
		return string(data), 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file))
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostic(diag, pretty))
		return "", 1
	}
	return string(source), 0
}

func printError(err error, pretty bool) {
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostic(runtime.DiagnosticOf(err), pretty))
}
