// Package runtime orchestrates the Quill pipeline: lex, parse, evaluate.
package runtime

import (
	"errors"
	"io"
	"os"

	"github.com/quill-lang/quill/pkg/ast"
	"github.com/quill-lang/quill/pkg/diagnostics"
	"github.com/quill-lang/quill/pkg/evaluator"
	"github.com/quill-lang/quill/pkg/lexer"
	"github.com/quill-lang/quill/pkg/parser"
)

// Runtime wires a global scope to a program output writer and runs sources
// against it. The zero options configuration writes to os.Stdout.
type Runtime struct {
	stdout  io.Writer
	globals []global
	scope   *evaluator.Scope
}

type global struct {
	name  string
	value evaluator.Value
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithStdout redirects program output (the print builtin).
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithGlobal pre-registers a host value as a variable in the global scope.
// Call it once per value; registration order is preserved.
func WithGlobal(name string, value evaluator.Value) Option {
	return func(rt *Runtime) {
		rt.globals = append(rt.globals, global{name: name, value: value})
	}
}

// New creates a runtime with a fresh global scope holding the builtins and
// any host-registered globals.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{stdout: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}
	rt.scope = evaluator.NewGlobalScope(rt.stdout)
	for _, g := range rt.globals {
		if err := rt.scope.DefineVariable(g.name, false, g.value); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Parse lexes and parses source into an AST.
func Parse(source string) (*ast.Source, error) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}
	return parser.Parse(tokens)
}

// Check lexes and parses source without executing anything.
func Check(source string) error {
	_, err := Parse(source)
	return err
}

// Run parses source, declares its fields and methods into the global scope,
// and invokes main, returning its result.
func (rt *Runtime) Run(source string) (evaluator.Value, error) {
	src, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return evaluator.Execute(src, rt.scope)
}

// Declare parses source and installs its declarations into a fresh child of
// the current scope, which becomes current. Re-declaring a name in a later
// chunk therefore shadows the earlier binding instead of erroring. Used by
// the REPL.
func (rt *Runtime) Declare(source string) (*ast.Source, error) {
	src, err := Parse(source)
	if err != nil {
		return nil, err
	}
	child := rt.scope.Child()
	if err := evaluator.DeclareSource(src, child); err != nil {
		return nil, err
	}
	rt.scope = child
	return src, nil
}

// Invoke calls a zero-argument function by name in the current scope.
func (rt *Runtime) Invoke(name string) (evaluator.Value, error) {
	fn, err := rt.scope.LookupFunction(name, 0)
	if err != nil {
		return nil, err
	}
	return fn.Call(nil)
}

// Scope returns the current global scope.
func (rt *Runtime) Scope() *evaluator.Scope {
	return rt.scope
}

// DiagnosticOf extracts the structured diagnostic from a pipeline error.
func DiagnosticOf(err error) diagnostics.Diagnostic {
	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	var runErr *evaluator.RuntimeError
	switch {
	case errors.As(err, &lexErr):
		return lexErr.Diag
	case errors.As(err, &parseErr):
		return parseErr.Diag
	case errors.As(err, &runErr):
		return runErr.Diagnostic()
	default:
		return diagnostics.MakeDiag(diagnostics.EInternal, err.Error())
	}
}
