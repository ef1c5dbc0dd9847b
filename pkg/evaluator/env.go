package evaluator

import (
	"github.com/quill-lang/quill/pkg/diagnostics"
)

// Variable is a named binding slot. Constant slots reject re-assignment.
type Variable struct {
	Name     string
	Constant bool
	Value    Value
}

type funcKey struct {
	name  string
	arity int
}

// Scope holds variable and function bindings with parent-chained lookup for
// lexical scoping. Variables and functions occupy separate namespaces, and
// functions are keyed by name and arity so definitions differing only in
// arity coexist.
type Scope struct {
	vars   map[string]*Variable
	funcs  map[funcKey]*Fn
	parent *Scope
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]*Variable),
		funcs:  make(map[funcKey]*Fn),
		parent: parent,
	}
}

// Child creates a new child scope whose parent is this scope.
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// DefineVariable binds a new variable in this scope. Duplicate names in the
// same scope fail; shadowing an ancestor's binding is allowed.
func (s *Scope) DefineVariable(name string, constant bool, val Value) error {
	if _, ok := s.vars[name]; ok {
		return newError(diagnostics.EDupBinding, "variable '%s' is already defined in this scope", name)
	}
	s.vars[name] = &Variable{Name: name, Constant: constant, Value: val}
	return nil
}

// LookupVariable finds a variable by name, traversing parent scopes.
func (s *Scope) LookupVariable(name string) (*Variable, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, nil
		}
	}
	return nil, newError(diagnostics.EUnbound, "variable '%s' is not defined", name)
}

// DefineFunction binds a function in this scope under its name and arity.
func (s *Scope) DefineFunction(fn *Fn) error {
	key := funcKey{name: fn.Name, arity: fn.Arity}
	if _, ok := s.funcs[key]; ok {
		return newError(diagnostics.EDupBinding, "function '%s'/%d is already defined in this scope", fn.Name, fn.Arity)
	}
	s.funcs[key] = fn
	return nil
}

// LookupFunction finds a function by name and arity, traversing parent
// scopes. When the name exists only at other arities the failure is an arity
// error rather than an unbound-name error.
func (s *Scope) LookupFunction(name string, arity int) (*Fn, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if fn, ok := sc.funcs[funcKey{name: name, arity: arity}]; ok {
			return fn, nil
		}
	}
	if s.hasFunctionNamed(name) {
		return nil, newError(diagnostics.EArity, "function '%s' is not defined with arity %d", name, arity)
	}
	return nil, newError(diagnostics.EUnbound, "function '%s' is not defined", name)
}

func (s *Scope) hasFunctionNamed(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		for key := range sc.funcs {
			if key.name == name {
				return true
			}
		}
	}
	return false
}
