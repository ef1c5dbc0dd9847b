package evaluator

import (
	"fmt"
	"io"
	"strings"

	"math/big"

	"github.com/shopspring/decimal"

	"github.com/quill-lang/quill/pkg/ast"
	"github.com/quill-lang/quill/pkg/diagnostics"
)

// RuntimeError is the error type for all evaluation failures. Runtime errors
// carry no source position.
type RuntimeError struct {
	Code    string
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error for the diagnostics formatter.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message)
}

func newError(code, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewGlobalScope creates a root scope with the builtin functions registered.
// print/1 writes its argument's display form and a newline to w and returns
// nil.
func NewGlobalScope(w io.Writer) *Scope {
	scope := NewScope(nil)
	_ = scope.DefineFunction(&Fn{
		Name:  "print",
		Arity: 1,
		Call: func(args []Value) (Value, error) {
			fmt.Fprintln(w, Display(args[0]))
			return NilValue{}, nil
		},
	})
	return scope
}

// DeclareSource installs a source's fields and methods into scope without
// invoking main. Fields are declared first, in order, then methods.
func DeclareSource(src *ast.Source, scope *Scope) error {
	for _, field := range src.Fields {
		if err := declareField(field, scope); err != nil {
			return err
		}
	}
	for _, method := range src.Methods {
		if err := declareMethod(method, scope); err != nil {
			return err
		}
	}
	return nil
}

// Execute declares a source into scope, then invokes its zero-argument main
// function and returns its result.
func Execute(src *ast.Source, scope *Scope) (Value, error) {
	if err := DeclareSource(src, scope); err != nil {
		return nil, err
	}
	main, err := scope.LookupFunction("main", 0)
	if err != nil {
		return nil, newError(diagnostics.ENoMain, "no main function of arity 0 is defined")
	}
	return main.Call(nil)
}

func declareField(field *ast.Field, scope *Scope) error {
	var value Value = NilValue{}
	if field.Value != nil {
		v, err := evalExpr(field.Value, scope)
		if err != nil {
			return err
		}
		value = v
	}
	return scope.DefineVariable(field.Name, field.Constant, value)
}

// declareMethod registers a callable closing over the defining scope.
// Invocation creates one child of that scope, binds the parameters, and runs
// the body; a propagating RETURN is consumed here, and falling off the end
// yields nil.
func declareMethod(method *ast.Method, scope *Scope) error {
	fn := &Fn{
		Name:  method.Name,
		Arity: len(method.Params),
		Call: func(args []Value) (Value, error) {
			frame := scope.Child()
			for i, param := range method.Params {
				if err := frame.DefineVariable(param, false, args[i]); err != nil {
					return nil, err
				}
			}
			ret, err := execBlock(method.Body, frame)
			if err != nil {
				return nil, err
			}
			if ret == nil {
				return NilValue{}, nil
			}
			return ret, nil
		},
	}
	return scope.DefineFunction(fn)
}

// execBlock runs statements in order. A non-nil first result is the value of
// a RETURN propagating toward the nearest function invocation.
func execBlock(stmts []ast.Stmt, scope *Scope) (Value, error) {
	for _, stmt := range stmts {
		ret, err := execStmt(stmt, scope)
		if err != nil {
			return nil, err
		}
		if ret != nil {
			return ret, nil
		}
	}
	return nil, nil
}

func execStmt(stmt ast.Stmt, scope *Scope) (Value, error) {
	switch st := stmt.(type) {
	case *ast.ExprStmt:
		_, err := evalExpr(st.Expr, scope)
		return nil, err

	case *ast.DeclarationStmt:
		var value Value = NilValue{}
		if st.Value != nil {
			v, err := evalExpr(st.Value, scope)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return nil, scope.DefineVariable(st.Name, false, value)

	case *ast.AssignmentStmt:
		return nil, execAssignment(st, scope)

	case *ast.IfStmt:
		cond, err := evalCondition(st.Cond, scope)
		if err != nil {
			return nil, err
		}
		if cond {
			return execBlock(st.Then, scope)
		}
		return execBlock(st.Else, scope)

	case *ast.WhileStmt:
		for {
			cond, err := evalCondition(st.Cond, scope)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
			ret, err := execBlock(st.Body, scope.Child())
			if err != nil {
				return nil, err
			}
			if ret != nil {
				return ret, nil
			}
		}

	case *ast.ForStmt:
		// One scope holds the init declaration for the whole loop; each
		// iteration's body runs in a fresh child of it.
		outer := scope.Child()
		if st.Init != nil {
			if _, err := execStmt(st.Init, outer); err != nil {
				return nil, err
			}
		}
		for {
			cond, err := evalCondition(st.Cond, outer)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
			ret, err := execBlock(st.Body, outer.Child())
			if err != nil {
				return nil, err
			}
			if ret != nil {
				return ret, nil
			}
			if st.Incr != nil {
				if _, err := execStmt(st.Incr, outer); err != nil {
					return nil, err
				}
			}
		}

	case *ast.ReturnStmt:
		value, err := evalExpr(st.Value, scope)
		if err != nil {
			return nil, err
		}
		return value, nil

	default:
		return nil, newError(diagnostics.EInternal, "unknown statement kind %s", stmt.Kind())
	}
}

// execAssignment re-binds a variable or replaces an object field. The parser
// admits any expression as the target; only an Access node is assignable.
func execAssignment(st *ast.AssignmentStmt, scope *Scope) error {
	target, ok := st.Target.(*ast.Access)
	if !ok {
		return newError(diagnostics.EType, "cannot assign to a %s expression", st.Target.Kind())
	}

	if target.Receiver == nil {
		variable, err := scope.LookupVariable(target.Name)
		if err != nil {
			return err
		}
		if variable.Constant {
			return newError(diagnostics.EConst, "cannot re-assign constant '%s'", target.Name)
		}
		value, err := evalExpr(st.Value, scope)
		if err != nil {
			return err
		}
		variable.Value = value
		return nil
	}

	recv, err := evalExpr(target.Receiver, scope)
	if err != nil {
		return err
	}
	obj, ok := recv.(*Obj)
	if !ok {
		return newError(diagnostics.EType, "cannot assign a field of a %s value", recv.TypeName())
	}
	value, err := evalExpr(st.Value, scope)
	if err != nil {
		return err
	}
	if !obj.Replace(target.Name, value) {
		return newError(diagnostics.ENoField, "object has no field '%s'", target.Name)
	}
	return nil
}

func evalCondition(expr ast.Expr, scope *Scope) (bool, error) {
	v, err := evalExpr(expr, scope)
	if err != nil {
		return false, err
	}
	b, ok := v.(BoolValue)
	if !ok {
		return false, newError(diagnostics.EType, "condition must be a boolean, got %s", v.TypeName())
	}
	return b.Value, nil
}

func evalExpr(expr ast.Expr, scope *Scope) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e)
	case *ast.Group:
		return evalExpr(e.Expr, scope)
	case *ast.Binary:
		return evalBinary(e, scope)
	case *ast.Access:
		return evalAccess(e, scope)
	case *ast.Call:
		return evalCall(e, scope)
	default:
		return nil, newError(diagnostics.EInternal, "unknown expression kind %s", expr.Kind())
	}
}

func evalLiteral(e *ast.Literal) (Value, error) {
	switch v := e.Value.(type) {
	case nil:
		return NilValue{}, nil
	case bool:
		return BoolValue{Value: v}, nil
	case *big.Int:
		return IntValue{Value: v}, nil
	case decimal.Decimal:
		return DecValue{Value: v}, nil
	case rune:
		return CharValue{Value: v}, nil
	case string:
		return StrValue{Value: v}, nil
	default:
		return nil, newError(diagnostics.EInternal, "unknown literal payload %T", e.Value)
	}
}

func evalAccess(e *ast.Access, scope *Scope) (Value, error) {
	if e.Receiver == nil {
		variable, err := scope.LookupVariable(e.Name)
		if err != nil {
			return nil, err
		}
		return variable.Value, nil
	}

	recv, err := evalExpr(e.Receiver, scope)
	if err != nil {
		return nil, err
	}
	obj, ok := recv.(*Obj)
	if !ok {
		return nil, newError(diagnostics.ENoField, "cannot access field '%s' of a %s value", e.Name, recv.TypeName())
	}
	value, ok := obj.Get(e.Name)
	if !ok {
		return nil, newError(diagnostics.ENoField, "object has no field '%s'", e.Name)
	}
	return value, nil
}

func evalCall(e *ast.Call, scope *Scope) (Value, error) {
	if e.Receiver == nil {
		fn, err := scope.LookupFunction(e.Name, len(e.Args))
		if err != nil {
			return nil, err
		}
		args, err := evalArgs(e.Args, scope)
		if err != nil {
			return nil, err
		}
		return fn.Call(args)
	}

	recv, err := evalExpr(e.Receiver, scope)
	if err != nil {
		return nil, err
	}
	obj, ok := recv.(*Obj)
	if !ok {
		return nil, newError(diagnostics.ENoField, "cannot call method '%s' on a %s value", e.Name, recv.TypeName())
	}
	member, ok := obj.Get(e.Name)
	if !ok {
		return nil, newError(diagnostics.ENoField, "object has no method '%s'", e.Name)
	}
	fn, ok := member.(*Fn)
	if !ok {
		return nil, newError(diagnostics.EType, "field '%s' is a %s, not a function", e.Name, member.TypeName())
	}
	if fn.Arity != len(e.Args) {
		return nil, newError(diagnostics.EArity, "method '%s' expects %d arguments, got %d", e.Name, fn.Arity, len(e.Args))
	}
	args, err := evalArgs(e.Args, scope)
	if err != nil {
		return nil, err
	}
	return fn.Call(args)
}

func evalArgs(exprs []ast.Expr, scope *Scope) ([]Value, error) {
	args := make([]Value, len(exprs))
	for i, expr := range exprs {
		v, err := evalExpr(expr, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func evalBinary(e *ast.Binary, scope *Scope) (Value, error) {
	if e.Op == "&&" || e.Op == "||" {
		return evalLogical(e, scope)
	}

	left, err := evalExpr(e.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(e.Right, scope)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==":
		return BoolValue{Value: Equal(left, right)}, nil
	case "!=":
		return BoolValue{Value: !Equal(left, right)}, nil
	case "<", "<=", ">", ">=":
		return evalComparison(e.Op, left, right)
	case "+", "-", "*", "/":
		return evalArithmetic(e.Op, left, right)
	default:
		return nil, newError(diagnostics.EType, "unknown operator '%s'", e.Op)
	}
}

// evalLogical short-circuits: the right operand is evaluated only when the
// left operand does not decide the result. Both operands must be booleans.
func evalLogical(e *ast.Binary, scope *Scope) (Value, error) {
	left, err := evalExpr(e.Left, scope)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(BoolValue)
	if !ok {
		return nil, newError(diagnostics.EType, "operands of '%s' must be booleans, got %s", e.Op, left.TypeName())
	}

	if e.Op == "&&" && !lb.Value {
		return BoolValue{Value: false}, nil
	}
	if e.Op == "||" && lb.Value {
		return BoolValue{Value: true}, nil
	}

	right, err := evalExpr(e.Right, scope)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(BoolValue)
	if !ok {
		return nil, newError(diagnostics.EType, "operands of '%s' must be booleans, got %s", e.Op, right.TypeName())
	}
	return rb, nil
}

// evalComparison orders two values of the same comparable category: integer,
// decimal, character, or string.
func evalComparison(op string, left, right Value) (Value, error) {
	var cmp int
	switch l := left.(type) {
	case IntValue:
		r, ok := right.(IntValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		cmp = l.Value.Cmp(r.Value)
	case DecValue:
		r, ok := right.(DecValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		cmp = l.Value.Cmp(r.Value)
	case CharValue:
		r, ok := right.(CharValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		switch {
		case l.Value < r.Value:
			cmp = -1
		case l.Value > r.Value:
			cmp = 1
		}
	case StrValue:
		r, ok := right.(StrValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		cmp = strings.Compare(l.Value, r.Value)
	default:
		return nil, compareTypeError(op, left, right)
	}

	switch op {
	case "<":
		return BoolValue{Value: cmp < 0}, nil
	case "<=":
		return BoolValue{Value: cmp <= 0}, nil
	case ">":
		return BoolValue{Value: cmp > 0}, nil
	default:
		return BoolValue{Value: cmp >= 0}, nil
	}
}

func compareTypeError(op string, left, right Value) error {
	return newError(diagnostics.EType, "cannot apply '%s' to %s and %s", op, left.TypeName(), right.TypeName())
}

// evalArithmetic applies + - * / to same-tag integer or decimal operands
// with no cross-tag coercion; + additionally concatenates two strings.
// Integer division truncates toward zero; decimal division rounds half away
// from zero at the larger operand scale.
func evalArithmetic(op string, left, right Value) (Value, error) {
	switch l := left.(type) {
	case IntValue:
		r, ok := right.(IntValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		switch op {
		case "+":
			return IntValue{Value: new(big.Int).Add(l.Value, r.Value)}, nil
		case "-":
			return IntValue{Value: new(big.Int).Sub(l.Value, r.Value)}, nil
		case "*":
			return IntValue{Value: new(big.Int).Mul(l.Value, r.Value)}, nil
		default:
			if r.Value.Sign() == 0 {
				return nil, newError(diagnostics.EDivZero, "division by zero")
			}
			return IntValue{Value: new(big.Int).Quo(l.Value, r.Value)}, nil
		}

	case DecValue:
		r, ok := right.(DecValue)
		if !ok {
			return nil, compareTypeError(op, left, right)
		}
		switch op {
		case "+":
			return DecValue{Value: l.Value.Add(r.Value)}, nil
		case "-":
			return DecValue{Value: l.Value.Sub(r.Value)}, nil
		case "*":
			return DecValue{Value: l.Value.Mul(r.Value)}, nil
		default:
			if r.Value.IsZero() {
				return nil, newError(diagnostics.EDivZero, "division by zero")
			}
			scale := -l.Value.Exponent()
			if s := -r.Value.Exponent(); s > scale {
				scale = s
			}
			if scale < 0 {
				scale = 0
			}
			return DecValue{Value: l.Value.DivRound(r.Value, scale)}, nil
		}

	case StrValue:
		r, ok := right.(StrValue)
		if op == "+" && ok {
			return StrValue{Value: l.Value + r.Value}, nil
		}
		return nil, compareTypeError(op, left, right)

	default:
		return nil, compareTypeError(op, left, right)
	}
}
