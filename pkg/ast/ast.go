// Package ast defines the Quill language AST node types.
//
// Nodes are immutable once returned by the parser: every node is fully formed
// before its parsing rule returns, and each node owns its children
// exclusively.
package ast

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Program structure ---

// Source is the program root: zero or more fields followed by zero or more
// methods.
type Source struct {
	Fields  []*Field
	Methods []*Method
}

func (n *Source) Kind() string { return "Source" }

// Field is a top-level variable declaration, optionally constant, with an
// optional initializer (nil when absent).
type Field struct {
	Name     string
	Constant bool
	Value    Expr
}

func (n *Field) Kind() string { return "Field" }

// Method is a top-level function declaration.
type Method struct {
	Name   string
	Params []string
	Body   []Stmt
}

func (n *Method) Kind() string { return "Method" }

// --- Statements ---

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Expr Expr
}

func (n *ExprStmt) Kind() string { return "ExprStmt" }
func (n *ExprStmt) stmtNode()    {}

// DeclarationStmt binds a new variable in the current scope. Value is nil
// when no initializer was written.
type DeclarationStmt struct {
	Name  string
	Value Expr
}

func (n *DeclarationStmt) Kind() string { return "DeclarationStmt" }
func (n *DeclarationStmt) stmtNode()    {}

// AssignmentStmt assigns Value to Target. The parser places no restriction on
// Target; the evaluator requires it to be an *Access.
type AssignmentStmt struct {
	Target Expr
	Value  Expr
}

func (n *AssignmentStmt) Kind() string { return "AssignmentStmt" }
func (n *AssignmentStmt) stmtNode()    {}

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (n *IfStmt) Kind() string { return "IfStmt" }
func (n *IfStmt) stmtNode()    {}

// ForStmt is a C-style loop. Init and Incr are optional (nil when omitted).
type ForStmt struct {
	Init *DeclarationStmt
	Cond Expr
	Incr *AssignmentStmt
	Body []Stmt
}

func (n *ForStmt) Kind() string { return "ForStmt" }
func (n *ForStmt) stmtNode()    {}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

func (n *WhileStmt) Kind() string { return "WhileStmt" }
func (n *WhileStmt) stmtNode()    {}

type ReturnStmt struct {
	Value Expr
}

func (n *ReturnStmt) Kind() string { return "ReturnStmt" }
func (n *ReturnStmt) stmtNode()    {}

// --- Expressions ---

// Literal holds an already-decoded literal payload: nil, bool, *big.Int,
// decimal.Decimal, rune, or string. Character and string payloads are
// unescaped by the parser, not the lexer.
type Literal struct {
	Value any
}

func (n *Literal) Kind() string { return "Literal" }
func (n *Literal) exprNode()    {}

// Group is a parenthesized expression.
type Group struct {
	Expr Expr
}

func (n *Group) Kind() string { return "Group" }
func (n *Group) exprNode()    {}

// Binary applies the operator named by Op (its literal token text) to Left
// and Right.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (n *Binary) Kind() string { return "Binary" }
func (n *Binary) exprNode()    {}

// Access reads a variable (Receiver == nil) or a field of the receiver
// object.
type Access struct {
	Receiver Expr // optional
	Name     string
}

func (n *Access) Kind() string { return "Access" }
func (n *Access) exprNode()    {}

// Call invokes a global function (Receiver == nil) or a method of the
// receiver object.
type Call struct {
	Receiver Expr // optional
	Name     string
	Args     []Expr
}

func (n *Call) Kind() string { return "Call" }
func (n *Call) exprNode()    {}
