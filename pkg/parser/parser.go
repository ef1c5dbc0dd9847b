// Package parser implements the Quill language parser.
//
// The parser is recursive descent: one function per grammar rule, with
// expression precedence handled by left-associative climbing tiers
// (logical, equality/relational, additive, multiplicative, secondary,
// primary). Keywords are ordinary identifier tokens matched by literal text.
// Rules never backtrack past a failed alternative; dispatch is resolved by
// one-token lookahead.
package parser

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/quill-lang/quill/pkg/ast"
	"github.com/quill-lang/quill/pkg/diagnostics"
	"github.com/quill-lang/quill/pkg/lexer"
)

// ParseError wraps a diagnostic for parse errors.
type ParseError struct {
	Diag diagnostics.Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// Offset returns the source offset of the offending token, or of the end of
// input when the parser ran out of tokens.
func (e *ParseError) Offset() int {
	if e.Diag.Offset == nil {
		return 0
	}
	return *e.Diag.Offset
}

type tokenStream struct {
	tokens []lexer.Token
	index  int
}

func (ts *tokenStream) has(offset int) bool {
	return ts.index+offset < len(ts.tokens)
}

func (ts *tokenStream) get(offset int) lexer.Token {
	return ts.tokens[ts.index+offset]
}

func (ts *tokenStream) advance() {
	ts.index++
}

type parser struct {
	tokens tokenStream
}

// Parse consumes a token sequence and produces the program AST. It fails
// with a *ParseError carrying the offset of the token that violated the
// grammar; no partially-built node ever escapes.
func Parse(tokens []lexer.Token) (*ast.Source, error) {
	p := &parser{tokens: tokenStream{tokens: tokens}}
	return p.parseSource()
}

// peek reports whether the next tokens match the given patterns without
// consuming them. A pattern is either a lexer.TokenType, which matches by
// category, or a string, which matches the token's literal text.
func (p *parser) peek(patterns ...any) bool {
	for i, pattern := range patterns {
		if !p.tokens.has(i) {
			return false
		}
		tok := p.tokens.get(i)
		switch pat := pattern.(type) {
		case lexer.TokenType:
			if tok.Type != pat {
				return false
			}
		case string:
			if tok.Literal != pat {
				return false
			}
		default:
			panic(fmt.Sprintf("invalid pattern %T", pattern))
		}
	}
	return true
}

// match is peek plus, on success only, advancing past all matched tokens.
func (p *parser) match(patterns ...any) bool {
	ok := p.peek(patterns...)
	if ok {
		for range patterns {
			p.tokens.advance()
		}
	}
	return ok
}

// errHere fails at the current token, or at the end of input when no tokens
// remain.
func (p *parser) errHere(msg string) error {
	offset := 0
	if p.tokens.has(0) {
		offset = p.tokens.get(0).Offset
	} else if len(p.tokens.tokens) > 0 {
		last := p.tokens.tokens[len(p.tokens.tokens)-1]
		offset = last.Offset + len(last.Literal)
	}
	return &ParseError{Diag: diagnostics.MakeDiagAt(diagnostics.EParse, msg, offset)}
}

func (p *parser) expect(literal string) error {
	if !p.match(literal) {
		return p.errHere(fmt.Sprintf("expected '%s'", literal))
	}
	return nil
}

// expectIdentifier consumes and returns the next identifier token's text.
func (p *parser) expectIdentifier() (string, error) {
	if !p.peek(lexer.TokIdentifier) {
		return "", p.errHere("expected identifier")
	}
	name := p.tokens.get(0).Literal
	p.tokens.advance()
	return name, nil
}

// --- source ---

// parseSource parses `field* method*` and requires the input to be fully
// consumed.
func (p *parser) parseSource() (*ast.Source, error) {
	src := &ast.Source{}

	for p.peek("LET") {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		src.Fields = append(src.Fields, field)
	}

	for p.peek("DEF") {
		method, err := p.parseMethod()
		if err != nil {
			return nil, err
		}
		src.Methods = append(src.Methods, method)
	}

	if p.tokens.has(0) {
		return nil, p.errHere(fmt.Sprintf("unexpected token '%s'", p.tokens.get(0).Literal))
	}
	return src, nil
}

func (p *parser) parseField() (*ast.Field, error) {
	p.match("LET")
	constant := p.match("CONST")

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	var value ast.Expr
	if p.match("=") {
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.Field{Name: name, Constant: constant, Value: value}, nil
}

func (p *parser) parseMethod() (*ast.Method, error) {
	p.match("DEF")

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []string
	if !p.peek(")") {
		param, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		for p.match(",") {
			param, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	if err := p.expect("DO"); err != nil {
		return nil, err
	}
	body, err := p.parseBody("END")
	if err != nil {
		return nil, err
	}
	if err := p.expect("END"); err != nil {
		return nil, err
	}

	return &ast.Method{Name: name, Params: params, Body: body}, nil
}

// parseBody parses statements until one of the terminator literals is the
// next token. The terminators are not consumed.
func (p *parser) parseBody(terminators ...string) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		if !p.tokens.has(0) {
			return nil, p.errHere(fmt.Sprintf("expected '%s'", terminators[len(terminators)-1]))
		}
		for _, term := range terminators {
			if p.peek(term) {
				return stmts, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// --- statements ---

func (p *parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.peek("LET"):
		return p.parseDeclaration()
	case p.peek("IF"):
		return p.parseIf()
	case p.peek("FOR"):
		return p.parseFor()
	case p.peek("WHILE"):
		return p.parseWhile()
	case p.peek("RETURN"):
		return p.parseReturn()
	default:
		return p.parseExprOrAssignment()
	}
}

// parseExprOrAssignment distinguishes an assignment from a bare expression
// statement purely by the presence of a following '='. The left side is not
// restricted to valid assignment targets here; the evaluator enforces that.
func (p *parser) parseExprOrAssignment() (ast.Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.match("=") {
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: expr}, nil
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.AssignmentStmt{Target: expr, Value: value}, nil
}

func (p *parser) parseDeclaration() (*ast.DeclarationStmt, error) {
	p.match("LET")

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	var value ast.Expr
	if p.match("=") {
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.DeclarationStmt{Name: name, Value: value}, nil
}

func (p *parser) parseIf() (*ast.IfStmt, error) {
	p.match("IF")

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect("DO"); err != nil {
		return nil, err
	}

	thenBody, err := p.parseBody("ELSE", "END")
	if err != nil {
		return nil, err
	}

	var elseBody []ast.Stmt
	if p.match("ELSE") {
		elseBody, err = p.parseBody("END")
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect("END"); err != nil {
		return nil, err
	}
	return &ast.IfStmt{Cond: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *parser) parseFor() (*ast.ForStmt, error) {
	p.match("FOR")
	if err := p.expect("("); err != nil {
		return nil, err
	}

	var init *ast.DeclarationStmt
	if !p.peek(";") {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		init = &ast.DeclarationStmt{Name: name, Value: value}
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}

	var incr *ast.AssignmentStmt
	if !p.peek(")") {
		target, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		incr = &ast.AssignmentStmt{Target: target, Value: value}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	body, err := p.parseBody("END")
	if err != nil {
		return nil, err
	}
	if err := p.expect("END"); err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: init, Cond: cond, Incr: incr, Body: body}, nil
}

func (p *parser) parseWhile() (*ast.WhileStmt, error) {
	p.match("WHILE")

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect("DO"); err != nil {
		return nil, err
	}
	body, err := p.parseBody("END")
	if err != nil {
		return nil, err
	}
	if err := p.expect("END"); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) parseReturn() (*ast.ReturnStmt, error) {
	p.match("RETURN")

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value}, nil
}

// --- expressions, precedence lowest to highest ---

func (p *parser) parseExpression() (ast.Expr, error) {
	return p.parseLogical()
}

// parseBinaryTier parses one left-associative tier: an operand from the
// next-higher tier, then repeated folding over the tier's operators.
func (p *parser) parseBinaryTier(next func() (ast.Expr, error), operators ...string) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range operators {
			if p.peek(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		p.tokens.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: matched, Left: left, Right: right}
	}
}

func (p *parser) parseLogical() (ast.Expr, error) {
	return p.parseBinaryTier(p.parseEquality, "&&", "||")
}

func (p *parser) parseEquality() (ast.Expr, error) {
	return p.parseBinaryTier(p.parseAdditive, "<", "<=", ">", ">=", "==", "!=")
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryTier(p.parseMultiplicative, "+", "-")
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryTier(p.parseSecondary, "*", "/")
}

// parseSecondary parses chained field accesses and method calls on a
// receiver.
func (p *parser) parseSecondary() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.match(".") {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if p.match("(") {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Receiver: expr, Name: name, Args: args}
		} else {
			expr = &ast.Access{Receiver: expr, Name: name}
		}
	}
	return expr, nil
}

// parseArguments parses a comma-separated argument list; the opening
// parenthesis has already been consumed.
func (p *parser) parseArguments() ([]ast.Expr, error) {
	var args []ast.Expr
	if !p.peek(")") {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.match(",") {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.match("NIL"):
		return &ast.Literal{Value: nil}, nil

	case p.match("TRUE"):
		return &ast.Literal{Value: true}, nil

	case p.match("FALSE"):
		return &ast.Literal{Value: false}, nil

	case p.peek(lexer.TokInteger):
		tok := p.tokens.get(0)
		p.tokens.advance()
		n, ok := new(big.Int).SetString(tok.Literal, 10)
		if !ok {
			return nil, &ParseError{Diag: diagnostics.MakeDiagAt(diagnostics.EParse,
				fmt.Sprintf("invalid integer literal '%s'", tok.Literal), tok.Offset)}
		}
		return &ast.Literal{Value: n}, nil

	case p.peek(lexer.TokDecimal):
		tok := p.tokens.get(0)
		p.tokens.advance()
		d, err := decimal.NewFromString(tok.Literal)
		if err != nil {
			return nil, &ParseError{Diag: diagnostics.MakeDiagAt(diagnostics.EParse,
				fmt.Sprintf("invalid decimal literal '%s'", tok.Literal), tok.Offset)}
		}
		return &ast.Literal{Value: d}, nil

	case p.peek(lexer.TokCharacter):
		tok := p.tokens.get(0)
		p.tokens.advance()
		text := unescape(tok.Literal[1 : len(tok.Literal)-1])
		r, _ := utf8.DecodeRuneInString(text)
		return &ast.Literal{Value: r}, nil

	case p.peek(lexer.TokString):
		tok := p.tokens.get(0)
		p.tokens.advance()
		return &ast.Literal{Value: unescape(tok.Literal[1 : len(tok.Literal)-1])}, nil

	case p.match("("):
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return &ast.Group{Expr: inner}, nil

	case p.peek(lexer.TokIdentifier):
		name := p.tokens.get(0).Literal
		p.tokens.advance()
		if p.match("(") {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Name: name, Args: args}, nil
		}
		return &ast.Access{Name: name}, nil

	default:
		return nil, p.errHere("expected expression")
	}
}

// unescape decodes the escape sequences of a character or string literal
// body. The lexer has already validated every sequence.
func unescape(text string) string {
	if !strings.ContainsRune(text, '\\') {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' {
			b.WriteByte(text[i])
			continue
		}
		i++
		switch text[i] {
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default: // quote or backslash escapes itself
			b.WriteByte(text[i])
		}
	}
	return b.String()
}
