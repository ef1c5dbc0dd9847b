package parser

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/pkg/ast"
	"github.com/quill-lang/quill/pkg/lexer"
)

func mustParse(t *testing.T, source string) *ast.Source {
	t.Helper()
	tokens, err := lexer.Lex(source)
	require.NoError(t, err)
	src, err := Parse(tokens)
	require.NoError(t, err)
	return src
}

func parseFail(t *testing.T, source string) *ParseError {
	t.Helper()
	tokens, err := lexer.Lex(source)
	require.NoError(t, err)
	src, err := Parse(tokens)
	require.Error(t, err)
	require.Nil(t, src)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	return parseErr
}

// parseExpr parses a lone expression by wrapping it in a return statement.
func parseExpr(t *testing.T, expr string) ast.Expr {
	t.Helper()
	src := mustParse(t, "DEF f() DO RETURN "+expr+"; END")
	require.Len(t, src.Methods, 1)
	require.Len(t, src.Methods[0].Body, 1)
	ret, ok := src.Methods[0].Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	return ret.Value
}

func TestParseEmptySource(t *testing.T) {
	src := mustParse(t, "")
	assert.Empty(t, src.Fields)
	assert.Empty(t, src.Methods)
}

func TestParseField(t *testing.T) {
	src := mustParse(t, "LET x = 5;")
	require.Len(t, src.Fields, 1)

	field := src.Fields[0]
	assert.Equal(t, "x", field.Name)
	assert.False(t, field.Constant)

	lit, ok := field.Value.(*ast.Literal)
	require.True(t, ok)
	n, ok := lit.Value.(*big.Int)
	require.True(t, ok)
	assert.Zero(t, n.Cmp(big.NewInt(5)))
}

func TestParseConstantField(t *testing.T) {
	src := mustParse(t, "LET CONST limit = 10;")
	require.Len(t, src.Fields, 1)
	assert.True(t, src.Fields[0].Constant)
	assert.Equal(t, "limit", src.Fields[0].Name)
}

func TestParseFieldWithoutInitializer(t *testing.T) {
	src := mustParse(t, "LET x;")
	require.Len(t, src.Fields, 1)
	assert.Nil(t, src.Fields[0].Value)
}

func TestParseMethod(t *testing.T) {
	src := mustParse(t, "DEF add(a, b) DO RETURN a + b; END")
	require.Len(t, src.Methods, 1)

	method := src.Methods[0]
	assert.Equal(t, "add", method.Name)
	assert.Equal(t, []string{"a", "b"}, method.Params)
	require.Len(t, method.Body, 1)
}

func TestParseMethodNoParams(t *testing.T) {
	src := mustParse(t, "DEF main() DO END")
	require.Len(t, src.Methods, 1)
	assert.Empty(t, src.Methods[0].Params)
	assert.Empty(t, src.Methods[0].Body)
}

func TestParseFieldsBeforeMethods(t *testing.T) {
	src := mustParse(t, "LET a = 1; LET b = 2; DEF main() DO END")
	assert.Len(t, src.Fields, 2)
	assert.Len(t, src.Methods, 1)
}

func TestParseTrailingTokensFail(t *testing.T) {
	parseFail(t, "DEF main() DO END extra")
	// A field after a method violates field* method* ordering.
	parseFail(t, "DEF main() DO END LET x = 1;")
}

func TestParseStatements(t *testing.T) {
	src := mustParse(t, `DEF f() DO
		LET x = 1;
		x = 2;
		f();
		IF TRUE DO x = 3; ELSE x = 4; END
		WHILE FALSE DO x = 5; END
		FOR (i = 0; i < 10; i = i + 1) x = i; END
		RETURN x;
	END`)
	require.Len(t, src.Methods, 1)
	body := src.Methods[0].Body
	require.Len(t, body, 7)

	assert.IsType(t, &ast.DeclarationStmt{}, body[0])
	assert.IsType(t, &ast.AssignmentStmt{}, body[1])
	assert.IsType(t, &ast.ExprStmt{}, body[2])
	assert.IsType(t, &ast.IfStmt{}, body[3])
	assert.IsType(t, &ast.WhileStmt{}, body[4])
	assert.IsType(t, &ast.ForStmt{}, body[5])
	assert.IsType(t, &ast.ReturnStmt{}, body[6])
}

func TestParseForClausesOptional(t *testing.T) {
	src := mustParse(t, "DEF f() DO FOR (; TRUE;) f(); END END")
	loop, ok := src.Methods[0].Body[0].(*ast.ForStmt)
	require.True(t, ok)
	assert.Nil(t, loop.Init)
	assert.Nil(t, loop.Incr)
	assert.NotNil(t, loop.Cond)
	require.Len(t, loop.Body, 1)
}

func TestParseIfWithoutElse(t *testing.T) {
	src := mustParse(t, "DEF f() DO IF TRUE DO f(); END END")
	cond, ok := src.Methods[0].Body[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, cond.Then, 1)
	assert.Nil(t, cond.Else)
}

func TestParseLenientAssignmentTarget(t *testing.T) {
	// Any expression parses as an assignment target; the restriction to an
	// access is enforced at evaluation time.
	src := mustParse(t, "DEF f() DO 1 + 2 = 3; END")
	stmt, ok := src.Methods[0].Body[0].(*ast.AssignmentStmt)
	require.True(t, ok)
	assert.IsType(t, &ast.Binary{}, stmt.Target)
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7 && x groups as ((1 + (2*3)) == 7) && x.
	expr := parseExpr(t, "1 + 2 * 3 == 7 && x")

	and, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Op)

	eq, ok := and.Left.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "==", eq.Op)

	add, ok := eq.Left.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParseLeftAssociativity(t *testing.T) {
	expr := parseExpr(t, "1 - 2 - 3")
	outer, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "-", outer.Op)
	inner, ok := outer.Left.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "-", inner.Op)
}

func TestParseKeywordLiterals(t *testing.T) {
	assert.Equal(t, &ast.Literal{Value: nil}, parseExpr(t, "NIL"))
	assert.Equal(t, &ast.Literal{Value: true}, parseExpr(t, "TRUE"))
	assert.Equal(t, &ast.Literal{Value: false}, parseExpr(t, "FALSE"))
}

func TestParseDecimalLiteral(t *testing.T) {
	lit, ok := parseExpr(t, "2.75").(*ast.Literal)
	require.True(t, ok)
	d, ok := lit.Value.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("2.75")))
}

func TestParseStringLiteralUnescaped(t *testing.T) {
	lit, ok := parseExpr(t, `"a\nb\"c\\"`).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "a\nb\"c\\", lit.Value)
}

func TestParseCharacterLiteralUnescaped(t *testing.T) {
	lit, ok := parseExpr(t, `'\t'`).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, '\t', lit.Value)
}

func TestParseGroup(t *testing.T) {
	group, ok := parseExpr(t, "(1 + 2)").(*ast.Group)
	require.True(t, ok)
	assert.IsType(t, &ast.Binary{}, group.Expr)
}

func TestParseAccessAndCallChains(t *testing.T) {
	// obj.field.method(1).other
	expr := parseExpr(t, "obj.field.method(1).other")

	outer, ok := expr.(*ast.Access)
	require.True(t, ok)
	assert.Equal(t, "other", outer.Name)

	call, ok := outer.Receiver.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "method", call.Name)
	assert.Len(t, call.Args, 1)

	field, ok := call.Receiver.(*ast.Access)
	require.True(t, ok)
	assert.Equal(t, "field", field.Name)

	root, ok := field.Receiver.(*ast.Access)
	require.True(t, ok)
	assert.Equal(t, "obj", root.Name)
	assert.Nil(t, root.Receiver)
}

func TestParseBareCall(t *testing.T) {
	call, ok := parseExpr(t, "f(1, 2)").(*ast.Call)
	require.True(t, ok)
	assert.Nil(t, call.Receiver)
	assert.Equal(t, "f", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseErrorOffsets(t *testing.T) {
	// Missing semicolon: the error points at the end of the input.
	source := "LET x = 5"
	err := parseFail(t, source)
	assert.Equal(t, len(source), err.Offset())

	// Unexpected token mid-stream: the error points at that token.
	err = parseFail(t, "DEF f(1) DO END")
	assert.Equal(t, 6, err.Offset())
}

func TestParseMissingExpression(t *testing.T) {
	parseFail(t, "LET x = ;")
	parseFail(t, "DEF f() DO RETURN ; END")
}

func FuzzParse(f *testing.F) {
	f.Add("LET x = 5;")
	f.Add("DEF main() DO RETURN 1 + 2; END")
	f.Add("DEF f(a, b) DO IF a < b DO RETURN a; ELSE RETURN b; END END")
	f.Add("FOR (i = 0; i < 3; i = i + 1) END")

	f.Fuzz(func(t *testing.T, source string) {
		tokens, err := lexer.Lex(source)
		if err != nil {
			return
		}
		src, err := Parse(tokens)
		if err != nil {
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.NotEmpty(t, parseErr.Error())
			return
		}
		require.NotNil(t, src)
	})
}
