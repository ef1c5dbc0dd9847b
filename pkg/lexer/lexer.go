// Package lexer implements the Quill language tokenizer.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/quill-lang/quill/pkg/diagnostics"
)

// TokenType identifies the category of a lexer token.
type TokenType int

const (
	TokIdentifier TokenType = iota
	TokInteger
	TokDecimal
	TokCharacter
	TokString
	TokOperator
)

// String returns the category name used in diagnostics.
func (t TokenType) String() string {
	switch t {
	case TokIdentifier:
		return "identifier"
	case TokInteger:
		return "integer"
	case TokDecimal:
		return "decimal"
	case TokCharacter:
		return "character"
	case TokString:
		return "string"
	case TokOperator:
		return "operator"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token is a single lexer token. Literal is the raw source text of the token
// (quotes and escape sequences included for character and string literals),
// and Offset is the byte offset of its first character in the original
// source. Tokens are created once by the lexer and never mutated.
type Token struct {
	Type    TokenType
	Literal string
	Offset  int
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// Offset returns the byte offset of the first character that could not start
// or complete a valid token.
func (e *LexError) Offset() int {
	if e.Diag.Offset == nil {
		return 0
	}
	return *e.Diag.Offset
}

type scanner struct {
	source string
	pos    int
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	return ch
}

// advanceRune consumes one (possibly multi-byte) character.
func (s *scanner) advanceRune() {
	_, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size
}

func (s *scanner) emit(typ TokenType, start int) Token {
	return Token{Type: typ, Literal: s.source[start:s.pos], Offset: start}
}

func (s *scanner) lexError(offset int, msg string) error {
	return &LexError{Diag: diagnostics.MakeDiagAt(diagnostics.ELex, msg, offset)}
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.advance()
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Identifiers may contain hyphens, so `a-b` is one identifier token.
func isIdentChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '-'
}

func (s *scanner) scanIdentifier() Token {
	start := s.pos
	for !s.atEnd() && isIdentChar(s.peek()) {
		s.advance()
	}
	return s.emit(TokIdentifier, start)
}

func (s *scanner) scanNumber() (Token, error) {
	start := s.pos
	if s.peek() == '+' || s.peek() == '-' {
		s.advance()
	}

	digitStart := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	if !s.atEnd() && s.peek() == '.' {
		s.advance()
		if s.atEnd() || !isDigit(s.peek()) {
			return Token{}, s.lexError(s.pos, "expected digit after decimal point")
		}
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
		return s.emit(TokDecimal, start), nil
	}

	// Integer-only rules: no leading zero, no negative zero.
	if s.pos-digitStart > 1 && s.source[digitStart] == '0' {
		return Token{}, s.lexError(digitStart+1, "integer literal has a leading zero")
	}
	if s.source[start:s.pos] == "-0" {
		return Token{}, s.lexError(digitStart, "negative zero is not a valid integer")
	}
	return s.emit(TokInteger, start), nil
}

// scanEscape consumes a backslash escape inside a character or string
// literal. The valid escape characters are b, n, r, t, single quote, double
// quote, and backslash.
func (s *scanner) scanEscape() error {
	s.advance() // consume backslash
	if s.atEnd() {
		return s.lexError(s.pos, "unterminated escape sequence")
	}
	switch s.peek() {
	case 'b', 'n', 'r', 't', '\'', '"', '\\':
		s.advance()
		return nil
	default:
		return s.lexError(s.pos, fmt.Sprintf("invalid escape character '%c'", s.peek()))
	}
}

func (s *scanner) scanCharacter() (Token, error) {
	start := s.pos
	s.advance() // consume opening quote

	if s.atEnd() {
		return Token{}, s.lexError(s.pos, "unterminated character literal")
	}
	switch s.peek() {
	case '\\':
		if err := s.scanEscape(); err != nil {
			return Token{}, err
		}
	case '\'':
		return Token{}, s.lexError(s.pos, "empty character literal")
	default:
		s.advanceRune()
	}

	if s.atEnd() || s.peek() != '\'' {
		return Token{}, s.lexError(s.pos, "unterminated character literal")
	}
	s.advance() // consume closing quote
	return s.emit(TokCharacter, start), nil
}

func (s *scanner) scanString() (Token, error) {
	start := s.pos
	s.advance() // consume opening quote

	for !s.atEnd() {
		switch s.peek() {
		case '"':
			s.advance()
			return s.emit(TokString, start), nil
		case '\\':
			if err := s.scanEscape(); err != nil {
				return Token{}, err
			}
		default:
			s.advanceRune()
		}
	}
	return Token{}, s.lexError(s.pos, "unterminated string literal")
}

// scanOperator emits the two-character operators != == <= >= && || greedily
// and otherwise any single non-whitespace character, making every printable
// character lexically valid as a fallback operator token.
func (s *scanner) scanOperator() Token {
	start := s.pos
	ch := s.advance()
	if !s.atEnd() {
		switch string(ch) + string(s.peek()) {
		case "!=", "==", "<=", ">=", "&&", "||":
			s.advance()
		}
	}
	return s.emit(TokOperator, start)
}

func (s *scanner) nextToken() (Token, error) {
	ch := s.peek()
	switch {
	case isAlpha(ch):
		return s.scanIdentifier(), nil
	case isDigit(ch), (ch == '+' || ch == '-') && isDigit(s.peekAt(1)):
		return s.scanNumber()
	case ch == '\'':
		return s.scanCharacter()
	case ch == '"':
		return s.scanString()
	default:
		return s.scanOperator(), nil
	}
}

// Lex breaks source text into a slice of tokens, skipping whitespace. It
// fails with a *LexError at the first character that cannot start or
// complete a valid token.
func Lex(source string) ([]Token, error) {
	s := &scanner{source: source}
	var tokens []Token

	for {
		s.skipWhitespace()
		if s.atEnd() {
			return tokens, nil
		}
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}
