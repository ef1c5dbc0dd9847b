// Package diagnostics defines Quill diagnostic types for lex, parse, and
// runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnostic code constants.
const (
	ELex        = "E_LEX"
	EParse      = "E_PARSE"
	EUnbound    = "E_UNBOUND"
	EArity      = "E_ARITY"
	EType       = "E_TYPE"
	ENoField    = "E_NO_FIELD"
	EConst      = "E_CONST"
	EDivZero    = "E_DIV_ZERO"
	EDupBinding = "E_DUP_BINDING"
	ENoMain     = "E_NO_MAIN"
	EInternal   = "E_INTERNAL"
	EIO         = "E_IO"
)

// Diagnostic represents a lex, parse, or runtime diagnostic. Offset is the
// byte offset into the source where the problem was detected; it is nil for
// runtime diagnostics, which carry no source position.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  *int   `json:"offset,omitempty"`
}

// MakeDiag creates a new Diagnostic without a source offset.
func MakeDiag(code, message string) Diagnostic {
	return Diagnostic{Code: code, Message: message}
}

// MakeDiagAt creates a new Diagnostic at a source offset.
func MakeDiagAt(code, message string, offset int) Diagnostic {
	return Diagnostic{Code: code, Message: message, Offset: &offset}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s", d.Code, d.Message)
	if d.Offset != nil {
		out += fmt.Sprintf("\n  --> offset %d", *d.Offset)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
