// Package evaluator implements the Quill tree-walking interpreter.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"math/big"

	"github.com/shopspring/decimal"
)

// Value is the interface for all Quill runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
	TypeName() string
}

// NilValue represents the nil value.
type NilValue struct{}

func (NilValue) value()           {}
func (NilValue) TypeName() string { return "nil" }

// BoolValue represents a boolean value.
type BoolValue struct {
	Value bool
}

func (BoolValue) value()           {}
func (BoolValue) TypeName() string { return "boolean" }

// IntValue represents an arbitrary-precision integer value.
type IntValue struct {
	Value *big.Int
}

func (IntValue) value()           {}
func (IntValue) TypeName() string { return "integer" }

// DecValue represents an arbitrary-precision decimal value.
type DecValue struct {
	Value decimal.Decimal
}

func (DecValue) value()           {}
func (DecValue) TypeName() string { return "decimal" }

// CharValue represents a single character value.
type CharValue struct {
	Value rune
}

func (CharValue) value()           {}
func (CharValue) TypeName() string { return "character" }

// StrValue represents a string value.
type StrValue struct {
	Value string
}

func (StrValue) value()           {}
func (StrValue) TypeName() string { return "string" }

// Fn represents a callable value: a declared method or a host builtin.
// Fn values are compared by identity.
type Fn struct {
	Name  string
	Arity int
	Call  func(args []Value) (Value, error)
}

func (*Fn) value()           {}
func (*Fn) TypeName() string { return "function" }

// ObjField is a named field in an ordered object.
type ObjField struct {
	Name  string
	Value Value
}

// Obj represents a structured object with an ordered field table.
// Field order is preserved via the Fields slice; Obj values are compared by
// identity and mutated in place by field replacement.
type Obj struct {
	Fields []ObjField
	index  map[string]int // lazy index for lookups
}

func (*Obj) value()           {}
func (*Obj) TypeName() string { return "object" }

// NewInt creates an integer value from an int64.
func NewInt(n int64) Value {
	return IntValue{Value: big.NewInt(n)}
}

// NewObj creates an object value from ordered fields.
func NewObj(fields []ObjField) *Obj {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return &Obj{Fields: fields, index: idx}
}

func (o *Obj) ensureIndex() {
	if o.index == nil {
		o.index = make(map[string]int, len(o.Fields))
		for i, f := range o.Fields {
			o.index[f.Name] = i
		}
	}
}

// Get retrieves a field value by name.
func (o *Obj) Get(name string) (Value, bool) {
	o.ensureIndex()
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.Fields[i].Value, true
}

// Replace overwrites an existing field and reports whether the field exists.
// It never inserts; object shapes are fixed once built.
func (o *Obj) Replace(name string, val Value) bool {
	o.ensureIndex()
	i, ok := o.index[name]
	if !ok {
		return false
	}
	o.Fields[i].Value = val
	return true
}

// Set inserts or overwrites a field, preserving insertion order. Used by
// hosts while constructing objects.
func (o *Obj) Set(name string, val Value) {
	o.ensureIndex()
	if i, ok := o.index[name]; ok {
		o.Fields[i].Value = val
		return
	}
	o.index[name] = len(o.Fields)
	o.Fields = append(o.Fields, ObjField{Name: name, Value: val})
}

// Equal reports value equality. Values of different tags are never equal;
// functions and objects compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case NilValue:
		_, ok := b.(NilValue)
		return ok
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x.Value == y.Value
	case IntValue:
		y, ok := b.(IntValue)
		return ok && x.Value.Cmp(y.Value) == 0
	case DecValue:
		y, ok := b.(DecValue)
		return ok && x.Value.Equal(y.Value)
	case CharValue:
		y, ok := b.(CharValue)
		return ok && x.Value == y.Value
	case StrValue:
		y, ok := b.(StrValue)
		return ok && x.Value == y.Value
	default:
		return a == b
	}
}

// Display returns the displayable representation of a value, the form print
// writes and the REPL echoes.
func Display(v Value) string {
	switch x := v.(type) {
	case NilValue:
		return "nil"
	case BoolValue:
		return strconv.FormatBool(x.Value)
	case IntValue:
		return x.Value.String()
	case DecValue:
		return x.Value.String()
	case CharValue:
		return string(x.Value)
	case StrValue:
		return x.Value
	case *Fn:
		return fmt.Sprintf("fn %s/%d", x.Name, x.Arity)
	case *Obj:
		parts := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = f.Name + ": " + Display(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<%s>", v.TypeName())
	}
}
