package evaluator

import (
	"testing"

	"math/big"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(t *testing.T, text string) DecValue {
	t.Helper()
	return DecValue{Value: decimal.RequireFromString(text)}
}

func TestEqualSameTag(t *testing.T) {
	assert.True(t, Equal(NilValue{}, NilValue{}))
	assert.True(t, Equal(BoolValue{Value: true}, BoolValue{Value: true}))
	assert.False(t, Equal(BoolValue{Value: true}, BoolValue{Value: false}))
	assert.True(t, Equal(NewInt(42), NewInt(42)))
	assert.False(t, Equal(NewInt(42), NewInt(43)))
	assert.True(t, Equal(CharValue{Value: 'x'}, CharValue{Value: 'x'}))
	assert.True(t, Equal(StrValue{Value: "a"}, StrValue{Value: "a"}))
}

func TestEqualDecimalsByNumericValue(t *testing.T) {
	// 1.5 and 1.50 differ in scale but not in value.
	assert.True(t, Equal(dec(t, "1.5"), dec(t, "1.50")))
	assert.False(t, Equal(dec(t, "1.5"), dec(t, "1.51")))
}

func TestEqualAcrossTagsIsFalse(t *testing.T) {
	assert.False(t, Equal(NewInt(1), dec(t, "1")))
	assert.False(t, Equal(NilValue{}, BoolValue{Value: false}))
	assert.False(t, Equal(StrValue{Value: "a"}, CharValue{Value: 'a'}))
	assert.False(t, Equal(NewInt(0), StrValue{Value: "0"}))
}

func TestEqualFunctionsAndObjectsByIdentity(t *testing.T) {
	fn := &Fn{Name: "f", Arity: 0}
	assert.True(t, Equal(fn, fn))
	assert.False(t, Equal(fn, &Fn{Name: "f", Arity: 0}))

	obj := NewObj(nil)
	assert.True(t, Equal(obj, obj))
	assert.False(t, Equal(obj, NewObj(nil)))
}

func TestDisplayForms(t *testing.T) {
	assert.Equal(t, "nil", Display(NilValue{}))
	assert.Equal(t, "true", Display(BoolValue{Value: true}))
	assert.Equal(t, "42", Display(NewInt(42)))
	assert.Equal(t, "-7", Display(IntValue{Value: big.NewInt(-7)}))
	assert.Equal(t, "1.50", Display(dec(t, "1.50")))
	assert.Equal(t, "x", Display(CharValue{Value: 'x'}))
	assert.Equal(t, "hello", Display(StrValue{Value: "hello"}))
	assert.Equal(t, "fn print/1", Display(&Fn{Name: "print", Arity: 1}))
}

func TestDisplayObject(t *testing.T) {
	obj := NewObj([]ObjField{
		{Name: "name", Value: StrValue{Value: "quill"}},
		{Name: "count", Value: NewInt(3)},
	})
	assert.Equal(t, "{name: quill, count: 3}", Display(obj))
	assert.Equal(t, "{}", Display(NewObj(nil)))
}

func TestObjFieldTable(t *testing.T) {
	obj := NewObj([]ObjField{{Name: "a", Value: NewInt(1)}})

	v, ok := obj.Get("a")
	assert.True(t, ok)
	assert.True(t, Equal(NewInt(1), v))

	_, ok = obj.Get("missing")
	assert.False(t, ok)

	// Replace only touches existing fields.
	assert.True(t, obj.Replace("a", NewInt(2)))
	assert.False(t, obj.Replace("missing", NewInt(9)))
	v, _ = obj.Get("a")
	assert.True(t, Equal(NewInt(2), v))

	// Set inserts, preserving order.
	obj.Set("b", NewInt(3))
	obj.Set("a", NewInt(4))
	assert.Equal(t, "{a: 4, b: 3}", Display(obj))
}
