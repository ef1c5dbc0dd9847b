package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/pkg/diagnostics"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, code, rtErr.Code)
}

func TestScopeVariableLookupWalksParents(t *testing.T) {
	root := NewScope(nil)
	require.NoError(t, root.DefineVariable("x", false, NewInt(1)))

	child := root.Child()
	v, err := child.LookupVariable("x")
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(1), v.Value))

	_, err = child.LookupVariable("y")
	requireCode(t, err, diagnostics.EUnbound)
}

func TestScopeDuplicateVariableFails(t *testing.T) {
	scope := NewScope(nil)
	require.NoError(t, scope.DefineVariable("x", false, NewInt(1)))
	requireCode(t, scope.DefineVariable("x", false, NewInt(2)), diagnostics.EDupBinding)

	// Shadowing an ancestor's binding is allowed.
	child := scope.Child()
	require.NoError(t, child.DefineVariable("x", false, NewInt(3)))

	v, err := child.LookupVariable("x")
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(3), v.Value))

	// The parent binding is untouched.
	v, err = scope.LookupVariable("x")
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(1), v.Value))
}

func TestScopeFunctionsKeyedByArity(t *testing.T) {
	scope := NewScope(nil)
	f0 := &Fn{Name: "f", Arity: 0}
	f2 := &Fn{Name: "f", Arity: 2}
	require.NoError(t, scope.DefineFunction(f0))
	require.NoError(t, scope.DefineFunction(f2))

	got, err := scope.LookupFunction("f", 0)
	require.NoError(t, err)
	assert.Same(t, f0, got)

	got, err = scope.LookupFunction("f", 2)
	require.NoError(t, err)
	assert.Same(t, f2, got)

	requireCode(t, scope.DefineFunction(&Fn{Name: "f", Arity: 0}), diagnostics.EDupBinding)
}

func TestScopeFunctionLookupErrors(t *testing.T) {
	scope := NewScope(nil)
	require.NoError(t, scope.DefineFunction(&Fn{Name: "f", Arity: 1}))
	child := scope.Child()

	// Known name at the wrong arity is an arity error, not unbound.
	_, err := child.LookupFunction("f", 3)
	requireCode(t, err, diagnostics.EArity)

	_, err = child.LookupFunction("g", 0)
	requireCode(t, err, diagnostics.EUnbound)
}

func TestScopeNamespacesAreSeparate(t *testing.T) {
	scope := NewScope(nil)
	require.NoError(t, scope.DefineVariable("f", false, NewInt(1)))
	require.NoError(t, scope.DefineFunction(&Fn{Name: "f", Arity: 0}))

	_, err := scope.LookupVariable("f")
	require.NoError(t, err)
	_, err = scope.LookupFunction("f", 0)
	require.NoError(t, err)
}
