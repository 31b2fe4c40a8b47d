package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryBuiltin_Arithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b Int
		want Term
	}{
		{"+", 1, 2, Int(3)},
		{"-", 1, 2, Int(-1)},
		{"*", 6, 7, Int(42)},
		{"/", 7, 2, Int(3)},
		{"/", -7, 2, Int(-3)},
		{"%", 7, 2, Int(1)},
		{"%", -7, 2, Int(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := TryBuiltin(tt.op, []Term{tt.a, tt.b})
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("division by zero", func(t *testing.T) {
		got, ok := TryBuiltin("/", []Term{Int(1), Int(0)})
		require.True(t, ok)
		err, isErr := got.(Error)
		require.True(t, isErr)
		assert.Equal(t, "division by zero", err.Message)
	})

	t.Run("overflow", func(t *testing.T) {
		got, ok := TryBuiltin("+", []Term{Int(math.MaxInt64), Int(1)})
		require.True(t, ok)
		err, isErr := got.(Error)
		require.True(t, isErr)
		assert.Equal(t, "integer overflow", err.Message)

		got, ok = TryBuiltin("*", []Term{Int(math.MaxInt64), Int(math.MaxInt64)})
		require.True(t, ok)
		_, isErr = got.(Error)
		assert.True(t, isErr)
	})

	t.Run("non-integer operand", func(t *testing.T) {
		got, ok := TryBuiltin("+", []Term{Int(1), Atom("foo")})
		require.True(t, ok)
		err, isErr := got.(Error)
		require.True(t, isErr)
		assert.Equal(t, "foo", err.Message)
		assert.Equal(t, Atom("BadType"), err.Payload)
	})

	t.Run("wrong arity", func(t *testing.T) {
		got, ok := TryBuiltin("+", []Term{Int(1)})
		require.True(t, ok)
		err, isErr := got.(Error)
		require.True(t, isErr)
		assert.Equal(t, "+ requires exactly 2 arguments, got 1", err.Message)
		assert.Equal(t, Nil{}, err.Payload)
	})
}

func TestTryBuiltin_Comparison(t *testing.T) {
	tests := []struct {
		op   string
		a, b Int
		want Bool
	}{
		{"<", 1, 2, true},
		{"<", 2, 2, false},
		{"<=", 2, 2, true},
		{">", 3, 2, true},
		{">=", 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := TryBuiltin(tt.op, []Term{tt.a, tt.b})
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTryBuiltin_Equality(t *testing.T) {
	got, ok := TryBuiltin("==", []Term{List{Atom("f"), Int(1)}, List{Atom("f"), Int(1)}})
	require.True(t, ok)
	assert.Equal(t, Bool(true), got)

	got, ok = TryBuiltin("!=", []Term{Int(1), Str("1")})
	require.True(t, ok)
	assert.Equal(t, Bool(true), got)
}

func TestTryBuiltin_Logic(t *testing.T) {
	got, ok := TryBuiltin("and", []Term{Bool(true), Bool(false)})
	require.True(t, ok)
	assert.Equal(t, Bool(false), got)

	got, ok = TryBuiltin("or", []Term{Bool(true), Bool(false)})
	require.True(t, ok)
	assert.Equal(t, Bool(true), got)

	got, ok = TryBuiltin("not", []Term{Bool(false)})
	require.True(t, ok)
	assert.Equal(t, Bool(true), got)

	got, ok = TryBuiltin("and", []Term{Bool(true), Int(1)})
	require.True(t, ok)
	err, isErr := got.(Error)
	require.True(t, isErr)
	assert.Equal(t, Atom("BadType"), err.Payload)
}

func TestTryBuiltin_UnknownHead(t *testing.T) {
	_, ok := TryBuiltin("frobnicate", []Term{Int(1)})
	assert.False(t, ok)
}
