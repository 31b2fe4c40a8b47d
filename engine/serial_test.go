package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_BinaryRoundTrip(t *testing.T) {
	env := NewEnvironment()
	env.AddRule(&Rule{LHS: List{Atom("double"), Atom("$x")}, RHS: List{Atom("*"), Atom("$x"), Int(2)}})
	env.AddRule(&Rule{LHS: List{Atom("double"), Atom("$x")}, RHS: List{Atom("*"), Atom("$x"), Int(2)}})
	env.AddFact(List{Atom("parent"), Atom("tom"), Atom("bob")})
	env.AddFact(List{Atom(":"), Atom("age"), List{Atom("->"), Atom("Atom"), Atom("Number")}})

	data, err := env.MarshalBinary()
	require.NoError(t, err)

	var got Environment
	require.NoError(t, got.UnmarshalBinary(data))

	assert.Equal(t, env.FactCount(), got.FactCount())
	assert.True(t, got.HasFact(List{Atom("parent"), Atom("tom"), Atom("bob")}))

	// Rules are re-indexed from their fact forms, multiplicities restored.
	rules := got.GetMatchingRules("double", 1)
	require.Len(t, rules, 1)
	assert.Equal(t, 2, got.Multiplicity(rules[0]))

	results, _ := Eval(List{Atom("double"), Int(21)}, &got)
	assert.Equal(t, []Term{Int(42)}, results)

	// Type assertions rebuild the type index.
	typ, ok := got.LookupType("age")
	require.True(t, ok)
	assert.Equal(t, Term(List{Atom("->"), Atom("Atom"), Atom("Number")}), typ)
}

func TestEnvironment_RoundTripDeterministic(t *testing.T) {
	env := NewEnvironment()
	env.AddFact(List{Atom("b")})
	env.AddFact(List{Atom("a")})

	d1, err := env.MarshalBinary()
	require.NoError(t, err)
	d2, err := env.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestEnvironment_UnmarshalErrors(t *testing.T) {
	var env Environment
	assert.Error(t, env.UnmarshalBinary(nil))
	assert.Error(t, env.UnmarshalBinary([]byte{99}))

	good, err := NewEnvironment().MarshalBinary()
	require.NoError(t, err)
	assert.Error(t, env.UnmarshalBinary(append(good, 0x01)))
}
