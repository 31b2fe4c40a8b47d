package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferType(t *testing.T) {
	env := NewEnvironment()
	env.AddType("age", List{Atom("->"), Atom("Atom"), Atom("Number")})
	env.AddType("pi", Atom("Number"))

	tests := []struct {
		name string
		term Term
		want Term
	}{
		{"int", Int(1), Atom("Number")},
		{"bool", Bool(true), Atom("Bool")},
		{"string", Str("x"), Atom("String")},
		{"uri", URI("file:///x"), Atom("URI")},
		{"nil", Nil{}, Atom("Nil")},
		{"error", NewError("boom", nil), Atom("Error")},
		{"variable", Atom("$x"), NewType(Atom("$x"))},
		{"undeclared atom", Atom("mystery"), Atom("Undefined")},
		{"declared atom", Atom("pi"), Atom("Number")},
		{"declared arrow", Atom("age"), List{Atom("->"), Atom("Atom"), Atom("Number")}},
		{"arithmetic", List{Atom("+"), Int(1), Int(2)}, Atom("Number")},
		{"comparison", List{Atom("<"), Int(1), Int(2)}, Atom("Bool")},
		{"application of arrow", List{Atom("age"), Atom("tom")}, Atom("Number")},
		{"application of undeclared", List{Atom("mystery"), Int(1)}, Atom("Undefined")},
		{"arrow literal", List{Atom("->"), Atom("Number"), Atom("Bool")}, NewType(List{Atom("->"), Atom("Number"), Atom("Bool")})},
		{"quote passes through", List{Atom("quote"), Int(1)}, Atom("Number")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(tt.term, env))
		})
	}
}

func TestTypesMatch(t *testing.T) {
	assert.True(t, TypesMatch(Atom("Number"), Atom("Number")))
	assert.False(t, TypesMatch(Atom("Number"), Atom("Bool")))
	assert.True(t, TypesMatch(Atom("Number"), Atom("$t")))
	assert.True(t, TypesMatch(Atom("Number"), Atom("_")))
	assert.True(t, TypesMatch(
		List{Atom("->"), Atom("Number"), Atom("Bool")},
		List{Atom("->"), Atom("$a"), Atom("Bool")},
	))
}
