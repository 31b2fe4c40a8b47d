package metta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mettatron/metta/engine"
)

func TestCompileRun(t *testing.T) {
	terms, env, err := Compile(`
(= (inc $x) (+ $x 1))
!(inc 41)
`)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	require.NotNil(t, env)
	assert.Equal(t, 0, env.RuleCount())

	results, env := Run(env, terms)
	require.Len(t, results, 1)
	assert.Equal(t, []engine.Term{engine.Int(42)}, results[0].Values)
	assert.Equal(t, 1, env.RuleCount())
}

func TestCompile_Error(t *testing.T) {
	_, _, err := Compile("(oops")
	assert.Error(t, err)
}
