package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execFact(priority Term, antecedent, consequent Conjunction) List {
	return List{Atom("exec"), priority, antecedent, consequent}
}

func TestExecRuleFromTerm(t *testing.T) {
	t.Run("well-formed", func(t *testing.T) {
		rule, ok := ExecRuleFromTerm(execFact(
			Int(1),
			Conjunction{List{Atom("p"), Atom("$x")}},
			Conjunction{List{Atom("q"), Atom("$x")}},
		))
		require.True(t, ok)
		assert.Equal(t, Term(Int(1)), rule.Priority)
		assert.Len(t, rule.Antecedent, 1)
		assert.Len(t, rule.Consequent, 1)
	})

	t.Run("comma form", func(t *testing.T) {
		rule, ok := ExecRuleFromTerm(List{
			Atom("exec"), Int(1),
			List{Atom(","), List{Atom("p")}, List{Atom("q")}},
			Nil{},
		})
		require.True(t, ok)
		assert.Len(t, rule.Antecedent, 2)
		assert.Empty(t, rule.Consequent)
	})

	t.Run("bare goal", func(t *testing.T) {
		rule, ok := ExecRuleFromTerm(List{Atom("exec"), Int(1), List{Atom("p")}, List{Atom("q")}})
		require.True(t, ok)
		assert.Equal(t, []Term{List{Atom("p")}}, rule.Antecedent)
	})

	t.Run("not an exec fact", func(t *testing.T) {
		_, ok := ExecRuleFromTerm(List{Atom("p"), Int(1)})
		assert.False(t, ok)
		_, ok = ExecRuleFromTerm(List{Atom("exec"), Int(1), Nil{}})
		assert.False(t, ok)
	})
}

func TestComparePriorities(t *testing.T) {
	s := func(n Term) Term { return List{Atom("S"), n} }

	tests := []struct {
		name string
		a, b Term
		want int
	}{
		{"integers", Int(1), Int(2), -1},
		{"equal integers", Int(3), Int(3), 0},
		{"integer before peano", Int(100), Atom("Z"), -1},
		{"peano ordering", Atom("Z"), s(Atom("Z")), -1},
		{"peano equal", s(s(Atom("Z"))), s(s(Atom("Z"))), 0},
		{"peano before tuple", s(Atom("Z")), List{Int(0), Int(0)}, -1},
		{"tuple lexicographic", List{Int(1), Int(2)}, List{Int(1), Int(3)}, -1},
		{"tuple prefix", List{Int(1)}, List{Int(1), Int(0)}, -1},
		{"atoms by text", Atom("a"), Atom("b"), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComparePriorities(tt.a, tt.b))
			assert.Equal(t, -tt.want, ComparePriorities(tt.b, tt.a))
		})
	}
}

func TestMatchAntecedent(t *testing.T) {
	facts := []Term{
		List{Atom("p"), Int(1)},
		List{Atom("p"), Int(2)},
		List{Atom("q"), Int(2)},
	}

	t.Run("empty antecedent is vacuous", func(t *testing.T) {
		bs := MatchAntecedent(nil, facts, NewBindings())
		require.Len(t, bs, 1)
		assert.Empty(t, bs[0])
	})

	t.Run("bindings thread across goals", func(t *testing.T) {
		bs := MatchAntecedent(
			[]Term{List{Atom("p"), Atom("$x")}, List{Atom("q"), Atom("$x")}},
			facts, NewBindings(),
		)
		require.Len(t, bs, 1)
		assert.Equal(t, Bindings{"$x": Int(2)}, bs[0])
	})

	t.Run("each match branches", func(t *testing.T) {
		bs := MatchAntecedent([]Term{List{Atom("p"), Atom("$x")}}, facts, NewBindings())
		require.Len(t, bs, 2)
		assert.Equal(t, Bindings{"$x": Int(1)}, bs[0])
		assert.Equal(t, Bindings{"$x": Int(2)}, bs[1])
	})

	t.Run("no match", func(t *testing.T) {
		bs := MatchAntecedent([]Term{List{Atom("r"), Atom("$x")}}, facts, NewBindings())
		assert.Empty(t, bs)
	})
}

func TestRunToFixedPoint(t *testing.T) {
	t.Run("no exec rules converges immediately", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("p"), Int(1)})

		res := RunToFixedPoint(env, 10)
		assert.True(t, res.Converged)
		assert.Equal(t, 0, res.Iterations)
		assert.Equal(t, 0, res.FactsAdded)
	})

	t.Run("single derivation", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("n"), Int(1)})
		env.AddFact(execFact(Int(1),
			Conjunction{List{Atom("n"), Int(1)}},
			Conjunction{List{Atom("m"), Int(1)}},
		))

		res := RunToFixedPoint(env, 10)
		assert.True(t, res.Converged)
		assert.Equal(t, 2, res.Iterations)
		assert.Equal(t, 1, res.FactsAdded)
		assert.True(t, res.Env.HasFact(List{Atom("m"), Int(1)}))
		// The input environment never mutates.
		assert.False(t, env.HasFact(List{Atom("m"), Int(1)}))
	})

	t.Run("transitive closure", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("edge"), Atom("a"), Atom("b")})
		env.AddFact(List{Atom("edge"), Atom("b"), Atom("c")})
		env.AddFact(List{Atom("edge"), Atom("c"), Atom("d")})
		env.AddFact(execFact(Int(1),
			Conjunction{List{Atom("edge"), Atom("$x"), Atom("$y")}},
			Conjunction{List{Atom("reach"), Atom("$x"), Atom("$y")}},
		))
		env.AddFact(execFact(Int(2),
			Conjunction{
				List{Atom("reach"), Atom("$x"), Atom("$y")},
				List{Atom("edge"), Atom("$y"), Atom("$z")},
			},
			Conjunction{List{Atom("reach"), Atom("$x"), Atom("$z")}},
		))

		res := RunToFixedPoint(env, 20)
		assert.True(t, res.Converged)
		assert.Equal(t, 4, res.Iterations)
		assert.Equal(t, 6, res.FactsAdded)
		for _, pair := range [][2]string{
			{"a", "b"}, {"b", "c"}, {"c", "d"},
			{"a", "c"}, {"b", "d"},
			{"a", "d"},
		} {
			assert.True(t, res.Env.HasFact(List{Atom("reach"), Atom(pair[0]), Atom(pair[1])}),
				"missing reach(%s, %s)", pair[0], pair[1])
		}
	})

	t.Run("iteration limit", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("counter"), Atom("Z")})
		env.AddFact(execFact(Int(1),
			Conjunction{List{Atom("counter"), Atom("$n")}},
			Conjunction{List{Atom("counter"), List{Atom("S"), Atom("$n")}}},
		))

		res := RunToFixedPoint(env, 5)
		assert.False(t, res.Converged)
		assert.Equal(t, 5, res.Iterations)
		assert.Equal(t, 5, res.FactsAdded)
	})

	t.Run("operations goal", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("switch"), Atom("on")})
		env.AddFact(execFact(Int(1),
			Conjunction{List{Atom("switch"), Atom("on")}},
			Conjunction{List{Atom("O"),
				List{Atom("-"), List{Atom("switch"), Atom("on")}},
				List{Atom("+"), List{Atom("switch"), Atom("off")}},
			}},
		))

		res := RunToFixedPoint(env, 10)
		assert.True(t, res.Converged)
		assert.True(t, res.Env.HasFact(List{Atom("switch"), Atom("off")}))
		assert.False(t, res.Env.HasFact(List{Atom("switch"), Atom("on")}))
	})

	t.Run("open consequent goal harvests bindings", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("age"), Atom("tom"), Int(70)})
		env.AddFact(execFact(Int(1),
			Conjunction{},
			Conjunction{
				List{Atom("age"), Atom("tom"), Atom("$a")},
				List{Atom("senior"), Atom("tom"), Atom("$a")},
			},
		))

		res := RunToFixedPoint(env, 10)
		assert.True(t, res.Converged)
		assert.True(t, res.Env.HasFact(List{Atom("senior"), Atom("tom"), Int(70)}))
	})

	t.Run("nested exec is asserted, then activated", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(List{Atom("seed"), Int(1)})
		inner := execFact(Int(2),
			Conjunction{List{Atom("seed"), Atom("$x")}},
			Conjunction{List{Atom("grown"), Atom("$x")}},
		)
		env.AddFact(execFact(Int(1), Conjunction{}, Conjunction{inner}))

		res := RunToFixedPoint(env, 10)
		assert.True(t, res.Converged)
		assert.True(t, res.Env.HasFact(inner))
		assert.True(t, res.Env.HasFact(List{Atom("grown"), Int(1)}))
	})

	t.Run("priority order", func(t *testing.T) {
		env := NewEnvironment()
		env.AddFact(execFact(Int(5), Conjunction{List{Atom("b")}}, Conjunction{}))
		env.AddFact(execFact(List{Atom("S"), Atom("Z")}, Conjunction{List{Atom("c")}}, Conjunction{}))
		env.AddFact(execFact(Int(1), Conjunction{List{Atom("a")}}, Conjunction{}))

		rules := collectExecRules(env)
		require.Len(t, rules, 3)
		assert.Equal(t, Term(Int(1)), rules[0].Priority)
		assert.Equal(t, Term(Int(5)), rules[1].Priority)
		assert.Equal(t, Term(List{Atom("S"), Atom("Z")}), rules[2].Priority)
	})
}
