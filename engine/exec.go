package engine

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// The fixed-point driver activates stored (exec priority antecedent
// consequent) meta-rules. It repeatedly fires every rule whose antecedent
// matches the fact base until an iteration leaves the fact count unchanged.
// The driver works purely on facts and matching; it never calls Eval.

// ExecRule is a parsed meta-rule. Antecedent and Consequent are goal
// sequences; an empty antecedent is vacuously satisfied.
type ExecRule struct {
	Priority   Term
	Antecedent []Term
	Consequent []Term
}

// ExecRuleFromTerm parses an (exec priority antecedent consequent) fact.
func ExecRuleFromTerm(t Term) (*ExecRule, bool) {
	items, ok := t.(List)
	if !ok || len(items) != 4 {
		return nil, false
	}
	if head, ok := items[0].(Atom); !ok || string(head) != "exec" {
		return nil, false
	}
	return &ExecRule{
		Priority:   items[1],
		Antecedent: goalsOf(items[2]),
		Consequent: goalsOf(items[3]),
	}, true
}

// goalsOf flattens a conjunction into its goal sequence. A bare goal is a
// one-element sequence; Nil is the empty one.
func goalsOf(t Term) []Term {
	switch t := t.(type) {
	case Conjunction:
		return t
	case Nil:
		return nil
	case List:
		if len(t) > 0 {
			if head, ok := t[0].(Atom); ok && string(head) == "," {
				return t[1:]
			}
		}
		return []Term{t}
	default:
		return []Term{t}
	}
}

// peanoValue decodes Z / (S n) numerals; ok=false for anything else.
func peanoValue(t Term) (int, bool) {
	n := 0
	for {
		switch v := t.(type) {
		case Atom:
			if string(v) == "Z" {
				return n, true
			}
			return 0, false
		case List:
			if len(v) == 2 {
				if head, ok := v[0].(Atom); ok && string(head) == "S" {
					n++
					t = v[1]
					continue
				}
			}
			return 0, false
		default:
			return 0, false
		}
	}
}

func priorityRank(t Term) int {
	switch t := t.(type) {
	case Int:
		return 0
	case Atom:
		if _, ok := peanoValue(t); ok {
			return 1
		}
		return 3
	case List:
		if _, ok := peanoValue(t); ok {
			return 1
		}
		return 2
	default:
		return 3
	}
}

// ComparePriorities orders rule priorities: integers first, then Peano
// numerals, then tuples lexicographically. Anything else sorts last by its
// textual form, so the order is still total and deterministic.
func ComparePriorities(a, b Term) int {
	ra, rb := priorityRank(a), priorityRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		ai, bi := a.(Int), b.(Int)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case 1:
		ai, _ := peanoValue(a)
		bi, _ := peanoValue(b)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case 2:
		al, bl := a.(List), b.(List)
		for i := 0; i < len(al) && i < len(bl); i++ {
			if c := ComparePriorities(al[i], bl[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(al) < len(bl):
			return -1
		case len(al) > len(bl):
			return 1
		}
		return 0
	default:
		as, bs := a.String(), b.String()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
}

// MatchAntecedent threads bindings through the goal sequence against the
// fact base. Each goal may match several facts, so the result is the full
// set of consistent binding environments, one per derivation branch.
func MatchAntecedent(goals []Term, facts []Term, b Bindings) []Bindings {
	if len(goals) == 0 {
		return []Bindings{b}
	}
	goal := b.Apply(goals[0])

	var out []Bindings
	for _, fact := range facts {
		branch := b.Clone()
		if !MatchWith(goal, fact, branch) {
			continue
		}
		out = append(out, MatchAntecedent(goals[1:], facts, branch)...)
	}
	return out
}

// applyConsequent instantiates and asserts the consequent goals under b.
//
// Two passes: the first resolves goals that still contain variables by
// matching them against the fact base (first match wins) so later goals can
// see the harvested bindings; the second performs the assertions. An (O ...)
// goal is a batch of (+ fact) / (- fact) operations on the fact base, and a
// nested exec goal is asserted as a fact, to be activated on a later
// iteration rather than executed inline.
func applyConsequent(goals []Term, facts []Term, b Bindings, env *Environment) {
	for _, goal := range goals {
		instantiated := b.Apply(goal)
		if !HasVariables(instantiated) {
			continue
		}
		if isOperationGoal(instantiated) {
			continue
		}
		for _, fact := range facts {
			scratch := b.Clone()
			if MatchWith(instantiated, fact, scratch) {
				b = scratch
				break
			}
		}
	}

	for _, goal := range goals {
		instantiated := b.Apply(goal)
		if isOperationGoal(instantiated) {
			applyOperations(instantiated.(List)[1:], env)
			continue
		}
		env.AddFact(instantiated)
	}
}

func isOperationGoal(t Term) bool {
	items, ok := t.(List)
	if !ok || len(items) == 0 {
		return false
	}
	head, ok := items[0].(Atom)
	return ok && string(head) == "O"
}

func applyOperations(ops []Term, env *Environment) {
	for _, op := range ops {
		items, ok := op.(List)
		if !ok || len(items) != 2 {
			continue
		}
		head, ok := items[0].(Atom)
		if !ok {
			continue
		}
		switch string(head) {
		case "+":
			env.AddFact(items[1])
		case "-":
			env.RemoveFact(items[1])
		}
	}
}

// FixedPointResult reports how a RunToFixedPoint call ended.
type FixedPointResult struct {
	Iterations int
	Converged  bool
	FactsAdded int
	Env        *Environment
}

// RunToFixedPoint fires the stored exec rules against env's fact base until
// the fact count stabilizes or maxIterations passes have run. The input
// environment is never mutated; each iteration works on a clone.
func RunToFixedPoint(env *Environment, maxIterations int) FixedPointResult {
	current := env.Clone()
	before := current.FactCount()
	initial := before

	for i := 0; i < maxIterations; i++ {
		rules := collectExecRules(current)
		if len(rules) == 0 {
			return FixedPointResult{Iterations: i, Converged: true, Env: current}
		}

		facts := current.Facts()
		next := current.Clone()
		for _, rule := range rules {
			for _, b := range MatchAntecedent(rule.Antecedent, facts, NewBindings()) {
				applyConsequent(rule.Consequent, facts, b, next)
			}
		}

		after := next.FactCount()
		logrus.WithFields(logrus.Fields{
			"iteration": i + 1,
			"facts":     after,
		}).Debug("fixed-point iteration complete")

		current = next
		if after == before {
			return FixedPointResult{
				Iterations: i + 1,
				Converged:  true,
				FactsAdded: after - initial,
				Env:        current,
			}
		}
		before = after
	}

	return FixedPointResult{
		Iterations: maxIterations,
		Converged:  false,
		FactsAdded: before - initial,
		Env:        current,
	}
}

// collectExecRules extracts every stored exec fact, parsed and sorted by
// priority. The sort is stable, so equal priorities keep fact-base order.
func collectExecRules(env *Environment) []*ExecRule {
	var rules []*ExecRule
	for _, fact := range env.Facts() {
		if rule, ok := ExecRuleFromTerm(fact); ok {
			rules = append(rules, rule)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return ComparePriorities(rules[i].Priority, rules[j].Priority) < 0
	})
	return rules
}
