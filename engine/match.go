package engine

// Match unifies pattern against value and returns the resulting bindings.
// It is a pure function: no side effects, never panics on well-formed terms.
//
// Plain symbols match only themselves; `_` matches anything and binds
// nothing; a variable matches anything, but a repeated occurrence must be
// structurally equal to its prior binding. Lists match position-wise with
// bindings threaded left to right. Literals of different kinds never match.
func Match(pattern, value Term) (Bindings, bool) {
	b := NewBindings()
	if !matchInto(pattern, value, b) {
		return nil, false
	}
	return b, true
}

// MatchWith behaves like Match but threads an existing binding set, which is
// extended in place on success. On failure the binding set may hold partial
// bindings; callers pass a scratch copy.
func MatchWith(pattern, value Term, b Bindings) bool {
	return matchInto(pattern, value, b)
}

func matchInto(pattern, value Term, b Bindings) bool {
	if p, ok := pattern.(Atom); ok {
		name := string(p)
		if IsWildcard(name) {
			return true
		}
		if IsVariable(name) {
			if prev, bound := b[name]; bound {
				return Equal(prev, value)
			}
			b[name] = value
			return true
		}
	}

	switch p := pattern.(type) {
	case Atom:
		v, ok := value.(Atom)
		return ok && p == v
	case Bool:
		v, ok := value.(Bool)
		return ok && p == v
	case Int:
		v, ok := value.(Int)
		return ok && p == v
	case Str:
		v, ok := value.(Str)
		return ok && p == v
	case URI:
		v, ok := value.(URI)
		return ok && p == v
	case Nil:
		_, ok := value.(Nil)
		return ok
	case List:
		v, ok := value.(List)
		return ok && matchSlices(p, v, b)
	case Conjunction:
		v, ok := value.(Conjunction)
		return ok && matchSlices(p, v, b)
	case Error:
		v, ok := value.(Error)
		return ok && p.Message == v.Message && matchInto(p.Payload, v.Payload, b)
	case Type:
		v, ok := value.(Type)
		return ok && matchInto(p.Value, v.Value, b)
	default:
		return false
	}
}

func matchSlices(pattern, value []Term, b Bindings) bool {
	if len(pattern) != len(value) {
		return false
	}
	for i := range pattern {
		if !matchInto(pattern[i], value[i], b) {
			return false
		}
	}
	return true
}

// CartesianProduct enumerates every combination of one result per child.
// The leftmost child varies slowest, which fixes the enumeration order the
// evaluator's result-ordering contract relies on. An empty input yields one
// empty combination.
func CartesianProduct(results [][]Term) [][]Term {
	if len(results) == 0 {
		return [][]Term{{}}
	}
	total := 1
	for _, rs := range results {
		total *= len(rs)
		if total == 0 {
			return nil
		}
	}
	combos := make([][]Term, 0, total)
	combo := make([]Term, len(results))
	var walk func(i int)
	walk = func(i int) {
		if i == len(results) {
			combos = append(combos, append([]Term(nil), combo...))
			return
		}
		for _, r := range results[i] {
			combo[i] = r
			walk(i + 1)
		}
	}
	walk(0)
	return combos
}
