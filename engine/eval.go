package engine

// The evaluator reduces terms against the environment's rules and the
// built-in table. Evaluation is nondeterministic: every applicable rule
// fires and every combination of child results is tried, so a single call
// can produce many results. Results come back in Cartesian-product
// enumeration order, with each combination's rule results in
// rule-definition order; tests rely on that contract.

// maxEvalDepth bounds rule recursion; exceeding it yields an Error term, not
// a crash.
const maxEvalDepth = 500

// Eval evaluates t in env and returns the result sequence together with the
// possibly-updated environment. A term no rule or built-in applies to is not
// an error: it evaluates to itself, modeling open-world "stuck" terms.
func Eval(t Term, env *Environment) ([]Term, *Environment) {
	return eval(t, env, 0)
}

func eval(t Term, env *Environment, depth int) ([]Term, *Environment) {
	if depth > maxEvalDepth {
		return []Term{NewError("maximum recursion depth exceeded", t)}, env
	}
	switch t := t.(type) {
	case List:
		return evalList(t, env, depth)
	default:
		// Atoms, literals, conjunctions and errors self-evaluate. Errors
		// propagate as ordinary values.
		return []Term{t}, env
	}
}

func evalList(items List, env *Environment, depth int) ([]Term, *Environment) {
	if len(items) == 0 {
		return []Term{Nil{}}, env
	}

	if head, ok := items[0].(Atom); ok {
		if results, next, handled := evalSpecialForm(string(head), items, env, depth); handled {
			return results, next
		}
	}

	return evalApplication(items, env, depth)
}

// evalSpecialForm handles the forms that must see their arguments
// unevaluated. handled=false falls through to generic application.
func evalSpecialForm(head string, items List, env *Environment, depth int) ([]Term, *Environment, bool) {
	args := items[1:]
	switch head {
	case "=":
		if len(args) < 2 {
			return []Term{NewError("= requires two arguments: lhs and rhs", items)}, env, true
		}
		next := env.Clone()
		next.AddRule(&Rule{LHS: args[0], RHS: args[1]})
		return nil, next, true

	case "!":
		if len(args) < 1 {
			return []Term{NewError("! requires one argument to evaluate", items)}, env, true
		}
		results, next := eval(args[0], env, depth)
		return results, next, true

	case "quote":
		if len(args) < 1 {
			return []Term{NewError("quote requires one argument", items)}, env, true
		}
		return []Term{args[0]}, env, true

	case "eval":
		if len(args) < 1 {
			return []Term{NewError("eval requires one argument", items)}, env, true
		}
		results, next := eval(args[0], env, depth)
		if len(results) == 0 {
			return []Term{Nil{}}, next, true
		}
		results, next = eval(results[0], next, depth+1)
		return results, next, true

	case "if":
		results, next := evalIf(args, env, depth)
		return results, next, true

	case "let":
		results, next := evalLet(args, env, depth)
		return results, next, true

	case "catch":
		results, next := evalCatch(args, env, depth)
		return results, next, true

	case "error":
		if len(args) < 1 {
			return nil, env, false
		}
		var msg string
		switch m := args[0].(type) {
		case Str:
			msg = string(m)
		case Atom:
			msg = string(m)
		default:
			msg = m.String()
		}
		var payload Term = Nil{}
		if len(args) > 1 {
			payload = args[1]
		}
		return []Term{Error{Message: msg, Payload: payload}}, env, true

	case "is-error":
		if len(args) < 1 {
			return []Term{NewError("is-error requires one argument", items)}, env, true
		}
		results, next := eval(args[0], env, depth)
		if len(results) == 0 {
			return []Term{Bool(false)}, next, true
		}
		_, isErr := results[0].(Error)
		return []Term{Bool(isErr)}, next, true

	case "match":
		results, next := evalMatch(args, env)
		return results, next, true

	case ":":
		results, next := evalTypeAssertion(items, env)
		return results, next, true

	case "get-type":
		if len(args) < 1 {
			return []Term{NewError("get-type requires one argument", items)}, env, true
		}
		return []Term{InferType(args[0], env)}, env, true

	case "check-type":
		if len(args) < 2 {
			return []Term{NewError("check-type requires two arguments: expression and expected type", items)}, env, true
		}
		actual := InferType(args[0], env)
		return []Term{Bool(TypesMatch(actual, args[1]))}, env, true

	case "exec":
		// Meta-rules are stored, not executed; the fixed-point driver
		// activates them.
		if len(args) < 3 {
			return []Term{NewError("exec requires 3 arguments: priority, antecedent and consequent", items)}, env, true
		}
		next := env.Clone()
		next.AddFact(items)
		return nil, next, true
	}
	return nil, env, false
}

func evalIf(args []Term, env *Environment, depth int) ([]Term, *Environment) {
	if len(args) < 3 {
		return []Term{NewError("if requires 3 arguments: condition, then-branch and else-branch", List(args))}, env
	}
	condResults, next := eval(args[0], env, depth+1)
	if len(condResults) == 0 {
		return eval(args[2], next, depth+1)
	}
	if err, ok := condResults[0].(Error); ok {
		return []Term{err}, next
	}
	if isTruthy(condResults[0]) {
		return eval(args[1], next, depth+1)
	}
	return eval(args[2], next, depth+1)
}

// isTruthy: false and Nil are false, anything else is true.
func isTruthy(t Term) bool {
	switch t := t.(type) {
	case Bool:
		return bool(t)
	case Nil:
		return false
	default:
		return true
	}
}

func evalLet(args []Term, env *Environment, depth int) ([]Term, *Environment) {
	if len(args) < 3 {
		return []Term{NewError("let requires 3 arguments: pattern, value and body", List(args))}, env
	}
	pattern, valueExpr, body := args[0], args[1], args[2]

	valueResults, next := eval(valueExpr, env, depth+1)

	// A nondeterministic value tries the body once per result.
	var all []Term
	for _, value := range valueResults {
		b, ok := Match(pattern, value)
		if !ok {
			all = append(all, NewError("let pattern does not match value", List{pattern, value}))
			continue
		}
		results, _ := eval(b.Apply(body), next.Clone(), depth+1)
		all = append(all, results...)
	}
	return all, next
}

func evalCatch(args []Term, env *Environment, depth int) ([]Term, *Environment) {
	if len(args) < 2 {
		return []Term{NewError("catch requires 2 arguments: expression and default", List(args))}, env
	}
	results, next := eval(args[0], env, depth+1)
	if len(results) > 0 {
		if _, isErr := results[0].(Error); isErr {
			return eval(args[1], next, depth+1)
		}
	}
	return results, next
}

// evalMatch implements (match &self pattern template): every stored fact
// unifying with pattern instantiates the template once.
func evalMatch(args []Term, env *Environment) ([]Term, *Environment) {
	// The reader may deliver the space reference as one atom (&self) or as
	// the two atoms & self.
	switch {
	case len(args) >= 3 && Equal(args[0], Atom("&self")):
		args = args[1:]
	case len(args) >= 4 && Equal(args[0], Atom("&")) && Equal(args[1], Atom("self")):
		args = args[2:]
	default:
		return []Term{NewError("match requires a &self space reference, a pattern and a template", List(args))}, env
	}
	if len(args) < 2 {
		return []Term{NewError("match requires a pattern and a template", List(args))}, env
	}
	return env.MatchFacts(args[0], args[1]), env
}

func evalTypeAssertion(items List, env *Environment) ([]Term, *Environment) {
	args := items[1:]
	if len(args) < 2 {
		return []Term{NewError(": requires 2 arguments: expression and type", items)}, env
	}
	var name string
	switch expr := args[0].(type) {
	case Atom:
		name = string(expr)
	case List:
		if len(expr) > 0 {
			if head, ok := expr[0].(Atom); ok {
				name = string(head)
				break
			}
		}
		name = expr.String()
	default:
		name = expr.String()
	}
	next := env.Clone()
	next.AddType(name, args[1])
	next.AddFact(items)
	return nil, next
}

// evalApplication is the generic path: evaluate children left to right, each
// against its own clone of the environment, fold the child environments back
// with Union at the single join point, then process every Cartesian
// combination of child results as a candidate application.
func evalApplication(items List, env *Environment, depth int) ([]Term, *Environment) {
	childResults := make([][]Term, len(items))
	childEnvs := make([]*Environment, len(items))
	for i, item := range items {
		results, childEnv := eval(item, env.Clone(), depth+1)
		// The first error in a sub-expression propagates immediately.
		if len(results) > 0 {
			if err, ok := results[0].(Error); ok {
				return []Term{err}, env.Union(childEnv)
			}
		}
		childResults[i] = results
		childEnvs[i] = childEnv
	}

	merged := env.Clone()
	for _, childEnv := range childEnvs {
		merged = merged.Union(childEnv)
	}

	var all []Term
	for _, combo := range CartesianProduct(childResults) {
		results, next := evalCandidate(List(combo), merged, depth)
		all = append(all, results...)
		merged = next
	}
	return all, merged
}

func evalCandidate(candidate List, env *Environment, depth int) ([]Term, *Environment) {
	head, arity, indexed := HeadSymbol(candidate)
	if indexed {
		if result, ok := TryBuiltin(head, candidate[1:]); ok {
			return []Term{result}, env
		}
	}
	if !indexed {
		arity = len(candidate) - 1
	}

	var all []Term
	matched := false
	for _, rule := range env.GetMatchingRules(head, arity) {
		b, ok := Match(rule.LHS, candidate)
		if !ok {
			continue
		}
		matched = true
		results, ruleEnv := eval(b.Apply(rule.RHS), env.Clone(), depth+1)
		all = append(all, results...)
		env = env.Union(ruleEnv)
	}
	if !matched {
		// Stuck: no built-in, no rule. The term is its own result.
		return []Term{candidate}, env
	}
	return all, env
}
