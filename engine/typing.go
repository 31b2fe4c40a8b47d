package engine

// Gradual typing support for get-type and check-type. Types are ordinary
// terms; Undefined stands in for anything the index does not know.

// InferType derives the type of t without evaluating it. Literals carry
// their intrinsic type, atoms consult the environment's type index, and
// applications of typed heads project the arrow's return type.
func InferType(t Term, env *Environment) Term {
	switch t := t.(type) {
	case Bool:
		return Atom("Bool")
	case Int:
		return Atom("Number")
	case Str:
		return Atom("String")
	case URI:
		return Atom("URI")
	case Nil:
		return Atom("Nil")
	case Error:
		return Atom("Error")
	case Type:
		return Atom("Type")
	case Conjunction:
		return Atom("Conjunction")
	case Atom:
		if IsVariable(string(t)) {
			return NewType(t)
		}
		if typ, ok := env.LookupType(string(t)); ok {
			return typ
		}
		return Atom("Undefined")
	case List:
		return inferApplicationType(t, env)
	}
	return Atom("Undefined")
}

func inferApplicationType(items List, env *Environment) Term {
	if len(items) == 0 {
		return Atom("Nil")
	}
	head, ok := items[0].(Atom)
	if !ok {
		return Atom("Undefined")
	}
	switch string(head) {
	case "+", "-", "*", "/", "%":
		return Atom("Number")
	case "<", "<=", ">", ">=", "==", "!=", "and", "or", "not", "is-error", "check-type":
		return Atom("Bool")
	case "->":
		return NewType(items)
	case "error":
		return Atom("Error")
	case "quote":
		if len(items) > 1 {
			return InferType(items[1], env)
		}
		return Atom("Undefined")
	}
	typ, ok := env.LookupType(string(head))
	if !ok {
		return Atom("Undefined")
	}
	return returnTypeOf(typ)
}

// returnTypeOf projects the result type out of an arrow declaration
// (-> arg... ret); a non-arrow type stands for itself.
func returnTypeOf(typ Term) Term {
	arrow, ok := typ.(List)
	if !ok || len(arrow) < 2 {
		return typ
	}
	if head, ok := arrow[0].(Atom); !ok || string(head) != "->" {
		return typ
	}
	return arrow[len(arrow)-1]
}

// TypesMatch reports whether an inferred type satisfies an expected one.
// Undefined satisfies nothing except Undefined itself; a variable or
// wildcard on the expected side accepts anything.
func TypesMatch(actual, expected Term) bool {
	if a, ok := expected.(Atom); ok {
		if IsWildcard(string(a)) || IsVariable(string(a)) {
			return true
		}
	}
	if _, ok := Match(expected, actual); ok {
		return true
	}
	return Equal(actual, expected)
}
