package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is a MeTTa term. The set of implementations is closed: Atom, Bool,
// Int, Str, URI, Nil, List, Conjunction, Error and Type. Terms are immutable
// once constructed; evaluation builds new terms, it never mutates in place.
type Term interface {
	fmt.Stringer
	isTerm()
}

// Atom is a bare symbol. Atoms whose name starts with `$`, `&` or `'` are
// pattern variables, except the lone `&` which is the space-reference
// operator. The atom `_` is the anonymous wildcard.
type Atom string

// Bool is a boolean literal.
type Bool bool

// Int is an integer literal.
type Int int64

// Str is a string literal.
type Str string

// URI is a URI literal.
type URI string

// Nil is the empty value, also the result of evaluating the empty list.
type Nil struct{}

// List is an ordered sequence of terms. It doubles as function application:
// a list whose head is an atom applies that symbol to the remaining terms.
type List []Term

// Conjunction is the uniform goal wrapper used by exec rules. Zero goals is
// the vacuously true conjunction; the uniformity means zero, one and many
// goals need no special-casing anywhere.
type Conjunction []Term

// Error is a value-level evaluation error. It propagates through evaluation
// as ordinary data unless intercepted by a catch form.
type Error struct {
	Message string
	Payload Term
}

// Type wraps a term used in type position.
type Type struct {
	Value Term
}

func (Atom) isTerm()        {}
func (Bool) isTerm()        {}
func (Int) isTerm()         {}
func (Str) isTerm()         {}
func (URI) isTerm()         {}
func (Nil) isTerm()         {}
func (List) isTerm()        {}
func (Conjunction) isTerm() {}
func (Error) isTerm()       {}
func (Type) isTerm()        {}

func (a Atom) String() string { return string(a) }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

func (s Str) String() string { return strconv.Quote(string(s)) }

func (u URI) String() string { return "`" + string(u) + "`" }

func (Nil) String() string { return "()" }

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range l {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (c Conjunction) String() string {
	var sb strings.Builder
	sb.WriteString("(,")
	for _, t := range c {
		sb.WriteByte(' ')
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (e Error) String() string {
	return fmt.Sprintf("(error %q %s)", e.Message, e.Payload.String())
}

// Error implements the error interface so value-level errors read naturally
// in logs; they are still ordinary terms, not Go control flow.
func (e Error) Error() string { return e.String() }

func (t Type) String() string { return "(Type " + t.Value.String() + ")" }

// NewType wraps t for use in type position.
func NewType(t Term) Type { return Type{Value: t} }

// NewError builds an Error term with a Nil payload when detail is nil.
func NewError(message string, detail Term) Error {
	if detail == nil {
		detail = Nil{}
	}
	return Error{Message: message, Payload: detail}
}

// IsVariable reports whether the atom name denotes a pattern variable.
// The lone `&` is the space-reference operator, not a variable.
func IsVariable(name string) bool {
	if name == "&" {
		return false
	}
	return len(name) > 0 && (name[0] == '$' || name[0] == '&' || name[0] == '\'')
}

// IsWildcard reports whether the atom name is the anonymous wildcard.
func IsWildcard(name string) bool { return name == "_" }

// Equal reports structural equality of two terms.
func Equal(a, b Term) bool {
	switch a := a.(type) {
	case Atom:
		b, ok := b.(Atom)
		return ok && a == b
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case Int:
		b, ok := b.(Int)
		return ok && a == b
	case Str:
		b, ok := b.(Str)
		return ok && a == b
	case URI:
		b, ok := b.(URI)
		return ok && a == b
	case Nil:
		_, ok := b.(Nil)
		return ok
	case List:
		b, ok := b.(List)
		return ok && equalSlices(a, b)
	case Conjunction:
		b, ok := b.(Conjunction)
		return ok && equalSlices(a, b)
	case Error:
		b, ok := b.(Error)
		return ok && a.Message == b.Message && Equal(a.Payload, b.Payload)
	case Type:
		b, ok := b.(Type)
		return ok && Equal(a.Value, b.Value)
	default:
		panic(fmt.Sprintf("unknown term kind %T", a))
	}
}

func equalSlices(a, b []Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// HeadSymbol returns the determinable head symbol and arity of t, if any.
// An atom is its own head with arity 0; a list headed by a non-variable atom
// has that head and arity len-1. Variables and other shapes have no
// determinable head, so rules with such left-hand sides go to the wildcard
// list.
func HeadSymbol(t Term) (string, int, bool) {
	switch t := t.(type) {
	case Atom:
		if IsVariable(string(t)) || IsWildcard(string(t)) {
			return "", 0, false
		}
		return string(t), 0, true
	case List:
		if len(t) == 0 {
			return "", 0, false
		}
		head, ok := t[0].(Atom)
		if !ok || IsVariable(string(head)) || IsWildcard(string(head)) {
			return "", 0, false
		}
		return string(head), len(t) - 1, true
	default:
		return "", 0, false
	}
}

// HasVariables reports whether any pattern variable occurs in t.
func HasVariables(t Term) bool {
	switch t := t.(type) {
	case Atom:
		return IsVariable(string(t))
	case List:
		for _, e := range t {
			if HasVariables(e) {
				return true
			}
		}
	case Conjunction:
		for _, e := range t {
			if HasVariables(e) {
				return true
			}
		}
	case Error:
		return HasVariables(t.Payload)
	case Type:
		return HasVariables(t.Value)
	}
	return false
}
