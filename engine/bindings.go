package engine

import (
	"sort"
	"strings"
)

// Bindings maps variable names to terms. Keys are unique; no iteration order
// is guaranteed to consumers.
type Bindings map[string]Term

// NewBindings returns an empty binding set.
func NewBindings() Bindings { return Bindings{} }

// Clone returns an independent copy of b.
func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Merge combines b and other into a fresh binding set. It fails when the two
// sets disagree on a shared variable.
func (b Bindings) Merge(other Bindings) (Bindings, bool) {
	merged := b.Clone()
	for k, v := range other {
		if prev, ok := merged[k]; ok {
			if !Equal(prev, v) {
				return nil, false
			}
			continue
		}
		merged[k] = v
	}
	return merged, true
}

// Apply substitutes bound variables in t, leaving unbound variables as-is.
func (b Bindings) Apply(t Term) Term {
	if len(b) == 0 {
		return t
	}
	switch t := t.(type) {
	case Atom:
		if IsVariable(string(t)) {
			if v, ok := b[string(t)]; ok {
				return v
			}
		}
		return t
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = b.Apply(e)
		}
		return out
	case Conjunction:
		out := make(Conjunction, len(t))
		for i, e := range t {
			out[i] = b.Apply(e)
		}
		return out
	case Error:
		return Error{Message: t.Message, Payload: b.Apply(t.Payload)}
	case Type:
		return Type{Value: b.Apply(t.Value)}
	default:
		return t
	}
}

func (b Bindings) String() string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(n)
		sb.WriteString(": ")
		sb.WriteString(b[n].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
