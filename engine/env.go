package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Signature identifies the rules applicable to a candidate application.
type Signature struct {
	Head  string
	Arity int
}

func (s Signature) String() string { return fmt.Sprintf("%s/%d", s.Head, s.Arity) }

// Rule rewrites terms matching LHS into RHS under the match bindings.
// Immutable; defining the identical rule twice bumps its multiplicity in the
// environment instead of duplicating storage.
type Rule struct {
	LHS Term
	RHS Term
}

// Expr returns the rule's fact form, (= lhs rhs).
func (r *Rule) Expr() List { return List{Atom("="), r.LHS, r.RHS} }

// Key returns the canonical signature the multiplicity map is keyed by.
func (r *Rule) Key() string { return string(Encode(r.Expr())) }

// Signature returns the index key for the rule, or ok=false when the
// left-hand side has no determinable head symbol.
func (r *Rule) Signature() (Signature, bool) {
	head, arity, ok := HeadSymbol(r.LHS)
	if !ok {
		return Signature{}, false
	}
	return Signature{Head: head, Arity: arity}, true
}

func (r *Rule) String() string { return r.Expr().String() }

// envData holds the substructures shared between environment clones until
// one of them claims ownership. The RWMutex lets concurrent readers proceed
// without blocking each other; writers hold it exclusively, but by the CoW
// discipline only the single owning instance ever writes.
type envData struct {
	mu        sync.RWMutex
	facts     *trie
	ruleIndex map[Signature][]*Rule
	wildcards []*Rule
	mult      map[string]int
	typeIndex map[string]Term
	encoded   map[string][]byte
}

func newEnvData() *envData {
	return &envData{
		facts:     newTrie(),
		ruleIndex: map[Signature][]*Rule{},
		mult:      map[string]int{},
		typeIndex: map[string]Term{},
		encoded:   map[string][]byte{},
	}
}

func (d *envData) deepCopy() *envData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c := newEnvData()
	c.facts = d.facts.Clone()
	for sig, rules := range d.ruleIndex {
		c.ruleIndex[sig] = append([]*Rule(nil), rules...)
	}
	c.wildcards = append([]*Rule(nil), d.wildcards...)
	for k, v := range d.mult {
		c.mult[k] = v
	}
	for k, v := range d.typeIndex {
		c.typeIndex[k] = v
	}
	// The pattern cache starts cold; it is derived state.
	return c
}

// Environment is the rule/fact store. Clones share substructures until the
// first mutation, which claims ownership by deep-copying everything; after
// that the instance mutates in place. Two independently-modified clones are
// reconciled with Union, never by shared mutation.
type Environment struct {
	id       uuid.UUID
	data     *envData
	ownsData bool
	modified bool
}

// NewEnvironment returns an empty environment that owns its data.
func NewEnvironment() *Environment {
	return &Environment{id: uuid.New(), data: newEnvData(), ownsData: true}
}

// Clone is O(1): the clone shares substructures and owns nothing until it
// mutates. The modified flag is per instance and never shared.
func (e *Environment) Clone() *Environment {
	return &Environment{id: uuid.New(), data: e.data}
}

// ID identifies this instance in logs; clones get fresh IDs.
func (e *Environment) ID() uuid.UUID { return e.id }

// Modified reports whether this instance mutated since creation or cloning.
func (e *Environment) Modified() bool { return e.modified }

// claimOwnership deep-copies the shared substructures so the instance can
// mutate in place. No-op when the instance already owns its data.
func (e *Environment) claimOwnership() {
	if e.ownsData {
		return
	}
	logrus.WithField("env", e.id).Debug("claiming environment ownership")
	e.data = e.data.deepCopy()
	e.ownsData = true
}

// mustOwn guards every mutation. A false ownsData here means the CoW
// discipline was broken, which is a bug in the engine, not a user error.
func (e *Environment) mustOwn() {
	if !e.ownsData {
		panic("engine: mutation of a non-owned environment")
	}
}

// AddRule claims ownership, bumps the rule's multiplicity, indexes it by
// head symbol and arity (or appends to the wildcard list when the head is
// not determinable) and records its fact form in the trie.
func (e *Environment) AddRule(r *Rule) {
	e.claimOwnership()
	e.mustOwn()
	d := e.data
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mult[r.Key()]++
	if d.facts.Insert(Encode(r.Expr())) {
		if sig, ok := r.Signature(); ok {
			d.ruleIndex[sig] = append(d.ruleIndex[sig], r)
		} else {
			d.wildcards = append(d.wildcards, r)
		}
	}
	d.encoded = map[string][]byte{}
	e.modified = true
}

// AddFact inserts the term's canonical form into the fact trie.
func (e *Environment) AddFact(t Term) {
	e.claimOwnership()
	e.mustOwn()
	d := e.data
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.facts.Insert(Encode(t)) {
		d.encoded = map[string][]byte{}
	}
	e.modified = true
}

// RemoveFact deletes the term from the fact trie and reports whether it was
// present.
func (e *Environment) RemoveFact(t Term) bool {
	e.claimOwnership()
	e.mustOwn()
	d := e.data
	d.mu.Lock()
	defer d.mu.Unlock()
	ok := d.facts.Remove(Encode(t))
	if ok {
		d.encoded = map[string][]byte{}
	}
	e.modified = true
	return ok
}

// HasFact reports whether the term is stored.
func (e *Environment) HasFact(t Term) bool {
	d := e.data
	key := e.encodeCached(t)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.facts.Has(key)
}

// FactCount returns the number of stored facts.
func (e *Environment) FactCount() int {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.facts.Len()
}

// Facts decodes every stored fact, in canonical byte order.
func (e *Environment) Facts() []Term {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	facts := make([]Term, 0, d.facts.Len())
	d.facts.Walk(func(key []byte) bool {
		t, err := Decode(key)
		if err != nil {
			panic("engine: undecodable fact key: " + err.Error())
		}
		facts = append(facts, t)
		return true
	})
	return facts
}

// MatchFacts matches pattern against every stored fact and returns the
// template instantiated with each successful match's bindings.
func (e *Environment) MatchFacts(pattern, template Term) []Term {
	var out []Term
	for _, fact := range e.Facts() {
		if b, ok := Match(pattern, fact); ok {
			out = append(out, b.Apply(template))
		}
	}
	return out
}

// GetMatchingRules returns the indexed rules for (head, arity) followed by
// every wildcard rule. Read-only; never claims ownership.
func (e *Environment) GetMatchingRules(head string, arity int) []*Rule {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	indexed := d.ruleIndex[Signature{Head: head, Arity: arity}]
	if len(d.wildcards) == 0 {
		return append([]*Rule(nil), indexed...)
	}
	rules := make([]*Rule, 0, len(indexed)+len(d.wildcards))
	rules = append(rules, indexed...)
	rules = append(rules, d.wildcards...)
	return rules
}

// RuleCount returns the number of indexed rules plus wildcard rules.
func (e *Environment) RuleCount() int {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := len(d.wildcards)
	for _, rules := range d.ruleIndex {
		n += len(rules)
	}
	return n
}

// Multiplicity returns how many times the identical rule has been defined.
// A rule that was stored before multiplicity tracking reports 1.
func (e *Environment) Multiplicity(r *Rule) int {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n, ok := d.mult[r.Key()]; ok {
		return n
	}
	return 1
}

// AddType records a type assertion for name in the derived type index.
func (e *Environment) AddType(name string, typ Term) {
	e.claimOwnership()
	e.mustOwn()
	d := e.data
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typeIndex[name] = typ
	e.modified = true
}

// LookupType returns the asserted type of name, if any.
func (e *Environment) LookupType(name string) (Term, bool) {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()
	typ, ok := d.typeIndex[name]
	return typ, ok
}

// Union folds two evaluation branches back into one environment.
//
// Three tiers: when neither side mutated since divergence the result is a
// clone of e (O(1)); when exactly one side mutated, a clone of that side;
// when both mutated, a deep merge that unions the rule index per key,
// unions wildcard lists, sums multiplicities, structurally joins the fact
// tries and unions the derived type index. Rules both sides inherited from
// the common ancestor keep a single index entry; how often an identical
// rule was defined lives in the multiplicity map, not in the index.
func (e *Environment) Union(other *Environment) *Environment {
	if !e.modified && !other.modified {
		return e.Clone()
	}
	if e.modified && !other.modified {
		// The result carries e's changes, so later unions in a fold must
		// still see it as modified.
		u := e.Clone()
		u.modified = true
		return u
	}
	if !e.modified && other.modified {
		u := other.Clone()
		u.modified = true
		return u
	}

	logrus.WithFields(logrus.Fields{
		"left":  e.id,
		"right": other.id,
	}).Debug("deep-merging environments")

	merged := &Environment{id: uuid.New(), data: e.data.deepCopy(), ownsData: true, modified: true}
	d := merged.data

	od := other.data
	od.mu.RLock()
	defer od.mu.RUnlock()

	seen := make(map[string]struct{}, len(d.mult))
	for _, rules := range d.ruleIndex {
		for _, r := range rules {
			seen[r.Key()] = struct{}{}
		}
	}
	for _, r := range d.wildcards {
		seen[r.Key()] = struct{}{}
	}
	for sig, rules := range od.ruleIndex {
		for _, r := range rules {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			seen[r.Key()] = struct{}{}
			d.ruleIndex[sig] = append(d.ruleIndex[sig], r)
		}
	}
	for _, r := range od.wildcards {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		d.wildcards = append(d.wildcards, r)
	}
	for key, n := range od.mult {
		d.mult[key] += n
	}
	d.facts = d.facts.Join(od.facts)
	for name, typ := range od.typeIndex {
		if _, ok := d.typeIndex[name]; !ok {
			d.typeIndex[name] = typ
		}
	}
	return merged
}

// encodeCached returns the canonical encoding of t, memoizing it in the
// shared pattern cache. The cache is dropped on every mutation.
func (e *Environment) encodeCached(t Term) []byte {
	d := e.data
	key := t.String()
	d.mu.RLock()
	enc, ok := d.encoded[key]
	d.mu.RUnlock()
	if ok {
		return enc
	}
	enc = Encode(t)
	d.mu.Lock()
	d.encoded[key] = enc
	d.mu.Unlock()
	return enc
}
