package engine

import "sort"

// trie is the content-addressed fact store: a byte trie keyed on the
// canonical term encoding. Insertion deduplicates, Join is a structural
// O(n+m) union of two tries rather than re-insertion of every element.
type trie struct {
	root *trieNode
	size int
}

type trieNode struct {
	children map[byte]*trieNode
	terminal bool
}

func newTrie() *trie {
	return &trie{root: &trieNode{}}
}

// Insert adds key and reports whether it was new.
func (t *trie) Insert(key []byte) bool {
	n := t.root
	for _, c := range key {
		if n.children == nil {
			n.children = map[byte]*trieNode{}
		}
		next, ok := n.children[c]
		if !ok {
			next = &trieNode{}
			n.children[c] = next
		}
		n = next
	}
	if n.terminal {
		return false
	}
	n.terminal = true
	t.size++
	return true
}

// Has reports whether key is present.
func (t *trie) Has(key []byte) bool {
	n := t.root
	for _, c := range key {
		next, ok := n.children[c]
		if !ok {
			return false
		}
		n = next
	}
	return n.terminal
}

// Remove deletes key and reports whether it was present. Emptied branches
// are pruned so the trie stays proportional to its contents.
func (t *trie) Remove(key []byte) bool {
	if !t.remove(t.root, key) {
		return false
	}
	t.size--
	return true
}

func (t *trie) remove(n *trieNode, key []byte) bool {
	if len(key) == 0 {
		if !n.terminal {
			return false
		}
		n.terminal = false
		return true
	}
	next, ok := n.children[key[0]]
	if !ok || !t.remove(next, key[1:]) {
		return false
	}
	if !next.terminal && len(next.children) == 0 {
		delete(n.children, key[0])
	}
	return true
}

// Len returns the number of stored keys.
func (t *trie) Len() int { return t.size }

// Clone returns a deep copy.
func (t *trie) Clone() *trie {
	return &trie{root: t.root.clone(), size: t.size}
}

func (n *trieNode) clone() *trieNode {
	c := &trieNode{terminal: n.terminal}
	if n.children != nil {
		c.children = make(map[byte]*trieNode, len(n.children))
		for b, child := range n.children {
			c.children[b] = child.clone()
		}
	}
	return c
}

// Join returns the structural union of t and other. Neither input is
// mutated; shared subtrees are copied, not aliased.
func (t *trie) Join(other *trie) *trie {
	root, size := joinNodes(t.root, other.root)
	return &trie{root: root, size: size}
}

func joinNodes(a, b *trieNode) (*trieNode, int) {
	n := &trieNode{terminal: a.terminal || b.terminal}
	size := 0
	if n.terminal {
		size = 1
	}
	if len(a.children) > 0 || len(b.children) > 0 {
		n.children = make(map[byte]*trieNode, len(a.children)+len(b.children))
	}
	for c, ac := range a.children {
		if bc, ok := b.children[c]; ok {
			child, sz := joinNodes(ac, bc)
			n.children[c] = child
			size += sz
			continue
		}
		n.children[c] = ac.clone()
		size += countTerminals(ac)
	}
	for c, bc := range b.children {
		if _, ok := a.children[c]; ok {
			continue
		}
		n.children[c] = bc.clone()
		size += countTerminals(bc)
	}
	return n, size
}

func countTerminals(n *trieNode) int {
	size := 0
	if n.terminal {
		size = 1
	}
	for _, c := range n.children {
		size += countTerminals(c)
	}
	return size
}

// Walk visits every stored key in ascending byte order. Returning false
// from the callback stops the walk.
func (t *trie) Walk(visit func(key []byte) bool) {
	t.root.walk(nil, visit)
}

func (n *trieNode) walk(prefix []byte, visit func(key []byte) bool) bool {
	if n.terminal {
		if !visit(append([]byte(nil), prefix...)) {
			return false
		}
	}
	bytes := make([]int, 0, len(n.children))
	for c := range n.children {
		bytes = append(bytes, int(c))
	}
	sort.Ints(bytes)
	for _, c := range bytes {
		if !n.children[byte(c)].walk(append(prefix, byte(c)), visit) {
			return false
		}
	}
	return true
}
