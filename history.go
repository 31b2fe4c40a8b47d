package metta

import (
	"sync"

	"github.com/mettatron/metta/engine"
)

// History records evaluations for later inspection. It is append-only up to
// its limit, after which the oldest entries fall off.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	limit   int
}

// HistoryEntry is one recorded evaluation: the term as submitted and the
// values it produced.
type HistoryEntry struct {
	Term   engine.Term
	Values []engine.Term
}

// NewHistory returns a history holding at most limit entries; limit < 1
// means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Add records an evaluation.
func (h *History) Add(term engine.Term, values []engine.Term) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{Term: term, Values: values})
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// All returns the recorded entries, oldest first.
func (h *History) All() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]HistoryEntry(nil), h.entries...)
}

// Search returns the entries whose submitted term or any produced value
// matches pattern.
func (h *History) Search(pattern engine.Term) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []HistoryEntry
	for _, e := range h.entries {
		if entryMatches(e, pattern) {
			out = append(out, e)
		}
	}
	return out
}

func entryMatches(e HistoryEntry, pattern engine.Term) bool {
	if _, ok := engine.Match(pattern, e.Term); ok {
		return true
	}
	for _, v := range e.Values {
		if _, ok := engine.Match(pattern, v); ok {
			return true
		}
	}
	return false
}
