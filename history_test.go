package metta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mettatron/metta/engine"
)

func TestHistory(t *testing.T) {
	h := NewHistory(0)
	h.Add(engine.List{engine.Atom("!"), engine.List{engine.Atom("f"), engine.Int(1)}}, []engine.Term{engine.Int(10)})
	h.Add(engine.List{engine.Atom("!"), engine.List{engine.Atom("f"), engine.Int(2)}}, []engine.Term{engine.Int(20)})
	h.Add(engine.List{engine.Atom("!"), engine.List{engine.Atom("g"), engine.Int(3)}}, []engine.Term{engine.Int(30)})

	assert.Equal(t, 3, h.Len())

	t.Run("search by submitted term", func(t *testing.T) {
		got := h.Search(engine.List{engine.Atom("!"), engine.List{engine.Atom("f"), engine.Atom("$x")}})
		require.Len(t, got, 2)
		assert.Equal(t, []engine.Term{engine.Int(10)}, got[0].Values)
		assert.Equal(t, []engine.Term{engine.Int(20)}, got[1].Values)
	})

	t.Run("search by produced value", func(t *testing.T) {
		got := h.Search(engine.Int(30))
		require.Len(t, got, 1)
		assert.Equal(t, engine.Term(engine.List{engine.Atom("!"), engine.List{engine.Atom("g"), engine.Int(3)}}), got[0].Term)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, h.Search(engine.Atom("nope")))
	})
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	for n := 1; n <= 4; n++ {
		h.Add(engine.Int(int64(n)), nil)
	}
	assert.Equal(t, 2, h.Len())

	all := h.All()
	require.Len(t, all, 2)
	assert.Equal(t, engine.Term(engine.Int(3)), all[0].Term)
	assert.Equal(t, engine.Term(engine.Int(4)), all[1].Term)
}
