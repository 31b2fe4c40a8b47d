package engine

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Binary serialization of an environment for host persistence. Only the fact
// base and the rule multiplicities go over the wire; the rule index and the
// type index are derived state and are rebuilt from the decoded facts.

const serialVersion = 1

// MarshalBinary implements encoding.BinaryMarshaler.
func (e *Environment) MarshalBinary() ([]byte, error) {
	d := e.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []byte{serialVersion}
	out = binary.AppendUvarint(out, uint64(d.facts.Len()))
	d.facts.Walk(func(key []byte) bool {
		out = binary.AppendUvarint(out, uint64(len(key)))
		out = append(out, key...)
		return true
	})

	out = binary.AppendUvarint(out, uint64(len(d.mult)))
	// Multiplicity keys are canonical encodings already; sorting them keeps
	// the stream deterministic.
	keys := make([]string, 0, len(d.mult))
	for k := range d.mult {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = binary.AppendUvarint(out, uint64(len(k)))
		out = append(out, k...)
		out = binary.AppendUvarint(out, uint64(d.mult[k]))
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver is
// reset to own fresh data; rules and type assertions are re-indexed from
// their fact forms.
func (e *Environment) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("environment: empty serialization")
	}
	if data[0] != serialVersion {
		return fmt.Errorf("environment: unsupported serialization version %d", data[0])
	}
	data = data[1:]

	nFacts, data, err := readUvarint(data)
	if err != nil {
		return fmt.Errorf("environment: fact count: %w", err)
	}

	fresh := NewEnvironment()
	for i := uint64(0); i < nFacts; i++ {
		var key []byte
		key, data, err = readBlock(data)
		if err != nil {
			return fmt.Errorf("environment: fact %d: %w", i, err)
		}
		t, err := Decode(key)
		if err != nil {
			return fmt.Errorf("environment: fact %d: %w", i, err)
		}
		fresh.indexFact(t)
	}

	nMult, data, err := readUvarint(data)
	if err != nil {
		return fmt.Errorf("environment: multiplicity count: %w", err)
	}
	mult := make(map[string]int, nMult)
	for i := uint64(0); i < nMult; i++ {
		var key []byte
		key, data, err = readBlock(data)
		if err != nil {
			return fmt.Errorf("environment: multiplicity key %d: %w", i, err)
		}
		var n uint64
		n, data, err = readUvarint(data)
		if err != nil {
			return fmt.Errorf("environment: multiplicity value %d: %w", i, err)
		}
		mult[string(key)] = int(n)
	}
	if len(data) != 0 {
		return fmt.Errorf("environment: %d trailing bytes", len(data))
	}

	fresh.data.mult = mult
	e.data = fresh.data
	e.ownsData = true
	e.modified = false
	return nil
}

// indexFact stores a decoded fact and re-derives the indexes its shape
// implies: (= lhs rhs) enters the rule index, (: name type) the type index.
func (e *Environment) indexFact(t Term) {
	if items, ok := t.(List); ok && len(items) == 3 {
		if head, ok := items[0].(Atom); ok {
			switch string(head) {
			case "=":
				e.AddRule(&Rule{LHS: items[1], RHS: items[2]})
				return
			case ":":
				if name, ok := items[1].(Atom); ok {
					e.AddType(string(name), items[2])
				}
			}
		}
	}
	e.AddFact(t)
}

func readUvarint(data []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil, fmt.Errorf("truncated varint")
	}
	return v, data[n:], nil
}

func readBlock(data []byte) ([]byte, []byte, error) {
	n, data, err := readUvarint(data)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(data)) < n {
		return nil, nil, fmt.Errorf("truncated block: want %d bytes, have %d", n, len(data))
	}
	return data[:n], data[n:], nil
}
