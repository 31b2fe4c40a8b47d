package engine

import (
	"encoding/binary"
	"fmt"
)

// Canonical term encoding. Every term has exactly one encoding, so the fact
// trie can be keyed on it, and the encoding is reversible, so facts can be
// decoded back out for antecedent matching and host serialization. Counts
// and string lengths are varint-framed.

const (
	tagAtom byte = iota + 1
	tagBool
	tagInt
	tagStr
	tagURI
	tagNil
	tagList
	tagConjunction
	tagError
	tagType
)

// Encode returns the canonical byte form of t.
func Encode(t Term) []byte {
	return appendTerm(make([]byte, 0, 64), t)
}

func appendTerm(dst []byte, t Term) []byte {
	switch t := t.(type) {
	case Atom:
		dst = append(dst, tagAtom)
		dst = appendString(dst, string(t))
	case Bool:
		dst = append(dst, tagBool)
		if t {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case Int:
		dst = append(dst, tagInt)
		dst = binary.AppendVarint(dst, int64(t))
	case Str:
		dst = append(dst, tagStr)
		dst = appendString(dst, string(t))
	case URI:
		dst = append(dst, tagURI)
		dst = appendString(dst, string(t))
	case Nil:
		dst = append(dst, tagNil)
	case List:
		dst = append(dst, tagList)
		dst = binary.AppendUvarint(dst, uint64(len(t)))
		for _, e := range t {
			dst = appendTerm(dst, e)
		}
	case Conjunction:
		dst = append(dst, tagConjunction)
		dst = binary.AppendUvarint(dst, uint64(len(t)))
		for _, e := range t {
			dst = appendTerm(dst, e)
		}
	case Error:
		dst = append(dst, tagError)
		dst = appendString(dst, t.Message)
		dst = appendTerm(dst, t.Payload)
	case Type:
		dst = append(dst, tagType)
		dst = appendTerm(dst, t.Value)
	default:
		panic(fmt.Sprintf("unknown term kind %T", t))
	}
	return dst
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// Decode parses a canonical encoding back into a term. It errors on
// truncated or malformed input and on trailing bytes.
func Decode(b []byte) (Term, error) {
	t, rest, err := decodeTerm(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing %d bytes after term", len(rest))
	}
	return t, nil
}

func decodeTerm(b []byte) (Term, []byte, error) {
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("truncated term")
	}
	tag, b := b[0], b[1:]
	switch tag {
	case tagAtom:
		s, rest, err := decodeString(b)
		return Atom(s), rest, err
	case tagBool:
		if len(b) == 0 {
			return nil, nil, fmt.Errorf("truncated bool")
		}
		return Bool(b[0] != 0), b[1:], nil
	case tagInt:
		n, sz := binary.Varint(b)
		if sz <= 0 {
			return nil, nil, fmt.Errorf("malformed integer")
		}
		return Int(n), b[sz:], nil
	case tagStr:
		s, rest, err := decodeString(b)
		return Str(s), rest, err
	case tagURI:
		s, rest, err := decodeString(b)
		return URI(s), rest, err
	case tagNil:
		return Nil{}, b, nil
	case tagList, tagConjunction:
		n, sz := binary.Uvarint(b)
		if sz <= 0 {
			return nil, nil, fmt.Errorf("malformed element count")
		}
		b = b[sz:]
		elems := make([]Term, 0, n)
		for i := uint64(0); i < n; i++ {
			var (
				e   Term
				err error
			)
			e, b, err = decodeTerm(b)
			if err != nil {
				return nil, nil, err
			}
			elems = append(elems, e)
		}
		if tag == tagConjunction {
			return Conjunction(elems), b, nil
		}
		return List(elems), b, nil
	case tagError:
		msg, b, err := decodeString(b)
		if err != nil {
			return nil, nil, err
		}
		payload, rest, err := decodeTerm(b)
		if err != nil {
			return nil, nil, err
		}
		return Error{Message: msg, Payload: payload}, rest, nil
	case tagType:
		v, rest, err := decodeTerm(b)
		if err != nil {
			return nil, nil, err
		}
		return Type{Value: v}, rest, nil
	default:
		return nil, nil, fmt.Errorf("unknown term tag %#x", tag)
	}
}

func decodeString(b []byte) (string, []byte, error) {
	n, sz := binary.Uvarint(b)
	if sz <= 0 {
		return "", nil, fmt.Errorf("malformed string length")
	}
	b = b[sz:]
	if uint64(len(b)) < n {
		return "", nil, fmt.Errorf("truncated string")
	}
	return string(b[:n]), b[n:], nil
}
