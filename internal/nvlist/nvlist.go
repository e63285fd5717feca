// Package nvlist implements the XDR-encoded name-value list codec a
// compound BEGIN record's property payload carries (spec §4.3, §6). No
// Go port of illumos/OpenZFS's libnvpair exists in the ecosystem, so
// this is, like internal/drr, a from-scratch implementation of the
// "assumed available" primitive spec.md §1 treats as an external
// collaborator: pack/unpack/iterate/add over an ordered, nestable
// name-value tree.
//
// Entries preserve insertion order (a plain map would not), since the
// property rewriter (spec §4.3) must produce deterministic,
// reproducible output for a given input.
package nvlist

import (
	"encoding/binary"
	"fmt"
)

// Kind tags the type of value carried by an Entry.
type Kind uint32

const (
	KindUint64 Kind = iota
	KindString
	KindList
)

// Value is a tagged union over the value kinds the property rewriter
// needs: unsigned integers (guids), strings (snapshot/property names)
// and nested lists (fss, snaps, snapprops).
type Value struct {
	Kind Kind
	U64  uint64
	Str  string
	List *List
}

// Uint64 constructs a Value holding an unsigned integer.
func Uint64(v uint64) Value { return Value{Kind: KindUint64, U64: v} }

// String constructs a Value holding a string.
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// NVList constructs a Value holding a nested list.
func NVList(v *List) Value { return Value{Kind: KindList, List: v} }

// Entry is one (name, value) pair within a List.
type Entry struct {
	Name  string
	Value Value
}

// List is an ordered, nestable name-value list: the decoded form of a
// compound BEGIN record's property payload, or any nvlist nested
// within it (fss, a per-filesystem entry, snaps, snapprops).
type List struct {
	Entries []Entry
}

// New returns an empty list.
func New() *List { return &List{} }

// Add appends a (name, value) pair. Per spec §4.3 step 3, callers that
// need to replace rather than append should rebuild the list via
// Iterate into a fresh *List.
func (l *List) Add(name string, v Value) error {
	l.Entries = append(l.Entries, Entry{Name: name, Value: v})
	return nil
}

// Get returns the first entry matching name.
func (l *List) Get(name string) (Value, bool) {
	for _, e := range l.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Iterate calls fn once per entry, in order, stopping at the first
// error.
func (l *List) Iterate(fn func(name string, v Value) error) error {
	for _, e := range l.Entries {
		if err := fn(e.Name, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func pad4(n int) int { return (n + 3) &^ 3 }

func writeString(buf []byte, s string) []byte {
	var lenb [4]byte
	binary.BigEndian.PutUint32(lenb[:], uint32(len(s)))
	buf = append(buf, lenb[:]...)
	buf = append(buf, s...)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func readString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("%w: truncated string length", ErrDecode)
	}
	n := int(binary.BigEndian.Uint32(data))
	data = data[4:]
	if n < 0 || n > len(data) {
		return "", nil, fmt.Errorf("%w: string length %d exceeds remaining %d", ErrDecode, n, len(data))
	}
	s := string(data[:n])
	rest := data[pad4(n):]
	return s, rest, nil
}

// Pack encodes the list to its XDR byte representation (spec §4.3
// step 5).
func (l *List) Pack() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = appendList(buf, l)
	return buf, nil
}

func appendList(buf []byte, l *List) []byte {
	var countb [4]byte
	binary.BigEndian.PutUint32(countb[:], uint32(len(l.Entries)))
	buf = append(buf, countb[:]...)
	for _, e := range l.Entries {
		buf = writeString(buf, e.Name)
		var kindb [4]byte
		binary.BigEndian.PutUint32(kindb[:], uint32(e.Value.Kind))
		buf = append(buf, kindb[:]...)
		switch e.Value.Kind {
		case KindUint64:
			var v [8]byte
			binary.BigEndian.PutUint64(v[:], e.Value.U64)
			buf = append(buf, v[:]...)
		case KindString:
			buf = writeString(buf, e.Value.Str)
		case KindList:
			sub := e.Value.List
			if sub == nil {
				sub = New()
			}
			buf = appendList(buf, sub)
		}
	}
	return buf
}

// Unpack decodes a list from its XDR byte representation (spec §4.3
// step 1).
func Unpack(data []byte) (*List, error) {
	l, rest, err := readList(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(rest))
	}
	return l, nil
}

func readList(data []byte) (*List, []byte, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: truncated list count", ErrDecode)
	}
	count := int(binary.BigEndian.Uint32(data))
	data = data[4:]
	if count < 0 {
		return nil, nil, fmt.Errorf("%w: negative entry count", ErrDecode)
	}
	l := &List{Entries: make([]Entry, 0, count)}
	for i := 0; i < count; i++ {
		name, rest, err := readString(data)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		data = rest
		if len(data) < 4 {
			return nil, nil, fmt.Errorf("%w: truncated value kind", ErrDecode)
		}
		kind := Kind(binary.BigEndian.Uint32(data))
		data = data[4:]
		var v Value
		switch kind {
		case KindUint64:
			if len(data) < 8 {
				return nil, nil, fmt.Errorf("%w: truncated uint64 value", ErrDecode)
			}
			v = Uint64(binary.BigEndian.Uint64(data))
			data = data[8:]
		case KindString:
			s, rest, err := readString(data)
			if err != nil {
				return nil, nil, fmt.Errorf("entry %d value: %w", i, err)
			}
			v = String(s)
			data = rest
		case KindList:
			sub, rest, err := readList(data)
			if err != nil {
				return nil, nil, fmt.Errorf("entry %d value: %w", i, err)
			}
			v = NVList(sub)
			data = rest
		default:
			return nil, nil, fmt.Errorf("%w: unknown value kind %d", ErrDecode, kind)
		}
		l.Entries = append(l.Entries, Entry{Name: name, Value: v})
	}
	return l, data, nil
}
