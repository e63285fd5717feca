// Package drr implements a typed view over the 312-byte replay-record
// frame that brackets every ZFS send stream record, plus the handful of
// stream-level constants (magic number, header type) a splitter needs to
// classify a stream without decoding file-system object contents.
package drr

import (
	"encoding/binary"
	"fmt"
)

// Size is the fixed on-wire size of a replay record, header plus body.
const Size = 312

const headerSize = 8
const bodySize = Size - headerSize

// MaxNameLen is the maximum length of a BEGIN record's toname field,
// including the trailing NUL.
const MaxNameLen = 256

// Magic is the native-endian value a stream's first BEGIN record must
// carry for the stream to be recognized; DetectByteOrder also accepts
// its byte-swapped form.
const Magic uint64 = 0x2F5bacbac

// Kind identifies the tagged variant of a replay record. Only Begin and
// End are structurally significant to the splitter; the others are
// opaque except for the payload length they carry (see PayloadLen).
type Kind uint32

const (
	Begin Kind = iota
	Object
	FreeObjects
	Write
	WriteByRef
	Free
	Spill
	End
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Begin:
		return "BEGIN"
	case Object:
		return "OBJECT"
	case FreeObjects:
		return "FREEOBJECTS"
	case Write:
		return "WRITE"
	case WriteByRef:
		return "WRITE_BYREF"
	case Free:
		return "FREE"
	case Spill:
		return "SPILL"
	case End:
		return "END"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// HeaderType distinguishes a single sub-stream from a compound stream,
// per the first BEGIN's versioninfo field (DMU_GET_STREAM_HDRTYPE).
type HeaderType uint32

const (
	Substream HeaderType = iota
	Compound
)

// Record is the decoded form of one 312-byte frame. Raw always holds the
// exact wire-order bytes that traversed the transport: per the rolling
// checksum's invariant (spec §9), those bytes must never be mutated in
// place before they are folded into an accumulator, so every field
// mutator here operates on Raw directly and keeps it authoritative.
type Record struct {
	Raw   [Size]byte
	Order binary.ByteOrder
}

// Type returns the record's kind, honoring Order.
func (r *Record) Type() Kind {
	return Kind(r.Order.Uint32(r.Raw[0:4]))
}

// SetType sets the record's kind tag in Raw.
func (r *Record) SetType(k Kind) {
	r.Order.PutUint32(r.Raw[0:4], uint32(k))
}

// PayloadLen returns the BEGIN record's payload length (the packed
// nvlist size for a compound stream's outer BEGIN).
func (r *Record) PayloadLen() uint32 {
	return r.Order.Uint32(r.Raw[4:8])
}

// SetPayloadLen sets the payload length field.
func (r *Record) SetPayloadLen(n uint32) {
	r.Order.PutUint32(r.Raw[4:8], n)
}

func (r *Record) body() []byte { return r.Raw[headerSize:] }

// Decode wraps a raw 312-byte frame as already having been read off the
// wire in the given byte order. It performs no copying beyond what the
// caller already did into raw.
func Decode(raw [Size]byte, order binary.ByteOrder) Record {
	return Record{Raw: raw, Order: order}
}

// NewRecord returns a zeroed record with the given type and byte order
// already set, ready for its typed accessors to populate.
func NewRecord(k Kind, order binary.ByteOrder) Record {
	r := Record{Order: order}
	r.SetType(k)
	return r
}

// DetectByteOrder inspects the first BEGIN record's type tag and magic
// number against both the native and byte-swapped expected values,
// mirroring zcut.c's main() comparison. It returns ErrBadMagic if
// neither matches.
func DetectByteOrder(raw [Size]byte) (binary.ByteOrder, error) {
	if binary.LittleEndian.Uint32(raw[0:4]) == uint32(Begin) &&
		binary.LittleEndian.Uint64(raw[8:16]) == Magic {
		return binary.LittleEndian, nil
	}
	if binary.BigEndian.Uint32(raw[0:4]) == uint32(Begin) &&
		binary.BigEndian.Uint64(raw[8:16]) == Magic {
		return binary.BigEndian, nil
	}
	return nil, ErrBadMagic
}
