// Package fletcher implements the incremental Fletcher-4 checksum used
// to authenticate a ZFS send stream: four 64-bit running sums folded
// over the stream's 32-bit words (spec §3 "Rolling checksum").
//
// Native and ByteSwapped are the two primitives spec.md §1 treats as
// externally supplied; no Go port of zfs_fletcher.c exists in the
// ecosystem, so they are implemented here from the well-known
// algorithm (four cascading running sums: a, b=Σa, c=Σb, d=Σc).
package fletcher

import "encoding/binary"

// Accum is the 256-bit accumulator threaded through a split run: four
// 64-bit words, updated a 32-bit word at a time.
type Accum [4]uint64

// Equal reports whether a and o hold the same four words.
func (a Accum) Equal(o Accum) bool {
	return a[0] == o[0] && a[1] == o[1] && a[2] == o[2] && a[3] == o[3]
}

// IsZero reports whether a is the zero accumulator.
func (a Accum) IsZero() bool { return a == Accum{} }

// Native folds buf (a whole number of 4-byte words) into acc, reading
// each word in the machine's native (little-endian) order.
func Native(buf []byte, acc *Accum) {
	fold(buf, acc, binary.LittleEndian)
}

// ByteSwapped folds buf into acc, reading each word byte-swapped
// (big-endian), for use when the stream was produced on a host of the
// opposite endianness.
func ByteSwapped(buf []byte, acc *Accum) {
	fold(buf, acc, binary.BigEndian)
}

func fold(buf []byte, acc *Accum, order binary.ByteOrder) {
	a, b, c, d := acc[0], acc[1], acc[2], acc[3]
	n := len(buf) - len(buf)%4
	for i := 0; i < n; i += 4 {
		a += uint64(order.Uint32(buf[i : i+4]))
		b += a
		c += b
		d += c
	}
	acc[0], acc[1], acc[2], acc[3] = a, b, c, d
}

// Fold folds buf into acc using ByteSwapped when swap is true, Native
// otherwise — the shape every call site in the splitter actually needs.
func Fold(buf []byte, acc *Accum, swap bool) {
	if swap {
		ByteSwapped(buf, acc)
	} else {
		Native(buf, acc)
	}
}
