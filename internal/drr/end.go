package drr

import "github.com/sempervictus/zstream-split/internal/fletcher"

// End-body field offsets, relative to the start of the body.
const (
	offChecksum = 0 // [4]uint64, 32 bytes
	offEndGUID  = 32
)

// Checksum is a 256-bit Fletcher-4 accumulator: four 64-bit words. It is
// an alias of fletcher.Accum so record fields and the rolling
// accumulator that feeds them share one representation.
type Checksum = fletcher.Accum

// EndView exposes the typed fields of an END record's body.
type EndView struct{ r *Record }

// End returns a view over the record's END body.
func (r *Record) End() EndView { return EndView{r: r} }

func (v EndView) Checksum() Checksum {
	var c Checksum
	b := v.r.body()[offChecksum:]
	for i := range c {
		c[i] = v.r.Order.Uint64(b[i*8:])
	}
	return c
}

func (v EndView) SetChecksum(c Checksum) {
	b := v.r.body()[offChecksum:]
	for i := range c {
		v.r.Order.PutUint64(b[i*8:], c[i])
	}
}

func (v EndView) ToGUID() uint64 { return v.r.Order.Uint64(v.r.body()[offEndGUID:]) }
func (v EndView) SetToGUID(g uint64) {
	v.r.Order.PutUint64(v.r.body()[offEndGUID:], g)
}
