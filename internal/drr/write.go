package drr

// Write-body field offsets, relative to the start of the body.
const (
	offWrObject       = 0
	offWrType         = 8
	offWrChecksumType = 12
	offWrOffset       = 16
	offWrLength       = 24
	offWrToGUID       = 32
	offWrCksum        = 40 // [4]uint64
	offWrProp         = 72
)

// WriteView exposes the typed fields of a WRITE record's body. Only
// Length is structurally significant to the splitter (it determines the
// trailing write-data payload length); the rest is exposed for
// diagnostic dumps only.
type WriteView struct{ r *Record }

func (r *Record) Write() WriteView { return WriteView{r: r} }

func (v WriteView) Object_() uint64      { return v.r.Order.Uint64(v.r.body()[offWrObject:]) }
func (v WriteView) WrType() uint32       { return v.r.Order.Uint32(v.r.body()[offWrType:]) }
func (v WriteView) ChecksumType() uint32 { return v.r.Order.Uint32(v.r.body()[offWrChecksumType:]) }
func (v WriteView) Offset() uint64       { return v.r.Order.Uint64(v.r.body()[offWrOffset:]) }
func (v WriteView) Length() uint64       { return v.r.Order.Uint64(v.r.body()[offWrLength:]) }
func (v WriteView) ToGUID() uint64       { return v.r.Order.Uint64(v.r.body()[offWrToGUID:]) }
func (v WriteView) Prop() uint64         { return v.r.Order.Uint64(v.r.body()[offWrProp:]) }

// PayloadLen returns the exact length of the WRITE record's trailing
// data buffer (spec §4.2).
func (v WriteView) PayloadLen() uint64 { return v.Length() }
