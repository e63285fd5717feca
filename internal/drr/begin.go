package drr

import "strings"

// Begin-body field offsets, relative to the start of the body (Raw[8:]).
const (
	offMagic        = 0
	offVersionInfo  = 8
	offCreationTime = 16
	offObjSetType   = 24
	offFlags        = 28
	offToGUID       = 32
	offFromGUID     = 40
	offToName       = 48
)

// BeginView exposes the typed fields of a BEGIN record's body.
type BeginView struct{ r *Record }

// Begin returns a view over the record's BEGIN body. The caller is
// responsible for only calling this when Type() == Begin.
func (r *Record) Begin() BeginView { return BeginView{r: r} }

func (v BeginView) Magic() uint64 { return v.r.Order.Uint64(v.r.body()[offMagic:]) }
func (v BeginView) SetMagic(m uint64) {
	v.r.Order.PutUint64(v.r.body()[offMagic:], m)
}

func (v BeginView) VersionInfo() uint64 { return v.r.Order.Uint64(v.r.body()[offVersionInfo:]) }
func (v BeginView) SetVersionInfo(x uint64) {
	v.r.Order.PutUint64(v.r.body()[offVersionInfo:], x)
}

func (v BeginView) CreationTime() uint64 { return v.r.Order.Uint64(v.r.body()[offCreationTime:]) }

func (v BeginView) ObjSetType() uint32 { return v.r.Order.Uint32(v.r.body()[offObjSetType:]) }

func (v BeginView) Flags() uint32 { return v.r.Order.Uint32(v.r.body()[offFlags:]) }

func (v BeginView) ToGUID() uint64 { return v.r.Order.Uint64(v.r.body()[offToGUID:]) }
func (v BeginView) SetToGUID(g uint64) {
	v.r.Order.PutUint64(v.r.body()[offToGUID:], g)
}

func (v BeginView) FromGUID() uint64 { return v.r.Order.Uint64(v.r.body()[offFromGUID:]) }
func (v BeginView) SetFromGUID(g uint64) {
	v.r.Order.PutUint64(v.r.body()[offFromGUID:], g)
}

// ToName returns the NUL-terminated toname field as a Go string.
func (v BeginView) ToName() string {
	raw := v.r.body()[offToName : offToName+MaxNameLen]
	if i := indexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// SetToName writes name into the toname field, NUL-padding the rest.
// It returns false if name (plus its terminator) does not fit.
func (v BeginView) SetToName(name string) bool {
	if len(name)+1 > MaxNameLen {
		return false
	}
	dst := v.r.body()[offToName : offToName+MaxNameLen]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
	return true
}

// SnapName returns the portion of ToName after '@', or "" if there is
// no '@' in the name.
func (v BeginView) SnapName() string {
	name := v.ToName()
	i := strings.IndexByte(name, '@')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// SetSnapName replaces the portion of toname after '@' with snap,
// keeping the filesystem/volume portion unchanged. It returns false if
// there is no '@' in the current name or the result does not fit.
func (v BeginView) SetSnapName(snap string) bool {
	name := v.ToName()
	i := strings.IndexByte(name, '@')
	if i < 0 {
		return false
	}
	return v.SetToName(name[:i+1] + snap)
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
