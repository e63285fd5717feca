package splitio

import "errors"

// Sentinel errors returned by the split engine. drr.ErrBadMagic and
// nvlist.ErrDecode are propagated wrapped rather than re-typed here.
var (
	ErrShortRead       = errors.New("splitio: short record read")
	ErrChecksumMismatch = errors.New("splitio: checksum mismatch")
	ErrPropDecode      = errors.New("splitio: property list decode failed")
	ErrPropEncode      = errors.New("splitio: property list encode failed")
	ErrUsage           = errors.New("splitio: invalid usage")
)
