package drr

// versioninfo packs the stream header type in its low two bits and
// feature flags in the remaining bits, mirroring
// DMU_GET_STREAM_HDRTYPE/DMU_GET_FEATUREFLAGS.
const (
	hdrTypeMask      = 0x3
	featureFlagsBits = 2
)

// HeaderTypeOf extracts the stream shape (Substream or Compound) from a
// BEGIN record's versioninfo field.
func HeaderTypeOf(versioninfo uint64) HeaderType {
	return HeaderType(versioninfo & hdrTypeMask)
}

// FeatureFlagsOf extracts the feature-flags bits from versioninfo.
func FeatureFlagsOf(versioninfo uint64) uint64 {
	return versioninfo >> featureFlagsBits
}

// PayloadLenFor returns the number of trailing payload bytes this record
// carries, per spec §3: zero for every kind except OBJECT (bonus
// buffer, 8-byte rounded) and WRITE (exact data length).
func (r *Record) PayloadLenFor() uint64 {
	switch r.Type() {
	case Object:
		return uint64(r.Object().PayloadLen())
	case Write:
		return r.Write().PayloadLen()
	default:
		return 0
	}
}
