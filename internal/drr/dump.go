package drr

import (
	"fmt"
	"io"
)

// Dump writes a human-readable summary of the record to w, mirroring
// zcut_util.c's per-kind dump_* table (the -v/dump_drr diagnostic
// flag). ck, if non-nil, is printed alongside the record for context
// (the running checksum at the time the record was read or written).
func (r *Record) Dump(w io.Writer, ck *Checksum) {
	switch r.Type() {
	case Begin:
		b := r.Begin()
		fmt.Fprintf(w, "BEGIN record\n")
		fmt.Fprintf(w, "\thdrtype = %d\n", HeaderTypeOf(b.VersionInfo()))
		fmt.Fprintf(w, "\tfeatures = %d\n", FeatureFlagsOf(b.VersionInfo()))
		fmt.Fprintf(w, "\tmagic = %x\n", b.Magic())
		fmt.Fprintf(w, "\tcreation time = %x\n", b.CreationTime())
		fmt.Fprintf(w, "\ttoguid = %x\n", b.ToGUID())
		fmt.Fprintf(w, "\tfromguid = %x\n", b.FromGUID())
		fmt.Fprintf(w, "\ttoname = %s\n", b.ToName())
	case Object:
		o := r.Object()
		fmt.Fprintf(w, "OBJECT object=%d type=%d bonustype=%d blksz=%d bonuslen=%d\n",
			o.Object_(), o.ObjType(), o.BonusType(), o.BlkSz(), o.BonusLen())
	case FreeObjects:
		fmt.Fprintf(w, "FREEOBJECTS\n")
	case Write:
		wv := r.Write()
		fmt.Fprintf(w, "WRITE object=%d offset=%d length=%d\n", wv.Object_(), wv.Offset(), wv.Length())
	case WriteByRef:
		fmt.Fprintf(w, "WRITE_BYREF\n")
	case Free:
		fmt.Fprintf(w, "FREE\n")
	case Spill:
		fmt.Fprintf(w, "SPILL\n")
	case End:
		c := r.End().Checksum()
		fmt.Fprintf(w, "END checksum = %x/%x/%x/%x\n", c[0], c[1], c[2], c[3])
	}
	if ck != nil {
		fmt.Fprintf(w, "\trunning checksum = %x/%x/%x/%x\n", ck[0], ck[1], ck[2], ck[3])
	}
}
