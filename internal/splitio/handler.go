package splitio

import (
	"fmt"
	"strings"

	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/zlog"
	"golang.org/x/exp/slices"
)

// SubSnap is one emitted sub-stream's identifier entry (spec §3
// "sub_snap_list"), grounded on zcut_split.c's split_snap_t.
type SubSnap struct {
	FromGUID uint64
	ToGUID   uint64
	ToName   string
	Filename string
}

// Handler holds per-run split state: byte/block counters, the
// sub-snapshot chain, and the file-rotation index (spec §3
// "Split-handler state", §4.4). Grounded on zcut_split.c's
// split_handler_s.
type Handler struct {
	maxBytes     uint64
	maxBlocks    uint32
	curBytes     uint64
	curBlocks    uint32
	fileIdx      uint32
	snapIdx      uint32
	firstSplit   bool
	splitForSnap bool
	streamType   drr.HeaderType
	chain        []SubSnap
	log          *zlog.Logger
}

// NewHandler returns a freshly initialized handler (init_split_handler).
func NewHandler(maxBytes uint64, maxBlocks uint32, splitForSnap bool, streamType drr.HeaderType, log *zlog.Logger) *Handler {
	return &Handler{
		maxBytes:     maxBytes,
		maxBlocks:    maxBlocks,
		firstSplit:   true,
		splitForSnap: splitForSnap,
		streamType:   streamType,
		log:          log,
	}
}

// ShouldSplit reports whether the accumulated counters have crossed
// either configured budget. maxBytes of zero means unlimited by bytes
// (spec §3's "default 0 = unlimited by bytes" — the literal C
// threshold of zero would instead trigger unconditionally, since an
// unsigned counter is always >= 0).
func (h *Handler) ShouldSplit() bool {
	return (h.maxBytes != 0 && h.curBytes >= h.maxBytes) || h.curBlocks >= h.maxBlocks
}

// Tick accumulates bytes/blocks written to the current sub-stream.
func (h *Handler) Tick(bytes uint64, blocks uint32) {
	h.curBytes += bytes
	h.curBlocks += blocks
}

// Reset zeros the counters; atomic with BEGIN emission at the call
// site (spec §3 invariant "counter reset is atomic with BEGIN
// emission").
func (h *Handler) Reset() {
	h.curBytes = 0
	h.curBlocks = 0
}

// IsFirstSplit reports whether no sub-stream boundary has been written
// yet for the run (or the run's identifiers have just been restored to
// the originals at a terminal boundary).
func (h *Handler) IsFirstSplit() bool { return h.firstSplit }

// SetFirstSplit overrides the first-split flag (used by the compound
// stream driver when re-entering a fresh inner BEGIN/END pair).
func (h *Handler) SetFirstSplit(b bool) { h.firstSplit = b }

// SplitForSnap reports whether output rotates one file per sub-snapshot.
func (h *Handler) SplitForSnap() bool { return h.splitForSnap }

// Snapshot returns an immutable copy of the sub-snapshot chain
// (feature parity with dump_split_handler/dump_split_snap, spec §10).
func (h *Handler) Snapshot() []SubSnap { return slices.Clone(h.chain) }

func generateGUID(base uint64, idx uint32) uint64 {
	w0 := uint16(((base>>48)&0xFFFF) + uint64((idx>>24)&0xFF))
	w1 := uint16(((base>>32)&0xFFFF) + uint64((idx>>16)&0xFF))
	w2 := uint16(((base>>16)&0xFFFF) + uint64((idx>>8)&0xFF))
	w3 := uint16((base&0xFFFF) + uint64(idx&0xFF))
	return uint64(w0)<<48 | uint64(w1)<<32 | uint64(w2)<<16 | uint64(w3)
}

func generateToName(base string, idx uint32) (string, bool) {
	i := strings.IndexByte(base, '@')
	if i < 0 {
		return "", false
	}
	return fmt.Sprintf("%s@%s_part_%d", base[:i], base[i+1:], idx), true
}

// NextBegin mints the successor sub-stream's BEGIN record from curBegin
// (spec §4.4). When terminal is true, the emitted identifiers are the
// ORIGINAL ones (so a receiver lands on the correct final snapshot);
// the chain entry itself records the originals too, and the
// snap-index/first-split state resets for a fresh run.
func (h *Handler) NextBegin(curBegin drr.Record, terminal bool) drr.Record {
	newBegin := curBegin
	cv := curBegin.Begin()
	bv := newBegin.Begin()

	h.snapIdx++
	var entry SubSnap
	genGUID := generateGUID(cv.ToGUID(), h.snapIdx)
	genName, ok := generateToName(cv.ToName(), h.snapIdx)
	if !ok {
		h.log.Warnf("invalid stream (bad snapshot name): %q", cv.ToName())
		genName = cv.ToName()
	}

	if terminal {
		entry.ToGUID = cv.ToGUID()
		entry.ToName = cv.ToName()
		h.snapIdx = 0
		h.firstSplit = true
	} else {
		entry.ToGUID = genGUID
		entry.ToName = genName
		bv.SetToGUID(entry.ToGUID)
		bv.SetToName(entry.ToName)
		h.firstSplit = false
	}

	if len(h.chain) > 0 {
		prev := h.chain[len(h.chain)-1]
		entry.FromGUID = prev.ToGUID
	} else {
		entry.FromGUID = cv.FromGUID()
		h.firstSplit = true
	}
	bv.SetFromGUID(entry.FromGUID)

	if h.splitForSnap {
		h.fileIdx++
	}
	entry.Filename = fmt.Sprintf(FileNameFormat, h.fileIdx)

	if slices.ContainsFunc(h.chain, func(s SubSnap) bool { return s.ToGUID == entry.ToGUID }) {
		h.log.Warnf("split snapshot guid collision: %x", entry.ToGUID)
	}
	h.chain = append(h.chain, entry)

	h.Reset()
	return newBegin
}
