package splitio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sempervictus/zstream-split/internal/alias"
	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/fletcher"
)

// ReadRecord reads exactly one 312-byte frame off r (spec §4.1). A
// clean EOF with zero bytes read yields io.EOF; any partial frame is
// fatal (ErrShortRead). Non-END records are folded into accum. When
// aliasing is active and the record is a BEGIN, the current snapshot
// name is cached (but not yet substituted — substitution happens on
// write, per zcut_drr.c's read_drr/write_drr split).
func ReadRecord(r *bufio.Reader, order binary.ByteOrder, swap bool, accum *drr.Checksum, aliases *alias.Cache) (drr.Record, error) {
	var raw [drr.Size]byte
	n, err := io.ReadFull(r, raw[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return drr.Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return drr.Record{}, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, drr.Size)
		}
		return drr.Record{}, fmt.Errorf("reading record: %w", err)
	}

	rec := drr.Decode(raw, order)
	if rec.Type() != drr.End {
		if aliases != nil && aliases.Active() && rec.Type() == drr.Begin {
			if snap := rec.Begin().SnapName(); snap != "" {
				aliases.Alias(snap)
			}
		}
		fletcher.Fold(rec.Raw[:], accum, swap)
	}
	return rec, nil
}

// WriteRecord writes rec to sink, honoring gate suppression, and folds
// its bytes into accum unless it is a terminal END (spec §4.1). A BEGIN
// record has its snapshot-name component rewritten to the cached alias,
// in place, before folding — so the on-wire checksum and the on-wire
// name stay consistent, exactly as zcut_drr.c's write_drr does.
func WriteRecord(sink io.Writer, gate *ResumeGate, rec drr.Record, swap bool, accum *drr.Checksum, aliases *alias.Cache) error {
	if rec.Type() != drr.End {
		if aliases != nil && aliases.Active() && rec.Type() == drr.Begin {
			bv := rec.Begin()
			if snap := bv.SnapName(); snap != "" {
				bv.SetSnapName(aliases.Alias(snap))
			}
		}
		fletcher.Fold(rec.Raw[:], accum, swap)
	}

	return writeRecordRaw(sink, gate, rec)
}
