package splitio

import (
	"errors"
	"fmt"
	"io"

	"github.com/sempervictus/zstream-split/internal/drr"
)

// CompoundStreamDriver splits a compound stream while writing every
// sub-stream to a single concatenated output (spec §4.5/§9), grounded
// on zcut.c's parse_package_stream. Unlike CompoundFileDriver, it
// supports more than one inner BEGIN/END pair: whenever it reads a
// lone END it looks one record ahead to tell a true end-of-compound
// (END followed by another END) from a mid-stream boundary into a new
// inner pair (END followed by a real BEGIN). The outer pkg BEGIN/END
// wrapper is only emitted around the very first pair's transition and
// again around the terminal sub-stream once the END-then-END terminal
// is seen — never around an ordinary mid-stream pair change — matching
// parse_package_stream's pdb/ppkg_begin dance.
type CompoundStreamDriver struct {
	*Context
}

// Run drives the split loop. pkgBegin is the already-read outer BEGIN.
func (drv *CompoundStreamDriver) Run(pkgBegin drr.Record) error {
	prop, err := drv.readPkgBeginEnd(pkgBegin)
	if err != nil {
		return err
	}

	drv.Handler.Reset()
	drv.InputAccum = drr.Checksum{}

	rec, err := drv.read()
	if err != nil {
		return fmt.Errorf("reading second begin: %w", err)
	}
	curBegin := rec
	drv.Handler.SetFirstSplit(false)

	pdb := &pkgBegin
	isEnd := false

	for {
		var err error
		if rec.Type() == drr.Begin || rec.Type() == drr.End {
			_, err = drv.boundary(pdb, prop, curBegin, rec)
			pdb = nil
		} else {
			err = drv.bodyRecord(rec)
		}
		if err != nil {
			return err
		}
		if isEnd {
			return nil
		}

		rec, err = drv.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading drr: %w", err)
		}

		if rec.Type() == drr.End {
			savedInput := drv.InputAccum
			drv.InputAccum = drr.Checksum{}

			next, err := drv.read()
			if err != nil {
				return fmt.Errorf("reading next begin/end: %w", err)
			}

			if next.Type() == drr.End {
				// the real compound frame ends here: restore the
				// checksum the lone END itself must be validated
				// against, and re-arm the outer wrapper so the
				// terminal boundary emits it before the run ends.
				drv.InputAccum = savedInput
				isEnd = true
				pdb = &pkgBegin
				drv.Handler.SetFirstSplit(false)
				continue
			}

			// a new inner BEGIN/END pair starts here: close the
			// current sub-stream against the lone END without
			// minting a synthetic successor, then resume dispatch
			// from the real BEGIN itself (it becomes both the next
			// trigger and the new base).
			nextAccum := drv.InputAccum
			drv.InputAccum = savedInput
			if err := drv.closeSubStream(pdb, curBegin, &rec); err != nil {
				return fmt.Errorf("closing sub-stream: %w", err)
			}
			drv.InputAccum = nextAccum
			pdb = nil
			rec = next
			curBegin = next
			continue
		}

		isEnd = false
		if drv.Handler.ShouldSplit() {
			if _, err := drv.boundary(pdb, prop, curBegin, rec); err != nil {
				return err
			}
		}
	}
}
