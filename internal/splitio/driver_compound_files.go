package splitio

import (
	"errors"
	"fmt"
	"io"

	"github.com/sempervictus/zstream-split/internal/drr"
)

// CompoundFileDriver splits a compound stream into one file per
// sub-snapshot, grounded on zcut.c's parse_package. curBegin is fixed
// to the second (inner) BEGIN for the entire run, exactly like
// SingleDriver: parse_package never reassigns curr_begin.
//
// Unlike parse_single, parse_package does not bail out the instant an
// END trigger has been processed (is_end is not consulted at that
// break site); it keeps reading, and only stops when a SECOND
// consecutive END arrives (or EOF). In the compound-files format this
// covers exactly one inner BEGIN/END pair, so in practice the run
// always ends via EOF right after the inner END is processed — the
// double-END check exists purely as a defensive backstop (spec §9's
// documented asymmetry vs. CompoundStreamDriver, which relies on the
// same lookahead to legitimately resume a new inner pair).
type CompoundFileDriver struct {
	*Context
}

// Run drives the split loop. pkgBegin is the already-read outer BEGIN.
func (drv *CompoundFileDriver) Run(pkgBegin drr.Record) error {
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
	isEnd := false

	for {
		var err error
		if rec.Type() == drr.Begin || rec.Type() == drr.End {
			_, err = drv.boundary(&pkgBegin, prop, curBegin, rec)
		} else {
			err = drv.bodyRecord(rec)
		}
		if err != nil {
			return err
		}

		rec, err = drv.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading drr: %w", err)
		}

		if rec.Type() == drr.End {
			if isEnd {
				return nil
			}
			isEnd = true
			continue
		}
		isEnd = false

		if drv.Handler.ShouldSplit() {
			if _, err := drv.boundary(&pkgBegin, prop, curBegin, rec); err != nil {
				return err
			}
		}
	}
}
