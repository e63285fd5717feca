package splitio

import (
	"errors"
	"fmt"
	"io"

	"github.com/sempervictus/zstream-split/internal/drr"
)

// SingleDriver splits a plain (non-compound) send stream, grounded on
// zcut.c's parse_single. curBegin is fixed to the stream's original
// BEGIN for the lifetime of the run: it is the base guid/toname every
// split derives from, never the most recently minted sub-BEGIN (spec
// §4.4's "base to-guid" is the original, not a moving target — mirrors
// zcut_split.c's next_split_begin taking a copy of *pcurr_begin rather
// than mutating the caller's pointer).
type SingleDriver struct {
	*Context
}

// Run drives the split loop starting from the already-read first
// BEGIN record.
func (drv *SingleDriver) Run(firstBegin drr.Record) error {
	curBegin := firstBegin
	rec := firstBegin
	isEnd := false

	for {
		var err error
		if rec.Type() == drr.Begin || rec.Type() == drr.End {
			_, err = drv.boundary(nil, nil, curBegin, rec)
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
			isEnd = true
			continue
		}

		if drv.Handler.ShouldSplit() {
			if _, err := drv.boundary(nil, nil, curBegin, rec); err != nil {
				return err
			}
		}
	}
}
