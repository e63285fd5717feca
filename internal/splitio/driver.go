package splitio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sempervictus/zstream-split/internal/alias"
	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/fletcher"
	"github.com/sempervictus/zstream-split/internal/zlog"
)

// Context is the shared state threaded through all three driver
// variants (spec §4.5): the current accumulators, the active sink, and
// the collaborators (handler, gate, alias cache) each boundary touches.
// Counter/tick bookkeeping is folded into writeRec/CopyPayload
// uniformly, a deliberate simplification of the original's
// per-call-site split_counter placement — see DESIGN.md.
type Context struct {
	Order   binary.ByteOrder
	Swap    bool
	Handler *Handler
	Gate    *ResumeGate
	Aliases *alias.Cache
	Reader  *bufio.Reader

	// OpenSink produces the Sink for the given filename (file mode) or
	// is ignored when ToStdout is set (a single StreamSink is reused).
	OpenSink func(filename string) (Sink, error)
	ToStdout bool

	Dump  bool
	DumpW io.Writer
	Log   *zlog.Logger

	sink   Sink
	writer *bufio.Writer

	InputAccum drr.Checksum // tracks bytes since the last original BEGIN/END
	SubAccum   drr.Checksum // tracks bytes since the last synthetic BEGIN
}

// Init opens the first output sink (file index 1, or the shared
// stream) and must be called once before the driver loop starts.
func (d *Context) Init() error {
	return d.rotate(fmt.Sprintf(FileNameFormat, 1))
}

// Close flushes and closes the current sink.
func (d *Context) Close() error {
	if d.writer != nil {
		if err := d.writer.Flush(); err != nil {
			return fmt.Errorf("flushing output: %w", err)
		}
	}
	if d.sink != nil {
		return d.sink.Close()
	}
	return nil
}

func (d *Context) rotate(filename string) error {
	if d.writer != nil {
		if err := d.writer.Flush(); err != nil {
			return fmt.Errorf("flushing output: %w", err)
		}
	}
	if d.ToStdout {
		if d.sink == nil {
			d.sink = NewStreamSink(nil) // caller sets the real writer via SetStreamWriter
		}
		if d.writer == nil {
			d.writer = bufio.NewWriter(d.sink)
		}
		return nil
	}
	if d.sink != nil {
		if err := d.sink.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", filename, err)
		}
	}
	sink, err := d.OpenSink(filename)
	if err != nil {
		return err
	}
	d.sink = sink
	d.writer = bufio.NewWriter(sink)
	return nil
}

// SetStreamWriter installs w as the single shared sink for stdout mode.
func (d *Context) SetStreamWriter(w io.Writer) {
	d.sink = NewStreamSink(w)
	d.writer = bufio.NewWriter(d.sink)
}

func (d *Context) read() (drr.Record, error) {
	return ReadRecord(d.Reader, d.Order, d.Swap, &d.InputAccum, d.Aliases)
}

// writeRec folds rec (unless it is a terminal END) into accum, writes
// it to the current sink honoring gate suppression, dumps it when
// diagnostics are enabled, and ticks the handler's counters.
func (d *Context) writeRec(rec drr.Record, accum *drr.Checksum) error {
	if rec.Type() != drr.End {
		if d.Aliases != nil && d.Aliases.Active() && rec.Type() == drr.Begin {
			bv := rec.Begin()
			if snap := bv.SnapName(); snap != "" {
				bv.SetSnapName(d.Aliases.Alias(snap))
			}
		}
		fletcher.Fold(rec.Raw[:], accum, d.Swap)
	}
	if err := writeRecordRaw(d.writer, d.Gate, rec); err != nil {
		return err
	}
	if d.Dump && d.DumpW != nil {
		rec.Dump(d.DumpW, accum)
	}
	d.Handler.Tick(drr.Size, 1)
	return nil
}

// write writes rec as part of the current sub-stream, folding into
// SubAccum.
func (d *Context) write(rec drr.Record) error { return d.writeRec(rec, &d.SubAccum) }

func (d *Context) copyPayload(length uint64) error {
	n, err := CopyPayload(d.Reader, d.writer, d.Gate, length, &d.SubAccum, &d.InputAccum, d.Swap)
	d.Handler.Tick(n, 0)
	return err
}

// checkChecksum validates end's stored checksum against InputAccum,
// logging (not failing) on mismatch, then resets InputAccum for the
// next original BEGIN/END run (spec §7 "ChecksumMismatch ... logged
// but does not halt the run").
func (d *Context) checkChecksum(end drr.Record) {
	got := end.End().Checksum()
	if !got.Equal(d.InputAccum) {
		d.Log.Warnf("%v: end=%x/%x/%x/%x expected=%x/%x/%x/%x",
			ErrChecksumMismatch,
			got[0], got[1], got[2], got[3],
			d.InputAccum[0], d.InputAccum[1], d.InputAccum[2], d.InputAccum[3])
	}
	d.InputAccum = drr.Checksum{}
}

// compareChecksum logs (non-fatal) a mismatch between end's stored
// checksum and expected, without touching InputAccum.
func (d *Context) compareChecksum(end drr.Record, expected drr.Checksum) {
	got := end.End().Checksum()
	if !got.Equal(expected) {
		d.Log.Warnf("%v: end=%x/%x/%x/%x expected=%x/%x/%x/%x",
			ErrChecksumMismatch,
			got[0], got[1], got[2], got[3],
			expected[0], expected[1], expected[2], expected[3])
	}
}

// readPkgBeginEnd reads a compound stream's property payload (if any)
// and its matching outer END, grounded on zcut_drr.c's
// read_pkg_begin_end. The outer END's checksum is validated against
// pkgBegin+prop only, independent of InputAccum.
func (d *Context) readPkgBeginEnd(pkgBegin drr.Record) ([]byte, error) {
	var zcksum drr.Checksum
	fletcher.Fold(pkgBegin.Raw[:], &zcksum, d.Swap)

	propLen := pkgBegin.PayloadLen()
	var prop []byte
	if propLen != 0 {
		prop = make([]byte, propLen)
		if _, err := io.ReadFull(d.Reader, prop); err != nil {
			return nil, fmt.Errorf("reading properties: %w", err)
		}
		fletcher.Fold(prop, &zcksum, d.Swap)
	}

	end, err := d.read()
	if err != nil {
		return nil, fmt.Errorf("reading package end: %w", err)
	}
	d.compareChecksum(end, zcksum)

	return prop, nil
}

func (d *Context) newEnd(toGUID uint64, cksum drr.Checksum) drr.Record {
	rec := drr.NewRecord(drr.End, d.Order)
	ev := rec.End()
	ev.SetChecksum(cksum)
	ev.SetToGUID(toGUID)
	return rec
}

// writeSplitEnd closes the current sub-stream: a synthetic END whose
// to_guid is begin's to_guid and whose checksum is SubAccum (spec §4.5
// step 1).
func (d *Context) writeSplitEnd(begin drr.Record) error {
	rec := d.newEnd(begin.Begin().ToGUID(), d.SubAccum)
	return d.write(rec)
}

// writeDoubleEnd additionally emits the compound's outer END right
// after the inner one (spec §4.5 step 2, zcut_drr.c's write_double_end).
func (d *Context) writeDoubleEnd(begin drr.Record) error {
	if err := d.writeSplitEnd(begin); err != nil {
		return err
	}
	d.SubAccum = drr.Checksum{}
	rec := d.newEnd(begin.Begin().ToGUID(), d.SubAccum)
	return d.write(rec)
}

// writePkgBeginEnd writes the outer compound BEGIN (with prop as its
// payload), the prop bytes, and the outer compound END, using its own
// accumulator independent from SubAccum (zcut_drr.c's
// write_pkg_begin_end).
func (d *Context) writePkgBeginEnd(pkgBegin drr.Record, prop []byte) error {
	var pkgAccum drr.Checksum

	begin := pkgBegin
	begin.SetPayloadLen(uint32(len(prop)))
	if err := d.writeRec(begin, &pkgAccum); err != nil {
		return fmt.Errorf("writing package begin: %w", err)
	}

	if len(prop) > 0 {
		n, err := writeGated(d.writer, d.Gate, prop)
		if err != nil {
			return fmt.Errorf("writing properties: %w", err)
		}
		d.Handler.Tick(uint64(n), 0)
		fletcher.Fold(prop, &pkgAccum, d.Swap)
	}

	end := d.newEnd(begin.Begin().ToGUID(), pkgAccum)
	if err := d.writeRec(end, &pkgAccum); err != nil {
		return fmt.Errorf("writing package end: %w", err)
	}
	return nil
}

// writeNewPkgBeginEnd rewrites prop for the new sub-stream's identity
// (when non-empty) and emits the outer BEGIN/END wrapper around it.
func (d *Context) writeNewPkgBeginEnd(pkgBegin, curBegin, newBegin drr.Record, prop []byte) error {
	var newProp []byte
	if len(prop) > 0 {
		np, err := RewriteProps(prop, curBegin, newBegin, d.Aliases)
		if err != nil {
			return err
		}
		newProp = np
	}
	return d.writePkgBeginEnd(pkgBegin, newProp)
}

// closeSubStream ends the sub-stream currently open under curBegin: a
// double END when this is the compound wrapper's first use, a plain
// split END otherwise. When end is non-nil (an original END was the
// trigger) its checksum is validated against InputAccum. Grounded on
// zcut_drr.c's split_handler END/body branches, factored out so
// CompoundStreamDriver's lookahead can close a sub-stream without
// minting its successor (zcut_drr.c's early return when split_handler
// is invoked with a lookahead BEGIN standing in for ppkg_end).
func (d *Context) closeSubStream(pkgBegin *drr.Record, curBegin drr.Record, end *drr.Record) error {
	var err error
	if d.Handler.IsFirstSplit() && pkgBegin != nil {
		err = d.writeDoubleEnd(curBegin)
	} else {
		err = d.writeSplitEnd(curBegin)
	}
	if err != nil {
		return err
	}
	if end != nil {
		d.checkChecksum(*end)
	}
	d.SubAccum = drr.Checksum{}
	return nil
}

// boundary implements spec §4.5's boundary-emission steps: close the
// current sub-stream, mint the successor BEGIN, optionally wrap it in
// compound outer framing, and open it. pkgBegin is nil for a plain
// (non-compound) sub-stream.
func (d *Context) boundary(pkgBegin *drr.Record, prop []byte, curBegin, trigger drr.Record) (drr.Record, error) {
	isEnd := trigger.Type() == drr.End
	isBegin := trigger.Type() == drr.Begin

	if !isBegin {
		var end *drr.Record
		if isEnd {
			end = &trigger
		}
		if err := d.closeSubStream(pkgBegin, curBegin, end); err != nil {
			return drr.Record{}, fmt.Errorf("closing sub-stream: %w", err)
		}
	}

	newBegin := d.Handler.NextBegin(curBegin, isEnd)

	if d.Handler.SplitForSnap() && !d.ToStdout {
		if err := d.rotate(d.currentFilename()); err != nil {
			return drr.Record{}, err
		}
	}

	if (isBegin || isEnd) && pkgBegin != nil {
		if err := d.writeNewPkgBeginEnd(*pkgBegin, curBegin, newBegin, prop); err != nil {
			return drr.Record{}, err
		}
	}

	d.Gate.Observe(newBegin.Begin().SnapName())

	if err := d.write(newBegin); err != nil {
		return drr.Record{}, fmt.Errorf("writing split begin: %w", err)
	}

	if isEnd {
		var err error
		if pkgBegin != nil {
			err = d.writeDoubleEnd(newBegin)
			if err == nil && d.ToStdout {
				d.SubAccum = drr.Checksum{}
				err = d.writeSplitEnd(newBegin)
			}
		} else {
			err = d.writeSplitEnd(newBegin)
		}
		if err != nil {
			return drr.Record{}, fmt.Errorf("closing terminal sub-stream: %w", err)
		}
		d.SubAccum = drr.Checksum{}
	}

	return newBegin, nil
}

func (d *Context) currentFilename() string {
	chain := d.Handler.Snapshot()
	if len(chain) == 0 {
		return fmt.Sprintf(FileNameFormat, 1)
	}
	return chain[len(chain)-1].Filename
}

// bodyRecord writes a non-BEGIN/END record plus its trailing payload
// (spec §4.5 "Body record" row), ticking should_split on the way out.
func (d *Context) bodyRecord(rec drr.Record) error {
	if err := d.write(rec); err != nil {
		return err
	}
	length := rec.PayloadLenFor()
	if length == 0 {
		return nil
	}
	return d.copyPayload(length)
}

func writeGated(w io.Writer, gate *ResumeGate, p []byte) (int, error) {
	if !gate.Allowed() {
		return len(p), nil
	}
	return w.Write(p)
}

func writeRecordRaw(w io.Writer, gate *ResumeGate, rec drr.Record) error {
	if _, err := writeGated(w, gate, rec.Raw[:]); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
