package splitio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sempervictus/zstream-split/internal/drr"
)

// decodeRecords splits a flat byte slice into individual 312-byte
// records, failing the test if the length isn't a clean multiple.
func decodeRecords(t *testing.T, data []byte, order binary.ByteOrder) []drr.Record {
	t.Helper()
	if len(data)%drr.Size != 0 {
		t.Fatalf("output length %d is not a multiple of record size %d", len(data), drr.Size)
	}
	n := len(data) / drr.Size
	recs := make([]drr.Record, n)
	for i := 0; i < n; i++ {
		var raw [drr.Size]byte
		copy(raw[:], data[i*drr.Size:(i+1)*drr.Size])
		recs[i] = drr.Decode(raw, order)
	}
	return recs
}

// TestSingleDriverNoSplitRun exercises the full driver loop for a plain
// substream with no configured split threshold: the run still mints one
// synthetic BEGIN/END pair around the body (every boundary in this
// implementation goes through Handler.NextBegin, even the very first
// one, grounded on zcut_drr.c's split_handler treating the initial
// dispatch no differently from any other trigger), then a terminal
// boundary that restores the stream's original identifiers.
func TestSingleDriverNoSplitRun(t *testing.T) {
	order := binary.LittleEndian

	firstBegin := beginWith(t, 0x1000, 0x0100, "pool/fs@snap1")
	free := drr.NewRecord(drr.Free, order)
	end := drr.NewRecord(drr.End, order)

	// firstBegin is handed to Run directly (as cmd/zstream-split does
	// after reading it), so the reader only holds what follows it.
	var input bytes.Buffer
	for _, r := range []drr.Record{free, end} {
		input.Write(r.Raw[:])
	}

	handler := NewHandler(0, 0x7fffffff, true, drr.Substream, testLogger())
	gate := NewResumeGate("")

	var out bytes.Buffer
	ctx := &Context{
		Order:    order,
		Swap:     false,
		Handler:  handler,
		Gate:     gate,
		Reader:   bufio.NewReader(&input),
		ToStdout: true,
		Log:      testLogger(),
	}
	ctx.SetStreamWriter(&out)

	drv := &SingleDriver{Context: ctx}
	if err := drv.Run(firstBegin); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs := decodeRecords(t, out.Bytes(), order)
	if len(recs) != 5 {
		t.Fatalf("record count = %d, want 5 (BEGIN, FREE, END, BEGIN, END)", len(recs))
	}

	if recs[0].Type() != drr.Begin {
		t.Fatalf("record 0 type = %v, want BEGIN", recs[0].Type())
	}
	if want := "pool/fs@snap1_part_1"; recs[0].Begin().ToName() != want {
		t.Fatalf("record 0 toname = %q, want %q", recs[0].Begin().ToName(), want)
	}
	if recs[0].Begin().FromGUID() != 0x0100 {
		t.Fatalf("record 0 fromguid = %x, want original %x", recs[0].Begin().FromGUID(), 0x0100)
	}

	if recs[1].Type() != drr.Free {
		t.Fatalf("record 1 type = %v, want FREE", recs[1].Type())
	}

	if recs[2].Type() != drr.End {
		t.Fatalf("record 2 type = %v, want END", recs[2].Type())
	}
	if recs[2].End().ToGUID() != 0x1000 {
		t.Fatalf("first split's end toguid = %x, want original begin's toguid %x (curBegin stays fixed to the original)",
			recs[2].End().ToGUID(), 0x1000)
	}

	if recs[3].Type() != drr.Begin {
		t.Fatalf("record 3 type = %v, want BEGIN", recs[3].Type())
	}
	if want := "pool/fs@snap1"; recs[3].Begin().ToName() != want {
		t.Fatalf("terminal begin toname = %q, want original %q", recs[3].Begin().ToName(), want)
	}
	if recs[3].Begin().ToGUID() != 0x1000 {
		t.Fatalf("terminal begin toguid = %x, want original %x", recs[3].Begin().ToGUID(), 0x1000)
	}
	if recs[3].Begin().FromGUID() != recs[0].Begin().ToGUID() {
		t.Fatalf("terminal begin fromguid = %x, want chained to first split's toguid %x",
			recs[3].Begin().FromGUID(), recs[0].Begin().ToGUID())
	}

	if recs[4].Type() != drr.End {
		t.Fatalf("record 4 type = %v, want END", recs[4].Type())
	}
	if recs[4].End().ToGUID() != recs[3].Begin().ToGUID() {
		t.Fatalf("terminal end toguid = %x, want terminal begin's toguid %x",
			recs[4].End().ToGUID(), recs[3].Begin().ToGUID())
	}

	chain := handler.Snapshot()
	if len(chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(chain))
	}
	if chain[1].ToGUID != 0x1000 || chain[1].ToName != "pool/fs@snap1" {
		t.Fatalf("terminal chain entry = %+v, want original identifiers restored", chain[1])
	}
}

// TestSingleDriverByteSplit exercises a configured byte budget small
// enough to force a mid-stream split: two FREE body records, the
// budget tripping right after the first lands. A ShouldSplit boundary
// triggered by a body record only closes the old sub-stream and opens
// the new one; the triggering record itself is written as the new
// sub-stream's first body record on the next loop pass, so the output
// is BEGIN,FREE,END, BEGIN,FREE,END, BEGIN,END (the last pair
// restoring the stream's original identifiers once the real END
// arrives).
func TestSingleDriverByteSplit(t *testing.T) {
	order := binary.LittleEndian

	firstBegin := beginWith(t, 0x2000, 0x0200, "pool/fs@snapA")
	free1 := drr.NewRecord(drr.Free, order)
	free2 := drr.NewRecord(drr.Free, order)
	end := drr.NewRecord(drr.End, order)

	var input bytes.Buffer
	for _, r := range []drr.Record{free1, free2, end} {
		input.Write(r.Raw[:])
	}

	handler := NewHandler(uint64(drr.Size)+1, 0x7fffffff, false, drr.Substream, testLogger())
	gate := NewResumeGate("")

	var out bytes.Buffer
	ctx := &Context{
		Order:    order,
		Swap:     false,
		Handler:  handler,
		Gate:     gate,
		Reader:   bufio.NewReader(&input),
		ToStdout: true,
		Log:      testLogger(),
	}
	ctx.SetStreamWriter(&out)

	drv := &SingleDriver{Context: ctx}
	if err := drv.Run(firstBegin); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs := decodeRecords(t, out.Bytes(), order)
	if len(recs) != 8 {
		t.Fatalf("record count = %d, want 8 (BEGIN,FREE,END x2 sub-streams plus the terminal BEGIN,END)", len(recs))
	}

	wantTypes := []drr.Kind{drr.Begin, drr.Free, drr.End, drr.Begin, drr.Free, drr.End, drr.Begin, drr.End}
	for i, want := range wantTypes {
		if recs[i].Type() != want {
			t.Fatalf("record %d type = %v, want %v", i, recs[i].Type(), want)
		}
	}

	if got, want := recs[0].Begin().ToName(), "pool/fs@snapA_part_1"; got != want {
		t.Fatalf("first split toname = %q, want %q", got, want)
	}
	if got, want := recs[3].Begin().ToName(), "pool/fs@snapA_part_2"; got != want {
		t.Fatalf("second split toname = %q, want %q", got, want)
	}
	if recs[3].Begin().FromGUID() != recs[0].Begin().ToGUID() {
		t.Fatalf("second split's fromguid = %x, want chained to first split's toguid %x",
			recs[3].Begin().FromGUID(), recs[0].Begin().ToGUID())
	}

	if got, want := recs[6].Begin().ToName(), "pool/fs@snapA"; got != want {
		t.Fatalf("terminal begin toname = %q, want restored original %q", got, want)
	}
	if recs[6].Begin().ToGUID() != 0x2000 {
		t.Fatalf("terminal begin toguid = %x, want original %x", recs[6].Begin().ToGUID(), 0x2000)
	}
	if recs[6].Begin().FromGUID() != recs[3].Begin().ToGUID() {
		t.Fatalf("terminal begin fromguid = %x, want chained to second split's toguid %x",
			recs[6].Begin().FromGUID(), recs[3].Begin().ToGUID())
	}
	if recs[7].End().ToGUID() != recs[6].Begin().ToGUID() {
		t.Fatalf("terminal end toguid = %x, want terminal begin's toguid %x", recs[7].End().ToGUID(), recs[6].Begin().ToGUID())
	}

	chain := handler.Snapshot()
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3 (two splits plus the terminal restore entry)", len(chain))
	}
	if chain[2].ToGUID != 0x2000 || chain[2].ToName != "pool/fs@snapA" {
		t.Fatalf("terminal chain entry = %+v, want original identifiers restored", chain[2])
	}
}
