package splitio

import (
	"encoding/binary"
	"testing"

	"github.com/sempervictus/zstream-split/internal/alias"
	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/nvlist"
)

func buildProps(t *testing.T, toGUID uint64, fromSnap, toSnap string, snapName string, snapGUID uint64) []byte {
	t.Helper()

	snaps := nvlist.New()
	if err := snaps.Add(snapName, nvlist.Uint64(snapGUID)); err != nil {
		t.Fatalf("snaps.Add: %v", err)
	}
	snapprops := nvlist.New()
	if err := snapprops.Add(snapName, nvlist.NVList(nvlist.New())); err != nil {
		t.Fatalf("snapprops.Add: %v", err)
	}

	vol := nvlist.New()
	if err := vol.Add("snaps", nvlist.NVList(snaps)); err != nil {
		t.Fatalf("vol.Add(snaps): %v", err)
	}
	if err := vol.Add("snapprops", nvlist.NVList(snapprops)); err != nil {
		t.Fatalf("vol.Add(snapprops): %v", err)
	}

	fss := nvlist.New()
	if err := fss.Add("pool/fs", nvlist.NVList(vol)); err != nil {
		t.Fatalf("fss.Add: %v", err)
	}

	root := nvlist.New()
	if err := root.Add("toguid", nvlist.Uint64(toGUID)); err != nil {
		t.Fatalf("root.Add(toguid): %v", err)
	}
	if err := root.Add("fromsnap", nvlist.String(fromSnap)); err != nil {
		t.Fatalf("root.Add(fromsnap): %v", err)
	}
	if err := root.Add("tosnap", nvlist.String(toSnap)); err != nil {
		t.Fatalf("root.Add(tosnap): %v", err)
	}
	if err := root.Add("fss", nvlist.NVList(fss)); err != nil {
		t.Fatalf("root.Add(fss): %v", err)
	}

	data, err := root.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return data
}

func beginWith(t *testing.T, toGUID, fromGUID uint64, toName string) drr.Record {
	t.Helper()
	r := drr.NewRecord(drr.Begin, binary.LittleEndian)
	b := r.Begin()
	if !b.SetToName(toName) {
		t.Fatalf("toName %q too long", toName)
	}
	b.SetToGUID(toGUID)
	b.SetFromGUID(fromGUID)
	return r
}

func TestRewritePropsWithoutAliasing(t *testing.T) {
	curBegin := beginWith(t, 0x1000, 0x0100, "pool/fs@snap1")
	newBegin := beginWith(t, 0x2000, 0x1000, "pool/fs@snap1_part_1")

	data := buildProps(t, 0x1000, "", "snap1", "snap1", 0x1000)

	out, err := RewriteProps(data, curBegin, newBegin, nil)
	if err != nil {
		t.Fatalf("RewriteProps: %v", err)
	}

	list, err := nvlist.Unpack(out)
	if err != nil {
		t.Fatalf("Unpack(out): %v", err)
	}

	toguid, _ := list.Get("toguid")
	if toguid.U64 != 0x2000 {
		t.Fatalf("toguid = %x, want %x", toguid.U64, 0x2000)
	}
	tosnap, _ := list.Get("tosnap")
	// Without aliasing, tosnap passes through unchanged.
	if tosnap.Str != "snap1" {
		t.Fatalf("tosnap = %q, want %q", tosnap.Str, "snap1")
	}

	fssVal, _ := list.Get("fss")
	volVal, _ := fssVal.List.Get("pool/fs")
	snapsVal, _ := volVal.List.Get("snaps")
	snapEntry, ok := snapsVal.List.Get("snap1_part_1")
	if !ok {
		t.Fatalf("snaps list missing renamed entry, has: %+v", snapsVal.List.Entries)
	}
	if snapEntry.U64 != 0x2000 {
		t.Fatalf("renamed snap guid = %x, want %x", snapEntry.U64, 0x2000)
	}

	snappropsVal, _ := volVal.List.Get("snapprops")
	if _, ok := snappropsVal.List.Get("snap1_part_1"); !ok {
		t.Fatalf("snapprops list missing renamed entry, has: %+v", snappropsVal.List.Entries)
	}
}

func TestRewritePropsWithAliasing(t *testing.T) {
	curBegin := beginWith(t, 0x1000, 0x0100, "pool/fs@snap1")
	newBegin := beginWith(t, 0x2000, 0x1000, "pool/fs@snap1_part_1")

	data := buildProps(t, 0x1000, "", "snap1", "snap1", 0x1000)

	aliases := alias.NewCache(true)
	out, err := RewriteProps(data, curBegin, newBegin, aliases)
	if err != nil {
		t.Fatalf("RewriteProps: %v", err)
	}

	list, err := nvlist.Unpack(out)
	if err != nil {
		t.Fatalf("Unpack(out): %v", err)
	}

	fromsnap, _ := list.Get("fromsnap")
	if fromsnap.Str != "" {
		t.Fatalf("fromsnap = %q, want empty when aliasing is active", fromsnap.Str)
	}

	tosnap, _ := list.Get("tosnap")
	if tosnap.Str == "snap1_part_1" || tosnap.Str == "snap1" {
		t.Fatalf("tosnap was not aliased")
	}
	if len(tosnap.Str) != 32 {
		t.Fatalf("tosnap = %q, want a 32-hex-char alias", tosnap.Str)
	}

	// "snap1" is the first name the cache ever sees (tosnap is rewritten
	// before fss is walked), so the snaps-list key for that same origin
	// name must come out as the identical cached alias.
	fssVal, _ := list.Get("fss")
	volVal, _ := fssVal.List.Get("pool/fs")
	snapsVal, _ := volVal.List.Get("snaps")
	snapEntry, ok := snapsVal.List.Get(tosnap.Str)
	if !ok {
		t.Fatalf("snaps list missing entry re-keyed to the cached alias %q, has: %+v", tosnap.Str, snapsVal.List.Entries)
	}
	if snapEntry.U64 != 0x1000 {
		t.Fatalf("aliased snap entry value = %x, want unchanged %x", snapEntry.U64, 0x1000)
	}

	// "snap1_part_1" is a second, never-before-seen origin name, so the
	// one-shot cache passes it through unchanged rather than minting a
	// second alias.
	snappropsVal, _ := volVal.List.Get("snapprops")
	if _, ok := snappropsVal.List.Get("snap1_part_1"); !ok {
		t.Fatalf("snapprops list missing passthrough entry %q, has: %+v", "snap1_part_1", snappropsVal.List.Entries)
	}
}
