package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SplitSize != 0 {
		t.Fatalf("SplitSize = %d, want 0 (unlimited)", cfg.SplitSize)
	}
	if cfg.SplitBlocks != DefaultSplitBlocks {
		t.Fatalf("SplitBlocks = %d, want %d", cfg.SplitBlocks, DefaultSplitBlocks)
	}
	if !cfg.SplitForSnap {
		t.Fatalf("SplitForSnap = false, want true")
	}
	if cfg.StreamToStdout || cfg.RenameSnapshot || cfg.DumpRecords {
		t.Fatalf("boolean flags should all default false: %+v", cfg)
	}
	if cfg.ResumeSnapshotName != "" {
		t.Fatalf("ResumeSnapshotName = %q, want empty", cfg.ResumeSnapshotName)
	}
}

func TestRegisterFlagsBindsFields(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	err := fs.Parse([]string{"-s", "512", "-S", "-n", "snap2", "-r", "-o", "-v"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.SplitSize != 512 {
		t.Fatalf("SplitSize = %d, want 512", cfg.SplitSize)
	}
	if cfg.SplitForSnap {
		t.Fatalf("SplitForSnap = true, want false after -S")
	}
	if cfg.ResumeSnapshotName != "snap2" {
		t.Fatalf("ResumeSnapshotName = %q, want %q", cfg.ResumeSnapshotName, "snap2")
	}
	if !cfg.RenameSnapshot {
		t.Fatalf("RenameSnapshot = false, want true after -r")
	}
	if !cfg.StreamToStdout {
		t.Fatalf("StreamToStdout = false, want true after -o")
	}
	if !cfg.DumpRecords {
		t.Fatalf("DumpRecords = false, want true after -v")
	}
}

func TestRegisterFlagsLeavesUnsetFieldsAtDefault(t *testing.T) {
	cfg := Default()
	cfg.SplitBlocks = 42
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.SplitBlocks != 42 {
		t.Fatalf("SplitBlocks = %d, want untouched 42 (RegisterFlags does not bind it)", cfg.SplitBlocks)
	}
	if !cfg.SplitForSnap {
		t.Fatalf("SplitForSnap = false, want default true when -S is absent")
	}
}

func TestLoadDecodesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "splitSize: 1048576\nsplitForSnap: false\nresumeSnapshotName: snap7\nrenameSnapshot: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SplitSize != 1048576 {
		t.Fatalf("SplitSize = %d, want 1048576", cfg.SplitSize)
	}
	if cfg.SplitForSnap {
		t.Fatalf("SplitForSnap = true, want false per config file")
	}
	if cfg.ResumeSnapshotName != "snap7" {
		t.Fatalf("ResumeSnapshotName = %q, want %q", cfg.ResumeSnapshotName, "snap7")
	}
	if !cfg.RenameSnapshot {
		t.Fatalf("RenameSnapshot = false, want true per config file")
	}
	// Fields the file doesn't mention must survive untouched.
	if cfg.SplitBlocks != DefaultSplitBlocks {
		t.Fatalf("SplitBlocks = %d, want untouched default %d", cfg.SplitBlocks, DefaultSplitBlocks)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := Default()
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("Load: want error for missing file, got nil")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("splitSize: [this is not a uint64]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	if err := Load(path, &cfg); err == nil {
		t.Fatalf("Load: want error for malformed YAML, got nil")
	}
}
