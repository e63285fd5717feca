// Package config defines the splitter's tunables and the two ways they
// are supplied: CLI flags registered on the standard flag.FlagSet, or an
// optional YAML file decoded via sigs.k8s.io/yaml (mirrors the teacher's
// db.DecodeDefinition decode-into-struct path in cmd/sdb).
package config

import (
	"flag"
	"fmt"
	"math"
	"os"

	"sigs.k8s.io/yaml"
)

// DefaultSplitBlocks mirrors zcut.c's SPLIT_BLOCKS (0x7fffffff): a block
// budget high enough to never trigger on its own. zcut.c also defines a
// SPLIT_BYTES (1<<27) constant, but its split_param_t is actually
// initialized with a literal 0, leaving SPLIT_BYTES unused; Config.Default
// follows that same starting point, with SplitSize's zero meaning
// unlimited rather than the original's size_t underflow-to-true quirk
// (spec §3).
const DefaultSplitBlocks uint32 = math.MaxInt32

// Config holds every tunable the splitter's CLI and library entry point
// accept (spec §6).
type Config struct {
	SplitSize          uint64 `json:"splitSize"`
	SplitBlocks        uint32 `json:"splitBlocks"`
	SplitForSnap       bool   `json:"splitForSnap"`
	StreamToStdout     bool   `json:"streamToStdout"`
	ResumeSnapshotName string `json:"resumeSnapshotName"`
	RenameSnapshot     bool   `json:"renameSnapshot"`
	DumpRecords        bool   `json:"dumpRecords"`
}

// Default returns the configuration zcut.c starts from before flags are
// applied: unbounded block count, byte-size split, split-per-snapshot on.
func Default() Config {
	return Config{
		SplitSize:    0,
		SplitBlocks:  DefaultSplitBlocks,
		SplitForSnap: true,
	}
}

// RegisterFlags binds fs to cfg's fields, matching zcut.c's getopt
// string "vos:Sn:r" one for one: -s split size, -S monolithic (disables
// split-for-snap), -n resume snapshot name, -r rename snapshots, -o
// stream to stdout, -v dump records.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Uint64Var(&cfg.SplitSize, "s", cfg.SplitSize, "split size in bytes (0 = unlimited)")
	fs.BoolFunc("S", "monolithic: one file per run instead of one per snapshot", func(string) error {
		cfg.SplitForSnap = false
		return nil
	})
	fs.StringVar(&cfg.ResumeSnapshotName, "n", cfg.ResumeSnapshotName, "resume from this intermediate snapshot name")
	fs.BoolVar(&cfg.RenameSnapshot, "r", cfg.RenameSnapshot, "alias snapshot names in the split output")
	fs.BoolVar(&cfg.StreamToStdout, "o", cfg.StreamToStdout, "write the concatenated split stream to stdout")
	fs.BoolVar(&cfg.DumpRecords, "v", cfg.DumpRecords, "dump each record to stderr as it is processed")
}

// Load decodes a YAML config file into cfg, overwriting every field the
// file sets (flags applied afterward still win, per cmd/zstream-split's
// flag-then-config precedence).
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}
