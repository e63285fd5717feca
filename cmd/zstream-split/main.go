// Command zstream-split reads one ZFS send stream from stdin and
// rewrites it as a sequence of bounded sub-streams, grounded on
// zcut.c's command-line driver.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sempervictus/zstream-split/config"
	"github.com/sempervictus/zstream-split/internal/alias"
	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/fletcher"
	"github.com/sempervictus/zstream-split/internal/splitio"
	"github.com/sempervictus/zstream-split/internal/zlog"
)

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
}

func main() {
	cfg := config.Default()

	var configPath string
	pre := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	pre.StringVar(&configPath, "config", "", "optional YAML config file")
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	_ = pre.Parse(os.Args[1:])

	if configPath != "" {
		if err := config.Load(configPath, &cfg); err != nil {
			exitf("%s\n", err)
		}
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", configPath, "optional YAML config file")
	config.RegisterFlags(fs, &cfg)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s < <input_stream>\n", os.Args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	log := zlog.Default("zstream-split")
	if cfg.DumpRecords {
		log.SetLevel(zlog.LevelAll)
	}

	if cfg.StreamToStdout && isTerminal(os.Stdout) {
		logf("Stream must not be writen to standard output\n")
		fs.Usage()
		os.Exit(1)
	}
	if isTerminal(os.Stdin) {
		logf("Stream must be read from standard input.\n")
		fs.Usage()
		os.Exit(1)
	}

	if err := run(cfg, os.Stdin, os.Stdout, log); err != nil {
		exitf("%s\n", err)
	}
}

func run(cfg config.Config, stdin io.Reader, stdout io.Writer, log *zlog.Logger) error {
	reader := bufio.NewReaderSize(stdin, 1<<20)

	var raw [drr.Size]byte
	if _, err := io.ReadFull(reader, raw[:]); err != nil {
		return fmt.Errorf("reading first begin: %w", err)
	}

	order, err := drr.DetectByteOrder(raw)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	swap := order == binary.BigEndian

	firstBegin := drr.Decode(raw, order)
	var inputAccum drr.Checksum
	fletcher.Fold(raw[:], &inputAccum, swap)

	bv := firstBegin.Begin()
	streamType := drr.HeaderTypeOf(bv.VersionInfo())

	aliases := alias.NewCache(cfg.RenameSnapshot)
	gate := splitio.NewResumeGate(cfg.ResumeSnapshotName)
	handler := splitio.NewHandler(cfg.SplitSize, cfg.SplitBlocks, cfg.SplitForSnap, streamType, log)

	ctx := &splitio.Context{
		Order:    order,
		Swap:     swap,
		Handler:  handler,
		Gate:     gate,
		Aliases:  aliases,
		Reader:   reader,
		ToStdout: cfg.StreamToStdout,
		Dump:     cfg.DumpRecords,
		DumpW:    os.Stderr,
		Log:      log,
		OpenSink: func(filename string) (splitio.Sink, error) { return splitio.OpenFileSink(filename) },
	}
	ctx.InputAccum = inputAccum

	if ctx.ToStdout {
		ctx.SetStreamWriter(stdout)
	} else if err := ctx.Init(); err != nil {
		return err
	}
	defer ctx.Close()

	switch streamType {
	case drr.Substream:
		if cfg.StreamToStdout {
			return fmt.Errorf("%w: single stream to stdout is not supported", splitio.ErrUsage)
		}
		drv := &splitio.SingleDriver{Context: ctx}
		return drv.Run(firstBegin)
	case drr.Compound:
		if cfg.StreamToStdout {
			drv := &splitio.CompoundStreamDriver{Context: ctx}
			return drv.Run(firstBegin)
		}
		drv := &splitio.CompoundFileDriver{Context: ctx}
		return drv.Run(firstBegin)
	default:
		log.Warnf("stream has unsupported header type %d\n", streamType)
		return nil
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
