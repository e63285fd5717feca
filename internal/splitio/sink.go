package splitio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// FileNameFormat is the output filename template, index starting at 1
// (spec §6 SPLIT_FILENAME_FORMAT).
const FileNameFormat = "zstream_split.%03d"

// Sink is the current output destination: one rotating file per
// sub-snapshot, or a single shared stream.
type Sink interface {
	io.Writer
	io.Closer
}

// FileSink opens its file with the exact flags and mode §6 specifies,
// via golang.org/x/sys/unix rather than os.OpenFile, mirroring the
// teacher's direct unix.* use for POSIX-precise file creation.
type FileSink struct {
	f *os.File
}

// OpenFileSink creates (or reopens, append mode) the file at path.
func OpenFileSink(path string) (*FileSink, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_APPEND, 0664)
	if err != nil {
		return nil, fmt.Errorf("opening split output %q: %w", path, err)
	}
	return &FileSink{f: os.NewFile(uintptr(fd), path)}, nil
}

func (s *FileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *FileSink) Close() error                 { return s.f.Close() }

// StreamSink wraps a single shared writer (stdout) that is never
// rotated or closed between sub-streams.
type StreamSink struct {
	w io.Writer
}

// NewStreamSink wraps w as a Sink.
func NewStreamSink(w io.Writer) *StreamSink { return &StreamSink{w: w} }

func (s *StreamSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *StreamSink) Close() error                 { return nil }
