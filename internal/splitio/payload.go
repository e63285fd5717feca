package splitio

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/sempervictus/zstream-split/internal/drr"
	"github.com/sempervictus/zstream-split/internal/fletcher"
)

const payloadBufSize = 1 << 20 // 1 MiB, matches zcut_util.c's READ_BUF_LEN

var payloadBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, payloadBufSize)
		return &b
	},
}

// CopyPayload streams exactly length bytes from r to sink through a
// pooled 1 MiB buffer, folding each chunk into BOTH subAccum (the
// current sub-stream's accumulator) and streamAccum (the whole input
// stream's accumulator), honoring gate suppression on the write side
// (spec §4.2).
func CopyPayload(r *bufio.Reader, sink io.Writer, gate *ResumeGate, length uint64, subAccum, streamAccum *drr.Checksum, swap bool) (uint64, error) {
	if length == 0 {
		return 0, nil
	}

	bufp := payloadBufPool.Get().(*[]byte)
	defer payloadBufPool.Put(bufp)
	buf := *bufp

	var copied uint64
	for copied < length {
		chunk := buf
		if remain := length - copied; remain < uint64(len(chunk)) {
			chunk = chunk[:remain]
		}

		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			fletcher.Fold(chunk[:n], subAccum, swap)
			fletcher.Fold(chunk[:n], streamAccum, swap)
			if gate.Allowed() {
				if _, werr := sink.Write(chunk[:n]); werr != nil {
					return copied, fmt.Errorf("writing payload: %w", werr)
				}
			}
			copied += uint64(n)
		}
		if err != nil {
			return copied, fmt.Errorf("reading payload: %w", err)
		}
	}
	return copied, nil
}
