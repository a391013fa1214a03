// Package chunk slices a byte source into bounded blocks without any
// archive framing.
package chunk

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// DefaultSize is the block size used when a caller passes a non-positive
// size.
const DefaultSize = 512 * 1024

// Reader yields successive blocks of at most size bytes read from r until
// r is exhausted. The final block may be shorter. Each yielded slice is a
// fresh allocation the consumer may retain. A read error is yielded once
// and ends the sequence.
//
// The source is consumed forward-only: iterating the sequence a second time
// continues from wherever the first iteration stopped.
func Reader(r io.Reader, size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = DefaultSize
	}
	return func(yield func([]byte, error) bool) {
		for {
			buf := make([]byte, size)
			n, err := io.ReadFull(r, buf)
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				yield(nil, fmt.Errorf("read chunk: %w", err))
				return
			}
			if n > 0 && !yield(buf[:n], nil) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// File yields blocks of the file at path. The file is opened when iteration
// starts and closed when it stops, however it stops.
func File(path string, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		f, err := os.Open(path) //nolint:gosec // G304: caller-chosen bundle path
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = f.Close() }()

		for b, err := range Reader(f, size) {
			if !yield(b, err) {
				return
			}
		}
	}
}
