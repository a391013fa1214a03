package transfer

import (
	"errors"
	"io"
	"iter"
)

// Receive turns the responses of a server stream into a sequence of payload
// bytes. The sequence ends at io.EOF; any other receive error is yielded
// once and ends it. Responses with no payload are skipped.
func Receive[Resp any](recv func() (*Resp, error), data func(*Resp) []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			resp, err := recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			b := data(resp)
			if len(b) == 0 {
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}
