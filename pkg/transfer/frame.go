package transfer

import "iter"

// Frame is one message of a transfer stream. It is one of Metadata,
// DataChunk, PathRef or URLRef. A stream carries at most one Metadata frame,
// first, followed by payload frames of a single kind.
type Frame interface {
	isFrame()
}

// Metadata opens a stream. Fields not relevant to an operation stay empty.
type Metadata struct {
	Destination Destination
	BundleID    string
	DstPath     string
}

// DataChunk carries raw payload bytes.
type DataChunk []byte

// PathRef names a file the companion reads from the shared filesystem.
type PathRef string

// URLRef names a location the companion downloads.
type URLRef string

func (Metadata) isFrame()  {}
func (DataChunk) isFrame() {}
func (PathRef) isFrame()   {}
func (URLRef) isFrame()    {}

// Map converts every value of seq with f, passing errors through.
func Map[A, B any](seq iter.Seq2[A, error], f func(A) B) iter.Seq2[B, error] {
	return func(yield func(B, error) bool) {
		for a, err := range seq {
			if err != nil {
				var zero B
				yield(zero, err)
				return
			}
			if !yield(f(a), nil) {
				return
			}
		}
	}
}

// Values lifts an infallible sequence.
func Values[T any](seq iter.Seq[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v := range seq {
			if !yield(v, nil) {
				return
			}
		}
	}
}
