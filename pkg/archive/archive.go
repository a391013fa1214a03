// Package archive implements the streaming archive envelope used to move
// several files over one stream.
//
// An archive is a plain concatenation of records with no container header:
//
//	uint32 BE  path length
//	[]byte     path, UTF-8, '/'-separated, relative
//	uint64 BE  payload size
//	uint32 BE  permission bits
//	[]byte     payload, exactly size bytes
//
// There is no padding or alignment. A reader finds the next record by
// consuming exactly size bytes after each header.
package archive

import (
	"encoding/binary"
	"io/fs"
)

const (
	// DefaultChunkSize is the block size Pack emits when none is given.
	DefaultChunkSize = 512 * 1024

	// MaxPathLen bounds the declared path length of a record header.
	MaxPathLen = 4096

	headerFixedLen = 4 + 8 + 4
)

// Entry describes one archived file.
type Entry struct {
	Path string
	Size uint64
	Mode fs.FileMode
}

// HeaderLen returns the encoded header length for a record with the given
// path.
func HeaderLen(path string) int {
	return headerFixedLen + len(path)
}

func appendHeader(b []byte, e Entry) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(e.Path)))
	b = append(b, e.Path...)
	b = binary.BigEndian.AppendUint64(b, e.Size)
	b = binary.BigEndian.AppendUint32(b, uint32(e.Mode.Perm()))
	return b
}
