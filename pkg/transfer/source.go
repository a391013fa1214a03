// Package transfer decides how a payload travels to a companion and drives
// the resulting frames over a single stream.
package transfer

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Source describes where a payload comes from. It is one of FilePath, URL or
// Reader.
type Source interface {
	isSource()
}

// FilePath is a file or directory on the client's filesystem.
type FilePath string

// URL is a location the companion fetches by itself.
type URL string

// Reader is an in-memory or streamed payload of Size bytes. Size may be -1
// when unknown.
type Reader struct {
	R    io.Reader
	Size int64
}

func (FilePath) isSource() {}
func (URL) isSource()      {}
func (Reader) isSource()   {}

// ParseSource maps a command-line argument to a Source. Anything carrying a
// scheme, file:// included, is a URL for the companion to fetch; everything
// else is treated as a path.
func ParseSource(s string) Source {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" {
		return URL(s)
	}
	return FilePath(s)
}

// Locality says whether the companion shares a filesystem with the client.
type Locality int

const (
	Remote Locality = iota
	Local
)

// LocalityOf converts a descriptor's is-local flag.
func LocalityOf(isLocal bool) Locality {
	if isLocal {
		return Local
	}
	return Remote
}

func (l Locality) String() string {
	switch l {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("Locality(%d)", int(l))
	}
}

// Destination tags what kind of bundle an install carries. Values match the
// companion's wire enum.
type Destination int32

const (
	App Destination = iota
	XCTest
	Dylib
	Dsym
	Framework
)

var destinationNames = map[Destination]string{
	App:       "app",
	XCTest:    "xctest",
	Dylib:     "dylib",
	Dsym:      "dsym",
	Framework: "framework",
}

func (d Destination) String() string {
	if s, ok := destinationNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Destination(%d)", int32(d))
}

// ParseDestination accepts the lower-case names printed by String.
func ParseDestination(s string) (Destination, error) {
	for d, name := range destinationNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown destination %q", s)
}
