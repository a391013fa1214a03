package transfer

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/gezibash/idbridge/pkg/archive"
	"github.com/gezibash/idbridge/pkg/chunk"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// DefaultChunkSize bounds DataChunk frames when Options leaves it unset.
const DefaultChunkSize = 512 * 1024

// StrategyKind identifies how a payload is framed.
type StrategyKind int

const (
	// StrategyURLRef sends a single URLRef frame.
	StrategyURLRef StrategyKind = iota + 1
	// StrategyPathRef sends one PathRef frame per absolute path.
	StrategyPathRef
	// StrategyArchive packs paths into an archive sent as DataChunk frames.
	StrategyArchive
	// StrategyContent sends the raw bytes of a reader as DataChunk frames.
	StrategyContent
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyURLRef:
		return "url"
	case StrategyPathRef:
		return "path"
	case StrategyArchive:
		return "archive"
	case StrategyContent:
		return "content"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// Options tunes how a Strategy produces frames.
type Options struct {
	ChunkSize int

	// PlaceInSubfolders gives each archived path its own numbered folder.
	PlaceInSubfolders bool
}

// Strategy is a resolved framing decision. It is fixed for the lifetime of
// an operation.
type Strategy struct {
	Kind  StrategyKind
	paths []string
	url   string
	r     Reader
}

// Paths returns the resolved paths for path and archive strategies.
func (s Strategy) Paths() []string { return s.paths }

// Select picks the strategy for a single source. A FilePath is checked for
// existence here, so a bad path fails before any stream is opened.
func Select(src Source, loc Locality) (Strategy, error) {
	switch v := src.(type) {
	case URL:
		if v == "" {
			return Strategy{}, idberrors.New(idberrors.KindInvalidSource, "empty url")
		}
		return Strategy{Kind: StrategyURLRef, url: string(v)}, nil
	case FilePath:
		return SelectPaths([]string{string(v)}, loc)
	case Reader:
		if v.R == nil {
			return Strategy{}, idberrors.New(idberrors.KindInvalidSource, "reader source has no reader")
		}
		return Strategy{Kind: StrategyContent, r: v}, nil
	case *Reader:
		if v == nil {
			return Strategy{}, idberrors.New(idberrors.KindInvalidSource, "nil reader source")
		}
		return Select(*v, loc)
	default:
		return Strategy{}, idberrors.Newf(idberrors.KindInvalidSource, "unsupported source %T", src)
	}
}

// SelectPaths picks the strategy for an ordered set of local paths: path
// references when the companion is local, one archive otherwise. Every path
// must exist and the set must not be empty.
func SelectPaths(paths []string, loc Locality) (Strategy, error) {
	if len(paths) == 0 {
		return Strategy{}, idberrors.New(idberrors.KindInvalidSource, "no source paths")
	}
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := resolve(p)
		if err != nil {
			return Strategy{}, err
		}
		resolved = append(resolved, abs)
	}
	if loc == Local {
		return Strategy{Kind: StrategyPathRef, paths: resolved}, nil
	}
	return Strategy{Kind: StrategyArchive, paths: resolved}, nil
}

func resolve(p string) (string, error) {
	if p == "" {
		return "", idberrors.New(idberrors.KindInvalidSource, "empty path")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", idberrors.Wrap(idberrors.KindInvalidSource, err, "resolve "+p)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", idberrors.Wrap(idberrors.KindInvalidSource, err, "source "+p)
	}
	return abs, nil
}

// Frames returns the payload frames of s. Nothing is read until the sequence
// is iterated, and the sequence is meant to be iterated once.
func (s Strategy) Frames(opts Options) iter.Seq2[Frame, error] {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	switch s.Kind {
	case StrategyURLRef:
		return func(yield func(Frame, error) bool) {
			yield(URLRef(s.url), nil)
		}
	case StrategyPathRef:
		return func(yield func(Frame, error) bool) {
			for _, p := range s.paths {
				if !yield(PathRef(p), nil) {
					return
				}
			}
		}
	case StrategyArchive:
		packed := archive.Pack(s.paths, archive.PackOptions{
			ChunkSize:         size,
			PlaceInSubfolders: opts.PlaceInSubfolders,
		})
		return Map(packed, func(b []byte) Frame { return DataChunk(b) })
	case StrategyContent:
		return Map(chunk.Reader(s.r.R, size), func(b []byte) Frame { return DataChunk(b) })
	default:
		return func(yield func(Frame, error) bool) {
			yield(nil, idberrors.Newf(idberrors.KindInvalidSource, "unresolved strategy %v", s.Kind))
		}
	}
}
