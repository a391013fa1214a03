package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// Unpack consumes an archive arriving as chunks and writes its files under
// dst, creating parent directories as needed. Chunks are consumed one at a
// time; chunk boundaries need not line up with record boundaries and the
// archive is never held in memory as a whole.
//
// A header that cannot be parsed, or a payload shorter than its declared
// size, fails with an ArchiveCorrupt domain error. Failures to write under
// dst match ErrDestination. Errors yielded by chunks are returned unchanged.
// Files written before a failure are left in place.
func Unpack(chunks iter.Seq2[[]byte, error], dst string) error {
	next, stop := iter.Pull2(chunks)
	defer stop()
	return Extract(&chunkReader{next: next}, dst)
}

// ErrDestination marks a failure to create or write a file under the
// extraction directory.
var ErrDestination = errors.New("destination not writable")

// Extract reads records from r until a clean end of stream and writes them
// under dst.
func Extract(r io.Reader, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create destination: %w: %w", ErrDestination, err)
	}
	for {
		e, err := readHeader(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := extractEntry(r, dst, e); err != nil {
			return err
		}
	}
}

// List reads the record headers of an archive, skipping payloads.
func List(r io.Reader) ([]Entry, error) {
	var entries []Entry
	for {
		e, err := readHeader(r)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		if e.Size > 0 {
			n, err := io.CopyN(io.Discard, r, int64(e.Size))
			if err != nil {
				return entries, payloadError(e, n, err)
			}
		}
		entries = append(entries, e)
	}
}

// readHeader returns io.EOF only when the stream ends exactly on a record
// boundary.
func readHeader(r io.Reader) (Entry, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Entry{}, idberrors.New(idberrors.KindArchiveCorrupt, "truncated record header")
		}
		return Entry{}, err
	}
	pathLen := binary.BigEndian.Uint32(lenBuf[:])
	if pathLen == 0 || pathLen > MaxPathLen {
		return Entry{}, idberrors.Newf(idberrors.KindArchiveCorrupt, "record path length %d out of range", pathLen)
	}

	rest := make([]byte, int(pathLen)+12)
	if _, err := io.ReadFull(r, rest); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Entry{}, idberrors.New(idberrors.KindArchiveCorrupt, "truncated record header")
		}
		return Entry{}, err
	}
	name := string(rest[:pathLen])
	if !utf8.ValidString(name) {
		return Entry{}, idberrors.New(idberrors.KindArchiveCorrupt, "record path is not valid UTF-8")
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return Entry{}, idberrors.Newf(idberrors.KindArchiveCorrupt, "record path %q escapes the destination", name)
	}
	return Entry{
		Path: name,
		Size: binary.BigEndian.Uint64(rest[pathLen:]),
		Mode: fs.FileMode(binary.BigEndian.Uint32(rest[pathLen+8:])).Perm(),
	}, nil
}

func extractEntry(r io.Reader, dst string, e Entry) error {
	target := filepath.Join(dst, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w: %w", e.Path, ErrDestination, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: path validated by readHeader
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", e.Path, ErrDestination, err)
	}
	n, err := io.CopyN(destWriter{f}, r, int64(e.Size))
	closeErr := f.Close()
	if err != nil {
		return payloadError(e, n, err)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w: %w", e.Path, ErrDestination, closeErr)
	}
	// Chmod is not subject to the umask; a recorded 0 stays 0.
	if err := os.Chmod(target, e.Mode); err != nil {
		return fmt.Errorf("chmod %s: %w: %w", e.Path, ErrDestination, err)
	}
	slog.Debug("archive: extracted", "path", e.Path, "size", e.Size)
	return nil
}

func payloadError(e Entry, got int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return idberrors.Newf(idberrors.KindArchiveCorrupt, "entry %q declares %d bytes, stream ended after %d", e.Path, e.Size, got)
	}
	return err
}

// destWriter tags write failures so they are not mistaken for read errors
// of the incoming stream.
type destWriter struct{ w io.Writer }

func (d destWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDestination, err)
	}
	return n, err
}

// chunkReader presents a pulled chunk sequence as a continuous byte stream.
type chunkReader struct {
	next func() ([]byte, error, bool)
	buf  []byte
	err  error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		b, err, ok := r.next()
		switch {
		case !ok:
			r.err = io.EOF
		case err != nil:
			r.err = err
		default:
			r.buf = b
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
