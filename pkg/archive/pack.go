package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

// PackOptions configures Pack.
type PackOptions struct {
	// ChunkSize bounds every emitted block. Defaults to DefaultChunkSize.
	ChunkSize int

	// PlaceInSubfolders stores the i-th input path under the folder "i/" so
	// independent inputs sharing a base name cannot collide.
	PlaceInSubfolders bool
}

var errStopped = errors.New("archive: consumer stopped")

// Pack streams the archive of paths as blocks of at most opts.ChunkSize
// bytes. A directory contributes every regular file beneath it, in lexical
// order, under the directory's base name. Only one block is buffered at a
// time, regardless of the total archive size.
func Pack(paths []string, opts PackOptions) iter.Seq2[[]byte, error] {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		w := &blockWriter{size: size, yield: yield}
		err := writeArchive(w, paths, opts.PlaceInSubfolders)
		if errors.Is(err, errStopped) {
			return
		}
		if err != nil {
			yield(nil, err)
			return
		}
		_ = w.flush()
	}
}

// Write writes the archive of paths to w in one pass.
func Write(w io.Writer, paths []string, opts PackOptions) error {
	return writeArchive(w, paths, opts.PlaceInSubfolders)
}

// PackBytes returns the whole archive of paths in memory. Intended for small
// inputs such as a single contacts database.
func PackBytes(paths []string, opts PackOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, paths, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeArchive(w io.Writer, paths []string, subfolders bool) error {
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		name := filepath.Base(filepath.Clean(p))
		if subfolders {
			name = path.Join(strconv.Itoa(i), name)
		}
		if !info.IsDir() {
			if err := writeFile(w, name, p, info); err != nil {
				return err
			}
			continue
		}
		// WalkDir does not follow a symlinked root.
		root, err := filepath.EvalSymlinks(p)
		if err != nil {
			return err
		}
		err = filepath.WalkDir(root, func(fp string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := os.Stat(fp)
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				slog.Debug("archive: skipping non-regular file", "path", fp, "mode", info.Mode().String())
				return nil
			}
			rel, err := filepath.Rel(root, fp)
			if err != nil {
				return err
			}
			return writeFile(w, path.Join(name, filepath.ToSlash(rel)), fp, info)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(w io.Writer, name, fp string, info fs.FileInfo) error {
	e := Entry{Path: name, Size: uint64(info.Size()), Mode: info.Mode().Perm()}
	if _, err := w.Write(appendHeader(make([]byte, 0, HeaderLen(name)), e)); err != nil {
		return err
	}
	if e.Size == 0 {
		return nil
	}

	f, err := os.Open(fp) //nolint:gosec // G304: archiving caller-chosen paths
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	n, err := io.CopyN(w, f, info.Size())
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("archive %s: file shrank to %d of %d bytes while reading", fp, n, e.Size)
	}
	return err
}

// blockWriter accumulates writes into fixed-size blocks and hands each full
// block to yield. A block is never reused once yielded.
type blockWriter struct {
	size  int
	buf   []byte
	yield func([]byte, error) bool
}

func (w *blockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if w.buf == nil {
			w.buf = make([]byte, 0, w.size)
		}
		n := min(w.size-len(w.buf), len(p))
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		written += n
		if len(w.buf) == w.size {
			if err := w.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *blockWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	b := w.buf
	w.buf = nil
	if !w.yield(b, nil) {
		return errStopped
	}
	return nil
}
