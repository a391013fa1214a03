package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(p, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func encode(t *testing.T, paths []string, opts PackOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, paths, opts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return buf.Bytes()
}

// sliceChunks yields data split into blocks of n bytes.
func sliceChunks(data []byte, n int) func(func([]byte, error) bool) {
	return func(yield func([]byte, error) bool) {
		for len(data) > 0 {
			k := min(n, len(data))
			if !yield(data[:k], nil) {
				return
			}
			data = data[k:]
		}
	}
}

func TestRoundTripAcrossChunkSizes(t *testing.T) {
	src := t.TempDir()
	want := map[string]string{
		"App.app/Info.plist":         "<plist/>",
		"App.app/Frameworks/a.dylib": string(bytes.Repeat([]byte{0xCF}, 1000)),
		"App.app/empty":              "",
		"notes.txt":                  "hello",
	}
	writeTree(t, src, want)

	for _, size := range []int{1, 3, 7, 64, 4096} {
		dst := t.TempDir()
		paths := []string{filepath.Join(src, "App.app"), filepath.Join(src, "notes.txt")}
		if err := Unpack(Pack(paths, PackOptions{ChunkSize: size}), dst); err != nil {
			t.Fatalf("chunk size %d: Unpack() error = %v", size, err)
		}
		if diff := cmp.Diff(want, readTree(t, dst)); diff != "" {
			t.Errorf("chunk size %d: tree mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestPackBlocksAreBounded(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"big.bin": string(bytes.Repeat([]byte("z"), 10_000))})

	var total int
	var blocks int
	for b, err := range Pack([]string{filepath.Join(src, "big.bin")}, PackOptions{ChunkSize: 1024}) {
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}
		if len(b) == 0 || len(b) > 1024 {
			t.Errorf("block %d has %d bytes", blocks, len(b))
		}
		total += len(b)
		blocks++
	}
	if want := HeaderLen("big.bin") + 10_000; total != want {
		t.Errorf("total = %d, want %d", total, want)
	}
	if want := (total + 1023) / 1024; blocks != want {
		t.Errorf("blocks = %d, want %d", blocks, want)
	}
}

func TestPlaceInSubfolders(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeTree(t, a, map[string]string{"photo.jpg": "first"})
	writeTree(t, b, map[string]string{"photo.jpg": "second"})

	dst := t.TempDir()
	paths := []string{filepath.Join(a, "photo.jpg"), filepath.Join(b, "photo.jpg")}
	if err := Unpack(Pack(paths, PackOptions{PlaceInSubfolders: true}), dst); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	want := map[string]string{"0/photo.jpg": "first", "1/photo.jpg": "second"}
	if diff := cmp.Diff(want, readTree(t, dst)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestPackFollowsSymlinkedDirectory(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"Real.app/Info.plist": "<plist/>",
		"Real.app/bin/app":    "exe",
		"Real.app/Assets.car": "assets",
	})
	link := filepath.Join(src, "Latest.app")
	if err := os.Symlink(filepath.Join(src, "Real.app"), link); err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()
	if err := Unpack(Pack([]string{link}, PackOptions{}), dst); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	want := map[string]string{
		"Latest.app/Info.plist": "<plist/>",
		"Latest.app/bin/app":    "exe",
		"Latest.app/Assets.car": "assets",
	}
	if diff := cmp.Diff(want, readTree(t, dst)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestList(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"d/a": "1", "d/b/c": "22"})

	entries, err := List(bytes.NewReader(encode(t, []string{filepath.Join(src, "d")}, PackOptions{})))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []Entry{
		{Path: "d/a", Size: 1, Mode: 0o644},
		{Path: "d/b/c", Size: 2, Mode: 0o644},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestPackMissingPath(t *testing.T) {
	var gotErr error
	for _, err := range Pack([]string{filepath.Join(t.TempDir(), "nope")}, PackOptions{}) {
		gotErr = err
	}
	if !errors.Is(gotErr, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", gotErr)
	}
}

func record(path string, size uint64, payload []byte) []byte {
	b := appendHeader(nil, Entry{Path: path, Size: size, Mode: 0o644})
	return append(b, payload...)
}

func TestUnpackCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated length", []byte{0, 0}},
		{"zero path length", binary.BigEndian.AppendUint32(nil, 0)},
		{"oversized path length", binary.BigEndian.AppendUint32(nil, MaxPathLen+1)},
		{"truncated header", record("a.txt", 3, nil)[:7]},
		{"short payload", record("a.txt", 10, []byte("abc"))},
		{"absolute path", record("/etc/passwd", 1, []byte("x"))},
		{"parent escape", record("../x", 1, []byte("x"))},
		{"invalid utf8", record("\xff\xfe", 1, []byte("x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unpack(sliceChunks(tt.data, 3), t.TempDir())
			if !errors.Is(err, idberrors.ErrArchiveCorrupt) {
				t.Errorf("Unpack() error = %v, want ArchiveCorrupt", err)
			}
		})
	}
}

func TestUnpackEmptyStream(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")
	if err := Unpack(sliceChunks(nil, 4), dst); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination not created: %v", err)
	}
}

func TestUnpackPropagatesChunkError(t *testing.T) {
	boom := errors.New("stream reset")
	chunks := func(yield func([]byte, error) bool) {
		data := record("a.txt", 4, []byte("abcd"))
		if !yield(data[:5], nil) {
			return
		}
		yield(nil, boom)
	}
	err := Unpack(chunks, t.TempDir())
	if !errors.Is(err, boom) {
		t.Errorf("Unpack() error = %v, want %v", err, boom)
	}
	if idberrors.KindOf(err) == idberrors.KindArchiveCorrupt {
		t.Error("transport error reported as archive corruption")
	}
}

func TestUnpackPreservesMode(t *testing.T) {
	data := appendHeader(nil, Entry{Path: "run.sh", Size: 2, Mode: 0o755})
	data = append(data, "#!"...)
	dst := t.TempDir()
	if err := Unpack(sliceChunks(data, 5), dst); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("mode = %v, want executable bit", info.Mode())
	}
}

func TestUnpackKeepsZeroMode(t *testing.T) {
	data := appendHeader(nil, Entry{Path: "locked", Size: 1, Mode: 0})
	data = append(data, 'x')
	dst := t.TempDir()
	if err := Unpack(sliceChunks(data, 4), dst); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dst, "locked"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0 {
		t.Errorf("mode = %v, want ----------", info.Mode())
	}
}

func TestUnpackUnwritableDestination(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "existing")
	if err := os.WriteFile(dst, []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	data := appendHeader(nil, Entry{Path: "a", Size: 1, Mode: 0o644})
	data = append(data, 'a')

	err := Unpack(sliceChunks(data, 8), dst)
	if !errors.Is(err, ErrDestination) {
		t.Fatalf("Unpack() error = %v, want ErrDestination", err)
	}
	if idberrors.KindOf(err) == idberrors.KindArchiveCorrupt {
		t.Error("write failure reported as archive corruption")
	}
}

func TestUnpackDestinationInsideFile(t *testing.T) {
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "d"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	data := appendHeader(nil, Entry{Path: "d/inner", Size: 1, Mode: 0o644})
	data = append(data, 'a')

	if err := Unpack(sliceChunks(data, 8), dst); !errors.Is(err, ErrDestination) {
		t.Fatalf("Unpack() error = %v, want ErrDestination", err)
	}
}
