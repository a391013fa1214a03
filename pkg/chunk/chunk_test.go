package chunk

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func collect(t *testing.T, seq func(func([]byte, error) bool)) ([][]byte, error) {
	t.Helper()
	var out [][]byte
	for b, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

func TestReaderBlockSizes(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		length int
		want   []int
	}{
		{"empty source", 4, 0, nil},
		{"exact multiple", 4, 8, []int{4, 4}},
		{"short final block", 4, 10, []int{4, 4, 2}},
		{"smaller than one block", 16, 3, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{'x'}, tt.length)
			blocks, err := collect(t, Reader(bytes.NewReader(data), tt.size))
			if err != nil {
				t.Fatalf("Reader() error = %v", err)
			}
			if len(blocks) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d", len(blocks), len(tt.want))
			}
			for i, b := range blocks {
				if len(b) != tt.want[i] {
					t.Errorf("block %d has %d bytes, want %d", i, len(b), tt.want[i])
				}
			}
		})
	}
}

func TestReaderPreservesBytes(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	blocks, err := collect(t, Reader(bytes.NewReader(data), 5))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if got := bytes.Join(blocks, nil); !bytes.Equal(got, data) {
		t.Errorf("joined blocks = %q, want %q", got, data)
	}
}

func TestReaderBlocksAreIndependent(t *testing.T) {
	blocks, err := collect(t, Reader(bytes.NewReader([]byte("aabbcc")), 2))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if string(blocks[0]) != "aa" || string(blocks[2]) != "cc" {
		t.Errorf("retained blocks were overwritten: %q", blocks)
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReaderPropagatesReadError(t *testing.T) {
	boom := errors.New("disk gone")
	r := &failingReader{data: []byte("abcdef"), err: boom}

	blocks, err := collect(t, Reader(r, 4))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if len(blocks) != 1 || string(blocks[0]) != "abcd" {
		t.Errorf("blocks before failure = %q, want [abcd]", blocks)
	}
}

func TestReaderStopsEarly(t *testing.T) {
	r := bytes.NewReader(bytes.Repeat([]byte{'y'}, 12))
	for range Reader(r, 4) {
		break
	}
	if r.Len() != 8 {
		t.Errorf("remaining = %d, want 8 (source read past the consumed block)", r.Len())
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.ipa")
	data := bytes.Repeat([]byte("0123456789"), 100)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	blocks, err := collect(t, File(path, 64))
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got := bytes.Join(blocks, nil); !bytes.Equal(got, data) {
		t.Error("file content mismatch")
	}
	if want := (len(data) + 63) / 64; len(blocks) != want {
		t.Errorf("got %d blocks, want %d", len(blocks), want)
	}
}

func TestFileMissing(t *testing.T) {
	_, err := collect(t, File(filepath.Join(t.TempDir(), "missing"), 8))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

var _ io.Reader = (*failingReader)(nil)
