// internal/store/store.go
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultBufferSize is the write/read buffer used when none is given.
const DefaultBufferSize = 64 * 1024

// Writer appends fixed-size records to a temporary file that becomes visible
// under its final name only on Seal.
type Writer struct {
	path string
	f    *os.File
	bw   *bufio.Writer
	size int
	n    int64
}

// Create starts a record file at path with the default buffer.
func Create(path string, recordSize int) (*Writer, error) {
	return CreateBuffered(path, recordSize, DefaultBufferSize)
}

// CreateBuffered is Create with an explicit buffer size.
func CreateBuffered(path string, recordSize, bufSize int) (*Writer, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("store: record size %d", recordSize)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &Writer{path: path, f: f, bw: bufio.NewWriterSize(f, bufSize), size: recordSize}, nil
}

// Append writes one record; len(rec) must equal the record size.
func (w *Writer) Append(rec []byte) error {
	if len(rec) != w.size {
		return fmt.Errorf("store: record of %d bytes, want %d", len(rec), w.size)
	}
	if _, err := w.bw.Write(rec); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count is the number of records appended so far.
func (w *Writer) Count() int64 { return w.n }

// Path is the final (committed) name.
func (w *Writer) Path() string { return w.path }

// Seal flushes, syncs and renames the file into place. The writer is
// unusable afterwards.
func (w *Writer) Seal() error {
	tmp := w.f.Name()
	err := w.bw.Flush()
	if err == nil {
		err = w.f.Sync()
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, w.path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: seal %s: %w", w.path, err)
	}
	return nil
}

// Abort discards everything written.
func (w *Writer) Abort() error {
	_ = w.f.Close()
	if err := os.Remove(w.f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Reader iterates the records of a sealed file, bufio.Scanner style.
type Reader struct {
	f    *os.File
	br   *bufio.Reader
	rec  []byte
	n    int64
	left int64
	err  error
}

// Open opens a sealed record file. A size that is not a multiple of the
// record size is an error.
func Open(path string, recordSize int) (*Reader, error) {
	return OpenRange(path, recordSize, 0, -1)
}

// OpenRange reads records [lo,hi) of a sealed file; hi < 0 means to the
// end. Several ranges of one file can be read concurrently.
func OpenRange(path string, recordSize int, lo, hi int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.Size()%int64(recordSize) != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("store: %s: size %d is not a multiple of %d", path, st.Size(), recordSize)
	}
	n := st.Size() / int64(recordSize)
	if hi < 0 || hi > n {
		hi = n
	}
	lo = min(max(lo, 0), hi)
	sr := io.NewSectionReader(f, lo*int64(recordSize), (hi-lo)*int64(recordSize))
	return &Reader{
		f:    f,
		br:   bufio.NewReaderSize(sr, DefaultBufferSize),
		rec:  make([]byte, recordSize),
		n:    hi - lo,
		left: hi - lo,
	}, nil
}

// Ranges splits n records into at most parts contiguous [lo,hi) ranges.
func Ranges(n int64, parts int) [][2]int64 {
	parts = max(parts, 1)
	if int64(parts) > n {
		parts = int(max(n, 1))
	}
	out := make([][2]int64, 0, parts)
	for i := 0; i < parts; i++ {
		lo := n * int64(i) / int64(parts)
		hi := n * int64(i+1) / int64(parts)
		out = append(out, [2]int64{lo, hi})
	}
	return out
}

// Len is the number of records in the reader's range.
func (r *Reader) Len() int64 { return r.n }

// Next reads the next record.
func (r *Reader) Next() bool {
	if r.err != nil || r.left == 0 {
		return false
	}
	if _, err := io.ReadFull(r.br, r.rec); err != nil {
		r.err = fmt.Errorf("store: %s: %w", r.f.Name(), err)
		return false
	}
	r.left--
	return true
}

// Record is valid until the next call to Next.
func (r *Reader) Record() []byte { return r.rec }

func (r *Reader) Err() error   { return r.err }
func (r *Reader) Close() error { return r.f.Close() }

// Len returns the record count of a sealed file.
func Len(path string, recordSize int) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if st.Size()%int64(recordSize) != 0 {
		return 0, fmt.Errorf("store: %s: size %d is not a multiple of %d", path, st.Size(), recordSize)
	}
	return st.Size() / int64(recordSize), nil
}

// Remove deletes a record file; a missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
