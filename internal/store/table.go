// internal/store/table.go
package store

import (
	"fmt"
	"os"
)

// Table gives random access to the records of a sealed file.
// It is safe for concurrent use.
type Table struct {
	f    *os.File
	size int
	n    int64
}

func OpenTable(path string, recordSize int) (*Table, error) {
	n, err := Len(path, recordSize)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Table{f: f, size: recordSize, n: n}, nil
}

func (t *Table) Len() int64 { return t.n }

// Read copies record i into buf, which must hold the record size.
func (t *Table) Read(i int64, buf []byte) error {
	if i < 0 || i >= t.n {
		return fmt.Errorf("store: record %d out of range [0,%d)", i, t.n)
	}
	_, err := t.f.ReadAt(buf[:t.size], i*int64(t.size))
	return err
}

func (t *Table) Close() error { return t.f.Close() }
