// internal/store/file.go
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile commits the bytes produced by fill at path atomically: they are
// written to a temporary file in the same directory, synced and renamed.
// If fill fails nothing appears at path.
func WriteFile(path string, fill func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	bw := bufio.NewWriterSize(f, DefaultBufferSize)
	err = fill(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

// ReadFile opens path and hands a buffered reader to read.
func ReadFile(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := read(bufio.NewReaderSize(f, DefaultBufferSize)); err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	return nil
}
