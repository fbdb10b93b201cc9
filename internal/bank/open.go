// internal/bank/open.go
package bank

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// countingReader tracks compressed bytes consumed, for size extrapolation.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// openReader handles gzip (magic 1F 8B or .gz suffix) and "-" for stdin.
// The returned counter sees the raw file bytes.
func openReader(path string) (io.ReadCloser, *countingReader, error) {
	if path == "-" {
		cr := &countingReader{r: os.Stdin}
		return io.NopCloser(cr), cr, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)
	cr := &countingReader{r: fh}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(cr)
		if err != nil {
			_ = fh.Close()
			return nil, nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, cr, nil
	}
	return &multiReadCloser{Reader: cr, closers: []io.Closer{fh}}, cr, nil
}
