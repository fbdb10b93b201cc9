// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"dbgraph/internal/output"
	"dbgraph/pkg/api"
)

// QueryOptions are the presentation switches shared by every query format.
type QueryOptions struct {
	Header    bool
	Neighbors bool
}

// QueryFunc consumes a query stream until it is closed.
type QueryFunc func(w io.Writer, in <-chan api.QueryV1, o QueryOptions) error

// QueryWriters maps a format name to its writer (last registration wins).
var QueryWriters = map[string]QueryFunc{}

func RegisterQuery(format string, fn QueryFunc) { QueryWriters[format] = fn }

func init() {
	RegisterQuery("text", func(w io.Writer, in <-chan api.QueryV1, o QueryOptions) error {
		return output.StreamQueryText(w, in, o.Header, o.Neighbors)
	})
	RegisterQuery("json", func(w io.Writer, in <-chan api.QueryV1, _ QueryOptions) error {
		var buf []api.QueryV1
		for q := range in {
			buf = append(buf, q)
		}
		return output.WriteQueriesJSON(w, buf)
	})
}

// StartQueryWriter spins up a writer goroutine for format. JSONL is
// streamed through the shared encoder; other formats come from the
// registry.
func StartQueryWriter(out io.Writer, format string, o QueryOptions, bufSize int) (chan<- api.QueryV1, <-chan error) {
	if format == "jsonl" {
		return StartQueryJSONL(out, bufSize)
	}
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.QueryV1, bufSize)
	errCh := make(chan error, 1)
	go func() {
		fn, ok := QueryWriters[format]
		if !ok {
			for range in {
			}
			errCh <- fmt.Errorf("unknown query format %q (no writer registered)", format)
			return
		}
		errCh <- fn(out, in, o)
	}()
	return in, errCh
}
