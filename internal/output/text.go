// internal/output/text.go
package output

import (
	"bufio"
	"io"

	"dbgraph/pkg/api"
)

// StreamQueryText writes one TSV row per query as they arrive.
func StreamQueryText(w io.Writer, in <-chan api.QueryV1, header, neighbors bool) error {
	bw := bufio.NewWriter(w)
	if header {
		h := QueryTSVHeader
		if neighbors {
			h += NeighborsTSVHeader
		}
		if _, err := bw.WriteString(h + "\n"); err != nil {
			drain(in)
			return err
		}
	}
	for q := range in {
		if _, err := bw.WriteString(FormatQueryRowTSV(q, neighbors) + "\n"); err != nil {
			drain(in)
			return err
		}
	}
	return bw.Flush()
}

// drain unblocks the producer after a write error.
func drain(in <-chan api.QueryV1) {
	for range in {
	}
}
