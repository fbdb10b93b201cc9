// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"dbgraph/internal/jsonlutil"
	"dbgraph/pkg/api"
)

// StartQueryJSONL streams each query answer as one JSON line (v1).
func StartQueryJSONL(out io.Writer, bufSize int) (chan<- api.QueryV1, <-chan error) {
	return jsonlutil.Start[api.QueryV1](out, bufSize,
		func(enc *json.Encoder, q api.QueryV1) error {
			return enc.Encode(q)
		},
		IsBrokenPipe,
	)
}
