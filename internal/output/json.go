// internal/output/json.go
package output

import (
	"io"

	"dbgraph/internal/jsonutil"
	"dbgraph/pkg/api"
)

// WriteQueriesJSON writes a single JSON array of v1 queries (pretty-indented).
func WriteQueriesJSON(w io.Writer, list []api.QueryV1) error {
	if list == nil {
		list = []api.QueryV1{}
	}
	return jsonutil.EncodePretty(w, list)
}

// WriteStatsJSON writes build statistics as one indented JSON object.
func WriteStatsJSON(w io.Writer, s api.StatsV1) error {
	return jsonutil.EncodePretty(w, s)
}
