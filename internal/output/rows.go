package output

import (
	"fmt"
	"strings"

	"dbgraph/pkg/api"
)

func list(a []string) string {
	if len(a) == 0 {
		return "-"
	}
	return strings.Join(a, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// FormatQueryRowTSV returns one query row (no trailing newline). A failed
// query prints its error in place of the canonical column.
func FormatQueryRowTSV(q api.QueryV1, neighbors bool) string {
	if q.Error != "" {
		return fmt.Sprintf("%s\terror: %s", q.Kmer, q.Error)
	}
	row := fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s",
		q.Kmer, q.Canonical, q.Strand, yesNo(q.Contains),
		q.Abundance, q.InDegree, q.OutDegree, yesNo(q.Branching),
	)
	if neighbors {
		row += "\t" + list(q.Successors) + "\t" + list(q.Predecessors)
	}
	return row
}
