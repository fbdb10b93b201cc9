package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"dbgraph/internal/debloom"
	"dbgraph/internal/sortcount"
	"dbgraph/pkg/api"
)

// ToAPIStats converts the results of both build stages to the stable wire
// schema (v1).
func ToAPIStats(runID, index string, k int, sc *sortcount.Result, db *debloom.Result, elapsed time.Duration) api.StatsV1 {
	s := api.StatsV1{
		RunID:          runID,
		K:              k,
		Index:          index,
		DistinctKmers:  sc.Distinct,
		TotalKmers:     sc.Total,
		SolidKmers:     sc.Solid,
		AbundanceMin:   sc.Cutoff,
		AutoCutoff:     sc.AutoCutoff,
		Partitions:     sc.Partitions,
		Passes:         sc.Passes,
		Subdivisions:   sc.Subdivisions,
		ByStrategy:     map[string]int{},
		Retries:        sc.Retries,
		ElapsedSeconds: elapsed.Seconds(),
	}
	for st, n := range sc.ByStrategy {
		s.ByStrategy[st.String()] = n
	}
	for ab, n := range sc.Histogram {
		if n > 0 {
			s.Histogram = append(s.Histogram, api.HistBinV1{Abundance: uint32(ab), Kmers: n})
		}
	}
	if db != nil {
		s.CriticalKmers = db.Critical
		s.BloomBits = db.BloomBits
		s.BloomHashes = db.BloomHashes
		s.BloomRelaxed = db.Relaxed
	}
	return s
}

// WriteStatsText prints a human summary; the histogram is included only
// when asked for.
func WriteStatsText(w io.Writer, s api.StatsV1, histogram bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "index\t%s\n", s.Index)
	fmt.Fprintf(&b, "run_id\t%s\n", s.RunID)
	fmt.Fprintf(&b, "k\t%d\n", s.K)
	fmt.Fprintf(&b, "total_kmers\t%d\n", s.TotalKmers)
	fmt.Fprintf(&b, "distinct_kmers\t%d\n", s.DistinctKmers)
	cutoff := fmt.Sprint(s.AbundanceMin)
	if s.AutoCutoff {
		cutoff += " (auto)"
	}
	fmt.Fprintf(&b, "abundance_min\t%s\n", cutoff)
	fmt.Fprintf(&b, "solid_kmers\t%d\n", s.SolidKmers)
	fmt.Fprintf(&b, "critical_kmers\t%d\n", s.CriticalKmers)
	relaxed := ""
	if s.BloomRelaxed {
		relaxed = " (relaxed)"
	}
	fmt.Fprintf(&b, "bloom\t%d bits, %d hashes%s\n", s.BloomBits, s.BloomHashes, relaxed)
	fmt.Fprintf(&b, "partitions\t%d x %d passes", s.Partitions, s.Passes)
	if s.Subdivisions > 0 {
		fmt.Fprintf(&b, ", %d subdivided", s.Subdivisions)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "strategies\t%s", strategies(s.ByStrategy))
	if s.Retries > 0 {
		fmt.Fprintf(&b, ", %d retried", s.Retries)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "elapsed\t%.2fs\n", s.ElapsedSeconds)
	if histogram {
		b.WriteString("\nabundance\tkmers\n")
		for _, h := range s.Histogram {
			fmt.Fprintf(&b, "%d\t%d\n", h.Abundance, h.Kmers)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func strategies(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%d", n, m[n])
	}
	return strings.Join(parts, " ")
}
