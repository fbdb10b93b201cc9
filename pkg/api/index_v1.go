// pkg/api/index_v1.go
package api

// ManifestVersion is the current ManifestV1.Version.
const ManifestVersion = 1

// ManifestV1 describes a finished index directory. It is written last; an
// index without it is incomplete.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ManifestV1 struct {
	Version       int      `json:"version"`
	RunID         string   `json:"run_id"`
	K             int      `json:"k"`
	KeyBytes      int      `json:"key_bytes"`
	Minimizer     int      `json:"minimizer"`
	Inputs        []string `json:"inputs"`
	SolidFile     string   `json:"solid_file"` // names are relative to the index directory
	BloomFile     string   `json:"bloom_file"`
	CriticalFile  string   `json:"critical_file"`
	SolidKmers    uint64   `json:"solid_kmers"`
	CriticalKmers uint64   `json:"critical_kmers"`
	BloomBits     uint64   `json:"bloom_bits"`
	BloomHashes   int      `json:"bloom_hashes"`
	BitsPerKmer   float64  `json:"bits_per_kmer"`
	AbundanceMin  uint32   `json:"abundance_min"`
	AbundanceMax  uint32   `json:"abundance_max,omitempty"`
	Solidity      string   `json:"solidity"`
	CreatedAt     string   `json:"created_at"` // RFC 3339
}

// StatsV1 is the stable JSON schema for build statistics.
type StatsV1 struct {
	RunID          string         `json:"run_id"`
	K              int            `json:"k"`
	Index          string         `json:"index"`
	DistinctKmers  uint64         `json:"distinct_kmers"`
	TotalKmers     uint64         `json:"total_kmers"`
	SolidKmers     uint64         `json:"solid_kmers"`
	CriticalKmers  uint64         `json:"critical_kmers"`
	AbundanceMin   uint32         `json:"abundance_min"`
	AutoCutoff     bool           `json:"auto_cutoff,omitempty"`
	Partitions     int            `json:"partitions"`
	Passes         int            `json:"passes"`
	Subdivisions   int            `json:"subdivisions,omitempty"`
	ByStrategy     map[string]int `json:"by_strategy"`
	Retries        int            `json:"retries,omitempty"`
	BloomBits      uint64         `json:"bloom_bits"`
	BloomHashes    int            `json:"bloom_hashes"`
	BloomRelaxed   bool           `json:"bloom_relaxed,omitempty"`
	Histogram      []HistBinV1    `json:"histogram,omitempty"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
}

// HistBinV1 is one non-empty abundance histogram bin.
type HistBinV1 struct {
	Abundance uint32 `json:"abundance"`
	Kmers     uint64 `json:"kmers"`
}
