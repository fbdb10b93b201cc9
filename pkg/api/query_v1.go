// pkg/api/query_v1.go
package api

// QueryV1 is the stable JSON/JSONL schema for one k-mer query.
type QueryV1 struct {
	Kmer      string `json:"kmer"`
	Canonical string `json:"canonical,omitempty"`
	Strand    string `json:"strand,omitempty"` // "+"/"-"
	Contains  bool   `json:"contains"`
	Abundance uint32 `json:"abundance,omitempty"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
	Branching bool   `json:"branching"`
	Error     string `json:"error,omitempty"`

	// Neighbors are listed only when requested.
	Successors   []string `json:"successors,omitempty"`
	Predecessors []string `json:"predecessors,omitempty"`
}
