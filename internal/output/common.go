package output

// QueryTSVHeader is the header row for text query output.
// Keep this as the single source of truth; all writers should use it.
const QueryTSVHeader = "kmer\tcanonical\tstrand\tcontains\tabundance\tin_degree\tout_degree\tbranching"

// NeighborsTSVHeader is appended when neighbors are listed.
const NeighborsTSVHeader = "\tsuccessors\tpredecessors"
