// Package count turns sealed partition files into sorted count files.
//
// Two counters share one contract: ByHash accumulates into a map and sorts
// the distinct keys at the end, ByVector sorts every occurrence and
// run-length encodes. Both produce byte-identical output for the same
// partition. Policy picks one per partition and Pool runs partitions on a
// fixed set of workers, retrying a failed partition once with the other
// counter.
package count
