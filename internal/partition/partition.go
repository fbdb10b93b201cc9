// internal/partition/partition.go
package partition

import (
	"encoding/binary"
	"errors"

	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

const (
	seedAssign    = 0x5bd1e9955bd1e995
	seedSketch    = 0x9e3779b97f4a7c15
	seedSubdivide = 0xc2b2ae3d27d4eb4f
)

// Assign maps a minimizer to its extraction pass and its partition within
// that pass. With one pass the partition is hash(minimizer) mod parts.
func Assign(minimizer uint64, passes, parts int) (pass, part int) {
	h := largeint.Uint64(minimizer).Hash(seedAssign)
	return int(h % uint64(passes)), int((h / uint64(passes)) % uint64(parts))
}

// child picks the sub-partition of a k-mer when a partition is split at depth.
func child(minimizer uint64, depth, fanout int) int {
	return int(largeint.Uint64(minimizer).Hash(seedSubdivide+uint64(depth)) % uint64(fanout))
}

// RecordSize is the on-disk size of one partition record: the canonical key
// followed by the little-endian index of the bank it came from.
func RecordSize[K largeint.Integer[K]]() int { return largeint.Bytes[K]() + 2 }

// PutRecord encodes (key, bank) into buf.
func PutRecord[K largeint.Integer[K]](buf []byte, key K, bank uint16) {
	n := largeint.Bytes[K]()
	key.Put(buf[:n])
	binary.LittleEndian.PutUint16(buf[n:], bank)
}

// GetRecord decodes a record written by PutRecord.
func GetRecord[K largeint.Integer[K]](buf []byte) (K, uint16) {
	var z K
	n := largeint.Bytes[K]()
	return z.Get(buf[:n]), binary.LittleEndian.Uint16(buf[n:])
}

// Partition is one sealed partition file.
type Partition struct {
	Name     string
	Path     string
	Pass     int
	Depth    int    // 0 unless produced by subdivision
	Records  int64  // k-mer occurrences
	Distinct uint64 // sketch estimate of distinct keys
}

// Set is the sealed output of one extraction pass.
type Set struct {
	Dir        string
	Pass       int
	Partitions int // P used for the pass
	Parts      []Partition
}

// Records is the total number of k-mer occurrences in the set.
func (s *Set) Records() int64 {
	var n int64
	for _, p := range s.Parts {
		n += p.Records
	}
	return n
}

// Remove deletes every partition file of the set.
func (s *Set) Remove() error {
	var errs []error
	for _, p := range s.Parts {
		errs = append(errs, store.Remove(p.Path))
	}
	return errors.Join(errs...)
}
