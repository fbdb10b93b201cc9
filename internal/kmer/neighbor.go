// internal/kmer/neighbor.go
package kmer

// Successor drops the first symbol of key and appends code c (0..3).
func (md *Model[K]) Successor(key K, c int) K {
	return key.Shl(2).OrLo(uint64(c & 3)).And(md.mask)
}

// Predecessor drops the last symbol of key and prepends code c (0..3).
func (md *Model[K]) Predecessor(key K, c int) K {
	return key.Shr(2).Or(md.high[c&3])
}

// Neighbors appends the canonical forms of the 4 successors and 4
// predecessors of the canonical key to dst. Both strands are covered since
// the reverse complement's successors are the key's predecessors.
func (md *Model[K]) Neighbors(dst []K, key K) []K {
	for c := 0; c < 4; c++ {
		n, _ := md.Canonical(md.Successor(key, c))
		dst = append(dst, n)
		n, _ = md.Canonical(md.Predecessor(key, c))
		dst = append(dst, n)
	}
	return dst
}
