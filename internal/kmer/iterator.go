// internal/kmer/iterator.go
package kmer

import "dbgraph/internal/largeint"

// Policy decides what an Iterator does with a symbol outside ACGT.
type Policy uint8

const (
	// SkipInvalid drops every window overlapping the symbol.
	SkipInvalid Policy = iota
	// AbortOnInvalid stops the scan with an *InvalidSymbolError.
	AbortOnInvalid
)

// Kmer is one window yielded by an Iterator.
type Kmer[K largeint.Integer[K]] struct {
	Value     K      // canonical key
	Strand    Strand // strand the window was read on
	Minimizer uint64
	Pos       int // offset of the window's first symbol
}

// Iterator walks the windows of a sequence, bufio.Scanner style:
//
//	it := model.Iterator(kmer.SkipInvalid)
//	it.Reset(seq)
//	for it.Next() {
//		use(it.Kmer())
//	}
//	if err := it.Err(); err != nil { ... }
//
// Forward and reverse keys are rolled one symbol at a time and the minimizer
// is maintained over a ring of the last k-m+1 m-windows. An Iterator is not
// safe for concurrent use; Reset makes it reusable.
type Iterator[K largeint.Integer[K]] struct {
	md     *Model[K]
	policy Policy

	seq []byte
	pos int // next symbol to consume
	run int // valid symbols since the last reset

	fwd, rev   K
	mfwd, mrev uint64

	ring    []uint64
	minRank uint64
	minPos  int

	cur Kmer[K]
	err error
}

// Iterator returns an iterator bound to md.
func (md *Model[K]) Iterator(policy Policy) *Iterator[K] {
	return &Iterator[K]{
		md:     md,
		policy: policy,
		ring:   make([]uint64, md.k-md.m+1),
	}
}

// Reset restarts the iterator on seq.
func (it *Iterator[K]) Reset(seq []byte) {
	it.seq = seq
	it.pos = 0
	it.err = nil
	it.restartWindow()
}

func (it *Iterator[K]) restartWindow() {
	var z K
	it.run = 0
	it.fwd, it.rev = z, z
	it.mfwd, it.mrev = 0, 0
	it.minPos = -1
}

// Next advances to the next valid window.
func (it *Iterator[K]) Next() bool {
	md := it.md
	span := len(it.ring)
	for it.err == nil && it.pos < len(it.seq) {
		p := it.pos
		b := it.seq[p]
		it.pos++

		c := codes[b]
		if c < 0 {
			if it.policy == AbortOnInvalid {
				it.err = &InvalidSymbolError{Pos: p, Symbol: b}
				return false
			}
			it.restartWindow()
			continue
		}
		u := uint64(c)
		it.run++
		it.fwd = it.fwd.Shl(2).OrLo(u).And(md.mask)
		it.rev = it.rev.Shr(2).Or(md.top[u])
		it.mfwd = (it.mfwd<<2 | u) & md.mmask
		it.mrev = it.mrev>>2 | (u^2)<<(2*(md.m-1))

		if it.run >= md.m {
			cm := it.mfwd
			if it.mrev < cm {
				cm = it.mrev
			}
			r := cm
			if a := ^(cm | cm>>2); (a>>1)&a&md.aaMask != 0 {
				r |= disallowedBit
			}
			it.ring[p%span] = r
			switch {
			case it.minPos >= 0 && p-it.minPos >= span:
				it.rescan(p)
			case it.minPos < 0 || r <= it.minRank:
				it.minRank, it.minPos = r, p
			}
		}

		if it.run >= md.k {
			if it.rev.Cmp(it.fwd) < 0 {
				it.cur = Kmer[K]{Value: it.rev, Strand: Reverse}
			} else {
				it.cur = Kmer[K]{Value: it.fwd, Strand: Forward}
			}
			it.cur.Minimizer = it.minRank &^ disallowedBit
			it.cur.Pos = p - md.k + 1
			return true
		}
	}
	return false
}

// rescan recomputes the minimum over the m-windows ending in (p-span, p].
func (it *Iterator[K]) rescan(p int) {
	span := len(it.ring)
	first := max(p-span+1, p-(it.run-it.md.m))
	it.minPos = -1
	for j := first; j <= p; j++ {
		if r := it.ring[j%span]; it.minPos < 0 || r <= it.minRank {
			it.minRank, it.minPos = r, j
		}
	}
}

// Kmer returns the window produced by the last successful Next.
func (it *Iterator[K]) Kmer() Kmer[K] { return it.cur }

// Err returns the error that stopped the scan, if any.
func (it *Iterator[K]) Err() error { return it.err }
