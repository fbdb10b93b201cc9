// internal/kmer/model.go
package kmer

import (
	"fmt"
	"math/bits"
	"strings"

	"dbgraph/internal/errs"
	"dbgraph/internal/largeint"
)

// Strand tells whether a k-mer was read as its canonical form or as the
// reverse complement of it.
type Strand uint8

const (
	Forward Strand = iota
	Reverse
)

func (s Strand) Flip() Strand { return s ^ 1 }

func (s Strand) String() string {
	if s == Forward {
		return "+"
	}
	return "-"
}

// DefaultMinimizerSize is used when a model is built with m == 0.
const DefaultMinimizerSize = 8

// 2-bit codes: A=0 C=1 T=2 G=3, so complement(c) == c^2.
var codes [256]int8

// Symbols maps a 2-bit code back to its nucleotide.
var Symbols = [4]byte{'A', 'C', 'T', 'G'}

func init() {
	for i := range codes {
		codes[i] = -1
	}
	for c, s := range Symbols {
		codes[s] = int8(c)
		codes[s+'a'-'A'] = int8(c)
	}
}

// Code returns the 2-bit code of b, or -1.
func Code(b byte) int { return int(codes[b]) }

const (
	complementWord = 0xAAAAAAAAAAAAAAAA
	lowPairBits    = 0x5555555555555555
	disallowedBit  = uint64(1) << 63
)

// InvalidSymbolError reports the first non-ACGT symbol of a window.
type InvalidSymbolError struct {
	Pos    int
	Symbol byte
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("kmer: invalid symbol %q at %d", e.Symbol, e.Pos)
}

func (e *InvalidSymbolError) Is(target error) bool { return target == errs.ErrInvalidSymbol }

// Model packs windows of k symbols into K and derives canonical forms and
// minimizers. A Model is immutable and safe for concurrent use.
type Model[K largeint.Integer[K]] struct {
	k, m   int
	mask   K
	top    [4]K // complement of code c placed at the most significant pair
	high   [4]K // code c placed at the most significant pair
	mmask  uint64
	aaMask uint64
}

// MaxK returns the largest k a K can hold.
func MaxK[K largeint.Integer[K]]() int {
	var z K
	return 32 * z.Words()
}

// NewModel validates k and m against K. m == 0 selects
// min(DefaultMinimizerSize, k-1).
func NewModel[K largeint.Integer[K]](k, m int) (*Model[K], error) {
	if k < 2 || k > MaxK[K]() {
		return nil, fmt.Errorf("kmer: k=%d outside [2,%d] for %d-bit keys", k, MaxK[K](), 8*largeint.Bytes[K]())
	}
	if m == 0 {
		m = min(DefaultMinimizerSize, k-1)
	}
	if m < 1 || m >= k || m > 31 {
		return nil, fmt.Errorf("kmer: minimizer size %d must be in [1,min(k-1,31)] (k=%d)", m, k)
	}
	md := &Model[K]{
		k:     k,
		m:     m,
		mask:  largeint.Mask[K](uint(2 * k)),
		mmask: uint64(1)<<(2*m) - 1,
	}
	for c := range md.top {
		md.top[c] = largeint.From[K](uint64(c ^ 2)).Shl(uint(2 * (k - 1)))
		md.high[c] = largeint.From[K](uint64(c)).Shl(uint(2 * (k - 1)))
	}
	if m > 2 {
		md.aaMask = lowPairBits & (uint64(1)<<(2*(m-2)) - 1)
	}
	return md, nil
}

func (md *Model[K]) K() int             { return md.k }
func (md *Model[K]) MinimizerSize() int { return md.m }

// Mask has the low 2k bits set.
func (md *Model[K]) Mask() K { return md.mask }

// Encode packs window[:k]. Lowercase is accepted; anything outside ACGT is an
// *InvalidSymbolError.
func (md *Model[K]) Encode(window []byte) (K, error) {
	var v K
	if len(window) < md.k {
		return v, fmt.Errorf("kmer: window has %d symbols, need %d", len(window), md.k)
	}
	for i := 0; i < md.k; i++ {
		c := codes[window[i]]
		if c < 0 {
			return v, &InvalidSymbolError{Pos: i, Symbol: window[i]}
		}
		v = v.Shl(2).OrLo(uint64(c))
	}
	return v, nil
}

// Decode renders key as k nucleotides.
func (md *Model[K]) Decode(key K) string {
	var sb strings.Builder
	sb.Grow(md.k)
	for i := md.k - 1; i >= 0; i-- {
		sb.WriteByte(Symbols[key.Shr(uint(2*i)).Lo()&3])
	}
	return sb.String()
}

// ReverseComplement of a key under the same k.
func (md *Model[K]) ReverseComplement(key K) K {
	var r K
	w := key.Words()
	for i := 0; i < w; i++ {
		r = r.SetWord(w-1-i, reversePairs(key.Word(i)^complementWord))
	}
	return r.Shr(uint(64*w - 2*md.k))
}

// Canonical returns the smaller of key and its reverse complement, and the
// strand key was read on. Palindromes report Forward.
func (md *Model[K]) Canonical(key K) (K, Strand) {
	rc := md.ReverseComplement(key)
	if rc.Cmp(key) < 0 {
		return rc, Reverse
	}
	return key, Forward
}

// Minimizer scans every m-window of key, canonicalizes it at length m and
// returns the smallest value. Windows holding "AA" other than at their start
// lose to any window that does not; if all of them do, the plain minimum wins.
func (md *Model[K]) Minimizer(key K) uint64 {
	best := ^uint64(0)
	for i := md.k - md.m; i >= 0; i-- {
		w := key.Shr(uint(2*i)).Lo() & md.mmask
		if r := md.rank(w); r < best {
			best = r
		}
	}
	return best &^ disallowedBit
}

// rank orders a forward m-mer for minimizer selection.
func (md *Model[K]) rank(w uint64) uint64 {
	c := w
	if rc := md.revcompM(w); rc < c {
		c = rc
	}
	a := ^(c | c>>2)
	if (a>>1)&a&md.aaMask != 0 {
		return c | disallowedBit
	}
	return c
}

func (md *Model[K]) revcompM(w uint64) uint64 {
	return reversePairs(w^complementWord) >> (64 - 2*md.m)
}

// reversePairs reverses the order of the 32 2-bit groups of x.
func reversePairs(x uint64) uint64 {
	y := bits.Reverse64(x)
	return (y>>1)&lowPairBits | (y&lowPairBits)<<1
}
