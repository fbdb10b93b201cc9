// internal/largeint/largeint.go
package largeint

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Integer is the operation set a packed key type must provide. T is the
// implementing type itself, so generic code can write K.Shl(2).Or(...).
type Integer[T any] interface {
	comparable

	// Words is the number of 64-bit words in T.
	Words() int
	// Word returns word i, 0 being the least significant.
	Word(i int) uint64
	// SetWord returns a copy with word i replaced.
	SetWord(i int, v uint64) T
	// Lo returns the least significant word.
	Lo() uint64
	// OrLo returns the value with v OR'ed into the least significant word.
	OrLo(v uint64) T

	Shl(n uint) T
	Shr(n uint) T
	And(o T) T
	Or(o T) T
	Xor(o T) T
	Not() T
	Cmp(o T) int

	// Hash mixes the value with seed. Distinct seeds give independent hashes.
	Hash(seed uint64) uint64

	// Put writes the value little-endian into b[:8*Words()].
	Put(b []byte)
	// Get decodes a value written by Put.
	Get(b []byte) T
}

// From returns v as a T.
func From[T Integer[T]](v uint64) T {
	var z T
	return z.OrLo(v)
}

// Mask returns a T with the low bits bits set.
func Mask[T Integer[T]](bits uint) T {
	var z T
	return z.Not().Shl(bits).Not()
}

// Bytes is the encoded size of a T.
func Bytes[T Integer[T]]() int {
	var z T
	return 8 * z.Words()
}

// Less reports a < b.
func Less[T Integer[T]](a, b T) bool { return a.Cmp(b) < 0 }

// Hex renders v most significant word first.
func Hex[T Integer[T]](v T) string {
	var sb strings.Builder
	for i := v.Words() - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%016x", v.Word(i))
	}
	return sb.String()
}

func hashWords(seed uint64, w []uint64) uint64 {
	var buf [8 * 5]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	for i, x := range w {
		binary.LittleEndian.PutUint64(buf[8+8*i:], x)
	}
	return xxhash.Sum64(buf[:8+8*len(w)])
}

func hashWord(seed, w uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], w)
	return xxhash.Sum64(buf[:])
}

func shlWords(dst, src []uint64, n uint) {
	q, r := int(n/64), n%64
	for i := len(src) - 1; i >= 0; i-- {
		var v uint64
		if j := i - q; j >= 0 {
			v = src[j] << r
			if r != 0 && j > 0 {
				v |= src[j-1] >> (64 - r)
			}
		}
		dst[i] = v
	}
}

func shrWords(dst, src []uint64, n uint) {
	q, r := int(n/64), n%64
	w := len(src)
	for i := 0; i < w; i++ {
		var v uint64
		if j := i + q; j < w && j >= 0 {
			v = src[j] >> r
			if r != 0 && j+1 < w {
				v |= src[j+1] << (64 - r)
			}
		}
		dst[i] = v
	}
}

func cmpWords(a, b []uint64) int {
	for i := len(a) - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func putWords(b []byte, w []uint64) {
	for i, x := range w {
		binary.LittleEndian.PutUint64(b[8*i:], x)
	}
}

func getWords(w []uint64, b []byte) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(b[8*i:])
	}
}
