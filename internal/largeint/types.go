// internal/largeint/types.go
package largeint

import "encoding/binary"

// Uint64 holds keys of up to 32 symbols.
type Uint64 uint64

func (a Uint64) Words() int { return 1 }
func (a Uint64) Word(i int) uint64 {
	if i == 0 {
		return uint64(a)
	}
	return 0
}
func (a Uint64) SetWord(i int, v uint64) Uint64 {
	if i == 0 {
		return Uint64(v)
	}
	return a
}
func (a Uint64) Lo() uint64              { return uint64(a) }
func (a Uint64) OrLo(v uint64) Uint64    { return a | Uint64(v) }
func (a Uint64) Shl(n uint) Uint64       { return a << n }
func (a Uint64) Shr(n uint) Uint64       { return a >> n }
func (a Uint64) And(o Uint64) Uint64     { return a & o }
func (a Uint64) Or(o Uint64) Uint64      { return a | o }
func (a Uint64) Xor(o Uint64) Uint64     { return a ^ o }
func (a Uint64) Not() Uint64             { return ^a }
func (a Uint64) Hash(seed uint64) uint64 { return hashWord(seed, uint64(a)) }
func (a Uint64) Put(b []byte)            { binary.LittleEndian.PutUint64(b, uint64(a)) }
func (a Uint64) Get(b []byte) Uint64     { return Uint64(binary.LittleEndian.Uint64(b)) }
func (a Uint64) Cmp(o Uint64) int {
	switch {
	case a < o:
		return -1
	case a > o:
		return 1
	}
	return 0
}

// Uint128 holds keys of up to 64 symbols. Word 0 is least significant.
type Uint128 [2]uint64

func (a Uint128) Words() int                      { return 2 }
func (a Uint128) Word(i int) uint64               { return a[i] }
func (a Uint128) SetWord(i int, v uint64) Uint128 { a[i] = v; return a }
func (a Uint128) Lo() uint64                      { return a[0] }
func (a Uint128) OrLo(v uint64) Uint128           { a[0] |= v; return a }
func (a Uint128) Shl(n uint) (r Uint128)          { shlWords(r[:], a[:], n); return }
func (a Uint128) Shr(n uint) (r Uint128)          { shrWords(r[:], a[:], n); return }
func (a Uint128) And(o Uint128) Uint128           { return Uint128{a[0] & o[0], a[1] & o[1]} }
func (a Uint128) Or(o Uint128) Uint128            { return Uint128{a[0] | o[0], a[1] | o[1]} }
func (a Uint128) Xor(o Uint128) Uint128           { return Uint128{a[0] ^ o[0], a[1] ^ o[1]} }
func (a Uint128) Not() Uint128                    { return Uint128{^a[0], ^a[1]} }
func (a Uint128) Cmp(o Uint128) int               { return cmpWords(a[:], o[:]) }
func (a Uint128) Hash(seed uint64) uint64         { return hashWords(seed, a[:]) }
func (a Uint128) Put(b []byte)                    { putWords(b, a[:]) }
func (a Uint128) Get(b []byte) (r Uint128)        { getWords(r[:], b); return }

// Uint192 holds keys of up to 96 symbols.
type Uint192 [3]uint64

func (a Uint192) Words() int                      { return 3 }
func (a Uint192) Word(i int) uint64               { return a[i] }
func (a Uint192) SetWord(i int, v uint64) Uint192 { a[i] = v; return a }
func (a Uint192) Lo() uint64                      { return a[0] }
func (a Uint192) OrLo(v uint64) Uint192           { a[0] |= v; return a }
func (a Uint192) Shl(n uint) (r Uint192)          { shlWords(r[:], a[:], n); return }
func (a Uint192) Shr(n uint) (r Uint192)          { shrWords(r[:], a[:], n); return }
func (a Uint192) And(o Uint192) Uint192           { return Uint192{a[0] & o[0], a[1] & o[1], a[2] & o[2]} }
func (a Uint192) Or(o Uint192) Uint192            { return Uint192{a[0] | o[0], a[1] | o[1], a[2] | o[2]} }
func (a Uint192) Xor(o Uint192) Uint192           { return Uint192{a[0] ^ o[0], a[1] ^ o[1], a[2] ^ o[2]} }
func (a Uint192) Not() Uint192                    { return Uint192{^a[0], ^a[1], ^a[2]} }
func (a Uint192) Cmp(o Uint192) int               { return cmpWords(a[:], o[:]) }
func (a Uint192) Hash(seed uint64) uint64         { return hashWords(seed, a[:]) }
func (a Uint192) Put(b []byte)                    { putWords(b, a[:]) }
func (a Uint192) Get(b []byte) (r Uint192)        { getWords(r[:], b); return }

// Uint256 holds keys of up to 128 symbols.
type Uint256 [4]uint64

func (a Uint256) Words() int                      { return 4 }
func (a Uint256) Word(i int) uint64               { return a[i] }
func (a Uint256) SetWord(i int, v uint64) Uint256 { a[i] = v; return a }
func (a Uint256) Lo() uint64                      { return a[0] }
func (a Uint256) OrLo(v uint64) Uint256           { a[0] |= v; return a }
func (a Uint256) Shl(n uint) (r Uint256)          { shlWords(r[:], a[:], n); return }
func (a Uint256) Shr(n uint) (r Uint256)          { shrWords(r[:], a[:], n); return }
func (a Uint256) And(o Uint256) Uint256 {
	return Uint256{a[0] & o[0], a[1] & o[1], a[2] & o[2], a[3] & o[3]}
}
func (a Uint256) Or(o Uint256) Uint256 {
	return Uint256{a[0] | o[0], a[1] | o[1], a[2] | o[2], a[3] | o[3]}
}
func (a Uint256) Xor(o Uint256) Uint256 {
	return Uint256{a[0] ^ o[0], a[1] ^ o[1], a[2] ^ o[2], a[3] ^ o[3]}
}
func (a Uint256) Not() Uint256             { return Uint256{^a[0], ^a[1], ^a[2], ^a[3]} }
func (a Uint256) Cmp(o Uint256) int        { return cmpWords(a[:], o[:]) }
func (a Uint256) Hash(seed uint64) uint64  { return hashWords(seed, a[:]) }
func (a Uint256) Put(b []byte)             { putWords(b, a[:]) }
func (a Uint256) Get(b []byte) (r Uint256) { getWords(r[:], b); return }

func isInteger[T Integer[T]]() {}

var (
	_ = isInteger[Uint64]
	_ = isInteger[Uint128]
	_ = isInteger[Uint192]
	_ = isInteger[Uint256]
)
