package largeint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftAcrossWords(t *testing.T) {
	one := From[Uint256](1)
	for n := uint(0); n < 256; n += 7 {
		v := one.Shl(n)
		assert.Equal(t, uint64(1)<<(n%64), v.Word(int(n/64)), "shl %d", n)
		assert.Equal(t, one, v.Shr(n), "shr %d", n)
	}
	assert.Equal(t, Uint256{}, one.Shl(256))
	assert.Equal(t, Uint256{}, one.Shl(300))

	// carry between words
	assert.Equal(t, Uint128{0, 0xf}, Uint128{0xf000000000000000, 0}.Shl(4))
	assert.Equal(t, Uint128{0xf000000000000000, 0}, Uint128{0, 0xf}.Shr(4))
	assert.Equal(t, Uint192{0, 0, 1}, Uint192{1, 0, 0}.Shl(128))
}

func TestMask(t *testing.T) {
	assert.Equal(t, Uint64(0xff), Mask[Uint64](8))
	assert.Equal(t, ^Uint64(0), Mask[Uint64](64))
	assert.Equal(t, Uint128{^uint64(0), 0x3}, Mask[Uint128](66))
	assert.Equal(t, Uint256{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}, Mask[Uint256](256))
}

func TestCmpIsMostSignificantFirst(t *testing.T) {
	a := Uint192{^uint64(0), 0, 0}
	b := Uint192{0, 1, 0}
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.True(t, Less(a, b))
}

func TestPutGet(t *testing.T) {
	v := Uint256{1, 2, 3, 0xdeadbeef}
	buf := make([]byte, Bytes[Uint256]())
	v.Put(buf)
	require.Equal(t, v, Uint256{}.Get(buf))

	w := Uint64(42)
	b8 := make([]byte, 8)
	w.Put(b8)
	require.Equal(t, w, Uint64(0).Get(b8))
}

func TestHashDependsOnSeed(t *testing.T) {
	v := Uint128{7, 9}
	assert.Equal(t, v.Hash(1), v.Hash(1))
	assert.NotEqual(t, v.Hash(1), v.Hash(2))
	assert.NotEqual(t, Uint64(1).Hash(0), Uint64(2).Hash(0))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "00000000000000010000000000000002", Hex(Uint128{2, 1}))
}

func widthOf[T Integer[T]]() (words, bytes int) {
	var z T
	return z.Words(), Bytes[T]()
}

func TestEveryWidthIsAnInteger(t *testing.T) {
	for want, width := range []func() (int, int){
		widthOf[Uint64], widthOf[Uint128], widthOf[Uint192], widthOf[Uint256],
	} {
		w, b := width()
		assert.Equal(t, want+1, w)
		assert.Equal(t, 8*(want+1), b)
	}
}
