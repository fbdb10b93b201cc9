package kmer

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/errs"
	"dbgraph/internal/largeint"
)

func randomSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = Symbols[r.IntN(4)]
	}
	return s
}

func TestEncodeLayout(t *testing.T) {
	md, err := NewModel[largeint.Uint64](4, 2)
	require.NoError(t, err)
	v, err := md.Encode([]byte("ACTG"))
	require.NoError(t, err)
	assert.Equal(t, largeint.Uint64(0b00011011), v)

	v, err = md.Encode([]byte("acTg"))
	require.NoError(t, err)
	assert.Equal(t, largeint.Uint64(0b00011011), v)
	assert.Equal(t, "ACTG", md.Decode(v))
}

func TestEncodeInvalidSymbol(t *testing.T) {
	md, err := NewModel[largeint.Uint64](5, 3)
	require.NoError(t, err)
	_, err = md.Encode([]byte("ACNGT"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidSymbol))
	var ise *InvalidSymbolError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 2, ise.Pos)
	assert.Equal(t, byte('N'), ise.Symbol)

	_, err = md.Encode([]byte("ACG"))
	assert.Error(t, err)
}

func TestNewModelBounds(t *testing.T) {
	_, err := NewModel[largeint.Uint64](33, 8)
	assert.Error(t, err)
	_, err = NewModel[largeint.Uint128](64, 8)
	assert.NoError(t, err)
	_, err = NewModel[largeint.Uint64](8, 8)
	assert.Error(t, err)

	md, err := NewModel[largeint.Uint64](5, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, md.MinimizerSize())
}

func canonicalSymmetry[K largeint.Integer[K]](t *testing.T, k int) {
	t.Helper()
	md, err := NewModel[K](k, 0)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(uint64(k), 7))
	for i := 0; i < 200; i++ {
		seq := randomSeq(r, k)
		fwd, err := md.Encode(seq)
		require.NoError(t, err)
		rev, err := md.Encode(ReverseComplementSeq(seq))
		require.NoError(t, err)

		assert.Equal(t, rev, md.ReverseComplement(fwd))
		assert.Equal(t, fwd, md.ReverseComplement(md.ReverseComplement(fwd)))

		cf, sf := md.Canonical(fwd)
		cr, sr := md.Canonical(rev)
		assert.Equal(t, cf, cr)
		if fwd != rev {
			assert.NotEqual(t, sf, sr)
		}
		assert.Equal(t, md.Minimizer(fwd), md.Minimizer(rev))
	}
}

func TestCanonicalSymmetryAllWidths(t *testing.T) {
	canonicalSymmetry[largeint.Uint64](t, 5)
	canonicalSymmetry[largeint.Uint64](t, 31)
	canonicalSymmetry[largeint.Uint64](t, 32)
	canonicalSymmetry[largeint.Uint128](t, 33)
	canonicalSymmetry[largeint.Uint128](t, 64)
	canonicalSymmetry[largeint.Uint192](t, 65)
	canonicalSymmetry[largeint.Uint192](t, 96)
	canonicalSymmetry[largeint.Uint256](t, 97)
	canonicalSymmetry[largeint.Uint256](t, 128)
}

func roundTripAtMax[K largeint.Integer[K]](t *testing.T) {
	t.Helper()
	k := MaxK[K]()
	md, err := NewModel[K](k, 0)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(uint64(k), 1))
	for i := 0; i < 50; i++ {
		seq := randomSeq(r, k)
		v, err := md.Encode(seq)
		require.NoError(t, err)
		require.Equal(t, string(seq), md.Decode(v))
	}
	// first symbol G lands in the top pair of the last word
	seq := bytes.Repeat([]byte{'A'}, k)
	seq[0] = 'G'
	v, err := md.Encode(seq)
	require.NoError(t, err)
	assert.Equal(t, uint64(3)<<62, v.Word(v.Words()-1))
}

func TestEncodeDecodeAtWidthBoundary(t *testing.T) {
	roundTripAtMax[largeint.Uint64](t)
	roundTripAtMax[largeint.Uint128](t)
	roundTripAtMax[largeint.Uint192](t)
	roundTripAtMax[largeint.Uint256](t)
}

func TestPalindromeIsForward(t *testing.T) {
	md, err := NewModel[largeint.Uint64](4, 2)
	require.NoError(t, err)
	v, err := md.Encode([]byte("ACGT"))
	require.NoError(t, err)
	c, s := md.Canonical(v)
	assert.Equal(t, v, c)
	assert.Equal(t, Forward, s)
}

func TestMinimizerSkipsInnerAA(t *testing.T) {
	md, err := NewModel[largeint.Uint64](4, 3)
	require.NoError(t, err)
	cases := map[string]uint64{
		"CAAC": 1,  // AAC (leading AA allowed) beats CAA
		"GCAA": 45, // CAA=16 is smaller but holds an inner AA; TGC wins
		"AAAA": 0,  // every window rejected, plain minimum
	}
	for s, want := range cases {
		v, err := md.Encode([]byte(s))
		require.NoError(t, err)
		assert.Equal(t, want, md.Minimizer(v), s)
	}
}

func TestReverseComplementSeq(t *testing.T) {
	assert.Equal(t, []byte("GACT"), ReverseComplementSeq([]byte("AGTC")))
	assert.Equal(t, []byte("NacgT"), ReverseComplementSeq([]byte("AcgtX")))
	assert.Nil(t, ReverseComplementSeq(nil))
}
