package kmer

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/errs"
	"dbgraph/internal/largeint"
)

func collect[K largeint.Integer[K]](it *Iterator[K], seq []byte) []Kmer[K] {
	it.Reset(seq)
	var out []Kmer[K]
	for it.Next() {
		out = append(out, it.Kmer())
	}
	return out
}

func iteratorMatchesModel[K largeint.Integer[K]](t *testing.T, k, m int) {
	t.Helper()
	md, err := NewModel[K](k, m)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(uint64(k), uint64(m)))
	// low-complexity tail exercises the AA rule and minimizer expiry
	seq := append(randomSeq(r, 300), []byte("AAAAAAAAAAAAAAAAAAAAACAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")...)
	it := md.Iterator(SkipInvalid)
	got := collect(it, seq)
	require.Len(t, got, len(seq)-k+1)
	for i, km := range got {
		assert.Equal(t, i, km.Pos)
		v, err := md.Encode(seq[i : i+k])
		require.NoError(t, err)
		c, s := md.Canonical(v)
		require.Equal(t, c, km.Value, "pos %d", i)
		require.Equal(t, s, km.Strand, "pos %d", i)
		require.Equal(t, md.Minimizer(c), km.Minimizer, "pos %d", i)
	}
	require.NoError(t, it.Err())

	// restartable: a second pass yields the same windows
	assert.Equal(t, got, collect(it, seq))
}

func TestIteratorMatchesModel(t *testing.T) {
	iteratorMatchesModel[largeint.Uint64](t, 21, 8)
	iteratorMatchesModel[largeint.Uint64](t, 32, 10)
	iteratorMatchesModel[largeint.Uint64](t, 9, 3)
	iteratorMatchesModel[largeint.Uint128](t, 47, 11)
	iteratorMatchesModel[largeint.Uint256](t, 101, 8)
}

func TestIteratorSkipInvalid(t *testing.T) {
	md, err := NewModel[largeint.Uint64](4, 2)
	require.NoError(t, err)
	got := collect(md.Iterator(SkipInvalid), []byte("ACGTNACGTAC"))
	var pos []int
	for _, km := range got {
		pos = append(pos, km.Pos)
	}
	assert.Equal(t, []int{0, 5, 6, 7}, pos)
}

func TestIteratorAbortOnInvalid(t *testing.T) {
	md, err := NewModel[largeint.Uint64](4, 2)
	require.NoError(t, err)
	it := md.Iterator(AbortOnInvalid)
	got := collect(it, []byte("ACGTANCGT"))
	assert.Len(t, got, 2)
	require.Error(t, it.Err())
	assert.True(t, errors.Is(it.Err(), errs.ErrInvalidSymbol))
	var ise *InvalidSymbolError
	require.ErrorAs(t, it.Err(), &ise)
	assert.Equal(t, 5, ise.Pos)

	it.Reset([]byte("ACGTA"))
	assert.True(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestIteratorShortSequence(t *testing.T) {
	md, err := NewModel[largeint.Uint64](8, 3)
	require.NoError(t, err)
	assert.Empty(t, collect(md.Iterator(SkipInvalid), []byte("ACGT")))
	assert.Empty(t, collect(md.Iterator(SkipInvalid), nil))
}
