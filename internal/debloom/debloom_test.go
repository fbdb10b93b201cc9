package debloom

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/bloom"
	"dbgraph/internal/errs"
	"dbgraph/internal/index"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/mphf"
	"dbgraph/internal/sortcount"
	"dbgraph/internal/store"
	"dbgraph/pkg/api"
)

type U = largeint.Uint64

// writeSolid writes the canonical k-mers of a random genome as a solid
// table in dir and returns them sorted.
func writeSolid(t *testing.T, md *kmer.Model[U], dir string, seed uint64, length int) []U {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 2))
	g := make([]byte, length)
	for i := range g {
		g[i] = kmer.Symbols[r.IntN(4)]
	}
	seen := map[U]bool{}
	it := md.Iterator(kmer.SkipInvalid)
	it.Reset(g)
	var keys []U
	for it.Next() {
		if k := it.Kmer().Value; !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	w, err := store.Create(filepath.Join(dir, index.SolidFile), sortcount.SolidRecordSize[U]())
	require.NoError(t, err)
	buf := make([]byte, sortcount.SolidRecordSize[U]())
	for _, k := range keys {
		sortcount.PutSolid(buf, k, 3)
		require.NoError(t, w.Append(buf))
	}
	require.NoError(t, w.Seal())
	return keys
}

func TestCriticalSetMakesNeighborsExact(t *testing.T) {
	md, err := kmer.NewModel[U](15, 0)
	require.NoError(t, err)
	dir := t.TempDir()
	keys := writeSolid(t, md, dir, 1, 5000)

	// a loose filter guarantees plenty of false positives to correct
	res, err := Run(context.Background(), md, Config{Dir: dir, FPRate: 0.2, Workers: 3,
		Manifest: api.ManifestV1{RunID: "test"}})
	require.NoError(t, err)
	assert.EqualValues(t, len(keys), res.Solid)
	assert.Positive(t, res.Critical)

	f, err := bloom.Load[U](filepath.Join(dir, index.BloomFile))
	require.NoError(t, err)
	crit, err := mphf.LoadSet[U](filepath.Join(dir, index.CriticalFile))
	require.NoError(t, err)
	assert.EqualValues(t, res.Critical, crit.Len())

	solid := map[U]bool{}
	for _, k := range keys {
		solid[k] = true
	}
	contains := func(k U) bool {
		if !f.Test(k) {
			return false
		}
		found, exact := crit.Lookup(k)
		return !found || exact
	}
	var nb []U
	for _, k := range keys {
		require.True(t, contains(k))
		nb = md.Neighbors(nb[:0], k)
		for _, n := range nb {
			require.Equal(t, solid[n], contains(n), md.Decode(n))
		}
	}
	for _, c := range crit.Keys() {
		assert.False(t, solid[c])
	}

	m, err := index.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "test", m.RunID)
	assert.Equal(t, 15, m.K)
	assert.Equal(t, res.Critical, m.CriticalKmers)
	assert.Equal(t, res.BloomBits, m.BloomBits)
}

func TestRelaxesOnceOverBudget(t *testing.T) {
	md, err := kmer.NewModel[U](21, 0)
	require.NoError(t, err)
	dir := t.TempDir()
	keys := writeSolid(t, md, dir, 2, 1020)

	full := bloom.Size(uint64(len(keys)), bloom.BitsPerKmer(21)).Bytes()
	res, err := Run(context.Background(), md, Config{Dir: dir, Budget: full - 64})
	require.NoError(t, err)
	assert.True(t, res.Relaxed)
	assert.Less(t, res.BitsPerKmer, bloom.BitsPerKmer(21))
	assert.LessOrEqual(t, (res.BloomBits+63)/64*8, full-64)
}

func TestAllocationFailureWritesNothing(t *testing.T) {
	md, err := kmer.NewModel[U](21, 0)
	require.NoError(t, err)
	dir := t.TempDir()
	writeSolid(t, md, dir, 3, 1020)

	_, err = Run(context.Background(), md, Config{Dir: dir, Budget: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAllocationFailed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, index.SolidFile, entries[0].Name())

	_, err = index.ReadManifest(dir)
	assert.ErrorIs(t, err, errs.ErrIncompleteIndex)
}

func TestEmptySolidTable(t *testing.T) {
	md, err := kmer.NewModel[U](21, 0)
	require.NoError(t, err)
	dir := t.TempDir()
	w, err := store.Create(filepath.Join(dir, index.SolidFile), sortcount.SolidRecordSize[U]())
	require.NoError(t, err)
	require.NoError(t, w.Seal())

	res, err := Run(context.Background(), md, Config{Dir: dir, Workers: 4})
	require.NoError(t, err)
	assert.Zero(t, res.Solid)
	assert.Zero(t, res.Critical)
	_, err = index.ReadManifest(dir)
	assert.NoError(t, err)
}

func TestDifferenceDropsSolidAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, keys ...U) string {
		p := filepath.Join(dir, name)
		w, err := store.Create(p, 8)
		require.NoError(t, err)
		buf := make([]byte, 8)
		for _, k := range keys {
			k.Put(buf)
			require.NoError(t, w.Append(buf))
		}
		require.NoError(t, w.Seal())
		return p
	}
	solid := filepath.Join(dir, "solid")
	w, err := store.Create(solid, sortcount.SolidRecordSize[U]())
	require.NoError(t, err)
	buf := make([]byte, sortcount.SolidRecordSize[U]())
	for _, k := range []U{2, 4, 9} {
		sortcount.PutSolid(buf, k, 1)
		require.NoError(t, w.Append(buf))
	}
	require.NoError(t, w.Seal())

	got, err := difference[U](context.Background(), []string{write("a", 1, 2, 5), write("b", 1, 3, 4, 10), write("c")}, solid)
	require.NoError(t, err)
	assert.Equal(t, []U{1, 3, 5, 10}, got)
}

func TestSpilledRunsGiveSameCriticalSet(t *testing.T) {
	md, err := kmer.NewModel[U](15, 0)
	require.NoError(t, err)
	dir := t.TempDir()
	writeSolid(t, md, dir, 4, 3000)
	n, err := store.Len(filepath.Join(dir, index.SolidFile), sortcount.SolidRecordSize[U]())
	require.NoError(t, err)

	f := bloom.New[U](bloom.Size(uint64(n), bloom.BitsForRate(0.2)), bloom.DefaultSeed)
	solidPath := filepath.Join(dir, index.SolidFile)
	require.NoError(t, fill(context.Background(), f, solidPath, n, 3))

	whole, err := criticalKmers(context.Background(), md, f, solidPath, n, 3, 0, dir)
	require.NoError(t, err)
	require.NotEmpty(t, whole)

	// a tiny buffer makes every shard write many runs with repeats across them
	runs, err := criticalKmers(context.Background(), md, f, solidPath, n, 3, 5, dir)
	require.NoError(t, err)
	assert.Equal(t, whole, runs)
	for i := 1; i < len(runs); i++ {
		require.Negative(t, runs[i-1].Cmp(runs[i]))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "scratch runs left behind")
}
