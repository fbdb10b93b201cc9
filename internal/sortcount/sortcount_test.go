package sortcount

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/bank"
	"dbgraph/internal/count"
	"dbgraph/internal/errs"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

type U = largeint.Uint64

func readTable[K largeint.Integer[K]](t *testing.T, path string) ([]K, []uint32) {
	t.Helper()
	r, err := store.Open(path, SolidRecordSize[K]())
	require.NoError(t, err)
	defer r.Close()
	var keys []K
	var ab []uint32
	for r.Next() {
		k, a := GetSolid[K](r.Record())
		keys = append(keys, k)
		ab = append(ab, a)
	}
	require.NoError(t, r.Err())
	return keys, ab
}

func TestSingleKmerFourTimes(t *testing.T) {
	const seq = "AAAAACTACATTACCCGTTTGCGAGACAGGTA"
	md, err := kmer.NewModel[U](32, 0)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "solid.kmers")

	res, err := Run(context.Background(), md, []bank.Bank{bank.Strings{seq, seq, seq, seq}}, Config{Out: out, AbundanceMin: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Distinct)
	assert.EqualValues(t, 4, res.Total)
	assert.EqualValues(t, 1, res.Solid)
	assert.EqualValues(t, 1, res.Histogram[4])

	keys, ab := readTable[U](t, out)
	v, err := md.Encode([]byte(seq))
	require.NoError(t, err)
	c, _ := md.Canonical(v)
	assert.Equal(t, []U{c}, keys)
	assert.Equal(t, []uint32{4}, ab)
}

func randomBanks(seed uint64, nb, n, length int) []bank.Bank {
	r := rand.New(rand.NewPCG(seed, 5))
	// a small pool of reads repeated to create abundance > 1
	pool := make([]string, n/3+1)
	for i := range pool {
		b := make([]byte, length)
		for j := range b {
			b[j] = kmer.Symbols[r.IntN(4)]
		}
		pool[i] = string(b)
	}
	out := make([]bank.Bank, nb)
	for bi := range out {
		s := make(bank.Strings, n)
		for i := range s {
			s[i] = pool[r.IntN(len(pool))]
		}
		out[bi] = s
	}
	return out
}

// naive counts every canonical k-mer per bank in memory.
func naive[K largeint.Integer[K]](md *kmer.Model[K], banks []bank.Bank) map[K][]uint32 {
	out := map[K][]uint32{}
	it := md.Iterator(kmer.SkipInvalid)
	for bi, b := range banks {
		_ = b.Iterate(context.Background(), func(s bank.Sequence) error {
			it.Reset(s.Data)
			for it.Next() {
				km := it.Kmer()
				if out[km.Value] == nil {
					out[km.Value] = make([]uint32, len(banks))
				}
				out[km.Value][bi]++
			}
			return nil
		})
	}
	return out
}

func TestMergeMatchesNaiveAcrossThresholds(t *testing.T) {
	md, err := kmer.NewModel[U](21, 7)
	require.NoError(t, err)
	banks := randomBanks(1, 1, 300, 120)
	want := naive(md, banks)

	configs := []Config{
		{Partitions: 1},
		{Partitions: 7, Workers: 3},
		{Partitions: 5, Passes: 3, Workers: 2, Strategy: count.Vector},
		{Passes: 2, Workers: 4, Strategy: count.Hash, Budget: 1 << 20},
	}
	for ci, cfg := range configs {
		for _, lo := range []uint32{1, 2, 3, 5} {
			cfg := cfg
			cfg.AbundanceMin = lo
			cfg.Out = filepath.Join(t.TempDir(), "solid.kmers")
			res, err := Run(context.Background(), md, banks, cfg)
			require.NoError(t, err, "config %d", ci)

			keys, ab := readTable[U](t, cfg.Out)
			var exp int
			for _, c := range want {
				if c[0] >= lo {
					exp++
				}
			}
			require.Len(t, keys, exp, "config %d min %d", ci, lo)
			for i, k := range keys {
				if i > 0 {
					require.Negative(t, keys[i-1].Cmp(k))
				}
				require.Equal(t, want[k][0], ab[i])
			}
			assert.EqualValues(t, len(want), res.Distinct)
			assert.EqualValues(t, exp, res.Solid)
		}
	}
}

func TestSolidityKinds(t *testing.T) {
	md, err := kmer.NewModel[U](5, 3)
	require.NoError(t, err)
	// ACGTC appears twice in bank 0; GGGCA twice in bank 0 and once in bank 1
	banks := []bank.Bank{
		bank.Strings{"ACGTC", "ACGTC", "GGGCA", "GGGCA"},
		bank.Strings{"GGGCA", "TTTAT"},
	}
	enc := func(s string) U {
		v, err := md.Encode([]byte(s))
		require.NoError(t, err)
		c, _ := md.Canonical(v)
		return c
	}
	cases := []struct {
		kind Solidity
		want map[U]uint32
	}{
		{SolidSum, map[U]uint32{enc("ACGTC"): 2, enc("GGGCA"): 3}},
		{SolidMin, map[U]uint32{}},
		{SolidMax, map[U]uint32{enc("ACGTC"): 2, enc("GGGCA"): 3}},
		{SolidOne, map[U]uint32{enc("ACGTC"): 2, enc("GGGCA"): 3}},
		{SolidAll, map[U]uint32{}},
	}
	for _, tc := range cases {
		out := filepath.Join(t.TempDir(), "solid")
		_, err := Run(context.Background(), md, banks, Config{Out: out, AbundanceMin: 2, Solidity: tc.kind})
		require.NoError(t, err, tc.kind.String())
		keys, ab := readTable[U](t, out)
		got := map[U]uint32{}
		for i, k := range keys {
			got[k] = ab[i]
		}
		assert.Equal(t, tc.want, got, tc.kind.String())
	}

	// with the lower bound at 1, min and all keep only the shared k-mer
	out := filepath.Join(t.TempDir(), "solid")
	_, err = Run(context.Background(), md, banks, Config{Out: out, AbundanceMin: 1, Solidity: SolidAll})
	require.NoError(t, err)
	keys, _ := readTable[U](t, out)
	assert.Equal(t, []U{enc("GGGCA")}, keys)
}

func TestAbundanceMax(t *testing.T) {
	md, err := kmer.NewModel[U](5, 3)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "solid")
	res, err := Run(context.Background(), md, []bank.Bank{bank.Strings{"ACGTC", "ACGTC", "ACGTC", "GGGCA"}},
		Config{Out: out, AbundanceMin: 1, AbundanceMax: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Distinct)
	assert.EqualValues(t, 1, res.Solid)
}

func TestAutoCutoff(t *testing.T) {
	md, err := kmer.NewModel[U](15, 5)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(9, 9))
	genome := make([]byte, 2000)
	for i := range genome {
		genome[i] = kmer.Symbols[r.IntN(4)]
	}
	// 10x coverage of error-free reads plus a few reads with one error each
	var reads bank.Strings
	for i := 0; i < 10; i++ {
		reads = append(reads, string(genome))
	}
	for i := 0; i < 20; i++ {
		read := []byte(string(genome[i*50 : i*50+100]))
		read[50] = "ACGT"[(strings.IndexByte("ACGT", read[50])+1)%4]
		reads = append(reads, string(read))
	}
	out := filepath.Join(t.TempDir(), "solid")
	res, err := Run(context.Background(), md, []bank.Bank{reads}, Config{Out: out})
	require.NoError(t, err)
	assert.True(t, res.AutoCutoff)
	assert.GreaterOrEqual(t, res.Cutoff, uint32(2))
	assert.LessOrEqual(t, res.Cutoff, uint32(10))
	// every genome k-mer survives, no error k-mer does
	assert.EqualValues(t, len(genome)-14, res.Solid)
}

func TestHistogramCutoff(t *testing.T) {
	h := NewHistogram(10)
	for i, n := range []uint64{0, 900, 300, 40, 60, 80, 50, 10} {
		h[i] = n
	}
	assert.EqualValues(t, 3, h.Cutoff(2))
	assert.EqualValues(t, 5, h.Cutoff(5))

	flat := NewHistogram(10)
	flat[1] = 10
	assert.EqualValues(t, 2, flat.Cutoff(2))

	h.Add(1 << 20)
	assert.EqualValues(t, 1, h[10])
}

func TestConfigurePartitions(t *testing.T) {
	assert.Equal(t, 4, ConfigurePartitions(1000, 16, 1, 4, 0, 100))
	assert.Equal(t, 17, ConfigurePartitions(1_000_000, 16, 1, 1, 1_000_000, 100))
	assert.Equal(t, 9, ConfigurePartitions(1_000_000, 16, 2, 1, 1_000_000, 100))
	assert.Equal(t, 100, ConfigurePartitions(1<<40, 16, 1, 8, 1<<20, 100))
}

func TestMergeSumsDuplicates(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, keys []U, counts [][]uint32) string {
		p := filepath.Join(dir, name)
		w, err := store.Create(p, count.RecordSize[U](2))
		require.NoError(t, err)
		buf := make([]byte, count.RecordSize[U](2))
		for i, k := range keys {
			count.PutRecord(buf, k, counts[i])
			require.NoError(t, w.Append(buf))
		}
		require.NoError(t, w.Seal())
		return p
	}
	a := write("a", []U{1, 3, 5}, [][]uint32{{1, 0}, {2, 1}, {0, 4}})
	b := write("b", []U{2, 3}, [][]uint32{{1, 1}, {1, 1}})
	c := write("c", nil, nil)

	var keys []U
	var sums [][]uint32
	err := merge(context.Background(), []string{a, b, c}, 2, func(k U, cs []uint32) error {
		keys = append(keys, k)
		sums = append(sums, append([]uint32(nil), cs...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []U{1, 2, 3, 5}, keys)
	assert.Equal(t, [][]uint32{{1, 0}, {1, 1}, {3, 2}, {0, 4}}, sums)
}

type failing struct{}

func (failing) Strategy() count.Strategy { return count.Auto }
func (failing) Count(context.Context, count.Input) (count.Output, error) {
	return count.Output{}, errors.New("no space left on device")
}

func TestFailedRunLeavesNoTable(t *testing.T) {
	md, err := kmer.NewModel[U](11, 5)
	require.NoError(t, err)
	dir := t.TempDir()
	out := filepath.Join(dir, "solid")
	alg := &Algorithm[U]{
		Model:      md,
		Config:     Config{Out: out, Partitions: 3, AbundanceMin: 1},
		NewCounter: func(count.Strategy) count.Counter[U] { return failing{} },
	}
	_, err = alg.Run(context.Background(), randomBanks(3, 1, 20, 60))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPartitionFailed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSolidityParse(t *testing.T) {
	s, err := ParseSolidity("ALL")
	require.NoError(t, err)
	assert.Equal(t, SolidAll, s)
	_, err = ParseSolidity("most")
	assert.Error(t, err)
}
