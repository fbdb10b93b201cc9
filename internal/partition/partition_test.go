package partition

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/bank"
	"dbgraph/internal/errs"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

type U = largeint.Uint64

func randomBank(seed uint64, n, length int) bank.Strings {
	r := rand.New(rand.NewPCG(seed, 3))
	out := make(bank.Strings, n)
	for i := range out {
		b := make([]byte, length)
		for j := range b {
			b[j] = kmer.Symbols[r.IntN(4)]
		}
		out[i] = string(b)
	}
	return out
}

func readAll(t *testing.T, p Partition) []U {
	t.Helper()
	r, err := store.Open(p.Path, RecordSize[U]())
	require.NoError(t, err)
	defer r.Close()
	var keys []U
	for r.Next() {
		k, _ := GetRecord[U](r.Record())
		keys = append(keys, k)
	}
	require.NoError(t, r.Err())
	return keys
}

func TestAssignDeterministic(t *testing.T) {
	for m := uint64(0); m < 5000; m += 37 {
		pass, part := Assign(m, 1, 17)
		assert.Zero(t, pass)
		assert.Less(t, part, 17)
		p2, q2 := Assign(m, 1, 17)
		assert.Equal(t, pass, p2)
		assert.Equal(t, part, q2)
	}
}

func TestFillIsTotalAndDeterministic(t *testing.T) {
	md, err := kmer.NewModel[U](21, 7)
	require.NoError(t, err)
	banks := []bank.Bank{randomBank(1, 40, 500), randomBank(2, 10, 300)}

	cfg := Config{Dir: t.TempDir(), Partitions: 8, Workers: 3, ChunkBases: 128}
	set, err := Fill(context.Background(), md, banks, cfg)
	require.NoError(t, err)
	defer set.Remove()

	assert.EqualValues(t, 40*(500-20)+10*(300-20), set.Records())
	require.Len(t, set.Parts, 8)
	for i, p := range set.Parts {
		keys := readAll(t, p)
		assert.EqualValues(t, p.Records, len(keys))
		for _, k := range keys {
			_, part := Assign(md.Minimizer(k), 1, 8)
			require.Equal(t, i, part)
		}
	}

	// same input, same assignment
	cfg.Dir = t.TempDir()
	again, err := Fill(context.Background(), md, banks, cfg)
	require.NoError(t, err)
	defer again.Remove()
	for i := range set.Parts {
		assert.ElementsMatch(t, readAll(t, set.Parts[i]), readAll(t, again.Parts[i]))
	}
}

func TestFillPassesSplitTheInput(t *testing.T) {
	md, err := kmer.NewModel[U](15, 5)
	require.NoError(t, err)
	banks := []bank.Bank{randomBank(5, 20, 200)}
	var total int64
	for pass := 0; pass < 3; pass++ {
		set, err := Fill(context.Background(), md, banks, Config{Dir: t.TempDir(), Partitions: 4, Passes: 3, Pass: pass})
		require.NoError(t, err)
		total += set.Records()
		require.NoError(t, set.Remove())
	}
	assert.EqualValues(t, 20*(200-14), total)
}

func TestFillRecordsBankIndex(t *testing.T) {
	md, err := kmer.NewModel[U](5, 3)
	require.NoError(t, err)
	set, err := Fill(context.Background(), md, []bank.Bank{bank.Strings{"ACGTA"}, bank.Strings{"CCCCC"}}, Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer set.Remove()

	r, err := store.Open(set.Parts[0].Path, RecordSize[U]())
	require.NoError(t, err)
	defer r.Close()
	banks := map[U]uint16{}
	for r.Next() {
		k, b := GetRecord[U](r.Record())
		banks[k] = b
	}
	require.NoError(t, r.Err())
	assert.Equal(t, map[U]uint16{
		mustCanon(t, md, "ACGTA"): 0,
		mustCanon(t, md, "CCCCC"): 1,
	}, banks)
}

func mustCanon(t *testing.T, md *kmer.Model[U], s string) U {
	t.Helper()
	v, err := md.Encode([]byte(s))
	require.NoError(t, err)
	c, _ := md.Canonical(v)
	return c
}

func TestFillAbortLeavesNoFiles(t *testing.T) {
	md, err := kmer.NewModel[U](5, 3)
	require.NoError(t, err)
	dir := t.TempDir()
	_, err = Fill(context.Background(), md, []bank.Bank{bank.Strings{"ACGTACGT", "ACGNNACG"}},
		Config{Dir: dir, Partitions: 4, Policy: kmer.AbortOnInvalid})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidSymbol))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFillCancelled(t *testing.T) {
	md, err := kmer.NewModel[U](11, 5)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fill(ctx, md, []bank.Bank{randomBank(9, 10, 100)}, Config{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func recordCost(p Partition) uint64 { return uint64(p.Records) * 8 }

func TestBuildRescansWithLargerP(t *testing.T) {
	md, err := kmer.NewModel[U](15, 6)
	require.NoError(t, err)
	banks := []bank.Bank{randomBank(11, 50, 400)}
	total := int64(50 * (400 - 14))

	set, err := Build(context.Background(), md, banks, Config{Dir: t.TempDir(), Partitions: 2}, Limits{
		Budget:        uint64(total) * 8 / 6,
		Cost:          recordCost,
		MaxPartitions: 64,
		MaxRescans:    3,
		MaxDepth:      4,
	})
	require.NoError(t, err)
	defer set.Remove()
	assert.Greater(t, set.Partitions, 2)
	assert.Equal(t, total, set.Records())
	for _, p := range set.Parts {
		assert.LessOrEqual(t, recordCost(p), uint64(total)*8/6)
	}
}

func TestBuildSubdividesAtMaxPartitions(t *testing.T) {
	md, err := kmer.NewModel[U](15, 6)
	require.NoError(t, err)
	banks := []bank.Bank{randomBank(12, 30, 300)}
	total := int64(30 * (300 - 14))
	budget := uint64(total) * 8 / 5

	set, err := Build(context.Background(), md, banks, Config{Dir: t.TempDir(), Partitions: 1}, Limits{
		Budget: budget, Cost: recordCost, MaxPartitions: 1, Fanout: 4, MaxDepth: 3,
	})
	require.NoError(t, err)
	defer set.Remove()
	assert.Equal(t, total, set.Records())
	depthSeen := false
	for _, p := range set.Parts {
		assert.LessOrEqual(t, recordCost(p), budget)
		depthSeen = depthSeen || p.Depth > 0
	}
	assert.True(t, depthSeen)
}

func TestBuildOverflow(t *testing.T) {
	md, err := kmer.NewModel[U](5, 3)
	require.NoError(t, err)
	dir := t.TempDir()
	// repeats of a single k-mer cannot be split by minimizer
	_, err = Build(context.Background(), md, []bank.Bank{bank.Strings{"ACGTAACGTAACGTAACGTA"}}, Config{Dir: dir}, Limits{
		Budget: 8, Cost: recordCost, MaxPartitions: 1, Fanout: 2, MaxDepth: 2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPartitionOverflow)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestSketchEstimate(t *testing.T) {
	var s sketch
	assert.Zero(t, s.estimate())
	for i := 0; i < 20000; i++ {
		s.add(U(i).Hash(seedSketch))
		s.add(U(i).Hash(seedSketch))
	}
	assert.InEpsilon(t, 20000, float64(s.estimate()), 0.1)
}

func TestBuildReachesMaxPartitionsBeforeSubdividing(t *testing.T) {
	md, err := kmer.NewModel[U](15, 6)
	require.NoError(t, err)
	banks := []bank.Bank{randomBank(13, 40, 400)}
	total := int64(40 * (400 - 14))

	set, err := Build(context.Background(), md, banks, Config{Dir: t.TempDir(), Partitions: 2}, Limits{
		Budget:        uint64(total) * 8 / 3,
		Cost:          recordCost,
		MaxPartitions: 16,
		MaxRescans:    1,
		MaxDepth:      4,
	})
	require.NoError(t, err)
	defer set.Remove()
	assert.Equal(t, 16, set.Partitions)
	assert.Equal(t, total, set.Records())
}
