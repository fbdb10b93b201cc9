// internal/debloom/stages.go
package debloom

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/twotwotwo/sorts"

	"dbgraph/internal/bloom"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/sortcount"
	"dbgraph/internal/store"
)

const ctxCheckEvery = 1 << 14

// shard runs fn on contiguous ranges of the solid table, one goroutine per
// range. fn receives every key of its range in order.
func shard[K largeint.Integer[K]](ctx context.Context, path string, n int64, workers int, fn func(shard int, key K) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ranges := store.Ranges(n, workers)
	errc := make([]error, len(ranges))
	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, rg := range ranges {
		go func() {
			defer wg.Done()
			errc[i] = func() error {
				r, err := store.OpenRange(path, sortcount.SolidRecordSize[K](), rg[0], rg[1])
				if err != nil {
					return err
				}
				defer r.Close()
				for j := 0; r.Next(); j++ {
					if j%ctxCheckEvery == 0 {
						if err := ctx.Err(); err != nil {
							return err
						}
					}
					key, _ := sortcount.GetSolid[K](r.Record())
					if err := fn(i, key); err != nil {
						return err
					}
				}
				return r.Err()
			}()
			if errc[i] != nil {
				cancel()
			}
		}()
	}
	wg.Wait()
	if err := errors.Join(errc...); err != nil {
		return err
	}
	return ctx.Err()
}

func fill[K largeint.Integer[K]](ctx context.Context, f *bloom.Filter[K], path string, n int64, workers int) error {
	return shard(ctx, path, n, workers, func(_ int, key K) error {
		f.Insert(key)
		return nil
	})
}

// selfCheck verifies that every solid key tests positive.
func selfCheck[K largeint.Integer[K]](ctx context.Context, f *bloom.Filter[K], path string, n int64, workers int) error {
	return shard(ctx, path, n, workers, func(_ int, key K) error {
		if !f.Test(key) {
			return fmt.Errorf("debloom: bloom filter rejects solid k-mer %s", largeint.Hex(key))
		}
		return nil
	})
}

type keySlice[K largeint.Integer[K]] []K

func (s keySlice[K]) Len() int           { return len(s) }
func (s keySlice[K]) Less(i, j int) bool { return s[i].Cmp(s[j]) < 0 }
func (s keySlice[K]) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// sortDedup sorts keys and drops repeats in place.
func sortDedup[K largeint.Integer[K]](keys []K) []K {
	sorts.Quicksort(keySlice[K](keys))
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}

// defaultSpillKeys bounds the candidates a shard buffers before it writes
// a sorted run.
const defaultSpillKeys = 1 << 20

// criticalKmers enumerates the neighbors of every solid key that the filter
// accepts, and returns those that are not solid themselves, sorted.
// Each shard buffers at most spillKeys candidates; a full buffer is sorted,
// deduplicated and written as a run to a scratch file. The runs are merged
// against the solid table.
func criticalKmers[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], f *bloom.Filter[K], path string, n int64, workers, spillKeys int, dir string) ([]K, error) {
	if spillKeys <= 0 {
		spillKeys = defaultSpillKeys
	}
	scratch, err := os.MkdirTemp(dir, ".debloom-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	ranges := store.Ranges(n, workers)
	cands := make([][]K, len(ranges))
	nbuf := make([][]K, len(ranges))
	runs := make([][]string, len(ranges))
	spill := func(s int) error {
		if len(cands[s]) == 0 {
			return nil
		}
		p := filepath.Join(scratch, fmt.Sprintf("cand.%d.%d", s, len(runs[s])))
		if err := writeRun(p, sortDedup(cands[s])); err != nil {
			return err
		}
		runs[s] = append(runs[s], p)
		cands[s] = cands[s][:0]
		return nil
	}
	err = shard(ctx, path, n, workers, func(s int, key K) error {
		nbuf[s] = md.Neighbors(nbuf[s][:0], key)
		for _, c := range nbuf[s] {
			if f.Test(c) {
				cands[s] = append(cands[s], c)
			}
		}
		if len(cands[s]) >= spillKeys {
			return spill(s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for s := range cands {
		if err := spill(s); err != nil {
			return nil, err
		}
		cands[s] = nil
		files = append(files, runs[s]...)
	}
	return difference[K](ctx, files, path)
}

func writeRun[K largeint.Integer[K]](path string, keys []K) error {
	size := largeint.Bytes[K]()
	w, err := store.Create(path, size)
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	for _, k := range keys {
		k.Put(buf)
		if err := w.Append(buf); err != nil {
			_ = w.Abort()
			return err
		}
	}
	return w.Seal()
}

type cursor[K largeint.Integer[K]] struct {
	r   *store.Reader
	key K
}

type cursorHeap[K largeint.Integer[K]] []*cursor[K]

func (h cursorHeap[K]) Len() int           { return len(h) }
func (h cursorHeap[K]) Less(i, j int) bool { return h[i].key.Cmp(h[j].key) < 0 }
func (h cursorHeap[K]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap[K]) Push(x any)        { *h = append(*h, x.(*cursor[K])) }
func (h *cursorHeap[K]) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// difference merges sorted candidate files, dropping duplicates, and
// returns the keys absent from the sorted solid table.
func difference[K largeint.Integer[K]](ctx context.Context, files []string, solidPath string) (out []K, err error) {
	var open []*store.Reader
	defer func() {
		for _, r := range open {
			_ = r.Close()
		}
	}()
	var z K
	h := make(cursorHeap[K], 0, len(files))
	for _, p := range files {
		r, err := store.Open(p, largeint.Bytes[K]())
		if err != nil {
			return nil, err
		}
		open = append(open, r)
		if r.Next() {
			h = append(h, &cursor[K]{r: r, key: z.Get(r.Record())})
		} else if err := r.Err(); err != nil {
			return nil, err
		}
	}
	heap.Init(&h)

	solid, err := store.Open(solidPath, sortcount.SolidRecordSize[K]())
	if err != nil {
		return nil, err
	}
	open = append(open, solid)
	var (
		skey  K
		sdone bool
	)
	advanceSolid := func() {
		if solid.Next() {
			skey, _ = sortcount.GetSolid[K](solid.Record())
		} else {
			sdone = true
		}
	}
	advanceSolid()

	for n := 0; h.Len() > 0; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		key := h[0].key
		for h.Len() > 0 && h[0].key == key {
			c := h[0]
			if c.r.Next() {
				c.key = z.Get(c.r.Record())
				heap.Fix(&h, 0)
				continue
			}
			if err := c.r.Err(); err != nil {
				return nil, err
			}
			heap.Pop(&h)
		}
		for !sdone && skey.Cmp(key) < 0 {
			advanceSolid()
		}
		if sdone || skey != key {
			out = append(out, key)
		}
	}
	if err := solid.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
