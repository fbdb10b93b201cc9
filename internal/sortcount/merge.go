// internal/sortcount/merge.go
package sortcount

import (
	"container/heap"
	"context"
	"errors"

	"dbgraph/internal/count"
	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

type cursor[K largeint.Integer[K]] struct {
	r      *store.Reader
	key    K
	counts []uint32
}

func (c *cursor[K]) advance() bool {
	if !c.r.Next() {
		return false
	}
	c.key = count.GetRecord[K](c.r.Record(), c.counts)
	return true
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

// merge streams the union of sorted count files in key order. A key present
// in several files is reported once with its counts summed. counts is only
// valid during the call.
func merge[K largeint.Integer[K]](ctx context.Context, paths []string, banks int, visit func(key K, counts []uint32) error) (err error) {
	var all []*store.Reader
	defer func() {
		var cerr []error
		for _, r := range all {
			cerr = append(cerr, r.Close())
		}
		if err == nil {
			err = errors.Join(cerr...)
		}
	}()
	h := make(cursorHeap[K], 0, len(paths))
	for _, p := range paths {
		r, err := store.Open(p, count.RecordSize[K](banks))
		if err != nil {
			return err
		}
		all = append(all, r)
		c := &cursor[K]{r: r, counts: make([]uint32, banks)}
		if !c.advance() {
			if err := r.Err(); err != nil {
				return err
			}
			continue
		}
		h = append(h, c)
	}
	heap.Init(&h)

	sum := make([]uint32, banks)
	for n := 0; h.Len() > 0; n++ {
		if n&0xffff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		key := h[0].key
		clear(sum)
		for h.Len() > 0 && h[0].key == key {
			c := h[0]
			for i, v := range c.counts {
				sum[i] = count.Add(sum[i], v)
			}
			if c.advance() {
				heap.Fix(&h, 0)
				continue
			}
			if err := c.r.Err(); err != nil {
				return err
			}
			heap.Pop(&h)
		}
		if err := visit(key, sum); err != nil {
			return err
		}
	}
	return nil
}
