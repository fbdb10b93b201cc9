// internal/count/hash.go
package count

import (
	"context"
	"math"

	"github.com/twotwotwo/sorts"

	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
	"dbgraph/internal/store"
)

// ByHash accumulates counts in a hash table keyed by k-mer, then sorts the
// distinct keys once.
type ByHash[K largeint.Integer[K]] struct {
	// MaxBytes bounds the table; 0 means unlimited. Exceeding it fails the
	// partition with ErrAllocationFailed.
	MaxBytes uint64
}

func (ByHash[K]) Strategy() Strategy { return Hash }

// Count implements Counter.
func (c ByHash[K]) Count(ctx context.Context, in Input) (Output, error) {
	if in.Banks < 1 {
		in.Banks = 1
	}
	r, err := store.Open(in.Partition.Path, partition.RecordSize[K]())
	if err != nil {
		return Output{}, err
	}
	defer r.Close()

	perKey := HashEntryBytes[K](in.Banks)
	hint := min(in.Partition.Distinct, uint64(r.Len()))
	index := make(map[K]int32, int(hint))
	var (
		keys   []K
		counts []uint32
	)
	for n := 0; r.Next(); n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Output{}, err
			}
		}
		key, b := partition.GetRecord[K](r.Record())
		if int(b) >= in.Banks {
			return Output{}, errBank(in, b)
		}
		i, ok := index[key]
		if !ok {
			if len(keys) == math.MaxInt32 {
				return Output{}, allocationFailed("count.ByHash", math.MaxUint64, c.MaxBytes)
			}
			if need := uint64(len(keys)+1) * perKey; c.MaxBytes > 0 && need > c.MaxBytes {
				return Output{}, allocationFailed("count.ByHash", need, c.MaxBytes)
			}
			i = int32(len(keys))
			index[key] = i
			keys = append(keys, key)
			for range in.Banks {
				counts = append(counts, 0)
			}
		}
		slot := &counts[int(i)*in.Banks+int(b)]
		*slot = Add(*slot, 1)
	}
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	clear(index)

	order := &byKey[K]{keys: keys, idx: make([]int32, len(keys))}
	for i := range order.idx {
		order.idx[i] = int32(i)
	}
	sorts.Quicksort(order)

	w, err := newRecordWriter[K](in.Out, in.Banks)
	if err != nil {
		return Output{}, err
	}
	for _, i := range order.idx {
		off := int(i) * in.Banks
		if err := w.put(keys[i], counts[off:off+in.Banks]); err != nil {
			_ = w.w.Abort()
			return Output{}, err
		}
	}
	if err := w.w.Seal(); err != nil {
		return Output{}, err
	}
	return Output{Path: in.Out, Distinct: int64(len(keys)), Strategy: Hash}, nil
}

// byKey orders an index permutation by the keys it points at.
type byKey[K largeint.Integer[K]] struct {
	keys []K
	idx  []int32
}

func (s *byKey[K]) Len() int           { return len(s.idx) }
func (s *byKey[K]) Swap(i, j int)      { s.idx[i], s.idx[j] = s.idx[j], s.idx[i] }
func (s *byKey[K]) Less(i, j int) bool { return s.keys[s.idx[i]].Cmp(s.keys[s.idx[j]]) < 0 }
