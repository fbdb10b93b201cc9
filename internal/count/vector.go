// internal/count/vector.go
package count

import (
	"context"

	"github.com/twotwotwo/sorts"

	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
	"dbgraph/internal/store"
)

// ByVector loads every occurrence of a partition, sorts them and emits one
// record per run of equal keys.
type ByVector[K largeint.Integer[K]] struct {
	// MaxBytes bounds the occurrence vector; 0 means unlimited.
	MaxBytes uint64
}

func (ByVector[K]) Strategy() Strategy { return Vector }

type occurrence[K largeint.Integer[K]] struct {
	key  K
	bank uint16
}

type occurrences[K largeint.Integer[K]] []occurrence[K]

func (o occurrences[K]) Len() int           { return len(o) }
func (o occurrences[K]) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o occurrences[K]) Less(i, j int) bool { return o[i].key.Cmp(o[j].key) < 0 }

// Count implements Counter.
func (c ByVector[K]) Count(ctx context.Context, in Input) (Output, error) {
	if in.Banks < 1 {
		in.Banks = 1
	}
	r, err := store.Open(in.Partition.Path, partition.RecordSize[K]())
	if err != nil {
		return Output{}, err
	}
	defer r.Close()

	if need := uint64(r.Len()) * VectorEntryBytes[K](); c.MaxBytes > 0 && need > c.MaxBytes {
		return Output{}, allocationFailed("count.ByVector", need, c.MaxBytes)
	}
	occ := make(occurrences[K], 0, r.Len())
	for n := 0; r.Next(); n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Output{}, err
			}
		}
		key, b := partition.GetRecord[K](r.Record())
		occ = append(occ, occurrence[K]{key: key, bank: b})
	}
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	sorts.Quicksort(occ)

	w, err := newRecordWriter[K](in.Out, in.Banks)
	if err != nil {
		return Output{}, err
	}
	counts := make([]uint32, in.Banks)
	var distinct int64
	for i := 0; i < len(occ); {
		clear(counts)
		j := i
		for ; j < len(occ) && occ[j].key == occ[i].key; j++ {
			b := int(occ[j].bank)
			if b >= in.Banks {
				_ = w.w.Abort()
				return Output{}, errBank(in, occ[j].bank)
			}
			counts[b] = Add(counts[b], 1)
		}
		if err := w.put(occ[i].key, counts); err != nil {
			_ = w.w.Abort()
			return Output{}, err
		}
		distinct++
		i = j
	}
	if err := w.w.Seal(); err != nil {
		return Output{}, err
	}
	return Output{Path: in.Out, Distinct: distinct, Strategy: Vector}, nil
}
