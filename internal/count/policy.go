// internal/count/policy.go
package count

import (
	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
)

// VectorEntryBytes is the in-memory size of one occurrence held by ByVector
// (key plus padded bank index).
func VectorEntryBytes[K largeint.Integer[K]]() uint64 {
	return uint64(largeint.Bytes[K]() + 8)
}

// HashEntryBytes approximates the memory ByHash needs per distinct key: the
// map slot, the key slice, the counts slab and map overhead.
func HashEntryBytes[K largeint.Integer[K]](banks int) uint64 {
	kb := largeint.Bytes[K]()
	return uint64(2*kb + 4 + 4*max(banks, 1) + 16)
}

// Policy decides which counter handles a partition. It is consulted once
// per partition, from the extraction-time estimates.
type Policy struct {
	Budget uint64   // bytes one worker may use; 0 means unlimited
	Force  Strategy // Auto lets the costs decide
	Banks  int
}

// VectorCost is the memory ByVector needs for p.
func VectorCost[K largeint.Integer[K]](p partition.Partition) uint64 {
	return uint64(p.Records) * VectorEntryBytes[K]()
}

// HashCost is the memory ByHash needs for p, from its distinct estimate.
func HashCost[K largeint.Integer[K]](p partition.Partition, banks int) uint64 {
	return p.Distinct * HashEntryBytes[K](banks)
}

// Choose picks the counter for p. Hash is used only with a distinct
// estimate whose cost, with a quarter of headroom for estimation error,
// fits the budget.
func Choose[K largeint.Integer[K]](pol Policy, p partition.Partition) Strategy {
	if pol.Force != Auto {
		return pol.Force
	}
	if p.Distinct == 0 {
		return Vector
	}
	hc := HashCost[K](p, pol.Banks)
	if pol.Budget == 0 || hc+hc/4 <= pol.Budget {
		return Hash
	}
	return Vector
}

// Cost is the memory of the cheapest counter the policy may use on p.
// It is what partitioning compares against the budget.
func Cost[K largeint.Integer[K]](pol Policy, p partition.Partition) uint64 {
	vc := VectorCost[K](p)
	hc := HashCost[K](p, pol.Banks)
	switch pol.Force {
	case Hash:
		return hc
	case Vector:
		return vc
	}
	if p.Distinct == 0 {
		return vc
	}
	return min(vc, hc)
}
