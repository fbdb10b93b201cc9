// internal/count/counter.go
package count

import (
	"context"
	"fmt"

	"dbgraph/internal/errs"
	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
)

// Input is one sealed partition to count.
type Input struct {
	Partition partition.Partition
	Banks     int    // number of input banks (>=1)
	Out       string // path of the count file to produce
}

// Output describes a sealed count file.
type Output struct {
	Path     string
	Distinct int64
	Strategy Strategy
}

// Counter counts one partition. Implementations must not keep state between
// calls; a Pool calls Count concurrently on distinct partitions.
type Counter[K largeint.Integer[K]] interface {
	Strategy() Strategy
	Count(ctx context.Context, in Input) (Output, error)
}

// PartitionFailedError reports a counter failure on one partition.
type PartitionFailedError struct {
	Partition string
	Strategy  Strategy
	Err       error
}

func (e *PartitionFailedError) Error() string {
	return fmt.Sprintf("count partition %s (%s): %v", e.Partition, e.Strategy, e.Err)
}

func (e *PartitionFailedError) Unwrap() error { return e.Err }

func (e *PartitionFailedError) Is(target error) bool { return target == errs.ErrPartitionFailed }

// allocationFailed is returned by a counter whose working set would exceed
// its byte limit.
func allocationFailed(op string, need, limit uint64) error {
	return errs.New(op, errs.ErrAllocationFailed, nil).With("bytes", need).With("limit", limit)
}

func errBank(in Input, b uint16) error {
	return fmt.Errorf("partition %s: bank %d outside [0,%d)", in.Partition.Name, b, in.Banks)
}

const ctxCheckEvery = 1 << 16
