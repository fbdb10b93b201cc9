// internal/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	// ErrInvalidSymbol is returned when a sequence window holds a symbol
	// outside {A,C,G,T}.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrPartitionOverflow is returned when a partition does not fit the
	// per-worker memory budget even after the maximum subdivision depth.
	ErrPartitionOverflow = errors.New("partition overflow")

	// ErrPartitionFailed is returned when counting a single partition failed.
	ErrPartitionFailed = errors.New("partition failed")

	// ErrAllocationFailed is returned when a Bloom filter or MPHF cannot be
	// sized within the memory budget.
	ErrAllocationFailed = errors.New("allocation failed")

	// ErrIncompleteIndex is returned when an index directory has no
	// committed manifest, or an artifact disagrees with it.
	ErrIncompleteIndex = errors.New("incomplete index")
)

// Error annotates a failure kind with the operation that produced it.
//
//	err := &errs.Error{Op: "debloom.bloom", Kind: errs.ErrAllocationFailed, Err: cause}
//	errors.Is(err, errs.ErrAllocationFailed) // true
type Error struct {
	// Op is the failing operation, e.g. "partition.Fill".
	Op string

	// Kind is one of the sentinel errors above.
	Kind error

	// Err is the underlying cause (optional).
	Err error

	// Context carries identifiers useful in logs (partition id, sizes).
	Context map[string]any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind, or matches a *Error with the
// same kind (and op, when target sets one).
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
	}
	return target == e.Kind
}

// With returns a copy of e with key=value added to its context.
func (e *Error) With(key string, value any) *Error {
	ne := *e
	ne.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ne.Context[k] = v
	}
	ne.Context[key] = value
	return &ne
}

// New builds an *Error of the given kind.
func New(op string, kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}
