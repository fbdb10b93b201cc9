package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := New("count.partition", ErrPartitionFailed, io.ErrUnexpectedEOF).With("partition", 7)
	wrapped := fmt.Errorf("run: %w", err)

	assert.ErrorIs(t, wrapped, ErrPartitionFailed)
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, wrapped, ErrAllocationFailed)
	assert.ErrorIs(t, wrapped, &Error{Kind: ErrPartitionFailed})
	assert.NotErrorIs(t, wrapped, &Error{Op: "other", Kind: ErrPartitionFailed})
	assert.Contains(t, err.Error(), "partition:7")

	var e *Error
	assert.True(t, errors.As(wrapped, &e))
	assert.Equal(t, 7, e.Context["partition"])
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := New("op", ErrInvalidSymbol, nil)
	_ = base.With("pos", 3)
	assert.Empty(t, base.Context)
	assert.Equal(t, "op: invalid symbol", base.Error())
}
