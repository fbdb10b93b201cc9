// internal/cmdutil/exit.go
package cmdutil

import (
	"context"
	"errors"
	"io/fs"

	"dbgraph/internal/errs"
	"dbgraph/internal/writers"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitRuntime  = 1 // the run failed
	ExitUsage    = 2 // bad flags or configuration
	ExitIO       = 3 // input or output could not be read or written
	ExitCanceled = 130
)

// ExitCode maps a run error to a process exit code. A closed downstream
// pipe is not a failure.
func ExitCode(err error) int {
	var pe *fs.PathError
	switch {
	case err == nil, writers.IsBrokenPipe(err):
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case errors.Is(err, errs.ErrIncompleteIndex):
		return ExitRuntime
	case errors.As(err, &pe):
		return ExitIO
	}
	return ExitRuntime
}
