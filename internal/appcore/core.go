// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"dbgraph/internal/cmdutil"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/writers"
)

// KeyWords returns the number of 64-bit words that hold a k-mer of length
// k: 1 up to k=32, 2 up to 64, 3 up to 96 and 4 up to 128.
func KeyWords(k int) (int, error) {
	for words, maxK := range []int{
		kmer.MaxK[largeint.Uint64](),
		kmer.MaxK[largeint.Uint128](),
		kmer.MaxK[largeint.Uint192](),
		kmer.MaxK[largeint.Uint256](),
	} {
		if k <= maxK {
			return words + 1, nil
		}
	}
	return 0, fmt.Errorf("k=%d exceeds the largest supported k-mer (%d)", k, kmer.MaxK[largeint.Uint256]())
}

type WriterFactory[T any] interface {
	Start(out io.Writer, bufSize int) (chan<- T, <-chan error)
}

// Stream runs produce, handing every value it sends to the writer, and
// maps the outcome to an exit code. Write errors win over produce errors
// since they stop the output the user sees.
func Stream[T any](
	parent context.Context,
	stdout, stderr io.Writer,
	wf WriterFactory[T],
	bufSize int,
	produce func(ctx context.Context, send func(T) error) error,
) int {
	outw := bufio.NewWriter(stdout)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	inCh, writeErr := wf.Start(outw, bufSize)
	perr := produce(ctx, func(x T) error {
		select {
		case inCh <- x:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(inCh)

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return cmdutil.ExitOK
	} else if werr != nil {
		fmt.Fprintln(stderr, werr)
		return cmdutil.ExitIO
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return cmdutil.ExitOK
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return cmdutil.ExitIO
	}

	if perr != nil {
		code := cmdutil.ExitCode(perr)
		if code != cmdutil.ExitCanceled {
			fmt.Fprintln(stderr, perr)
		}
		return code
	}
	return cmdutil.ExitOK
}

// Flush writes buffered output and maps a failure to an exit code.
func Flush(outw *bufio.Writer, stderr io.Writer, code int) int {
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return cmdutil.ExitOK
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return cmdutil.ExitIO
	}
	return code
}
