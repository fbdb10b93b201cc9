// internal/bank/bank.go
package bank

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// ErrNotRestartable is returned when a one-shot source (stdin) is iterated twice.
var ErrNotRestartable = errors.New("bank: input cannot be read twice")

// Sequence is one record of a bank. Data is owned by the receiver.
type Sequence struct {
	ID   string
	Data []byte
}

// Estimate summarizes a bank, possibly extrapolated from a prefix.
type Estimate struct {
	Sequences uint64
	Bases     uint64
	MaxLength uint64
	Exact     bool
}

// Kmers is the number of k-windows the estimate implies.
func (e Estimate) Kmers(k int) uint64 {
	span := uint64(k-1) * e.Sequences
	if e.Bases <= span {
		return 0
	}
	return e.Bases - span
}

// Bank is a restartable source of sequences.
type Bank interface {
	Name() string
	// Iterate calls fn for every sequence, in order, until fn or the
	// underlying reader fails or ctx is cancelled.
	Iterate(ctx context.Context, fn func(Sequence) error) error
	Estimate(ctx context.Context) (Estimate, error)
}

// EstimateSample bounds how many records File.Estimate reads before
// extrapolating from the file size.
const EstimateSample = 10000

// File is a FASTA/FASTQ bank, optionally gzip-compressed; "-" reads stdin once.
type File struct {
	Path string
	used atomic.Bool
}

func NewFile(path string) *File { return &File{Path: path} }

func (f *File) Name() string { return f.Path }

func (f *File) Iterate(ctx context.Context, fn func(Sequence) error) error {
	if f.Path == "-" && f.used.Swap(true) {
		return ErrNotRestartable
	}
	rc, _, err := openReader(f.Path)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := scanFastx(ctx, rc, fn); err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}

var errSampleFull = errors.New("sample full")

// Estimate reads up to EstimateSample records and scales the counts by the
// ratio of file size to bytes consumed. Stdin is never sampled.
func (f *File) Estimate(ctx context.Context) (Estimate, error) {
	var est Estimate
	if f.Path == "-" {
		return est, nil
	}
	st, err := os.Stat(f.Path)
	if err != nil {
		return est, err
	}
	rc, cr, err := openReader(f.Path)
	if err != nil {
		return est, err
	}
	defer rc.Close()
	err = scanFastx(ctx, rc, func(s Sequence) error {
		est.Sequences++
		est.Bases += uint64(len(s.Data))
		est.MaxLength = max(est.MaxLength, uint64(len(s.Data)))
		if est.Sequences >= EstimateSample {
			return errSampleFull
		}
		return nil
	})
	switch {
	case err == nil:
		est.Exact = true
		return est, nil
	case !errors.Is(err, errSampleFull):
		return est, err
	}
	if cr.n > 0 && st.Size() > cr.n {
		scale := float64(st.Size()) / float64(cr.n)
		est.Sequences = uint64(float64(est.Sequences) * scale)
		est.Bases = uint64(float64(est.Bases) * scale)
	}
	return est, nil
}

// Strings is an in-memory bank.
type Strings []string

func (s Strings) Name() string { return "memory" }

func (s Strings) Iterate(ctx context.Context, fn func(Sequence) error) error {
	for i, seq := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(Sequence{ID: fmt.Sprintf("seq%d", i), Data: []byte(seq)}); err != nil {
			return err
		}
	}
	return nil
}

func (s Strings) Estimate(context.Context) (Estimate, error) {
	est := Estimate{Exact: true}
	for _, seq := range s {
		est.Sequences++
		est.Bases += uint64(len(seq))
		est.MaxLength = max(est.MaxLength, uint64(len(seq)))
	}
	return est, nil
}

// Sum adds estimates of several banks.
func Sum(ctx context.Context, banks []Bank) (Estimate, error) {
	total := Estimate{Exact: true}
	for _, b := range banks {
		e, err := b.Estimate(ctx)
		if err != nil {
			return total, fmt.Errorf("estimate %s: %w", b.Name(), err)
		}
		total.Sequences += e.Sequences
		total.Bases += e.Bases
		total.MaxLength = max(total.MaxLength, e.MaxLength)
		total.Exact = total.Exact && e.Exact
	}
	return total, nil
}

var (
	_ Bank = (*File)(nil)
	_ Bank = Strings(nil)
)
