// internal/bank/fastx.go
package bank

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// maxLine allows very long single-line sequences (64 MiB).
const maxLine = 64 * 1024 * 1024

// scanFastx reads FASTA or FASTQ records (detected from the first header
// byte) and calls emit with a fresh copy of each sequence.
func scanFastx(ctx context.Context, r io.Reader, emit func(Sequence) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		id    string
		seq   = make([]byte, 0, 1<<20)
		have  bool
		fastq bool
		qual  int // quality symbols still expected (FASTQ)
		inQ   bool
	)
	flush := func() error {
		if !have {
			return nil
		}
		have = false
		return emit(Sequence{ID: id, Data: append([]byte(nil), seq...)})
	}

	line := 0
	for sc.Scan() {
		if line&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line++
		b := sc.Bytes()
		if inQ {
			qual -= len(bytes.TrimSpace(b))
			if qual <= 0 {
				inQ = false
			}
			continue
		}
		if len(b) == 0 {
			continue
		}
		switch {
		case b[0] == '>' || (b[0] == '@' && (fastq || !have)):
			if err := flush(); err != nil {
				return err
			}
			fastq = b[0] == '@'
			id = parseHeaderID(b[1:])
			seq = seq[:0]
			have = true
		case fastq && b[0] == '+':
			qual = len(seq)
			inQ = qual > 0
		case !have:
			return fmt.Errorf("fastx: sequence data before first header")
		default:
			seq = append(seq, bytes.TrimSpace(b)...)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fastx scan: %w", err)
	}
	return flush()
}

// parseHeaderID returns the first whitespace-delimited token of a header.
func parseHeaderID(h []byte) string {
	h = bytes.TrimSpace(h)
	if i := bytes.IndexAny(h, " \t"); i >= 0 {
		h = h[:i]
	}
	return string(h)
}
