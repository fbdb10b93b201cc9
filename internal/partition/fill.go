// internal/partition/fill.go
package partition

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"dbgraph/internal/bank"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

// Config controls one extraction pass.
type Config struct {
	Dir        string      // where partition files are created
	Partitions int         // P (>=1)
	Passes     int         // total passes (>=1)
	Pass       int         // pass to extract, in [0,Passes)
	Workers    int         // extraction goroutines (>=1)
	Policy     kmer.Policy // invalid symbol handling
	ChunkBases int         // sequence bases per job; long sequences are split with k-1 overlap
	BufferSize int         // write buffer per partition file
	Logger     *slog.Logger
}

const defaultChunkBases = 1 << 16

func (c *Config) normalize(k int) {
	if c.Partitions < 1 {
		c.Partitions = 1
	}
	if c.Passes < 1 {
		c.Passes = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.ChunkBases <= 0 {
		c.ChunkBases = defaultChunkBases
	}
	c.ChunkBases = max(c.ChunkBases, 2*k)
	if c.BufferSize <= 0 {
		c.BufferSize = 16 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

type job struct {
	bank uint16
	ids  []string
	seqs [][]byte
}

type entry[K largeint.Integer[K]] struct {
	key  K
	h    uint64
	part int32
	bank uint16
}

type result[K largeint.Integer[K]] struct {
	entries []entry[K]
	err     error
}

// Fill streams every bank through the k-mer iterator and appends each
// canonical k-mer of the selected pass to partition hash(minimizer) mod P.
// Workers only extract; a single collector goroutine owns every partition
// file. On any failure all partition files are discarded.
func Fill[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], banks []bank.Bank, cfg Config) (*Set, error) {
	cfg.normalize(md.K())
	if len(banks) > 1<<16 {
		return nil, fmt.Errorf("partition: %d banks, at most %d supported", len(banks), 1<<16)
	}
	if cfg.Pass < 0 || cfg.Pass >= cfg.Passes {
		return nil, fmt.Errorf("partition: pass %d outside [0,%d)", cfg.Pass, cfg.Passes)
	}
	P := cfg.Partitions

	writers := make([]*store.Writer, P)
	abort := func() {
		for _, w := range writers {
			if w != nil {
				_ = w.Abort()
			}
		}
	}
	for i := range writers {
		w, err := store.CreateBuffered(partPath(cfg.Dir, cfg.Pass, i), RecordSize[K](), cfg.BufferSize)
		if err != nil {
			abort()
			return nil, err
		}
		writers[i] = w
	}
	sketches := make([]sketch, P)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job, cfg.Workers*2)
	results := make(chan result[K], cfg.Workers*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			it := md.Iterator(cfg.Policy)
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					var res result[K]
					for si, s := range j.seqs {
						it.Reset(s)
						for it.Next() {
							km := it.Kmer()
							pass, part := Assign(km.Minimizer, cfg.Passes, P)
							if pass != cfg.Pass {
								continue
							}
							res.entries = append(res.entries, entry[K]{
								key:  km.Value,
								h:    km.Value.Hash(seedSketch),
								part: int32(part),
								bank: j.bank,
							})
						}
						if err := it.Err(); err != nil {
							res.err = fmt.Errorf("sequence %s: %w", j.ids[si], err)
							break
						}
					}
					select {
					case results <- res:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector: sole writer of partition files.
	var (
		cerr error
		cwg  sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		buf := make([]byte, RecordSize[K]())
		for r := range results {
			if cerr != nil {
				continue
			}
			if r.err != nil {
				cerr = r.err
				cancel()
				continue
			}
			for _, e := range r.entries {
				PutRecord(buf, e.key, e.bank)
				if err := writers[e.part].Append(buf); err != nil {
					cerr = err
					cancel()
					break
				}
				sketches[e.part].add(e.h)
			}
		}
	}()

	// Feed work
	var ferr error
	span := md.K() - 1
feed:
	for bi, b := range banks {
		var (
			pending job
			bases   int
		)
		send := func() error {
			if len(pending.seqs) == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- pending:
			}
			pending = job{bank: uint16(bi)}
			bases = 0
			return nil
		}
		pending = job{bank: uint16(bi)}
		err := b.Iterate(ctx, func(s bank.Sequence) error {
			for off := 0; ; off += cfg.ChunkBases - span {
				end := min(off+cfg.ChunkBases, len(s.Data))
				pending.seqs = append(pending.seqs, s.Data[off:end])
				pending.ids = append(pending.ids, s.ID)
				bases += end - off
				if bases >= cfg.ChunkBases {
					if err := send(); err != nil {
						return err
					}
				}
				if end == len(s.Data) {
					return nil
				}
			}
		})
		if err == nil {
			err = send()
		}
		if err != nil {
			ferr = fmt.Errorf("bank %s: %w", b.Name(), err)
			break feed
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	switch {
	case cerr != nil:
		ferr = cerr
	case ferr == nil && ctx.Err() != nil:
		ferr = ctx.Err()
	}
	if ferr != nil {
		abort()
		return nil, ferr
	}

	set := &Set{Dir: cfg.Dir, Pass: cfg.Pass, Partitions: P, Parts: make([]Partition, P)}
	for i, w := range writers {
		set.Parts[i] = Partition{
			Name:     filepath.Base(w.Path()),
			Path:     w.Path(),
			Pass:     cfg.Pass,
			Records:  w.Count(),
			Distinct: sketches[i].estimate(),
		}
		if err := w.Seal(); err != nil {
			for _, rest := range writers[i+1:] {
				_ = rest.Abort()
			}
			_ = set.Remove()
			return nil, err
		}
	}
	cfg.Logger.Debug("partitions sealed", "pass", cfg.Pass, "partitions", P, "records", set.Records())
	return set, nil
}

func partPath(dir string, pass, i int) string {
	return filepath.Join(dir, fmt.Sprintf("pass%d.part%d", pass, i))
}
