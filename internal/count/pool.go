// internal/count/pool.go
package count

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"dbgraph/internal/errs"
	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
	"dbgraph/internal/store"
	"dbgraph/internal/telemetry"
)

// Pool counts partitions on a fixed number of workers. Partitions share no
// mutable state; each worker owns the files it writes.
type Pool[K largeint.Integer[K]] struct {
	Workers int
	Policy  Policy
	Dir     string // where count files are written; defaults to the partition's dir

	// NewCounter builds the counter for a strategy. Nil uses ByHash and
	// ByVector limited to Policy.Budget.
	NewCounter func(Strategy) Counter[K]

	Logger    *slog.Logger
	Telemetry *telemetry.Telemetry
}

// Stats summarizes one Run.
type Stats struct {
	ByStrategy map[Strategy]int // partitions finished per strategy
	Retries    int
}

type task struct {
	idx      int
	in       Input
	strategy Strategy
}

type outcome struct {
	task task
	out  Output
	err  error
}

func (p *Pool[K]) counter(s Strategy) Counter[K] {
	if p.NewCounter != nil {
		return p.NewCounter(s)
	}
	if s == Hash {
		return ByHash[K]{MaxBytes: p.Policy.Budget}
	}
	return ByVector[K]{MaxBytes: p.Policy.Budget}
}

// Run counts every partition of parts and returns their outputs in the same
// order. A partition whose counter fails is retried once with the alternate
// strategy after the first round; a second failure fails the run and every
// count file written by it is removed.
func (p *Pool[K]) Run(ctx context.Context, parts []partition.Partition) ([]Output, Stats, error) {
	workers := max(p.Workers, 1)
	log := p.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tel := p.Telemetry
	if tel == nil {
		tel = telemetry.Noop()
	}
	banks := max(p.Policy.Banks, 1)

	outs := make([]Output, len(parts))
	st := Stats{ByStrategy: map[Strategy]int{}}
	cleanup := func() {
		for _, o := range outs {
			if o.Path != "" {
				_ = store.Remove(o.Path)
			}
		}
	}

	tasks := make([]task, len(parts))
	for i, part := range parts {
		dir := p.Dir
		if dir == "" {
			dir = filepath.Dir(part.Path)
		}
		tasks[i] = task{
			idx:      i,
			in:       Input{Partition: part, Banks: banks, Out: filepath.Join(dir, part.Name+".counts")},
			strategy: Choose[K](p.Policy, part),
		}
	}

	var retry []task
	for round := 0; round < 2 && len(tasks) > 0; round++ {
		results := p.round(ctx, workers, tasks, tel)
		var failed []error
		for _, r := range results {
			if r.err == nil {
				outs[r.task.idx] = r.out
				st.ByStrategy[r.out.Strategy]++
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			perr := &PartitionFailedError{Partition: r.task.in.Partition.Name, Strategy: r.task.strategy, Err: r.err}
			if round == 0 {
				log.Warn("partition failed, retrying with alternate counter",
					"partition", perr.Partition, "strategy", perr.Strategy, "err", r.err)
				t := r.task
				t.strategy = t.strategy.Alternate()
				retry = append(retry, t)
				continue
			}
			failed = append(failed, errs.New("count.Pool", errs.ErrPartitionFailed, perr).
				With("partition", perr.Partition).
				With("strategy", perr.Strategy.String()))
		}
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, st, err
		}
		if len(failed) > 0 {
			cleanup()
			return nil, st, errors.Join(failed...)
		}
		for _, t := range retry {
			tel.PartitionRetried(ctx, t.strategy.String())
		}
		st.Retries += len(retry)
		tasks, retry = retry, nil
	}
	return outs, st, nil
}

// round runs tasks on workers and returns one outcome per task.
func (p *Pool[K]) round(ctx context.Context, workers int, tasks []task, tel *telemetry.Telemetry) []outcome {
	jobs := make(chan task, workers*2)
	results := make(chan outcome, workers*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-jobs:
					if !ok {
						return
					}
					o := outcome{task: t}
					o.out, o.err = p.countOne(ctx, t, tel)
					select {
					case results <- o:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector
	var (
		out []outcome
		cwg sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for o := range results {
			out = append(out, o)
		}
	}()

	// Feed work
feed:
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()
	return out
}

func (p *Pool[K]) countOne(ctx context.Context, t task, tel *telemetry.Telemetry) (out Output, err error) {
	ctx, end := tel.Stage(ctx, "count.partition",
		attribute.String("partition", t.in.Partition.Name),
		attribute.String("strategy", t.strategy.String()))
	defer func() { end(err) }()

	start := time.Now()
	c := p.counter(t.strategy)
	if c == nil {
		return Output{}, fmt.Errorf("no counter for strategy %s", t.strategy)
	}
	out, err = c.Count(ctx, t.in)
	if err != nil {
		_ = store.Remove(t.in.Out)
		return Output{}, err
	}
	tel.PartitionCounted(ctx, out.Strategy.String(), time.Since(start))
	return out, nil
}
