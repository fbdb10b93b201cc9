// internal/sortcount/sortcount.go
package sortcount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"dbgraph/internal/bank"
	"dbgraph/internal/count"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/partition"
	"dbgraph/internal/store"
	"dbgraph/internal/telemetry"
)

// DefaultMaxPartitions bounds P; every partition of a pass is an open file.
const DefaultMaxPartitions = 1000

// Config controls a counting run. Zero values select defaults.
type Config struct {
	Out string // solid table path (required)
	Dir string // scratch directory for partitions and counts; defaults to a temp dir beside Out

	Partitions    int    // P; 0 derives it from the bank estimate
	MaxPartitions int    // ceiling for P, also when re-scanning
	Passes        int    // disk-bounding passes (>=1)
	Workers       int    // counting workers; also extraction goroutines
	Budget        uint64 // memory for all workers, in bytes; 0 means unlimited

	Strategy     count.Strategy
	Solidity     Solidity
	AbundanceMin uint32 // 0 selects the histogram cutoff
	AbundanceMax uint32 // 0 means unbounded
	AutoFloor    uint32 // lowest automatic cutoff
	HistogramMax int

	InvalidPolicy kmer.Policy
	MaxRescans    int
	Fanout        int
	MaxDepth      int

	Logger    *slog.Logger
	Telemetry *telemetry.Telemetry
}

func (c *Config) normalize() {
	if c.Passes < 1 {
		c.Passes = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxPartitions < 1 {
		c.MaxPartitions = DefaultMaxPartitions
	}
	if c.HistogramMax < 2 {
		c.HistogramMax = DefaultHistogramMax
	}
	if c.AutoFloor == 0 {
		c.AutoFloor = 2
	}
	if c.MaxRescans == 0 {
		c.MaxRescans = 2
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 3
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Telemetry == nil {
		c.Telemetry = telemetry.Noop()
	}
}

// WorkerBudget is the memory one counting worker may use.
func (c *Config) WorkerBudget() uint64 {
	if c.Budget == 0 {
		return 0
	}
	return max(c.Budget/uint64(max(c.Workers, 1)), 1)
}

// Result is the statistics of a finished run.
type Result struct {
	Path         string
	Distinct     uint64 // distinct canonical k-mers
	Total        uint64 // k-mer occurrences
	Solid        uint64 // k-mers written to the table
	Histogram    Histogram
	Cutoff       uint32 // abundance min applied (auto or configured)
	AutoCutoff   bool
	Partitions   int // P of the first pass
	Passes       int
	ByStrategy   map[count.Strategy]int
	Retries      int
	Subdivisions int // partitions produced by subdivision
}

// ConfigurePartitions derives P from the expected k-mer volume: enough
// partitions that one fits a worker's budget, at least one per worker,
// at most maxParts.
func ConfigurePartitions(kmers uint64, entryBytes uint64, passes, workers int, budget uint64, maxParts int) int {
	workers = max(workers, 1)
	P := workers
	if budget > 0 {
		volume := kmers * entryBytes / uint64(max(passes, 1))
		P = max(P, int(volume*uint64(workers)/budget)+1)
	}
	return max(min(P, maxParts), 1)
}

// Algorithm is a counting run over one key width.
type Algorithm[K largeint.Integer[K]] struct {
	Model  *kmer.Model[K]
	Config Config

	// NewCounter overrides the counters used by the pool.
	NewCounter func(count.Strategy) count.Counter[K]
}

// Run counts the k-mers of banks with default counters.
func Run[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], banks []bank.Bank, cfg Config) (*Result, error) {
	return (&Algorithm[K]{Model: md, Config: cfg}).Run(ctx, banks)
}

// Run executes every pass, merges the count files and seals the solid
// table. On error nothing is left at Config.Out and the scratch files are
// removed.
func (a *Algorithm[K]) Run(ctx context.Context, banks []bank.Bank) (res *Result, err error) {
	cfg := a.Config
	cfg.normalize()
	if cfg.Out == "" {
		return nil, errors.New("sortcount: output path is required")
	}
	if len(banks) == 0 {
		return nil, errors.New("sortcount: no input banks")
	}
	md := a.Model
	log := cfg.Logger.With("component", "sortcount")
	tel := cfg.Telemetry

	ctx, end := tel.Stage(ctx, "sortcount", attribute.Int("k", md.K()))
	defer func() { end(err) }()

	dir := cfg.Dir
	if dir == "" {
		dir, err = os.MkdirTemp(filepath.Dir(cfg.Out), ".sortcount-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
	}

	policy := count.Policy{Budget: cfg.WorkerBudget(), Force: cfg.Strategy, Banks: len(banks)}
	P := cfg.Partitions
	if P <= 0 {
		est, err := bank.Sum(ctx, banks)
		if err != nil {
			return nil, err
		}
		P = ConfigurePartitions(est.Kmers(md.K()), count.VectorEntryBytes[K](), cfg.Passes, cfg.Workers, cfg.Budget, cfg.MaxPartitions)
		log.Info("partitions configured", "partitions", P, "kmers_estimate", est.Kmers(md.K()), "exact", est.Exact)
	}

	res = &Result{
		Path:       cfg.Out,
		Histogram:  NewHistogram(cfg.HistogramMax),
		Partitions: P,
		Passes:     cfg.Passes,
		ByStrategy: map[count.Strategy]int{},
	}

	var counts []string
	defer func() {
		for _, p := range counts {
			_ = store.Remove(p)
		}
	}()

	pool := &count.Pool[K]{
		Workers:    cfg.Workers,
		Policy:     policy,
		NewCounter: a.NewCounter,
		Logger:     log,
		Telemetry:  tel,
	}
	for pass := 0; pass < cfg.Passes; pass++ {
		set, err := partition.Build(ctx, md, banks, partition.Config{
			Dir:        dir,
			Partitions: P,
			Passes:     cfg.Passes,
			Pass:       pass,
			Workers:    cfg.Workers,
			Policy:     cfg.InvalidPolicy,
			Logger:     log,
		}, partition.Limits{
			Budget:        policy.Budget,
			Cost:          func(p partition.Partition) uint64 { return count.Cost[K](policy, p) },
			MaxPartitions: cfg.MaxPartitions,
			MaxRescans:    cfg.MaxRescans,
			Fanout:        cfg.Fanout,
			MaxDepth:      cfg.MaxDepth,
		})
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}
		if pass == 0 {
			res.Partitions = set.Partitions
		}
		tel.KmersExtracted(ctx, set.Records())
		for _, p := range set.Parts {
			if p.Depth > 0 {
				res.Subdivisions++
			}
		}
		outs, st, err := pool.Run(ctx, set.Parts)
		rmErr := set.Remove()
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}
		for _, o := range outs {
			counts = append(counts, o.Path)
		}
		if rmErr != nil {
			return nil, rmErr
		}
		for s, n := range st.ByStrategy {
			res.ByStrategy[s] += n
		}
		res.Retries += st.Retries
		log.Debug("pass counted", "pass", pass, "partitions", len(set.Parts), "records", set.Records(), "retries", st.Retries)
	}

	nb := len(banks)
	bounds := Bounds{Min: cfg.AbundanceMin, Max: cfg.AbundanceMax}
	if bounds.Min == 0 {
		if err := merge(ctx, counts, nb, func(_ K, c []uint32) error {
			res.Histogram.Add(count.Total(c))
			return nil
		}); err != nil {
			return nil, err
		}
		bounds.Min = res.Histogram.Cutoff(cfg.AutoFloor)
		res.AutoCutoff = true
		clear(res.Histogram)
		log.Info("automatic abundance cutoff", "cutoff", bounds.Min)
	}
	res.Cutoff = bounds.Min

	w, err := store.Create(cfg.Out, SolidRecordSize[K]())
	if err != nil {
		return nil, err
	}
	buf := make([]byte, SolidRecordSize[K]())
	err = merge(ctx, counts, nb, func(key K, c []uint32) error {
		total := count.Total(c)
		res.Distinct++
		res.Total += uint64(total)
		res.Histogram.Add(total)
		if !cfg.Solidity.Accept(c, total, bounds) {
			return nil
		}
		res.Solid++
		PutSolid(buf, key, total)
		return w.Append(buf)
	})
	if err != nil {
		_ = w.Abort()
		return nil, err
	}
	if err := w.Seal(); err != nil {
		return nil, err
	}
	tel.SolidKmers(ctx, int64(res.Solid))
	log.Info("solid table sealed", "path", cfg.Out, "distinct", res.Distinct, "solid", res.Solid, "cutoff", res.Cutoff)
	return res, nil
}
