// internal/partition/build.go
package partition

import (
	"context"
	"fmt"
	"path/filepath"

	"dbgraph/internal/bank"
	"dbgraph/internal/errs"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

// Limits bound the memory any single partition may need when counted.
type Limits struct {
	Budget        uint64                 // bytes available to one counting worker
	Cost          func(Partition) uint64 // bytes the cheapest counter needs for p
	MaxPartitions int                    // ceiling for P when re-scanning
	MaxRescans    int                    // full re-extractions allowed per pass (>=1)
	Fanout        int                    // children per subdivision
	MaxDepth      int                    // subdivision depth before ErrPartitionOverflow
}

func (l *Limits) fits(p Partition) bool {
	return l.Cost == nil || l.Budget == 0 || l.Cost(p) <= l.Budget
}

// Build extracts one pass and makes every partition fit the limits. If a
// partition is over budget while P is below MaxPartitions, all partitions of
// the pass are discarded and the pass is re-extracted with a larger P; the
// last of MaxRescans re-extractions uses MaxPartitions. Only then is a
// partition still over budget split by a secondary minimizer hash, up to
// MaxDepth levels.
func Build[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], banks []bank.Bank, cfg Config, lim Limits) (*Set, error) {
	cfg.normalize(md.K())
	if lim.Fanout < 2 {
		lim.Fanout = 4
	}
	if lim.MaxPartitions < cfg.Partitions {
		lim.MaxPartitions = cfg.Partitions
	}
	log := cfg.Logger.With("pass", cfg.Pass)

	var set *Set
	for rescan := 0; ; rescan++ {
		var err error
		set, err = Fill(ctx, md, banks, cfg)
		if err != nil {
			return nil, err
		}
		var worst uint64
		for _, p := range set.Parts {
			if !lim.fits(p) {
				worst = max(worst, lim.Cost(p))
			}
		}
		if worst == 0 || cfg.Partitions >= lim.MaxPartitions {
			break
		}
		grow := int((worst + lim.Budget - 1) / lim.Budget)
		next := min(lim.MaxPartitions, cfg.Partitions*max(grow, 2))
		if rescan+1 >= lim.MaxRescans {
			// last re-extraction goes straight to the ceiling
			next = lim.MaxPartitions
		}
		log.Info("partition over budget, re-extracting", "partitions", cfg.Partitions, "next", next, "worst_bytes", worst)
		if err := set.Remove(); err != nil {
			return nil, err
		}
		cfg.Partitions = next
	}

	for i := 0; i < len(set.Parts); i++ {
		p := set.Parts[i]
		if lim.fits(p) {
			continue
		}
		if p.Depth >= lim.MaxDepth {
			_ = set.Remove()
			return nil, errs.New("partition.Build", errs.ErrPartitionOverflow, nil).
				With("partition", p.Name).
				With("records", p.Records).
				With("bytes", lim.Cost(p))
		}
		children, err := Subdivide(ctx, md, p, lim.Fanout)
		if err != nil {
			_ = set.Remove()
			return nil, err
		}
		log.Info("partition subdivided", "partition", p.Name, "depth", p.Depth+1, "records", p.Records)
		set.Parts[i] = children[0]
		set.Parts = append(set.Parts, children[1:]...)
		i--
	}
	return set, nil
}

// Subdivide splits p into fanout children by a hash of each key's minimizer
// salted with the child depth, then removes p.
func Subdivide[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], p Partition, fanout int) ([]Partition, error) {
	size := RecordSize[K]()
	depth := p.Depth + 1
	writers := make([]*store.Writer, fanout)
	abort := func() {
		for _, w := range writers {
			if w != nil {
				_ = w.Abort()
			}
		}
	}
	for i := range writers {
		w, err := store.Create(fmt.Sprintf("%s.%d", p.Path, i), size)
		if err != nil {
			abort()
			return nil, err
		}
		writers[i] = w
	}
	sketches := make([]sketch, fanout)

	split := func() error {
		r, err := store.Open(p.Path, size)
		if err != nil {
			return err
		}
		defer r.Close()
		for n := 0; r.Next(); n++ {
			if n&0xffff == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			key, _ := GetRecord[K](r.Record())
			c := child(md.Minimizer(key), depth, fanout)
			if err := writers[c].Append(r.Record()); err != nil {
				return err
			}
			sketches[c].add(key.Hash(seedSketch))
		}
		return r.Err()
	}
	if err := split(); err != nil {
		abort()
		return nil, err
	}

	out := make([]Partition, fanout)
	for i, w := range writers {
		out[i] = Partition{
			Name:     filepath.Base(w.Path()),
			Path:     w.Path(),
			Pass:     p.Pass,
			Depth:    depth,
			Records:  w.Count(),
			Distinct: sketches[i].estimate(),
		}
		if err := w.Seal(); err != nil {
			abort()
			for _, q := range out[:i] {
				_ = store.Remove(q.Path)
			}
			return nil, err
		}
		writers[i] = nil
	}
	if err := store.Remove(p.Path); err != nil {
		return nil, err
	}
	return out, nil
}
