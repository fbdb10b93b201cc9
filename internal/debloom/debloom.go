// internal/debloom/debloom.go
package debloom

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"dbgraph/internal/bloom"
	"dbgraph/internal/errs"
	"dbgraph/internal/index"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/mphf"
	"dbgraph/internal/sortcount"
	"dbgraph/internal/store"
	"dbgraph/internal/telemetry"
	"dbgraph/pkg/api"
)

// Config controls a debloom run.
type Config struct {
	Dir     string  // index directory; must hold the solid table
	FPRate  float64 // Bloom false positive target; 0 uses bloom.BitsPerKmer(k)
	Budget  uint64  // bytes the bit array may use; 0 means unlimited
	Workers int
	Seed    uint64
	Gamma   float64 // MPHF gamma; 0 uses mphf.DefaultGamma

	// SpillKeys is how many candidate neighbors a worker buffers before it
	// writes a sorted run; 0 uses the default.
	SpillKeys int

	// Manifest carries the run fields this package does not know (run id,
	// inputs, abundance bounds). Artifact fields are filled in.
	Manifest api.ManifestV1

	Logger    *slog.Logger
	Telemetry *telemetry.Telemetry
}

// Result reports the built artifacts.
type Result struct {
	Solid       uint64
	Critical    uint64
	BloomBits   uint64
	BloomHashes int
	BitsPerKmer float64
	Relaxed     bool // the FP target was relaxed once to fit the budget
}

// Run builds bloom.bin and critical.bin next to the solid table and writes
// the manifest last. On failure no manifest is written and the partial
// artifacts are removed.
func Run[K largeint.Integer[K]](ctx context.Context, md *kmer.Model[K], cfg Config) (res *Result, err error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Seed == 0 {
		cfg.Seed = bloom.DefaultSeed
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.Noop()
	}
	log := cfg.Logger.With("component", "debloom")
	tel := cfg.Telemetry

	ctx, end := tel.Stage(ctx, "debloom", attribute.Int("k", md.K()))
	defer func() { end(err) }()

	solidPath := filepath.Join(cfg.Dir, index.SolidFile)
	n, err := store.Len(solidPath, sortcount.SolidRecordSize[K]())
	if err != nil {
		return nil, err
	}
	bloomPath := filepath.Join(cfg.Dir, index.BloomFile)
	criticalPath := filepath.Join(cfg.Dir, index.CriticalFile)
	defer func() {
		if err != nil {
			_ = store.Remove(bloomPath)
			_ = store.Remove(criticalPath)
		}
	}()

	// Stage 1: Bloom filter.
	bpk := bloom.BitsPerKmer(md.K())
	if cfg.FPRate > 0 {
		bpk = bloom.BitsForRate(cfg.FPRate)
	}
	res = &Result{Solid: uint64(n)}
	params, err := fit(bloom.Size(uint64(n), bpk), cfg.Budget)
	if err != nil {
		relaxed := relax(bpk)
		log.Warn("bloom filter over budget, relaxing false positive target",
			"bits", bloom.Size(uint64(n), bpk).Bits, "budget_bytes", cfg.Budget, "bits_per_kmer", relaxed)
		bpk = relaxed
		params, err = fit(bloom.Size(uint64(n), bpk), cfg.Budget)
		if err != nil {
			return nil, err
		}
		res.Relaxed = true
	}
	res.BitsPerKmer, res.BloomBits, res.BloomHashes = bpk, params.Bits, params.Hashes

	filter := bloom.New[K](params, cfg.Seed)
	start := time.Now()
	if err := fill(ctx, filter, solidPath, n, cfg.Workers); err != nil {
		return nil, err
	}
	if err := selfCheck(ctx, filter, solidPath, n, cfg.Workers); err != nil {
		return nil, err
	}
	tel.BloomBits(ctx, int64(params.Bits))
	log.Debug("bloom filter built", "bits", params.Bits, "hashes", params.Hashes, "elapsed", time.Since(start))

	// Stage 2: critical false positives.
	critical, err := criticalKmers(ctx, md, filter, solidPath, n, cfg.Workers, cfg.SpillKeys, cfg.Dir)
	if err != nil {
		return nil, err
	}
	res.Critical = uint64(len(critical))
	tel.CriticalKmers(ctx, int64(len(critical)))

	// Stage 3: exact set over the critical k-mers.
	set := mphf.NewSet(critical, cfg.Gamma, cfg.Seed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Save(bloomPath); err != nil {
		return nil, err
	}
	if err := set.Save(criticalPath); err != nil {
		return nil, err
	}

	m := cfg.Manifest
	m.Version = api.ManifestVersion
	m.K = md.K()
	m.KeyBytes = largeint.Bytes[K]()
	m.Minimizer = md.MinimizerSize()
	m.SolidFile, m.BloomFile, m.CriticalFile = index.SolidFile, index.BloomFile, index.CriticalFile
	m.SolidKmers = res.Solid
	m.CriticalKmers = res.Critical
	m.BloomBits, m.BloomHashes, m.BitsPerKmer = res.BloomBits, res.BloomHashes, res.BitsPerKmer
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := index.WriteManifest(cfg.Dir, m); err != nil {
		return nil, err
	}
	log.Info("index complete", "solid", res.Solid, "critical", res.Critical, "bloom_bits", res.BloomBits)
	return res, nil
}

func fit(p bloom.Params, budget uint64) (bloom.Params, error) {
	if budget > 0 && p.Bytes() > budget {
		return p, errs.New("debloom.Bloom", errs.ErrAllocationFailed, nil).
			With("bytes", p.Bytes()).
			With("budget", budget)
	}
	return p, nil
}

// relax doubles the false positive rate a density gives.
func relax(bitsPerKmer float64) float64 {
	p := math.Exp(-bitsPerKmer * math.Ln2 * math.Ln2)
	return bloom.BitsForRate(min(2*p, 0.5))
}
