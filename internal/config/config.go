// Package config loads build settings from a YAML file. Every field has a
// default; command-line flags override file values afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"dbgraph/internal/count"
	"dbgraph/internal/debloom"
	"dbgraph/internal/kmer"
	"dbgraph/internal/sortcount"
)

// Config represents a dbgraph.yaml file.
type Config struct {
	K         int    `yaml:"k"`
	Minimizer int    `yaml:"minimizer,omitempty"` // 0 picks min(8, k-1)
	Out       string `yaml:"out"`                 // index directory
	WorkDir   string `yaml:"work_dir,omitempty"`  // scratch space; defaults to inside Out
	Invalid   string `yaml:"invalid,omitempty"`   // "skip" or "abort" on non-ACGT symbols

	Counting CountingConfig `yaml:"counting"`
	Solidity SolidityConfig `yaml:"solidity"`
	Debloom  DebloomConfig  `yaml:"debloom"`
}

// CountingConfig sizes the partitioning and counting stages.
type CountingConfig struct {
	// Workers is the number of counting goroutines. Default: number of CPUs.
	Workers int `yaml:"workers,omitempty"`

	// Memory is the budget shared by all workers, e.g. "2GiB". Empty means
	// unlimited.
	Memory string `yaml:"memory,omitempty"`

	// Partitions forces P. Default: derived from the input size.
	Partitions    int `yaml:"partitions,omitempty"`
	MaxPartitions int `yaml:"max_partitions,omitempty"`
	Passes        int `yaml:"passes,omitempty"`

	// Strategy is "auto", "hash" or "vector".
	Strategy string `yaml:"strategy,omitempty"`

	MaxRescans int `yaml:"max_rescans,omitempty"`
	Fanout     int `yaml:"fanout,omitempty"`
	MaxDepth   int `yaml:"max_depth,omitempty"`
}

// SolidityConfig is the abundance filter.
type SolidityConfig struct {
	Kind         string `yaml:"kind,omitempty"`          // sum|min|max|one|all
	AbundanceMin string `yaml:"abundance_min,omitempty"` // a number or "auto"
	AbundanceMax uint32 `yaml:"abundance_max,omitempty"` // 0: unbounded
	HistogramMax int    `yaml:"histogram_max,omitempty"`
	AutoFloor    uint32 `yaml:"auto_floor,omitempty"` // lowest automatic cutoff
}

// DebloomConfig sizes the membership structures.
type DebloomConfig struct {
	FPRate float64 `yaml:"fp_rate,omitempty"` // 0: derived from k
	Memory string  `yaml:"memory,omitempty"`  // bit array budget; empty: unlimited
	Gamma  float64 `yaml:"gamma,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		K:       31,
		Out:     "dbgraph.idx",
		Invalid: "skip",
		Counting: CountingConfig{
			Passes:   1,
			Strategy: "auto",
		},
		Solidity: SolidityConfig{
			Kind:         "sum",
			AbundanceMin: "2",
			HistogramMax: sortcount.DefaultHistogramMax,
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks every field that has a restricted range.
func (c *Config) Validate() error {
	var errs []error
	if c.K < 2 || c.K > 128 {
		errs = append(errs, fmt.Errorf("k=%d outside [2,128]", c.K))
	}
	if c.Minimizer != 0 && (c.Minimizer < 1 || c.Minimizer >= c.K || c.Minimizer > 31) {
		errs = append(errs, fmt.Errorf("minimizer=%d must be in [1,min(k-1,31)]", c.Minimizer))
	}
	if strings.TrimSpace(c.Out) == "" {
		errs = append(errs, errors.New("out is required"))
	}
	if _, err := c.InvalidPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := count.ParseStrategy(c.Counting.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := sortcount.ParseSolidity(c.Solidity.Kind); err != nil {
		errs = append(errs, err)
	}
	if c.Counting.Workers < 0 || c.Counting.Partitions < 0 || c.Counting.Passes < 0 {
		errs = append(errs, errors.New("counting: workers, partitions and passes must not be negative"))
	}
	if c.Counting.Passes > 1<<10 {
		errs = append(errs, fmt.Errorf("counting: %d passes is unreasonable", c.Counting.Passes))
	}
	if _, err := ParseSize(c.Counting.Memory); err != nil {
		errs = append(errs, fmt.Errorf("counting.memory: %w", err))
	}
	if _, err := ParseSize(c.Debloom.Memory); err != nil {
		errs = append(errs, fmt.Errorf("debloom.memory: %w", err))
	}
	minAb, auto, err := c.AbundanceMin()
	if err != nil {
		errs = append(errs, err)
	} else if !auto && c.Solidity.AbundanceMax > 0 && minAb > c.Solidity.AbundanceMax {
		errs = append(errs, fmt.Errorf("abundance_min %d exceeds abundance_max %d", minAb, c.Solidity.AbundanceMax))
	}
	if p := c.Debloom.FPRate; p < 0 || p >= 1 {
		errs = append(errs, fmt.Errorf("debloom.fp_rate %v outside [0,1)", p))
	}
	if g := c.Debloom.Gamma; g != 0 && g <= 1 {
		errs = append(errs, fmt.Errorf("debloom.gamma %v must exceed 1", g))
	}
	return errors.Join(errs...)
}

// AbundanceMin returns the configured lower bound, or auto=true when the
// histogram should pick it.
func (c *Config) AbundanceMin() (v uint32, auto bool, err error) {
	s := strings.ToLower(strings.TrimSpace(c.Solidity.AbundanceMin))
	if s == "" || s == "auto" {
		return 0, true, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false, fmt.Errorf("abundance_min %q: want a positive number or \"auto\"", c.Solidity.AbundanceMin)
	}
	return uint32(n), false, nil
}

// InvalidPolicy maps the invalid setting to the iterator policy.
func (c *Config) InvalidPolicy() (kmer.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Invalid)) {
	case "", "skip":
		return kmer.SkipInvalid, nil
	case "abort":
		return kmer.AbortOnInvalid, nil
	}
	return kmer.SkipInvalid, fmt.Errorf("invalid=%q: want skip or abort", c.Invalid)
}

// ForSortCount translates the counting and solidity sections.
func (c *Config) ForSortCount() (sortcount.Config, error) {
	if err := c.Validate(); err != nil {
		return sortcount.Config{}, err
	}
	strategy, _ := count.ParseStrategy(c.Counting.Strategy)
	solidity, _ := sortcount.ParseSolidity(c.Solidity.Kind)
	policy, _ := c.InvalidPolicy()
	budget, _ := ParseSize(c.Counting.Memory)
	minAb, _, _ := c.AbundanceMin()
	return sortcount.Config{
		Partitions:    c.Counting.Partitions,
		MaxPartitions: c.Counting.MaxPartitions,
		Passes:        c.Counting.Passes,
		Workers:       c.Counting.Workers,
		Budget:        budget,
		Strategy:      strategy,
		Solidity:      solidity,
		AbundanceMin:  minAb,
		AbundanceMax:  c.Solidity.AbundanceMax,
		HistogramMax:  c.Solidity.HistogramMax,
		AutoFloor:     c.Solidity.AutoFloor,
		InvalidPolicy: policy,
		MaxRescans:    c.Counting.MaxRescans,
		Fanout:        c.Counting.Fanout,
		MaxDepth:      c.Counting.MaxDepth,
	}, nil
}

// ForDebloom translates the debloom section. Dir and Manifest are
// set by the caller.
func (c *Config) ForDebloom() (debloom.Config, error) {
	budget, err := ParseSize(c.Debloom.Memory)
	if err != nil {
		return debloom.Config{}, fmt.Errorf("debloom.memory: %w", err)
	}
	return debloom.Config{
		FPRate:  c.Debloom.FPRate,
		Budget:  budget,
		Gamma:   c.Debloom.Gamma,
		Workers: c.Counting.Workers,
	}, nil
}
