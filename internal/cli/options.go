// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"

	"dbgraph/internal/clibase"
	"dbgraph/internal/cliutil"
	"dbgraph/internal/config"
)

// Options holds all dbgraph flags and arguments.
type Options struct {
	clibase.Common

	ConfigFile string
	SeqFiles   []string

	// Index
	Out       string
	WorkDir   string
	K         int
	Minimizer int
	Invalid   string

	// Counting
	Memory     string
	Partitions int
	Passes     int
	Strategy   string

	// Solidity
	Solidity     string
	AbundanceMin string
	AbundanceMax uint

	// Debloom
	FPRate      float64
	BloomMemory string

	// Output
	JSON      bool
	Histogram bool

	explicit map[string]bool
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "k-mer counting and de Bruijn graph index", func(out io.Writer, def func(string) string) {
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s [options] --out DIR reads.fa[.gz] [more.fq ...]\n", name)

		_, _ = fmt.Fprintln(out, "\nInput:")
		_, _ = fmt.Fprintln(out, "  -s, --sequences file        FASTA/FASTQ file(s) (repeatable) or '-' for STDIN")
		_, _ = fmt.Fprintln(out, "      --config file           YAML settings; flags override file values")
		_, _ = fmt.Fprintf(out, "      --invalid string        Non-ACGT symbols: skip | abort [%s]\n", def("invalid"))

		_, _ = fmt.Fprintln(out, "\nIndex:")
		_, _ = fmt.Fprintf(out, "  -o, --out dir               Index directory [%s]\n", def("out"))
		_, _ = fmt.Fprintln(out, "      --work-dir dir          Scratch space for partitions (default: inside --out)")
		_, _ = fmt.Fprintf(out, "  -k, --kmer-size int         k-mer length, 2..128 [%s]\n", def("kmer-size"))
		_, _ = fmt.Fprintf(out, "      --minimizer int         Minimizer length (0=min(8,k-1)) [%s]\n", def("minimizer"))

		_, _ = fmt.Fprintln(out, "\nCounting:")
		_, _ = fmt.Fprintln(out, "  -m, --memory size           Memory for all counting workers, e.g. 4GiB (default: unlimited)")
		_, _ = fmt.Fprintf(out, "      --partitions int        Partitions per pass (0=derived) [%s]\n", def("partitions"))
		_, _ = fmt.Fprintf(out, "      --passes int            Disk-bounding passes [%s]\n", def("passes"))
		_, _ = fmt.Fprintf(out, "      --strategy string       auto | hash | vector [%s]\n", def("strategy"))

		_, _ = fmt.Fprintln(out, "\nSolidity:")
		_, _ = fmt.Fprintf(out, "      --solidity string       Multi-file rule: sum | min | max | one | all [%s]\n", def("solidity"))
		_, _ = fmt.Fprintf(out, "      --abundance-min string  Lowest kept abundance, or auto [%s]\n", def("abundance-min"))
		_, _ = fmt.Fprintf(out, "      --abundance-max int     Highest kept abundance (0=unbounded) [%s]\n", def("abundance-max"))

		_, _ = fmt.Fprintln(out, "\nMembership:")
		_, _ = fmt.Fprintf(out, "      --fp-rate float         Bloom false positive target (0=derived from k) [%s]\n", def("fp-rate"))
		_, _ = fmt.Fprintln(out, "      --bloom-memory size     Bloom bit array budget (default: unlimited)")

		_, _ = fmt.Fprintln(out, "\nOutput:")
		_, _ = fmt.Fprintf(out, "      --json                  Print statistics as JSON [%s]\n", def("json"))
		_, _ = fmt.Fprintf(out, "      --histogram             Include the abundance histogram [%s]\n", def("histogram"))
	})
	return fs
}

func Parse() (Options, error) { return ParseArgs(NewFlagSet("dbgraph"), nil) }

// PrintExamples prints a short quickstart for dbgraph.
func PrintExamples(out io.Writer) {
	clibase.PrintExamples(out, "dbgraph", func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "Count 31-mers in two read files and keep those seen at least 3 times:")
		_, _ = fmt.Fprintln(w, "  dbgraph -k 31 --abundance-min 3 -o reads.idx r1.fq.gz r2.fq.gz")
		_, _ = fmt.Fprintln(w, "\nLet the histogram pick the cutoff, within 8GiB:")
		_, _ = fmt.Fprintln(w, "  dbgraph -k 63 --abundance-min auto -m 8GiB -o genome.idx reads.fa")
		_, _ = fmt.Fprintln(w, "\nThen query it:")
		_, _ = fmt.Fprintln(w, "  dbgraph-query --index genome.idx ACGT...")
	})
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help bool

	clibase.Register(fs, &o.Common)
	clibase.SliceVar(fs, &o.SeqFiles, "sequences", "FASTA/FASTQ file(s) (repeatable) or '-'")
	clibase.SliceVar(fs, &o.SeqFiles, "s", "alias of --sequences")
	fs.StringVar(&o.ConfigFile, "config", "", "YAML settings file")
	fs.StringVar(&o.Invalid, "invalid", "skip", "non-ACGT symbols: skip | abort [skip]")

	fs.StringVar(&o.Out, "out", "dbgraph.idx", "index directory [dbgraph.idx]")
	fs.StringVar(&o.Out, "o", "dbgraph.idx", "alias of --out")
	fs.StringVar(&o.WorkDir, "work-dir", "", "scratch directory")
	fs.IntVar(&o.K, "kmer-size", 31, "k-mer length [31]")
	fs.IntVar(&o.K, "k", 31, "alias of --kmer-size")
	fs.IntVar(&o.Minimizer, "minimizer", 0, "minimizer length (0=auto) [0]")

	fs.StringVar(&o.Memory, "memory", "", "memory for all counting workers")
	fs.StringVar(&o.Memory, "m", "", "alias of --memory")
	fs.IntVar(&o.Partitions, "partitions", 0, "partitions per pass (0=derived) [0]")
	fs.IntVar(&o.Passes, "passes", 1, "disk-bounding passes [1]")
	fs.StringVar(&o.Strategy, "strategy", "auto", "auto | hash | vector [auto]")

	fs.StringVar(&o.Solidity, "solidity", "sum", "sum | min | max | one | all [sum]")
	fs.StringVar(&o.AbundanceMin, "abundance-min", "2", "lowest kept abundance or auto [2]")
	fs.UintVar(&o.AbundanceMax, "abundance-max", 0, "highest kept abundance (0=unbounded) [0]")

	fs.Float64Var(&o.FPRate, "fp-rate", 0, "Bloom false positive target (0=derived) [0]")
	fs.StringVar(&o.BloomMemory, "bloom-memory", "", "Bloom bit array budget")

	fs.BoolVar(&o.JSON, "json", false, "print statistics as JSON [false]")
	fs.BoolVar(&o.Histogram, "histogram", false, "include the abundance histogram [false]")

	fs.BoolVar(&help, "h", false, "show this help [false]")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return o, err
	}
	if o.Examples {
		return o, clibase.ErrPrintedAndExitOK
	}
	if help {
		return o, flag.ErrHelp
	}
	if o.Version {
		return o, nil
	}
	o.explicit = clibase.Explicit(fs)

	if len(posArgs) > 0 {
		exp, err := cliutil.ExpandPositionals(posArgs)
		if err != nil {
			return o, err
		}
		o.SeqFiles = append(o.SeqFiles, exp...)
	}
	if err := clibase.Validate(&o.Common); err != nil {
		return o, err
	}
	if len(o.SeqFiles) == 0 {
		return o, errors.New("at least one sequence file is required")
	}
	stdin := 0
	for _, f := range o.SeqFiles {
		if f == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return o, errors.New("'-' (STDIN) may be given only once")
	}
	if o.Partitions < 0 {
		return o, errors.New("--partitions must be ≥ 0")
	}
	if o.Passes < 1 {
		return o, errors.New("--passes must be ≥ 1")
	}
	if uint64(o.AbundanceMax) > math.MaxUint32 {
		return o, fmt.Errorf("--abundance-max %d is too large", o.AbundanceMax)
	}
	return o, nil
}

// set reports whether any of the named flags was given explicitly.
func (o *Options) set(names ...string) bool {
	for _, n := range names {
		if o.explicit[n] {
			return true
		}
	}
	return false
}

// Config loads --config (or the defaults) and applies explicitly given
// flags over it. The result is validated.
func (o *Options) Config() (*config.Config, error) {
	cfg := config.Default()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(o.ConfigFile); err != nil {
			return nil, err
		}
	}
	if o.ConfigFile == "" || o.set("out", "o") {
		cfg.Out = o.Out
	}
	if o.ConfigFile == "" || o.set("kmer-size", "k") {
		cfg.K = o.K
	}
	if o.set("minimizer") {
		cfg.Minimizer = o.Minimizer
	}
	if o.set("work-dir") {
		cfg.WorkDir = o.WorkDir
	}
	if o.set("invalid") {
		cfg.Invalid = o.Invalid
	}
	if o.set("threads", "t") {
		cfg.Counting.Workers = o.Threads
	}
	if o.set("memory", "m") {
		cfg.Counting.Memory = o.Memory
	}
	if o.set("partitions") {
		cfg.Counting.Partitions = o.Partitions
	}
	if o.set("passes") {
		cfg.Counting.Passes = o.Passes
	}
	if o.set("strategy") {
		cfg.Counting.Strategy = o.Strategy
	}
	if o.set("solidity") {
		cfg.Solidity.Kind = o.Solidity
	}
	if o.set("abundance-min") {
		cfg.Solidity.AbundanceMin = o.AbundanceMin
	}
	if o.set("abundance-max") {
		cfg.Solidity.AbundanceMax = uint32(o.AbundanceMax)
	}
	if o.set("fp-rate") {
		cfg.Debloom.FPRate = o.FPRate
	}
	if o.set("bloom-memory") {
		cfg.Debloom.Memory = o.BloomMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
