// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"dbgraph/internal/appcore"
	"dbgraph/internal/bank"
	"dbgraph/internal/cli"
	"dbgraph/internal/clibase"
	"dbgraph/internal/cmdutil"
	"dbgraph/internal/config"
	"dbgraph/internal/debloom"
	"dbgraph/internal/index"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/output"
	"dbgraph/internal/runutil"
	"dbgraph/internal/sortcount"
	"dbgraph/internal/store"
	"dbgraph/internal/telemetry"
	"dbgraph/internal/version"
	"dbgraph/pkg/api"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("dbgraph")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		switch {
		case errors.Is(err, clibase.ErrPrintedAndExitOK):
			cli.PrintExamples(outw)
			return appcore.Flush(outw, stderr, cmdutil.ExitOK)
		case errors.Is(err, flag.ErrHelp):
			fs.SetOutput(outw)
			fs.Usage()
			return appcore.Flush(outw, stderr, cmdutil.ExitOK)
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return appcore.Flush(outw, stderr, cmdutil.ExitUsage)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "dbgraph version %s\n", version.Version)
		return appcore.Flush(outw, stderr, cmdutil.ExitOK)
	}

	cfg, err := opts.Config()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return cmdutil.ExitUsage
	}
	words, err := appcore.KeyWords(cfg.K)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return cmdutil.ExitUsage
	}

	log := cmdutil.NewLogger(stderr, opts.Quiet, opts.Verbose)
	tel, err := telemetry.New(otel.GetMeterProvider(), otel.GetTracerProvider())
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return cmdutil.ExitRuntime
	}
	b := &builder{
		cfg:   cfg,
		files: opts.SeqFiles,
		runID: uuid.NewString(),
		log:   log,
		tel:   tel,
	}

	var stats api.StatsV1
	switch words {
	case 1:
		stats, err = build[largeint.Uint64](parent, b)
	case 2:
		stats, err = build[largeint.Uint128](parent, b)
	case 3:
		stats, err = build[largeint.Uint192](parent, b)
	default:
		stats, err = build[largeint.Uint256](parent, b)
	}
	if err != nil {
		code := cmdutil.ExitCode(err)
		if code != cmdutil.ExitCanceled {
			_, _ = fmt.Fprintln(stderr, err)
		}
		return code
	}

	if opts.JSON {
		err = output.WriteStatsJSON(outw, stats)
	} else {
		err = output.WriteStatsText(outw, stats, opts.Histogram)
	}
	if err != nil {
		return appcore.Flush(outw, stderr, cmdutil.ExitCode(err))
	}
	return appcore.Flush(outw, stderr, cmdutil.ExitOK)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

type builder struct {
	cfg   *config.Config
	files []string
	runID string
	log   *slog.Logger
	tel   *telemetry.Telemetry
}

// build counts the input banks into the solid table and builds the
// membership structures next to it. The manifest is the last file written;
// a failed or cancelled run leaves the index directory without one.
func build[K largeint.Integer[K]](ctx context.Context, b *builder) (api.StatsV1, error) {
	start := time.Now()
	cfg := b.cfg
	log := b.log.With("run_id", b.runID)

	md, err := kmer.NewModel[K](cfg.K, cfg.Minimizer)
	if err != nil {
		return api.StatsV1{}, err
	}
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return api.StatsV1{}, err
	}
	// an index being rebuilt must not look complete
	if err := os.Remove(filepath.Join(cfg.Out, index.ManifestFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return api.StatsV1{}, err
	}
	scratch := runutil.ScratchDir(cfg.Out, cfg.WorkDir, b.runID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return api.StatsV1{}, err
	}
	defer os.RemoveAll(scratch)

	banks, err := openBanks(b.files, scratch)
	if err != nil {
		return api.StatsV1{}, err
	}

	workers := runutil.Threads(cfg.Counting.Workers)
	sc, err := cfg.ForSortCount()
	if err != nil {
		return api.StatsV1{}, err
	}
	sc.Out = filepath.Join(cfg.Out, index.SolidFile)
	sc.Dir = scratch
	sc.Workers = workers
	sc.Logger = log
	sc.Telemetry = b.tel
	log.Info("counting", "k", cfg.K, "minimizer", md.MinimizerSize(), "inputs", len(banks), "workers", workers)
	counted, err := sortcount.Run(ctx, md, banks, sc)
	if err != nil {
		return api.StatsV1{}, err
	}

	db, err := cfg.ForDebloom()
	if err != nil {
		return api.StatsV1{}, err
	}
	db.Dir = cfg.Out
	db.Workers = workers
	db.Logger = log
	db.Telemetry = b.tel
	db.Manifest = api.ManifestV1{
		RunID:        b.runID,
		Inputs:       b.files,
		AbundanceMin: counted.Cutoff,
		AbundanceMax: sc.AbundanceMax,
		Solidity:     sc.Solidity.String(),
	}
	membership, err := debloom.Run(ctx, md, db)
	if err != nil {
		_ = store.Remove(sc.Out)
		return api.StatsV1{}, err
	}
	return output.ToAPIStats(b.runID, cfg.Out, cfg.K, counted, membership, time.Since(start)), nil
}

// openBanks makes one bank per input file. Standard input is copied into
// the scratch directory first because counting reads every bank more than
// once.
func openBanks(files []string, scratch string) ([]bank.Bank, error) {
	banks := make([]bank.Bank, 0, len(files))
	for _, f := range files {
		if f == "-" {
			spooled := filepath.Join(scratch, "stdin.fastx")
			if err := spool(os.Stdin, spooled); err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			f = spooled
		} else if _, err := os.Stat(f); err != nil {
			return nil, err
		}
		banks = append(banks, bank.NewFile(f))
	}
	return banks, nil
}

func spool(r io.Reader, path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fh, r); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
