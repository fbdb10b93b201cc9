// internal/queryapp/app.go
package queryapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"dbgraph/internal/appcore"
	"dbgraph/internal/clibase"
	"dbgraph/internal/cmdutil"
	"dbgraph/internal/graph"
	"dbgraph/internal/index"
	"dbgraph/internal/largeint"
	"dbgraph/internal/querycli"
	"dbgraph/internal/runutil"
	"dbgraph/internal/version"
	"dbgraph/pkg/api"
)

// Stdin is read when --file is '-'.
var Stdin io.Reader = os.Stdin

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := querycli.NewFlagSet("dbgraph-query")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := querycli.ParseArgs(fs, argv)
	if err != nil {
		switch {
		case errors.Is(err, clibase.ErrPrintedAndExitOK):
			querycli.PrintExamples(outw)
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
		_, _ = fmt.Fprintf(outw, "dbgraph-query version %s\n", version.Version)
		return appcore.Flush(outw, stderr, cmdutil.ExitOK)
	}

	m, err := index.ReadManifest(opts.Index)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return cmdutil.ExitCode(err)
	}
	words, err := appcore.KeyWords(m.K)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return cmdutil.ExitRuntime
	}

	var failed int
	produce := func(ctx context.Context, send func(api.QueryV1) error) error {
		var (
			n   int
			err error
		)
		switch words {
		case 1:
			n, err = query[largeint.Uint64](ctx, opts, send)
		case 2:
			n, err = query[largeint.Uint128](ctx, opts, send)
		case 3:
			n, err = query[largeint.Uint192](ctx, opts, send)
		default:
			n, err = query[largeint.Uint256](ctx, opts, send)
		}
		failed = n
		return err
	}
	wf := appcore.NewQueryWriterFactory(opts.Output, opts.Header, opts.Neighbors)
	code := appcore.Stream[api.QueryV1](parent, outw, stderr, wf, runutil.Threads(opts.Threads)*4, produce)
	if code == cmdutil.ExitOK && failed > 0 {
		cmdutil.Warnf(stderr, opts.Quiet, "%d queries could not be answered", failed)
		code = cmdutil.ExitRuntime
	}
	return appcore.Flush(outw, stderr, code)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// query answers every k-mer of opts in input order and returns how many
// were malformed.
func query[K largeint.Integer[K]](ctx context.Context, opts querycli.Options, send func(api.QueryV1) error) (int, error) {
	g, err := graph.Open[K](opts.Index)
	if err != nil {
		return 0, err
	}
	defer g.Close()

	var seen *runutil.Seen[string]
	if opts.Unique {
		seen = runutil.NewSeen[string](0)
	}
	failed := 0
	answer := func(s string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := Answer(g, s, opts.Neighbors)
		if seen != nil && seen.Add(uniqueKey(q)) {
			return nil
		}
		if q.Error != "" {
			failed++
		}
		return send(q)
	}

	for _, s := range opts.Kmers {
		if err := answer(s); err != nil {
			return failed, err
		}
	}
	if opts.File == "" {
		return failed, nil
	}
	err = readKmers(opts.File, answer)
	return failed, err
}

// uniqueKey identifies a k-mer and its reverse complement as one query.
// Malformed k-mers fall back to their upper-cased text.
func uniqueKey(q api.QueryV1) string {
	if q.Canonical != "" {
		return q.Canonical
	}
	return strings.ToUpper(q.Kmer)
}

// Answer looks one k-mer up. Degrees, abundance and neighbors are filled
// only for members.
func Answer[K largeint.Integer[K]](g *graph.Graph[K], s string, neighbors bool) api.QueryV1 {
	q := api.QueryV1{Kmer: s}
	k := g.Model().K()
	if len(s) != k {
		q.Error = fmt.Sprintf("length %d, index k=%d", len(s), k)
		return q
	}
	n, err := g.BuildNode([]byte(s), 0)
	if err != nil {
		q.Error = err.Error()
		return q
	}
	q.Canonical = g.Model().Decode(n.Kmer)
	q.Strand = n.Strand.String()
	q.Contains = g.Contains(n.Kmer)
	if !q.Contains {
		return q
	}
	ab, found, err := g.Abundance(n)
	if err != nil {
		q.Error = err.Error()
		return q
	}
	if found {
		q.Abundance = ab
	}
	q.InDegree = g.Degree(n, graph.Incoming)
	q.OutDegree = g.Degree(n, graph.Outgoing)
	q.Branching = g.IsBranching(n)
	if neighbors {
		for _, nb := range g.Neighbors(n, graph.Outgoing) {
			q.Successors = append(q.Successors, g.Sequence(nb))
		}
		for _, nb := range g.Neighbors(n, graph.Incoming) {
			q.Predecessors = append(q.Predecessors, g.Sequence(nb))
		}
	}
	return q
}

// readKmers calls fn with the first field of every non-blank line that
// does not start with '#'.
func readKmers(path string, fn func(string) error) error {
	r := Stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		r = fh
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if err := fn(strings.Fields(line)[0]); err != nil {
			return err
		}
	}
	return sc.Err()
}
