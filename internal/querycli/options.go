package querycli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"dbgraph/internal/clibase"
	"dbgraph/internal/cliutil"
)

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

type Options struct {
	clibase.Common

	Index     string
	File      string // one k-mer per line; '-' for STDIN
	Kmers     []string
	Output    string
	Header    bool
	Neighbors bool
	Unique    bool
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "de Bruijn graph membership queries", func(out io.Writer, def func(string) string) {
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s [options] --index DIR KMER [KMER ...]\n", name)
		_, _ = fmt.Fprintf(out, "  %s [options] --index DIR --file kmers.txt\n", name)

		_, _ = fmt.Fprintln(out, "\nQuery:")
		_, _ = fmt.Fprintln(out, "  -i, --index dir             Index directory written by dbgraph [required]")
		_, _ = fmt.Fprintln(out, "  -f, --file file             K-mers, one per line, or '-' for STDIN")
		_, _ = fmt.Fprintf(out, "      --neighbors             List successor and predecessor k-mers [%s]\n", def("neighbors"))
		_, _ = fmt.Fprintf(out, "      --unique                Answer each k-mer once, either strand [%s]\n", def("unique"))

		_, _ = fmt.Fprintln(out, "\nOutput:")
		_, _ = fmt.Fprintf(out, "  -o, --output string         Output: text | json | jsonl [%s]\n", def("output"))
		_, _ = fmt.Fprintf(out, "      --no-header             Suppress header line [%s]\n", def("no-header"))
	})
	return fs
}

func Parse() (Options, error) { return ParseArgs(NewFlagSet("dbgraph-query"), nil) }

// PrintExamples prints a short quickstart for dbgraph-query.
func PrintExamples(out io.Writer) {
	clibase.PrintExamples(out, "dbgraph-query", func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "Ask whether k-mers are in the graph:")
		_, _ = fmt.Fprintln(w, "  dbgraph-query -i reads.idx AAAAACTACATTACCCGTTTGCGAGACAGGTA")
		_, _ = fmt.Fprintln(w, "\nStream a list as JSONL with neighbors:")
		_, _ = fmt.Fprintln(w, "  cut -f1 kmers.tsv | dbgraph-query -i reads.idx -f - -o jsonl --neighbors")
	})
}

func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help, noHeader bool

	clibase.Register(fs, &o.Common)
	fs.StringVar(&o.Index, "index", "", "index directory [required]")
	fs.StringVar(&o.Index, "i", "", "alias of --index")
	fs.StringVar(&o.File, "file", "", "k-mers, one per line, or '-'")
	fs.StringVar(&o.File, "f", "", "alias of --file")
	fs.BoolVar(&o.Neighbors, "neighbors", false, "list neighbor k-mers [false]")
	fs.BoolVar(&o.Unique, "unique", false, "answer each k-mer once, either strand [false]")
	fs.StringVar(&o.Output, "output", FormatText, "output: text | json | jsonl [text]")
	fs.StringVar(&o.Output, "o", FormatText, "alias of --output")
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line [false]")
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
	o.Header = !noHeader
	o.Kmers = posArgs

	if err := clibase.Validate(&o.Common); err != nil {
		return o, err
	}
	if o.Index == "" {
		return o, errors.New("--index is required")
	}
	if o.File == "" && len(o.Kmers) == 0 {
		return o, errors.New("provide k-mers as arguments or with --file")
	}
	switch o.Output {
	case FormatText, FormatJSON, FormatJSONL:
	default:
		return o, fmt.Errorf("invalid --output %q", o.Output)
	}
	return o, nil
}
