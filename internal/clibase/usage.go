// internal/clibase/usage.go
package clibase

import (
	"flag"
	"fmt"
	"io"

	"dbgraph/internal/version"
)

// UsageCommon installs a shared Usage() handler on fs.
// extra prints tool-specific sections.
func UsageCommon(fs *flag.FlagSet, name, summary string, extra func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		fmt.Fprintf(out, "%s – %s\n\n", name, summary)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		if extra != nil {
			extra(out, def)
		}

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "  -t, --threads int           Worker threads (0=all CPUs) [%s]\n", def("threads"))
		fmt.Fprintf(out, "  -q, --quiet                 Only log warnings and errors [%s]\n", def("quiet"))
		fmt.Fprintf(out, "      --verbose               Log debug detail [%s]\n", def("verbose"))
		fmt.Fprintln(out, "      --examples              Print usage examples and exit")
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}
