// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"
)

// Common holds CLI fields shared by dbgraph and dbgraph-query.
type Common struct {
	Threads  int
	Quiet    bool
	Verbose  bool
	Version  bool
	Examples bool
}

// sliceValue appends each value to a *[]string (for --sequences/-s)
type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}
func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// SliceVar registers a repeatable string flag.
func SliceVar(fs *flag.FlagSet, dst *[]string, name, usage string) {
	fs.Var(&sliceValue{dst: dst}, name, usage)
}

// Register wires shared flags onto fs.
func Register(fs *flag.FlagSet, c *Common) {
	fs.IntVar(&c.Threads, "threads", 0, "worker threads (0=all CPUs) [0]")
	fs.IntVar(&c.Threads, "t", 0, "alias of --threads")
	fs.BoolVar(&c.Quiet, "quiet", false, "only log warnings and errors [false]")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Verbose, "verbose", false, "log debug detail [false]")
	fs.BoolVar(&c.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&c.Examples, "examples", false, "print usage examples and exit [false]")
}

// Validate applies shared CLI invariants used by all tools.
func Validate(c *Common) error {
	if c.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	if c.Quiet && c.Verbose {
		return errors.New("--quiet conflicts with --verbose")
	}
	return nil
}

// Explicit returns the names of the flags set on the command line.
func Explicit(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
