package clibase

import (
	"bytes"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndExplicit(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	var c Common
	var files []string
	Register(fs, &c)
	SliceVar(fs, &files, "s", "")
	require.NoError(t, fs.Parse([]string{"-t", "3", "-s", "a.fa", "-s", "b.fa", "--quiet"}))
	assert.Equal(t, 3, c.Threads)
	assert.True(t, c.Quiet)
	assert.Equal(t, []string{"a.fa", "b.fa"}, files)
	assert.Equal(t, map[string]bool{"t": true, "s": true, "quiet": true}, Explicit(fs))
	require.NoError(t, Validate(&c))

	c.Verbose = true
	assert.Error(t, Validate(&c))
	assert.Error(t, Validate(&Common{Threads: -1}))
}

func TestUsageCommon(t *testing.T) {
	fs := flag.NewFlagSet("tool", flag.ContinueOnError)
	var c Common
	Register(fs, &c)
	var b bytes.Buffer
	fs.SetOutput(&b)
	UsageCommon(fs, "tool", "does things", func(out io.Writer, def func(string) string) {
		_, _ = io.WriteString(out, "Usage: tool ["+def("threads")+"]\n")
	})
	fs.Usage()
	assert.Contains(t, b.String(), "tool – does things")
	assert.Contains(t, b.String(), "Usage: tool [0]")
	assert.Contains(t, b.String(), "--threads int")
}
