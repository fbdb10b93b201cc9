package appcore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbgraph/internal/cmdutil"
	"dbgraph/pkg/api"
)

func TestKeyWords(t *testing.T) {
	for k, want := range map[int]int{2: 1, 32: 1, 33: 2, 64: 2, 65: 3, 96: 3, 97: 4, 128: 4} {
		got, err := KeyWords(k)
		require.NoError(t, err, k)
		assert.Equal(t, want, got, "k=%d", k)
	}
	_, err := KeyWords(129)
	assert.Error(t, err)
}

func TestStreamWritesAndExitsOK(t *testing.T) {
	var out, errb bytes.Buffer
	code := Stream[api.QueryV1](context.Background(), &out, &errb, NewQueryWriterFactory("jsonl", true, false), 2,
		func(ctx context.Context, send func(api.QueryV1) error) error {
			for _, k := range []string{"AAA", "CCC", "GGG"} {
				if err := send(api.QueryV1{Kmer: k}); err != nil {
					return err
				}
			}
			return nil
		})
	assert.Equal(t, cmdutil.ExitOK, code, errb.String())
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestStreamProduceError(t *testing.T) {
	var out, errb bytes.Buffer
	_, missing := os.Open("/no/such/index")
	code := Stream[api.QueryV1](context.Background(), &out, &errb, NewQueryWriterFactory("text", true, false), 2,
		func(context.Context, func(api.QueryV1) error) error { return missing })
	assert.Equal(t, cmdutil.ExitIO, code)
	assert.Contains(t, errb.String(), "/no/such/index")

	code = Stream[api.QueryV1](context.Background(), &out, &errb, NewQueryWriterFactory("text", true, false), 2,
		func(context.Context, func(api.QueryV1) error) error { return errors.New("boom") })
	assert.Equal(t, cmdutil.ExitRuntime, code)
}

func TestStreamCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := Stream[api.QueryV1](ctx, &out, &errb, NewQueryWriterFactory("text", false, false), 0,
		func(ctx context.Context, send func(api.QueryV1) error) error {
			<-ctx.Done()
			return ctx.Err()
		})
	assert.Equal(t, cmdutil.ExitCanceled, code)
	assert.Empty(t, errb.String())
}
