package store

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestWriteSealIterate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.0")
	w, err := Create(path, 4)
	require.NoError(t, err)
	for i := uint32(0); i < 1000; i++ {
		require.NoError(t, w.Append(rec(i)))
	}
	assert.EqualValues(t, 1000, w.Count())

	// nothing visible before Seal
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, w.Seal())

	r, err := Open(path, 4)
	require.NoError(t, err)
	defer r.Close()
	assert.EqualValues(t, 1000, r.Len())
	var i uint32
	for r.Next() {
		require.Equal(t, i, binary.LittleEndian.Uint32(r.Record()))
		i++
	}
	require.NoError(t, r.Err())
	assert.EqualValues(t, 1000, i)

	n, err := Len(path, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, n)

	tbl, err := OpenTable(path, 4)
	require.NoError(t, err)
	defer tbl.Close()
	buf := make([]byte, 4)
	require.NoError(t, tbl.Read(777, buf))
	assert.EqualValues(t, 777, binary.LittleEndian.Uint32(buf))
	assert.Error(t, tbl.Read(1000, buf))
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "x"), 4)
	require.NoError(t, err)
	require.NoError(t, w.Append(rec(1)))
	require.NoError(t, w.Abort())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendRejectsWrongSize(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "x"), 4)
	require.NoError(t, err)
	defer w.Abort()
	assert.Error(t, w.Append([]byte{1, 2}))
}

func TestOpenRejectsTornFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torn")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5}, 0o644))
	_, err := Open(path, 4)
	assert.Error(t, err)
	assert.NoError(t, Remove(path))
	assert.NoError(t, Remove(path))
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bloom.bin")
	err := WriteFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("interrupted")
	})
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("complete"))
		return err
	}))
	var got []byte
	require.NoError(t, ReadFile(path, func(r io.Reader) error {
		var err error
		got, err = io.ReadAll(r)
		return err
	}))
	assert.Equal(t, "complete", string(got))
}

func TestOpenRangeAndRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solid")
	w, err := Create(path, 4)
	require.NoError(t, err)
	for i := uint32(0); i < 103; i++ {
		require.NoError(t, w.Append(rec(i)))
	}
	require.NoError(t, w.Seal())

	rs := Ranges(103, 4)
	require.Len(t, rs, 4)
	var next uint32
	for _, rg := range rs {
		r, err := OpenRange(path, 4, rg[0], rg[1])
		require.NoError(t, err)
		assert.Equal(t, rg[1]-rg[0], r.Len())
		for r.Next() {
			require.Equal(t, next, binary.LittleEndian.Uint32(r.Record()))
			next++
		}
		require.NoError(t, r.Err())
		require.NoError(t, r.Close())
	}
	assert.EqualValues(t, 103, next)

	assert.Len(t, Ranges(2, 8), 2)
	assert.Equal(t, [][2]int64{{0, 0}}, Ranges(0, 3))
}
