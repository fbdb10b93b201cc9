// internal/mphf/set.go
package mphf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

// Set is an exact key set: an MPHF plus every key stored at its index, and
// one flag bit per key.
type Set[K largeint.Integer[K]] struct {
	h     *MPHF[K]
	gamma float64
	keys  []K
	flags []uint64
}

// NewSet builds a set over distinct keys with all flags cleared.
func NewSet[K largeint.Integer[K]](keys []K, gamma float64, seed uint64) *Set[K] {
	h := Build(keys, gamma, seed)
	s := &Set[K]{h: h, gamma: gamma, keys: make([]K, len(keys)), flags: make([]uint64, (len(keys)+63)/64)}
	for _, k := range keys {
		i, _ := h.Index(k)
		s.keys[i] = k
	}
	return s
}

func (s *Set[K]) Len() int { return len(s.keys) }

// Lookup reports whether key is in the set and, if so, its flag.
func (s *Set[K]) Lookup(key K) (found, flag bool) {
	if len(s.keys) == 0 {
		return false, false
	}
	i, ok := s.h.Index(key)
	if !ok || i >= uint64(len(s.keys)) || s.keys[i] != key {
		return false, false
	}
	return true, s.flags[i>>6]&(1<<(i&63)) != 0
}

// Keys returns the stored keys in index order.
func (s *Set[K]) Keys() []K { return s.keys }

var magic = [8]byte{'D', 'B', 'G', 'M', 'P', 'H', 'F', 0}

const version = 2

type header struct {
	Magic    [8]byte
	Version  uint32
	KeyBytes uint32
	N        uint64
	Seed     uint64
	Gamma    float64
}

var errFormat = errors.New("mphf: not a set file")

// WriteTo serializes the set: header, keys in index order, flags. The
// level arrays are not stored; ReadSet rebuilds them from the keys.
func (s *Set[K]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	le := binary.LittleEndian
	hdr := header{
		Magic:    magic,
		Version:  version,
		KeyBytes: uint32(largeint.Bytes[K]()),
		N:        s.h.n,
		Seed:     s.h.seed,
		Gamma:    s.gamma,
	}
	if err := binary.Write(cw, le, &hdr); err != nil {
		return cw.n, err
	}
	kb := largeint.Bytes[K]()
	buf := make([]byte, kb)
	for _, k := range s.keys {
		k.Put(buf)
		if _, err := cw.Write(buf); err != nil {
			return cw.n, err
		}
	}
	err := binary.Write(cw, le, s.flags)
	return cw.n, err
}

// ReadSet deserializes a set written by WriteTo for the same key width.
// Every key must come back at the index it was stored at.
func ReadSet[K largeint.Integer[K]](r io.Reader) (*Set[K], error) {
	le := binary.LittleEndian
	var hdr header
	if err := binary.Read(r, le, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != magic {
		return nil, errFormat
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("mphf: unsupported version %d", hdr.Version)
	}
	kb := largeint.Bytes[K]()
	if int(hdr.KeyBytes) != kb {
		return nil, fmt.Errorf("mphf: set built for %d-byte keys, want %d", hdr.KeyBytes, kb)
	}
	if hdr.N > 1<<40 {
		return nil, errFormat
	}
	keys := make([]K, hdr.N)
	buf := make([]byte, kb)
	var z K
	for i := range keys {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		keys[i] = z.Get(buf)
	}
	s := NewSet(keys, hdr.Gamma, hdr.Seed)
	for i, k := range keys {
		if s.keys[i] != k {
			return nil, fmt.Errorf("mphf: key %d moved on rebuild: %w", i, errFormat)
		}
	}
	if err := binary.Read(r, le, s.flags); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the set to path atomically.
func (s *Set[K]) Save(path string) error {
	return store.WriteFile(path, func(w io.Writer) error {
		_, err := s.WriteTo(w)
		return err
	})
}

func LoadSet[K largeint.Integer[K]](path string) (*Set[K], error) {
	var s *Set[K]
	err := store.ReadFile(path, func(r io.Reader) error {
		var err error
		s, err = ReadSet[K](r)
		return err
	})
	return s, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
