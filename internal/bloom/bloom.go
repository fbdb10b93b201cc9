// internal/bloom/bloom.go
package bloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	bbloom "github.com/bits-and-blooms/bloom/v3"

	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

// DefaultSeed salts every filter unless another seed is given.
const DefaultSeed = 0x2545f4914f6cdd1d

// minBits is the size of a filter built for an empty set.
const minBits = 1000

var ln2sq = math.Ln2 * math.Ln2

// BitsPerKmer is the default density for k-mers of size k: it keeps the
// expected number of false positive neighbors of a solid k-mer small.
func BitsPerKmer(k int) float64 {
	return math.Log(16*float64(k)*ln2sq) / ln2sq
}

// BitsForRate is the density that gives false positive rate p.
func BitsForRate(p float64) float64 {
	return -math.Log(p) / ln2sq
}

// Params sizes a filter.
type Params struct {
	Bits   uint64
	Hashes int
}

// Size returns the parameters for n keys at bitsPerKey.
func Size(n uint64, bitsPerKey float64) Params {
	bits := uint64(math.Ceil(float64(n) * bitsPerKey))
	if n == 0 || bits == 0 {
		bits = minBits
	}
	return Params{Bits: bits, Hashes: max(int(0.7*bitsPerKey), 1)}
}

// Bytes is the memory the bit array needs.
func (p Params) Bytes() uint64 { return (p.Bits + 63) / 64 * 8 }

// Filter is a Bloom filter over keys of type K. Keys are hashed as their
// fixed-width encoding prefixed by the seed.
type Filter[K largeint.Integer[K]] struct {
	bf    *bbloom.BloomFilter
	words []uint64
	seed  uint64
}

func New[K largeint.Integer[K]](p Params, seed uint64) *Filter[K] {
	if p.Bits == 0 {
		p.Bits = minBits
	}
	return wrap[K](bbloom.New(uint(p.Bits), uint(max(p.Hashes, 1))), seed)
}

func wrap[K largeint.Integer[K]](bf *bbloom.BloomFilter, seed uint64) *Filter[K] {
	return &Filter[K]{bf: bf, words: bf.BitSet().Words(), seed: seed}
}

func (f *Filter[K]) Bits() uint64 { return uint64(f.bf.Cap()) }
func (f *Filter[K]) Hashes() int  { return int(f.bf.K()) }

func (f *Filter[K]) encode(key K) []byte {
	b := make([]byte, 8+largeint.Bytes[K]())
	binary.LittleEndian.PutUint64(b, f.seed)
	key.Put(b[8:])
	return b
}

// Insert adds key. It is safe to call from several goroutines; Test must
// not run until every Insert has returned.
func (f *Filter[K]) Insert(key K) {
	m := uint64(f.bf.Cap())
	for _, loc := range bbloom.Locations(f.encode(key), f.bf.K()) {
		b := loc % m
		atomic.OrUint64(&f.words[b>>6], 1<<(b&63))
	}
}

// Test reports whether key may have been inserted. False is definite.
func (f *Filter[K]) Test(key K) bool {
	return f.bf.Test(f.encode(key))
}

var magic = [8]byte{'D', 'B', 'G', 'B', 'L', 'O', 'O', 'M'}

const version = 2

type header struct {
	Magic    [8]byte
	Version  uint32
	KeyBytes uint32
	Seed     uint64
}

var errFormat = errors.New("bloom: not a filter file")

// WriteTo serializes the filter: a header naming the key width and seed,
// then the filter in its library encoding.
func (f *Filter[K]) WriteTo(w io.Writer) (int64, error) {
	h := header{
		Magic:    magic,
		Version:  version,
		KeyBytes: uint32(largeint.Bytes[K]()),
		Seed:     f.seed,
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return 0, err
	}
	n, err := f.bf.WriteTo(w)
	return int64(binary.Size(h)) + n, err
}

// Read deserializes a filter written by WriteTo for the same key width.
func Read[K largeint.Integer[K]](r io.Reader) (*Filter[K], error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != magic {
		return nil, errFormat
	}
	if h.Version != version {
		return nil, fmt.Errorf("bloom: unsupported version %d", h.Version)
	}
	if int(h.KeyBytes) != largeint.Bytes[K]() {
		return nil, fmt.Errorf("bloom: filter built for %d-byte keys, want %d", h.KeyBytes, largeint.Bytes[K]())
	}
	var bf bbloom.BloomFilter
	if _, err := bf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("bloom: %w", err)
	}
	if bf.Cap() == 0 || bf.K() == 0 || uint64(len(bf.BitSet().Words()))*64 < uint64(bf.Cap()) {
		return nil, errFormat
	}
	return wrap[K](&bf, h.Seed), nil
}

// Save writes the filter to path atomically.
func (f *Filter[K]) Save(path string) error {
	return store.WriteFile(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

func Load[K largeint.Integer[K]](path string) (*Filter[K], error) {
	var f *Filter[K]
	err := store.ReadFile(path, func(r io.Reader) error {
		var err error
		f, err = Read[K](r)
		return err
	})
	return f, err
}
