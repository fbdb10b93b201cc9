// internal/mphf/mphf.go
package mphf

import (
	"cmp"
	"slices"

	"github.com/dgryski/go-boomphf"

	"dbgraph/internal/largeint"
)

// DefaultGamma trades bits per key for build speed.
const DefaultGamma = boomphf.Gamma

// MPHF maps each of its n build keys to a distinct index in [0,n). Keys
// outside the build set map to an arbitrary index or to none.
//
// Keys are reduced to a seeded 64-bit hash before they reach the BBHash
// levels. Keys whose hash is shared with another build key never reach
// them; they are numbered after the level keys and held in a map.
type MPHF[K largeint.Integer[K]] struct {
	h        *boomphf.H
	fallback map[K]uint64
	n        uint64
	seed     uint64
}

type hashedKey[K largeint.Integer[K]] struct {
	h   uint64
	key K
}

// Build constructs the function over keys, which must be distinct.
// gamma <= 1 selects DefaultGamma.
func Build[K largeint.Integer[K]](keys []K, gamma float64, seed uint64) *MPHF[K] {
	if gamma <= 1 {
		gamma = DefaultGamma
	}
	hs := make([]hashedKey[K], len(keys))
	for i, k := range keys {
		hs[i] = hashedKey[K]{k.Hash(seed), k}
	}
	slices.SortFunc(hs, func(a, b hashedKey[K]) int {
		if c := cmp.Compare(a.h, b.h); c != 0 {
			return c
		}
		return a.key.Cmp(b.key)
	})

	unique := make([]uint64, 0, len(hs))
	var shared []K
	for i := 0; i < len(hs); {
		j := i + 1
		for j < len(hs) && hs[j].h == hs[i].h {
			j++
		}
		if j-i == 1 {
			unique = append(unique, hs[i].h)
		} else {
			for _, e := range hs[i:j] {
				shared = append(shared, e.key)
			}
		}
		i = j
	}

	m := &MPHF[K]{h: boomphf.New(gamma, unique), n: uint64(len(keys)), seed: seed}
	if len(shared) > 0 {
		m.fallback = make(map[K]uint64, len(shared))
		for i, k := range shared {
			m.fallback[k] = uint64(len(unique) + i)
		}
	}
	return m
}

// Len is the number of keys the function was built over.
func (m *MPHF[K]) Len() uint64 { return m.n }

// Index returns the index of key. For a build key ok is always true.
func (m *MPHF[K]) Index(key K) (idx uint64, ok bool) {
	if m.fallback != nil {
		if idx, ok = m.fallback[key]; ok {
			return idx, true
		}
	}
	if r := m.h.Query(key.Hash(m.seed)); r > 0 {
		return r - 1, true
	}
	return 0, false
}

// BitsPerKey is the size of the level arrays and their rank samples
// divided by the key count.
func (m *MPHF[K]) BitsPerKey() float64 {
	if m.n == 0 {
		return 0
	}
	return float64(8*m.h.Size()) / float64(m.n)
}
