// internal/graph/graph.go
package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"dbgraph/internal/bloom"
	"dbgraph/internal/index"
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
	"dbgraph/internal/mphf"
	"dbgraph/internal/sortcount"
	"dbgraph/internal/store"
	"dbgraph/pkg/api"
)

// DefaultMaxWalk bounds BranchingRange in each direction.
const DefaultMaxWalk = 100000

// Graph is the membership oracle over an index.
type Graph[K largeint.Integer[K]] struct {
	md       *kmer.Model[K]
	filter   *bloom.Filter[K]
	critical *mphf.Set[K]
	solid    *store.Table // optional; needed by Abundance and ForEachNode
	path     string
	manifest api.ManifestV1

	// MaxWalk bounds BranchingRange; 0 uses DefaultMaxWalk.
	MaxWalk int
}

// New assembles a graph from loaded parts. solidPath may be empty, in which
// case Abundance and ForEachNode fail.
func New[K largeint.Integer[K]](md *kmer.Model[K], filter *bloom.Filter[K], critical *mphf.Set[K], solidPath string) (*Graph[K], error) {
	g := &Graph[K]{md: md, filter: filter, critical: critical, path: solidPath}
	if solidPath != "" {
		t, err := store.OpenTable(solidPath, sortcount.SolidRecordSize[K]())
		if err != nil {
			return nil, err
		}
		g.solid = t
	}
	return g, nil
}

// Open loads the index in dir. The manifest must be present and built for
// keys of type K.
func Open[K largeint.Integer[K]](dir string) (*Graph[K], error) {
	m, err := index.ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if m.KeyBytes != largeint.Bytes[K]() {
		return nil, fmt.Errorf("graph: index holds %d-byte keys, opened with %d", m.KeyBytes, largeint.Bytes[K]())
	}
	md, err := kmer.NewModel[K](m.K, m.Minimizer)
	if err != nil {
		return nil, err
	}
	f, err := bloom.Load[K](filepath.Join(dir, m.BloomFile))
	if err != nil {
		return nil, err
	}
	crit, err := mphf.LoadSet[K](filepath.Join(dir, m.CriticalFile))
	if err != nil {
		return nil, err
	}
	g, err := New(md, f, crit, filepath.Join(dir, m.SolidFile))
	if err != nil {
		return nil, err
	}
	g.manifest = m
	return g, nil
}

func (g *Graph[K]) Close() error {
	if g.solid == nil {
		return nil
	}
	return g.solid.Close()
}

func (g *Graph[K]) Model() *kmer.Model[K]    { return g.md }
func (g *Graph[K]) Manifest() api.ManifestV1 { return g.manifest }

// Contains reports whether key, on either strand, is a solid k-mer.
func (g *Graph[K]) Contains(key K) bool {
	c, _ := g.md.Canonical(key)
	return g.containsCanonical(c)
}

func (g *Graph[K]) containsCanonical(c K) bool {
	if !g.filter.Test(c) {
		return false
	}
	if found, exact := g.critical.Lookup(c); found {
		return exact
	}
	return true
}

// BuildNode makes the node for the k-mer at seq[pos:pos+k]. It does not
// check membership.
func (g *Graph[K]) BuildNode(seq []byte, pos int) (Node[K], error) {
	if pos < 0 || pos+g.md.K() > len(seq) {
		return Node[K]{}, fmt.Errorf("graph: k-mer at %d outside sequence of length %d", pos, len(seq))
	}
	v, err := g.md.Encode(seq[pos : pos+g.md.K()])
	if err != nil {
		return Node[K]{}, err
	}
	c, s := g.md.Canonical(v)
	return Node[K]{Kmer: c, Strand: s}, nil
}

// Sequence renders n on its strand.
func (g *Graph[K]) Sequence(n Node[K]) string {
	return g.md.Decode(g.oriented(n))
}

func (g *Graph[K]) oriented(n Node[K]) K {
	if n.Strand == kmer.Forward {
		return n.Kmer
	}
	return g.md.ReverseComplement(n.Kmer)
}

func (g *Graph[K]) node(v K) Node[K] {
	c, s := g.md.Canonical(v)
	return Node[K]{Kmer: c, Strand: s}
}

// Edges lists the existing edges leaving n in direction d.
func (g *Graph[K]) Edges(n Node[K], d Direction) []Edge[K] {
	seq := g.oriented(n)
	var out []Edge[K]
	for c := 0; c < 4; c++ {
		var v K
		if d == Outgoing {
			v = g.md.Successor(seq, c)
		} else {
			v = g.md.Predecessor(seq, c)
		}
		to := g.node(v)
		if g.containsCanonical(to.Kmer) {
			out = append(out, Edge[K]{From: n, To: to, Symbol: kmer.Symbols[c], Direction: d})
		}
	}
	return out
}

// Neighbors lists the nodes adjacent to n in direction d (at most 4).
func (g *Graph[K]) Neighbors(n Node[K], d Direction) []Node[K] {
	edges := g.Edges(n, d)
	out := make([]Node[K], len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

func (g *Graph[K]) Degree(n Node[K], d Direction) int {
	seq := g.oriented(n)
	deg := 0
	for c := 0; c < 4; c++ {
		var v K
		if d == Outgoing {
			v = g.md.Successor(seq, c)
		} else {
			v = g.md.Predecessor(seq, c)
		}
		if g.Contains(v) {
			deg++
		}
	}
	return deg
}

// IsBranching is true unless n has exactly one neighbor each way.
func (g *Graph[K]) IsBranching(n Node[K]) bool {
	return g.Degree(n, Incoming) != 1 || g.Degree(n, Outgoing) != 1
}

// Abundance looks n up in the solid table.
func (g *Graph[K]) Abundance(n Node[K]) (uint32, bool, error) {
	if g.solid == nil {
		return 0, false, fmt.Errorf("graph: no solid table")
	}
	size := sortcount.SolidRecordSize[K]()
	buf := make([]byte, size)

	lo, hi := int64(0), g.solid.Len()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if err := g.solid.Read(mid, buf); err != nil {
			return 0, false, err
		}
		key, ab := sortcount.GetSolid[K](buf)
		switch c := key.Cmp(n.Kmer); {
		case c == 0:
			return ab, true, nil
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false, nil
}

// ForEachNode calls fn for every solid k-mer, in canonical order, on the
// forward strand.
func (g *Graph[K]) ForEachNode(ctx context.Context, fn func(n Node[K], abundance uint32) error) error {
	if g.path == "" {
		return fmt.Errorf("graph: no solid table")
	}
	r, err := store.Open(g.path, sortcount.SolidRecordSize[K]())
	if err != nil {
		return err
	}
	defer r.Close()
	for i := 0; r.Next(); i++ {
		if i&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		key, ab := sortcount.GetSolid[K](r.Record())
		if err := fn(Node[K]{Kmer: key, Strand: kmer.Forward}, ab); err != nil {
			return err
		}
	}
	return r.Err()
}
