// internal/graph/node.go
package graph

import (
	"dbgraph/internal/kmer"
	"dbgraph/internal/largeint"
)

// Direction of an extension.
type Direction int

const (
	Outgoing Direction = iota // append a symbol on the node's strand
	Incoming                  // prepend a symbol on the node's strand
)

func (d Direction) Reverse() Direction { return d ^ 1 }

func (d Direction) String() string {
	if d == Incoming {
		return "in"
	}
	return "out"
}

// Node is a canonical k-mer and the strand it is read on.
type Node[K largeint.Integer[K]] struct {
	Kmer   K
	Strand kmer.Strand
}

// Equal compares the vertex, ignoring strand.
func (n Node[K]) Equal(o Node[K]) bool { return n.Kmer == o.Kmer }

// Reverse is the same vertex read on the other strand.
func (n Node[K]) Reverse() Node[K] { return Node[K]{Kmer: n.Kmer, Strand: n.Strand.Flip()} }

// Edge joins two nodes by one symbol. It is not stored anywhere.
type Edge[K largeint.Integer[K]] struct {
	From, To  Node[K]
	Symbol    byte // symbol appended (Outgoing) or prepended (Incoming)
	Direction Direction
}
