// internal/graph/walk.go
package graph

import "dbgraph/internal/largeint"

// Range is the simple path through a node. First and Last are the nodes
// where walking backward and forward stops; Before and After count the
// steps taken. On a cycle the walk stops before revisiting a node.
type Range[K largeint.Integer[K]] struct {
	First, Last   Node[K]
	Before, After int
	Cycle         bool
}

// Walk follows single edges from n in direction d. It stops at a node with
// degree other than 1 in d, before a node with more than one edge back, before
// revisiting a node, or after maxSteps. It returns the last node reached.
func (g *Graph[K]) Walk(n Node[K], d Direction, maxSteps int) (last Node[K], steps int, cycle bool) {
	seen := map[K]struct{}{n.Kmer: {}}
	cur := n
	for steps < maxSteps {
		next := g.Neighbors(cur, d)
		if len(next) != 1 {
			break
		}
		nx := next[0]
		if g.Degree(nx, d.Reverse()) != 1 {
			break
		}
		if _, ok := seen[nx.Kmer]; ok {
			return cur, steps, true
		}
		seen[nx.Kmer] = struct{}{}
		cur = nx
		steps++
	}
	return cur, steps, false
}

// BranchingRange walks both ways from n to the nearest branching nodes.
func (g *Graph[K]) BranchingRange(n Node[K]) Range[K] {
	limit := g.MaxWalk
	if limit <= 0 {
		limit = DefaultMaxWalk
	}
	r := Range[K]{First: n}
	r.Last, r.After, r.Cycle = g.Walk(n, Outgoing, limit)
	if r.Cycle {
		return r
	}
	r.First, r.Before, r.Cycle = g.Walk(n, Incoming, limit)
	return r
}
