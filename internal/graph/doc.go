// Package graph answers queries on the implicit de Bruijn graph of an
// index: node membership, neighbors in either direction, branching and
// simple-path walks, and abundances.
//
// A node is a canonical k-mer seen on one strand. Two nodes with the same
// k-mer are the same vertex whatever their strand; the strand only decides
// which way "outgoing" points.
//
// A Graph is read-only and safe for concurrent use.
package graph
