// Package kmer packs nucleotide windows into fixed-width integer keys (two bits
// per symbol, first symbol most significant), computes their strand-independent
// canonical form and the minimizer used to bucket them, and iterates the
// windows of a sequence.
package kmer
