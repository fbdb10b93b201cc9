// Package bloom is the probabilistic membership filter over solid k-mers,
// built on bits-and-blooms/bloom. Inserts set bits with atomic ORs so a
// filter can be filled from several goroutines.
package bloom
