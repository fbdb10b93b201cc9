// Package debloom turns a solid k-mer table into the artifacts of an exact
// de Bruijn graph index: a Bloom filter over the solid k-mers and the set
// of critical false positives, the neighbors of solid k-mers that the
// filter accepts but that are not solid. Stages run strictly in sequence;
// each is sharded by ranges of the sorted solid table.
package debloom
