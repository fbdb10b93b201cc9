// Package sortcount counts every canonical k-mer of a set of banks in
// external memory and writes the solid ones to a sorted table.
//
// A run partitions the k-mers by minimizer (one or more passes), counts each
// partition on a worker pool, merges the sorted partition outputs and keeps
// the k-mers whose abundance passes the solidity filter.
package sortcount
