// Package mphf builds minimal perfect hash functions over fixed sets of
// k-mers on top of go-boomphf. A key's index is the rank of its bit across
// the BBHash levels.
//
// Set pairs a function with the keys stored at their index, which turns it
// into an exact membership structure. Only the keys and flags are written
// to disk; the function is rebuilt from them on load.
package mphf
