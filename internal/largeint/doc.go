// Package largeint implements the fixed-width unsigned key types (64, 128,
// 192 and 256 bits) that hold 2-bit packed k-mers, and the generic helpers
// shared by code parameterized over them.
package largeint
