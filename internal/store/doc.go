// Package store is an append-only file of fixed-size records: created under a
// temporary name, appended to, sealed (synced and renamed into place), then
// iterated sequentially or read by index.
package store
