// internal/count/record.go
package count

import (
	"encoding/binary"
	"math"

	"dbgraph/internal/largeint"
	"dbgraph/internal/store"
)

// RecordSize is the size of one count record: the key followed by one
// little-endian uint32 abundance per bank.
func RecordSize[K largeint.Integer[K]](banks int) int {
	return largeint.Bytes[K]() + 4*banks
}

// PutRecord encodes key and its per-bank counts into buf.
func PutRecord[K largeint.Integer[K]](buf []byte, key K, counts []uint32) {
	n := largeint.Bytes[K]()
	key.Put(buf[:n])
	for i, c := range counts {
		binary.LittleEndian.PutUint32(buf[n+4*i:], c)
	}
}

// GetRecord decodes a count record into counts, which must have one slot
// per bank.
func GetRecord[K largeint.Integer[K]](buf []byte, counts []uint32) K {
	var z K
	n := largeint.Bytes[K]()
	for i := range counts {
		counts[i] = binary.LittleEndian.Uint32(buf[n+4*i:])
	}
	return z.Get(buf[:n])
}

// Add returns a+b saturated at MaxUint32.
func Add(a, b uint32) uint32 {
	if s := uint64(a) + uint64(b); s < math.MaxUint32 {
		return uint32(s)
	}
	return math.MaxUint32
}

// Total is the saturating sum of counts.
func Total(counts []uint32) uint32 {
	var t uint32
	for _, c := range counts {
		t = Add(t, c)
	}
	return t
}

type recordWriter[K largeint.Integer[K]] struct {
	w   *store.Writer
	buf []byte
}

func newRecordWriter[K largeint.Integer[K]](path string, banks int) (*recordWriter[K], error) {
	w, err := store.Create(path, RecordSize[K](banks))
	if err != nil {
		return nil, err
	}
	return &recordWriter[K]{w: w, buf: make([]byte, RecordSize[K](banks))}, nil
}

func (rw *recordWriter[K]) put(key K, counts []uint32) error {
	PutRecord(rw.buf, key, counts)
	return rw.w.Append(rw.buf)
}
