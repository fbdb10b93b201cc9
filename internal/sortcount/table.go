// internal/sortcount/table.go
package sortcount

import (
	"encoding/binary"

	"dbgraph/internal/largeint"
)

// SolidRecordSize is the size of one solid table record: the canonical key
// followed by its little-endian total abundance.
func SolidRecordSize[K largeint.Integer[K]]() int { return largeint.Bytes[K]() + 4 }

func PutSolid[K largeint.Integer[K]](buf []byte, key K, abundance uint32) {
	n := largeint.Bytes[K]()
	key.Put(buf[:n])
	binary.LittleEndian.PutUint32(buf[n:], abundance)
}

func GetSolid[K largeint.Integer[K]](buf []byte) (K, uint32) {
	var z K
	n := largeint.Bytes[K]()
	return z.Get(buf[:n]), binary.LittleEndian.Uint32(buf[n:])
}
