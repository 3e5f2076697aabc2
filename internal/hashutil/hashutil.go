// Package hashutil provides the string hashing used by the hashed container:
// FNV-1a for the key bytes, finished with the splitmix64 mixer so that
// sequential keys spread across all bucket bits.
package hashutil

import "hash/fnv"

// Splitmix64 finalizer constants (Vigna, 2014).
const (
	MixShift1 = 30
	MixMul1   = 0xbf58476d1ce4e5b9
	MixShift2 = 27
	MixMul2   = 0x94d049bb133111eb
	MixShift3 = 31
)

// Mix64 applies the splitmix64 finalizer for full-avalanche mixing.
func Mix64(v uint64) uint64 {
	v ^= v >> MixShift1
	v *= MixMul1
	v ^= v >> MixShift2
	v *= MixMul2
	v ^= v >> MixShift3

	return v
}

// FNV64a computes a 64-bit FNV-1a hash of the given data.
func FNV64a(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

// String hashes s without copying it into a byte slice.
func String(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	h := uint64(offset64)
	for i := range len(s) {
		h ^= uint64(s[i])
		h *= prime64
	}

	return Mix64(h)
}
