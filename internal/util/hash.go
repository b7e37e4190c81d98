// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/cespare/xxhash/v2"
)

// seed is fixed for the process so equal keys always land on the same shard.
var seed = maphash.MakeSeed()

// Hash returns a 64-bit hash of k, used to pick a shard.
// Strings, fixed byte arrays, bool, all int/uint widths, floats and uintptr
// go through xxHash; any other comparable type (structs, pointers, channels,
// interfaces) falls back to maphash.Comparable.
func Hash[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])
	case bool:
		if v {
			return hashUint64(1)
		}
		return hashUint64(0)

	case uint8:
		return hashUint64(uint64(v))
	case uint16:
		return hashUint64(uint64(v))
	case uint32:
		return hashUint64(uint64(v))
	case uint64:
		return hashUint64(v)
	case uint:
		return hashUint64(uint64(v))
	case uintptr:
		return hashUint64(uint64(v))
	case int8:
		return hashUint64(uint64(uint8(v)))
	case int16:
		return hashUint64(uint64(uint16(v)))
	case int32:
		return hashUint64(uint64(uint32(v)))
	case int64:
		return hashUint64(uint64(v))
	case int:
		return hashUint64(uint64(v))
	case float32:
		return hashUint64(uint64(math.Float32bits(v)))
	case float64:
		return hashUint64(math.Float64bits(v))
	default:
		return maphash.Comparable(seed, k)
	}
}

// hashUint64 hashes the 8 little-endian bytes of u without allocating.
func hashUint64(u uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return xxhash.Sum64(b[:])
}
