package util

import "runtime"

// MaxShards bounds the shard count.
const MaxShards = 256

// ShardCount normalizes a requested shard count: values <= 1 mean a single
// shard, larger values are rounded up to a power of two and clamped to
// MaxShards.
func ShardCount(n int) int {
	if n <= 1 {
		return 1
	}
	s := int(NextPow2(uint64(n)))
	if s > MaxShards {
		s = MaxShards
	}
	return s
}

// ReasonableShardCount picks a practical shard count based on CPU
// parallelism: nextPow2(2*GOMAXPROCS), clamped to [1..MaxShards].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	return ShardCount(p * 2)
}

// ShardIndex maps a 64-bit hash to a shard index.
// Assumes shard count is a power of two for the fast mask path,
// but remains correct for arbitrary shard counts (uses modulo).
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}

// SplitCapacity distributes total across shards exactly: every shard gets
// total/shards and the first total%shards shards get one more.
func SplitCapacity(total, shards int) []int {
	if shards < 1 {
		shards = 1
	}
	if total < 0 {
		total = 0
	}
	out := make([]int, shards)
	base, rem := total/shards, total%shards
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// NextPow2 returns the smallest power of two >= x (1 for x == 0), clamped
// to 1<<63 when the next power would overflow.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	for shift := uint(1); shift < 64; shift <<= 1 {
		x |= x >> shift
	}
	x++
	if x == 0 {
		return 1 << 63
	}
	return x
}
