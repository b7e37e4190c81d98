package cache

import (
	"testing"
	"time"
)

// Fuzz an operation tape against a small cache with a controllable clock.
// Every byte pair is one operation on one of eight keys; the index/list
// bijection and the capacity bound are checked after each step.
func FuzzCache_OpSequence(f *testing.F) {
	f.Add([]byte{0, 1, 1, 2, 2, 3, 3, 4})
	f.Add([]byte{5, 0, 6, 0, 0, 1, 7, 0, 8, 2})
	f.Add([]byte{9, 1, 0, 1, 0, 2, 0, 3, 10, 0})

	f.Fuzz(func(t *testing.T, tape []byte) {
		const limit = 1 << 10
		if len(tape) > limit {
			tape = tape[:limit]
		}

		clk := &fakeClock{}
		c := New[byte, int](Options[byte, int]{Capacity: 4, Clock: clk})
		t.Cleanup(func() { _ = c.Close() })

		for i := 0; i+1 < len(tape); i += 2 {
			op, k := tape[i]%11, tape[i+1]%8
			switch op {
			case 0:
				c.Set(k, int(k))
			case 1:
				c.SetWithTTL(k, int(k), For(time.Second))
			case 2:
				if v, ok := c.Get(k); ok && v != int(k) {
					t.Fatalf("Get(%d) = %d", k, v)
				}
			case 3:
				c.Peek(k)
			case 4:
				c.Delete(k)
			case 5:
				c.SetExpired(k)
				if c.IsExist(k) {
					t.Fatalf("key %d live after SetExpired", k)
				}
			case 6:
				c.SetIfAbsent(k, int(k))
			case 7:
				clk.add(time.Duration(k) * time.Second)
			case 8:
				c.SetCapacity(int(k))
			case 9:
				c.Clear()
				if c.Length() != 0 {
					t.Fatal("Clear left entries")
				}
			case 10:
				if c.FreeSize() != c.Capacity()-c.Size() {
					t.Fatal("FreeSize mismatch")
				}
			}
			checkInvariants(t, c)
		}
	})
}
