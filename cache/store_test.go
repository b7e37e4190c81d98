package cache

import (
	"testing"
)

// checkStore walks the recency list in both directions and verifies that
// the list and the key index describe the same set of slots.
func checkStore[K comparable, V any](t testing.TB, s *store[K, V]) {
	t.Helper()

	seen := make(map[int32]bool, s.len)
	n := 0
	prev := nilSlot
	for i := s.head; i != nilSlot; i = s.slots[i].next {
		if seen[i] {
			t.Fatalf("cycle in recency list at slot %d", i)
		}
		seen[i] = true
		e := &s.slots[i]
		if e.prev != prev {
			t.Fatalf("slot %d: prev=%d, want %d", i, e.prev, prev)
		}
		if got, ok := s.index[e.key]; !ok || got != i {
			t.Fatalf("slot %d key %v: index has (%d, %v)", i, e.key, got, ok)
		}
		prev = i
		n++
	}
	if prev != s.tail {
		t.Fatalf("tail=%d, last walked slot=%d", s.tail, prev)
	}
	if n != s.len {
		t.Fatalf("list length %d, len counter %d", n, s.len)
	}
	if len(s.index) != s.len {
		t.Fatalf("index size %d, len counter %d", len(s.index), s.len)
	}
	for k, i := range s.index {
		if !seen[i] {
			t.Fatalf("index key %v points at unlinked slot %d", k, i)
		}
	}
	if len(s.slots) != s.len+len(s.free) {
		t.Fatalf("arena %d slots, %d live + %d free", len(s.slots), s.len, len(s.free))
	}
}

// keysMRU returns the keys from MRU to LRU.
func keysMRU[K comparable, V any](s *store[K, V]) []K {
	var out []K
	for i := s.head; i != nilSlot; i = s.slots[i].next {
		out = append(out, s.slots[i].key)
	}
	return out
}

func equalKeys[K comparable](a, b []K) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_PushMoveRemoveBack(t *testing.T) {
	t.Parallel()

	s := newStore[string, int](4)
	a := s.pushFront("a", 1, Never, 0)
	s.pushFront("b", 2, Never, 0)
	s.pushFront("c", 3, Never, 0)
	checkStore(t, &s)

	if got := keysMRU(&s); !equalKeys(got, []string{"c", "b", "a"}) {
		t.Fatalf("order = %v", got)
	}

	s.moveToFront(a)
	s.moveToFront(a) // already at front: no-op
	checkStore(t, &s)
	if got := keysMRU(&s); !equalKeys(got, []string{"a", "c", "b"}) {
		t.Fatalf("order after promote = %v", got)
	}

	old, ok := s.removeBack()
	if !ok || old.key != "b" || old.val != 2 {
		t.Fatalf("removeBack = %+v, %v", old, ok)
	}
	checkStore(t, &s)
	if _, ok := s.lookup("b"); ok {
		t.Fatal("b must leave the index together with its slot")
	}
}

func TestStore_RemoveBackEmpty(t *testing.T) {
	t.Parallel()

	s := newStore[int, int](0)
	if _, ok := s.removeBack(); ok {
		t.Fatal("removeBack on empty store must report false")
	}
	checkStore(t, &s)
}

func TestStore_FreeSlotsRecycled(t *testing.T) {
	t.Parallel()

	s := newStore[int, int](2)
	i := s.pushFront(1, 1, Never, 0)
	s.pushFront(2, 2, Never, 0)
	s.remove(i)
	checkStore(t, &s)

	j := s.pushFront(3, 3, Never, 0)
	if j != i {
		t.Fatalf("expected freed slot %d to be reused, got %d", i, j)
	}
	if len(s.slots) != 2 {
		t.Fatalf("arena grew to %d slots", len(s.slots))
	}
	checkStore(t, &s)
}

func TestStore_RekeyMovesIndexAtomically(t *testing.T) {
	t.Parallel()

	s := newStore[string, int](3)
	s.pushFront("a", 1, Expired, 0)
	s.pushFront("b", 2, Never, 0)

	back := s.back()
	old := s.rekey(back, "z", 26, Never, 10)
	if old.key != "a" || old.val != 1 {
		t.Fatalf("rekey returned %+v", old)
	}
	checkStore(t, &s)

	if _, ok := s.lookup("a"); ok {
		t.Fatal("old key must be gone from the index")
	}
	i, ok := s.lookup("z")
	if !ok || i != back {
		t.Fatalf("new key must index the rewritten slot: (%d, %v)", i, ok)
	}
	if got := keysMRU(&s); !equalKeys(got, []string{"z", "b"}) {
		t.Fatalf("order = %v", got)
	}
	if e := s.at(i); e.access != 10 || !e.ttl.IsNever() {
		t.Fatalf("slot not rewritten: %+v", *e)
	}
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	s := newStore[int, string](8)
	for i := 0; i < 5; i++ {
		s.pushFront(i, "v", Never, 0)
	}
	s.remove(s.back())
	s.reset()
	checkStore(t, &s)
	if s.len != 0 || s.head != nilSlot || s.tail != nilSlot {
		t.Fatalf("reset left state behind: len=%d head=%d tail=%d", s.len, s.head, s.tail)
	}

	s.pushFront(9, "x", Never, 0)
	checkStore(t, &s)
}
