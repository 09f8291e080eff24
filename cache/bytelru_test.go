package cache

import "testing"

func TestByteLRUGetPut(t *testing.T) {
	b := NewByteLRU(1024)
	k := pathToID("a")
	b.Put(k, []byte("hello"))

	got, ok := b.Get(k)
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if b.Size() != 5 {
		t.Errorf("size = %d, want 5", b.Size())
	}
}

func TestByteLRUEvictsLeastRecentlyUsed(t *testing.T) {
	b := NewByteLRU(10)
	a, bb, c := pathToID("a"), pathToID("b"), pathToID("c")

	b.Put(a, []byte("01234"))
	b.Put(bb, []byte("56789"))
	// Touch a so b becomes the least-recently-used entry.
	b.Get(a)

	// Adding c pushes size to 15, over the 10 byte budget; b should be evicted
	// first since it is now the oldest.
	b.Put(c, []byte("abcde"))

	if b.Contains(bb) {
		t.Error("expected b to be evicted")
	}
	if !b.Contains(a) {
		t.Error("expected a to survive (recently touched)")
	}
	if !b.Contains(c) {
		t.Error("expected c (just inserted) to survive")
	}
}

func TestByteLRUPreservesJustInsertedEvenIfOversize(t *testing.T) {
	b := NewByteLRU(4)
	k := pathToID("big")
	b.Put(k, []byte("this is way over budget"))

	if !b.Contains(k) {
		t.Error("a single oversize entry must never be rejected outright")
	}
}

func TestByteLRURemove(t *testing.T) {
	b := NewByteLRU(1024)
	k := pathToID("a")
	b.Put(k, []byte("x"))
	b.Remove(k)

	if b.Contains(k) {
		t.Error("expected key to be removed")
	}
	if b.Size() != 0 {
		t.Errorf("size = %d, want 0", b.Size())
	}
}
