package cache

import "container/list"

type byteEntry struct {
	key   NodeId
	value []byte
}

// ByteLRU is a size-bounded LRU of byte buffers keyed by NodeId. put always
// succeeds; if the running size exceeds the budget afterwards, eviction
// walks from least-recently-used, skipping the key that was just inserted
// so a single oversize entry is never rejected outright.
type ByteLRU struct {
	limit int
	size  int
	ll    *list.List
	index map[NodeId]*list.Element
}

// NewByteLRU creates a ByteLRU with the given byte budget.
func NewByteLRU(limit int) *ByteLRU {
	return &ByteLRU{
		limit: limit,
		ll:    list.New(),
		index: make(map[NodeId]*list.Element),
	}
}

// Contains reports whether key currently has a cached buffer.
func (b *ByteLRU) Contains(key NodeId) bool {
	_, ok := b.index[key]
	return ok
}

// Get returns the cached buffer for key and marks it most-recently-used.
func (b *ByteLRU) Get(key NodeId) ([]byte, bool) {
	el, ok := b.index[key]
	if !ok {
		return nil, false
	}
	b.ll.MoveToFront(el)
	return el.Value.(*byteEntry).value, true
}

// Put inserts value under key, which must not already be present, then
// recycles the least-recently-used entries (other than key) until the
// running size is back at or under the budget.
func (b *ByteLRU) Put(key NodeId, value []byte) []byte {
	el := b.ll.PushFront(&byteEntry{key: key, value: value})
	b.index[key] = el
	b.size += len(value)

	if b.size > b.limit {
		b.recycle(key)
	}
	return value
}

// Remove evicts key if present; it is a no-op otherwise.
func (b *ByteLRU) Remove(key NodeId) {
	el, ok := b.index[key]
	if !ok {
		return
	}
	b.removeElement(el)
}

func (b *ByteLRU) removeElement(el *list.Element) {
	entry := el.Value.(*byteEntry)
	b.size -= len(entry.value)
	delete(b.index, entry.key)
	b.ll.Remove(el)
}

// recycle evicts from the back (least-recently-used) of the list,
// skipping preserve, until size <= limit.
func (b *ByteLRU) recycle(preserve NodeId) {
	for el := b.ll.Back(); el != nil && b.size > b.limit; {
		prev := el.Prev()
		entry := el.Value.(*byteEntry)
		if entry.key != preserve {
			b.removeElement(el)
		}
		el = prev
	}
}

// Size returns the current running size in bytes.
func (b *ByteLRU) Size() int { return b.size }
