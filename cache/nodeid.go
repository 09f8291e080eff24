// Package cache implements the archive-aware virtual filesystem cache: a
// size-bounded byte cache, a count-bounded archive-handle cache, and the
// directory-tree index that ties them together.
package cache

import "hash/maphash"

// NodeId identifies a node in the virtual tree. Two equal normalized paths
// always produce equal NodeIds.
type NodeId uint64

var seed = maphash.MakeSeed()

// pathToID derives a NodeId from a normalized path string. Collisions are
// accepted the same way the reference implementation accepts DefaultHasher
// collisions: the cache is a best-effort accelerator, not a source of truth.
func pathToID(p string) NodeId {
	var h maphash.Hash
	h.SetSeed(seed)
	_, _ = h.WriteString(p)
	return NodeId(h.Sum64())
}
