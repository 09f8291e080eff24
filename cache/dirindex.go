package cache

// DirIndex maps a NodeId to its children (component name -> child NodeId).
// Presence of a NodeId as a key means that node's listing is known. Only
// opened archives populate it; real filesystem directories are listed
// directly by the resolver and are not recorded here.
type DirIndex struct {
	tree map[NodeId]map[string]NodeId
}

// NewDirIndex creates an empty DirIndex.
func NewDirIndex() *DirIndex {
	return &DirIndex{tree: make(map[NodeId]map[string]NodeId)}
}

// Children returns the child map for id, if id is a known directory.
func (d *DirIndex) Children(id NodeId) (map[string]NodeId, bool) {
	m, ok := d.tree[id]
	return m, ok
}

// Contains reports whether id is a known directory node.
func (d *DirIndex) Contains(id NodeId) bool {
	_, ok := d.tree[id]
	return ok
}

// EnsureDir creates an empty child map for id if one doesn't already exist
// and returns it.
func (d *DirIndex) EnsureDir(id NodeId) map[string]NodeId {
	m, ok := d.tree[id]
	if !ok {
		m = make(map[string]NodeId)
		d.tree[id] = m
	}
	return m
}

// SetChild records that id's directory listing includes a child named
// name mapping to childID.
func (d *DirIndex) SetChild(id NodeId, name string, childID NodeId) {
	d.EnsureDir(id)[name] = childID
}

// RemoveSubtree removes id and, recursively, every descendant reachable
// through the child mapping, from the DirIndex, the byte cache, and the
// archive-handle cache.
func (d *DirIndex) RemoveSubtree(id NodeId, bytes *ByteLRU, handles *ArchiveHandleLRU) {
	children, isDir := d.tree[id]
	if !isDir {
		// Not a directory node: it is (at most) a cached file leaf.
		bytes.Remove(id)
		return
	}

	for _, childID := range children {
		d.RemoveSubtree(childID, bytes, handles)
	}

	delete(d.tree, id)
	handles.Remove(id)
}
