package cache

import (
	"errors"
	"io/fs"
	"strings"
	"sync"
)

// virtualRootSentinel can never equal a normalized request path (it contains
// a NUL byte), so it safely reuses the NodeId space as the parent of every
// archive mount point.
const virtualRootSentinel = "\x00virtual_root\x00"

// Contents is what a successful lookup resolves to: either a directory
// listing or a file's bytes.
type Contents struct {
	IsDir bool
	Names []string
	Bytes []byte
}

// OpenFile opens path (a real filesystem path) as an archive reader.
type OpenFile func(path string) (ArchiveReader, error)

// OpenMem opens an in-memory byte slice as an archive reader, for archives
// nested inside another archive's entry.
type OpenMem func(name string, data []byte) (ArchiveReader, error)

// IsArchive reports whether data (read from an entry named name) should be
// treated as an archive: extension-first, falling back to content sniffing.
type IsArchive func(name string, data []byte) bool

// ArchiveCache composes the byte cache, the handle cache, and the
// directory-tree index behind a single exclusive lock, implementing the
// resolution algorithm that lets archive contents (including nested
// archives) be addressed as if they were an ordinary directory tree.
type ArchiveCache struct {
	mu sync.Mutex

	bytes   *ByteLRU
	dirs    *DirIndex
	handles *ArchiveHandleLRU

	openFile OpenFile
	openMem  OpenMem
	isArc    IsArchive

	virtualRootID NodeId
}

// New creates an ArchiveCache with the given byte and handle-count budgets.
// openFile/openMem/isArc are supplied by package archive so that cache has
// no dependency on any concrete archive format.
func New(byteBudget, handleBudget int, openFile OpenFile, openMem OpenMem, isArc IsArchive) *ArchiveCache {
	ac := &ArchiveCache{
		bytes:         NewByteLRU(byteBudget),
		dirs:          NewDirIndex(),
		handles:       NewArchiveHandleLRU(handleBudget),
		openFile:      openFile,
		openMem:       openMem,
		isArc:         isArc,
		virtualRootID: pathToID(virtualRootSentinel),
	}
	ac.dirs.EnsureDir(ac.virtualRootID)
	return ac
}

func joinMayEmpty(lhs, rhs string) string {
	if lhs == "" {
		return rhs
	}
	if rhs == "" {
		return lhs
	}
	return lhs + "/" + rhs
}

func components(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// QuickTry is a pure cache lookup: no filesystem or archive I/O. Directory
// nodes are checked before file nodes because archive mount points are
// registered as directories.
func (ac *ArchiveCache) QuickTry(fullPath string) (Contents, bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.quickTryLocked(fullPath)
}

func (ac *ArchiveCache) quickTryLocked(fullPath string) (Contents, bool) {
	id := pathToID(fullPath)

	if children, ok := ac.dirs.Children(id); ok {
		names := make([]string, 0, len(children))
		for name := range children {
			names = append(names, name)
		}
		return Contents{IsDir: true, Names: names}, true
	}

	if data, ok := ac.bytes.Get(id); ok {
		return Contents{Bytes: data}, true
	}

	return Contents{}, false
}

// SlowTry is called only after QuickTry has missed. It finds the longest
// registered archive-mount prefix of path, descends into it via
// recursiveTry, and re-checks the cache.
func (ac *ArchiveCache) SlowTry(path string) (Contents, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	children, _ := ac.dirs.Children(ac.virtualRootID)

	var longest string
	found := false
	for mount := range children {
		if !strings.HasPrefix(path, mount) {
			continue
		}
		if !found || len(mount) > len(longest) {
			longest = mount
			found = true
		}
	}

	if !found {
		return Contents{}, newErr(KindNotFound, path, nil)
	}

	rel := strings.TrimPrefix(path, longest)
	rel = strings.TrimPrefix(rel, "/")

	if err := ac.recursiveTry(longest, rel); err != nil {
		return Contents{}, err
	}

	if c, ok := ac.quickTryLocked(path); ok {
		return c, nil
	}
	return Contents{}, newErr(KindNotFound, path, nil)
}

// recursiveTry iteratively tries every split of rel into (partial, left),
// from the longest partial down to the empty partial, looking for an
// archive entry matching partial under archiveRoot's open handle.
func (ac *ArchiveCache) recursiveTry(archiveRoot, rel string) error {
	handle, ok := ac.handles.Get(pathToID(archiveRoot))
	if !ok {
		return newErr(KindIoError, archiveRoot, nil)
	}

	comps := components(rel)
	partial := comps
	var left []string

	for i := 0; i <= len(comps); i++ {
		if i != 0 {
			left = append([]string{partial[len(partial)-1]}, left...)
			partial = partial[:len(partial)-1]
		}

		partialPath := strings.Join(partial, "/")
		fullVirtual := joinMayEmpty(archiveRoot, partialPath)

		// The empty partial is archiveRoot itself, which is always a
		// directory node and never an entry, so it is not a conflict.
		if partialPath != "" && ac.dirs.Contains(pathToID(fullVirtual)) {
			return newErr(KindNestedArchiveConflict, fullVirtual, nil)
		}

		entry, ok := handle.Entries[partialPath]
		if !ok {
			continue
		}

		data, err := handle.Reader.Open(entry.Name)
		if err != nil {
			return newErr(KindIoError, fullVirtual, err)
		}

		leftPath := strings.Join(left, "/")

		if !ac.isArc(partialPath, data) {
			if leftPath == "" {
				ac.bytes.Put(pathToID(fullVirtual), data)
				return nil
			}
			return newErr(KindNotAnArchive, fullVirtual, nil)
		}

		nested, err := ac.openMem(partialPath, data)
		if err != nil {
			return newErr(KindDecodeError, fullVirtual, err)
		}

		ac.setArchiveInternal(fullVirtual, nested, true)

		if leftPath == "" {
			return nil
		}

		target := joinMayEmpty(archiveRoot, rel)
		if _, ok := ac.quickTryLocked(target); ok {
			return nil
		}

		return ac.recursiveTry(fullVirtual, leftPath)
	}

	return newErr(KindNotFound, joinMayEmpty(archiveRoot, rel), nil)
}

// grow_under materializes intermediate DirIndex entries so that every
// directory prefix of path, down to the leaf, is a valid directory node
// under thisRoot.
func (ac *ArchiveCache) growUnder(thisRoot, path string) {
	parent := thisRoot
	for _, comp := range components(path) {
		full := joinMayEmpty(parent, comp)
		parentID := pathToID(parent)
		children := ac.dirs.EnsureDir(parentID)
		parent = full
		if _, exists := children[comp]; exists {
			continue
		}
		children[comp] = pathToID(full)
	}
}

func (ac *ArchiveCache) setArchiveInternal(virtualPath string, reader ArchiveReader, isNested bool) Contents {
	vrootChildren := ac.dirs.EnsureDir(ac.virtualRootID)
	vrootChildren[virtualPath] = pathToID(virtualPath)

	entries := make(map[string]EntryInfo)
	for _, info := range reader.List() {
		ac.growUnder(virtualPath, info.Name)
		entries[info.Name] = info
	}

	ac.handles.Put(pathToID(virtualPath), &ArchiveHandle{Reader: reader, Entries: entries, IsNested: isNested})

	children, _ := ac.dirs.Children(pathToID(virtualPath))
	names2 := make([]string, 0, len(children))
	for name := range children {
		names2 = append(names2, name)
	}
	return Contents{IsDir: true, Names: names2}
}

// SetArchive registers archivePath (a real filesystem path) as an archive
// mounted at virtualPath. Idempotent: a second call for an already-mounted
// virtualPath returns the existing listing without reopening the file while
// its handle is still cached; if the handle has been evicted, the file is
// reopened and the handle restored under the surviving listing.
func (ac *ArchiveCache) SetArchive(virtualPath, archivePath string) (Contents, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	id := pathToID(virtualPath)
	if children, ok := ac.dirs.Children(id); ok {
		if _, open := ac.handles.Get(id); open {
			names := make([]string, 0, len(children))
			for name := range children {
				names = append(names, name)
			}
			return Contents{IsDir: true, Names: names}, nil
		}
	}

	reader, err := ac.openFile(archivePath)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return Contents{}, newErr(KindIoError, archivePath, err)
		}
		return Contents{}, newErr(KindDecodeError, archivePath, err)
	}

	return ac.setArchiveInternal(virtualPath, reader, false), nil
}

// Invalidate removes every archive mount whose virtual path has prefix,
// and its entire subtree, from all three caches. Used by the watcher.
func (ac *ArchiveCache) Invalidate(prefix string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	children, _ := ac.dirs.Children(ac.virtualRootID)
	var toRemove []NodeId
	for mount := range children {
		if strings.HasPrefix(mount, prefix) {
			toRemove = append(toRemove, pathToID(mount))
		}
	}
	for _, id := range toRemove {
		ac.dirs.RemoveSubtree(id, ac.bytes, ac.handles)
	}
}
