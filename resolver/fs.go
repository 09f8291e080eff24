// Package resolver implements the filesystem side of path resolution: given
// a request path, it walks the real directory tree looking for the deepest
// prefix that exists on disk, then delegates any remaining suffix to the
// archive cache.
package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"comixfs/cache"
)

// Resolver resolves request paths against a filesystem root plus the
// archive cache.
type Resolver struct {
	root  string
	cache *cache.ArchiveCache
}

// New creates a Resolver rooted at root. root must already exist; callers
// canonicalize it at startup (see config.Load).
func New(root string, ac *cache.ArchiveCache) *Resolver {
	return &Resolver{root: root, cache: ac}
}

// Result is what Read resolves a path to: either a directory listing or
// file bytes, never both.
type Result struct {
	IsDir bool
	Names []string
	Bytes []byte
}

var archiveExts = map[string]bool{
	"zip": true, "cbz": true, "rar": true, "cbr": true, "tar": true, "7z": true,
}

// Read resolves a slash-separated request path, relative to the root, to
// either a directory listing or file bytes. A leading slash is stripped, so
// "/a/b" resolves to "a/b" under the root; paths that climb above the root
// after normalization are rejected.
func (r *Resolver) Read(path string) (Result, error) {
	path = normalize(path)

	if err := r.guard(path); err != nil {
		return Result{}, err
	}

	if path != "" {
		if c, ok := r.cache.QuickTry(path); ok {
			return fromContents(c), nil
		}
	}

	return r.tryAccess(path)
}

// normalize strips a leading slash and canonicalizes path separators so
// every cache key and filesystem lookup uses the same "/"-separated form.
func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "/")
	return p
}

// guard rejects any path whose cleaned filesystem join escapes the
// configured root, the same check the teacher's resolvePath
// performs for its multi-root HTTP paths.
func (r *Resolver) guard(path string) error {
	fsPath := filepath.Join(r.root, filepath.FromSlash(path))
	cleanRoot := filepath.Clean(r.root)
	cleanPath := filepath.Clean(fsPath)
	if cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) {
		return cache.NewError(cache.KindPermissionDenied, path, nil)
	}
	return nil
}

// tryAccess walks every split of path into (partial, left), from the full
// path down to the empty partial (the root itself). The first partial that
// stats successfully is either:
//   - a directory with nothing popped yet (i=0): return its listing.
//   - a directory with something popped (i>0): a real directory can't also
//     hold a nested-archive suffix, so this is an error.
//   - a file with nothing popped and a non-archive extension: read it
//     directly from disk.
//   - a file that is (or the suffix implies it must be) an archive: mount
//     it at partial and delegate the popped suffix to the archive cache.
func (r *Resolver) tryAccess(path string) (Result, error) {
	comps := splitNonEmpty(path)
	if len(comps) == 0 {
		return r.listDir(r.root)
	}

	partial := comps
	var left []string

	for i := 0; i <= len(comps); i++ {
		if i != 0 {
			left = append([]string{partial[len(partial)-1]}, left...)
			partial = partial[:len(partial)-1]
		}

		tryPath := filepath.Join(append([]string{r.root}, partial...)...)

		info, err := os.Lstat(tryPath)
		if err != nil {
			continue
		}

		if info.IsDir() {
			if i == 0 {
				return r.listDir(tryPath)
			}
			return Result{}, cache.NewError(cache.KindNotFound, path, nil)
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(tryPath)), ".")
		if !archiveExts[ext] && len(left) == 0 {
			return r.readFile(tryPath)
		}

		virtualMount := strings.Join(partial, "/")
		return r.tryInArchive(virtualMount, tryPath, strings.Join(left, "/"))
	}

	return Result{}, cache.NewError(cache.KindNotFound, path, nil)
}

// tryInArchive mounts archivePath at virtualMount (idempotent) and, if
// left is non-empty, descends into it via the cache's quick/slow path.
func (r *Resolver) tryInArchive(virtualMount, archivePath, left string) (Result, error) {
	contents, err := r.cache.SetArchive(virtualMount, archivePath)
	if err != nil {
		return Result{}, err
	}
	if left == "" {
		return fromContents(contents), nil
	}

	full := virtualMount + "/" + left
	if c, ok := r.cache.QuickTry(full); ok {
		return fromContents(c), nil
	}
	c, err := r.cache.SlowTry(full)
	if err != nil {
		return Result{}, err
	}
	return fromContents(c), nil
}

func (r *Resolver) listDir(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, cache.NewError(cache.KindIoError, dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return Result{IsDir: true, Names: names}, nil
}

func (r *Resolver) readFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, cache.NewError(cache.KindIoError, path, err)
	}
	return Result{Bytes: data}, nil
}

func fromContents(c cache.Contents) Result {
	names := append([]string(nil), c.Names...)
	sort.Strings(names)
	return Result{IsDir: c.IsDir, Names: names, Bytes: c.Bytes}
}

func splitNonEmpty(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
