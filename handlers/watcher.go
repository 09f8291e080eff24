package handlers

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"comixfs/cache"
)

// StartWatcher sets up a recursive filesystem watch on root. On any change
// it invalidates the affected cache prefix so the next request under that
// path is served fresh instead of from a stale archive mount or byte-cache
// entry.
//
// It returns immediately; all watch processing runs in a background
// goroutine. The returned stop function closes the watcher and terminates
// the goroutine.
func StartWatcher(root string, ac *cache.ArchiveCache) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watchRecursive(w, root); err != nil {
		log.Printf("watcher: could not watch %s: %v", root, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				handleEvent(w, root, ac, event)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watcher: %v", err)
			}
		}
	}()

	return func() { _ = w.Close() }, nil
}

// watchRecursive adds a watch for dir and every subdirectory beneath it.
// If the kernel inotify watch limit is reached, it logs a single actionable
// message and stops — directories beyond that point simply won't trigger
// cache invalidation until the process restarts.
func watchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Log but continue — a single unreadable dir shouldn't abort the walk.
			log.Printf("watcher: skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			if errors.Is(err, syscall.ENOSPC) {
				log.Printf(
					"watcher: inotify watch limit reached (stopped at %s).\n"+
						"  Directories beyond this point will not receive cache invalidation.\n"+
						"  To enable full coverage, raise the kernel limit:\n"+
						"    echo fs.inotify.max_user_watches=524288 | sudo tee -a /etc/sysctl.conf\n"+
						"    sudo sysctl -p",
					path,
				)
				return filepath.SkipAll
			}
			// Any other error: log and keep walking.
			log.Printf("watcher: could not add watch for %s: %v", path, err)
		}
		return nil
	})
}

// handleEvent processes a single fsnotify event: it keeps watching any
// newly created directory, then invalidates the cache prefix corresponding
// to whatever changed. Invalidation is deliberately coarse (by prefix, see
// SPEC_FULL.md §9) so there is no need to special-case write vs. remove vs.
// rename beyond re-watching new directories.
func handleEvent(w *fsnotify.Watcher, root string, ac *cache.ArchiveCache, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := watchRecursive(w, event.Name); err != nil {
				log.Printf("watcher: could not watch new dir %s: %v", event.Name, err)
			}
		}
	}

	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}

	log.Printf("watcher: invalidating prefix %q (%s)", rel, event.Op)
	ac.Invalidate(rel)
}
