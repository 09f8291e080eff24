package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"comixfs/archive"
	"comixfs/cache"
	"comixfs/resolver"
)

func newTestResolver(t *testing.T, root string) *resolver.Resolver {
	t.Helper()
	ac := cache.New(1<<20, 10, archive.OpenFile, archive.OpenMem, archive.IsArchive)
	return resolver.New(root, ac)
}

func TestFileHandlerServesFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.md"), []byte("# hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h := FileHandler(newTestResolver(t, root), false)

	req := httptest.NewRequest(http.MethodGet, "/notes.md", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "# hi" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/markdown" {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
}

func TestFileHandlerServesDirectoryListing(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644)

	h := FileHandler(newTestResolver(t, root), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	want := "a.txt\nb.txt\n"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestFileHandlerMissingPathIs404(t *testing.T) {
	root := t.TempDir()
	h := FileHandler(newTestResolver(t, root), false)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist.txt", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFileHandlerTraversalIs404(t *testing.T) {
	root := t.TempDir()
	h := FileHandler(newTestResolver(t, root), false)

	req := httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFileHandlerRejectsNonGet(t *testing.T) {
	root := t.TempDir()
	h := FileHandler(newTestResolver(t, root), false)

	req := httptest.NewRequest(http.MethodPost, "/a.txt", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
