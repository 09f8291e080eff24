package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func buildTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zw.Create(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	return buf.Bytes()
}

func TestOpenZipFromMemory(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"page01.jpg": "image-bytes-1",
		"page02.jpg": "image-bytes-2",
	})

	r, err := OpenMem("book.cbz", data)
	if err != nil {
		t.Fatalf("OpenMem: %v", err)
	}
	defer r.Close()

	entries := r.List()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	b, err := r.Open("page01.jpg")
	if err != nil {
		t.Fatalf("Open(page01.jpg): %v", err)
	}
	if string(b) != "image-bytes-1" {
		t.Errorf("got %q", b)
	}
}

func TestOpenZipFromFile(t *testing.T) {
	data := buildTestZip(t, map[string]string{"a.txt": "hello"})

	dir := t.TempDir()
	path := filepath.Join(dir, "book.zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer r.Close()

	b, err := r.Open("a.txt")
	if err != nil {
		t.Fatalf("Open(a.txt): %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("got %q", b)
	}
}

func TestOpenZipSkipsDirectoryEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("dir/"); err != nil {
		t.Fatalf("create dir entry: %v", err)
	}
	w, err := zw.Create("dir/file.txt")
	if err != nil {
		t.Fatalf("create file entry: %v", err)
	}
	w.Write([]byte("x"))
	zw.Close()

	r, err := OpenMem("a.zip", buf.Bytes())
	if err != nil {
		t.Fatalf("OpenMem: %v", err)
	}
	defer r.Close()

	for _, e := range r.List() {
		if e.Name == "dir/" {
			t.Error("directory entry should have been skipped")
		}
	}
}
