package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsArchiveByExtension(t *testing.T) {
	cases := map[string]bool{
		"book.cbz":    true,
		"book.zip":    true,
		"book.cbr":    true,
		"book.rar":    true,
		"book.tar":    true,
		"book.7z":     true,
		"page.jpg":    false,
		"notes.txt":   false,
		"archive.ZIP": true,
	}
	for name, want := range cases {
		if got := IsArchive(name, nil); got != want {
			t.Errorf("IsArchive(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsArchiveBySniffWhenExtensionless(t *testing.T) {
	// A PK zip local-file-header magic with no extension on the name
	// should still be detected via mimetype sniffing.
	zipMagic := []byte{0x50, 0x4b, 0x03, 0x04}
	if !IsArchive("noext", zipMagic) {
		t.Error("expected zip magic bytes to be sniffed as an archive")
	}
	if IsArchive("noext", []byte("plain text content")) {
		t.Error("expected plain text to not be sniffed as an archive")
	}
}

func TestKindOfDispatch(t *testing.T) {
	cases := map[string]string{
		"a.zip": "zip",
		"a.cbz": "zip",
		"a.tar": "tar",
		"a.rar": "rar",
		"a.cbr": "rar",
		"a.7z":  "7z",
	}
	for name, want := range cases {
		if got := kindOf(name, nil); got != want {
			t.Errorf("kindOf(%q) = %q, want %q", name, got, want)
		}
	}
}

// TestKindOfSniffsDiskWhenExtensionUnrecognized guards against kindOf
// silently assuming zip for an on-disk file it was never handed bytes for:
// the data == nil branch must sniff the file itself rather than default
// blind, the same way it would if the caller had the bytes in hand already.
func TestKindOfSniffsDiskWhenExtensionUnrecognized(t *testing.T) {
	rarMagic := []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}
	path := filepath.Join(t.TempDir(), "mystery.bin")
	if err := os.WriteFile(path, rarMagic, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := kindOf(path, nil); got != "rar" {
		t.Errorf("kindOf(%q, nil) = %q, want %q", path, got, "rar")
	}
}

func TestKindOfDefaultsToZipWhenFileMissing(t *testing.T) {
	if got := kindOf(filepath.Join(t.TempDir(), "does-not-exist.bin"), nil); got != "zip" {
		t.Errorf("kindOf(missing file, nil) = %q, want %q", got, "zip")
	}
}
