// Package archive adapts concrete archive formats (ZIP/CBZ, TAR, RAR/CBR,
// 7Z) to the small random-access reader surface package cache needs, and
// provides archive-type detection by extension and content sniffing.
package archive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"comixfs/cache"
)

// extensions lists the archive extensions this system understands, matched
// case-insensitively against the final path component.
var extensions = map[string]bool{
	"zip": true,
	"cbz": true,
	"rar": true,
	"cbr": true,
	"tar": true,
	"7z":  true,
}

// mimeSuffixes mirrors extensions for the content-sniffing fallback: a
// detected MIME type like "application/zip" or "application/x-rar-compressed"
// is matched by whether it ends with one of these tokens.
var mimeSuffixes = []string{"zip", "rar", "x-rar-compressed", "tar", "x-7z-compressed", "7z"}

// IsArchive reports whether name/data should be treated as an archive:
// extension first, falling back to content sniffing only when name carries
// no extension at all. This mirrors the original implementation's
// is_archive(): extension is authoritative when present, never overridden
// by a sniff that disagrees.
func IsArchive(name string, data []byte) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext != "" {
		return extensions[ext]
	}

	mt := mimetype.Detect(data)
	mime := strings.ToLower(mt.String())
	for _, suffix := range mimeSuffixes {
		if strings.HasSuffix(mime, suffix) {
			return true
		}
	}
	return false
}

// OpenFile opens path (a real filesystem path) as an archive, dispatching
// on its extension.
func OpenFile(path string) (cache.ArchiveReader, error) {
	return openByExtension(path, nil)
}

// OpenMem opens an in-memory archive, dispatching on name's extension (and
// falling back to content sniffing the same way IsArchive does, since a
// nested archive entry may carry no extension at all).
func OpenMem(name string, data []byte) (cache.ArchiveReader, error) {
	return openByExtension(name, data)
}

func kindOf(name string, data []byte) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "zip", "cbz":
		return "zip"
	case "tar":
		return "tar"
	case "rar", "cbr":
		return "rar"
	case "7z":
		return "7z"
	}

	sniff := data
	if sniff == nil {
		sniff = sniffDiskPrefix(name)
	}
	if sniff == nil {
		return "zip"
	}

	mt := mimetype.Detect(sniff)
	mime := strings.ToLower(mt.String())
	switch {
	case strings.HasSuffix(mime, "x-7z-compressed"), strings.HasSuffix(mime, "7z"):
		return "7z"
	case strings.HasSuffix(mime, "x-rar-compressed"), strings.HasSuffix(mime, "rar"):
		return "rar"
	case strings.HasSuffix(mime, "x-tar"), strings.HasSuffix(mime, "tar"):
		return "tar"
	default:
		return "zip"
	}
}

// sniffDiskPrefix reads up to 512 bytes from path for content sniffing when
// no in-memory copy is available (the on-disk OpenFile path). Returns nil if
// the file can't be opened, leaving the caller's zip default as the final
// fallback.
func sniffDiskPrefix(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n == 0 {
		return nil
	}
	return buf[:n]
}

// openByExtension opens a reader for path/name. If data is non-nil, the
// archive is opened from memory (a nested archive); otherwise path is
// opened directly from disk.
func openByExtension(pathOrName string, data []byte) (cache.ArchiveReader, error) {
	switch kindOf(pathOrName, data) {
	case "tar":
		return openTar(pathOrName, data)
	case "rar":
		return openRar(pathOrName, data)
	case "7z":
		return open7z(pathOrName, data)
	default:
		return openZip(pathOrName, data)
	}
}
