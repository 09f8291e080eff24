package handlers

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ownExtensions is checked before the OS MIME registry to prevent misclassification
// of extensions the OS may map to unrelated types, and to cover the archive
// container and cover-image formats a comic/image tree actually contains —
// the OS registry is frequently missing or wrong for these (e.g. .cbz/.cbr
// aren't registered at all).
var ownExtensions = map[string]string{
	// --- archive containers served or listed by this server ---
	".zip": "application/zip",
	".cbz": "application/vnd.comicbook+zip",
	".rar": "application/vnd.rar",
	".cbr": "application/vnd.comicbook-rar",
	".tar": "application/x-tar",
	".7z":  "application/x-7z-compressed",

	// --- page images ---
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".avif": "image/avif",
	".heic": "image/heic",
	".svg":  "image/svg+xml",

	// --- metadata / notes files bundled inside comic archives ---
	".xml": "text/xml", // ComicInfo.xml
	".nfo": "text/plain",
	".txt": "text/plain",
	".md":  "text/markdown",
}

// ownBaseNames matches well-known extensionless filenames that show up at
// the root of a browsed collection, compared case-insensitively.
var ownBaseNames = map[string]string{
	"license":   "text/plain",
	"licence":   "text/plain",
	"readme":    "text/plain",
	"changelog": "text/plain",
}

// mimeForName resolves a MIME type from a virtual path's name alone.
//
// Resolution order:
//  1. Our own extension table (takes priority over the OS registry)
//  2. OS MIME registry (for extensions we don't recognise explicitly)
//  3. Well-known extensionless base-name table
//
// Callers that already have the file's bytes in hand (every caller in this
// server does, since content always passes through the cache first) should
// fall back to sniffMIME on the returned "application/octet-stream" rather
// than re-deriving it from disk.
func mimeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if t, ok := ownExtensions[ext]; ok {
			return t
		}
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	if t, ok := ownBaseNames[strings.ToLower(filepath.Base(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// sniffMIME inspects up to the first 512 bytes of data, preferring the
// mimetype library's much larger signature table (it recognises archive
// formats, fonts, and dozens of other binary kinds DetectContentType
// misses) and falling back to a null-byte/UTF-8 heuristic for the
// text-vs-binary call on anything it doesn't recognise.
func sniffMIME(data []byte) string {
	if len(data) == 0 {
		// Empty file — treat as plain text so it can be previewed.
		return "text/plain"
	}
	buf := data
	if len(buf) > 512 {
		buf = buf[:512]
	}

	if mt := mimetype.Detect(buf); mt.String() != "text/plain; charset=utf-8" &&
		mt.String() != "application/octet-stream" {
		return mt.String()
	}

	// Null bytes are a reliable indicator of binary content.
	if bytes.IndexByte(buf, 0) != -1 {
		return "application/octet-stream"
	}

	// Defer to the standard library's sniffing for known binary signatures
	// before declaring something text.
	if detected := http.DetectContentType(buf); !strings.HasPrefix(detected, "text/") &&
		detected != "application/octet-stream" {
		return detected
	}

	// Valid UTF-8 with no nulls → treat as plain text.
	if utf8.Valid(buf) {
		return "text/plain"
	}

	return "application/octet-stream"
}
