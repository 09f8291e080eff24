package cache

import (
	"errors"
	"fmt"
)

// Kind classifies a cache/resolver failure. Every failure the cache or
// resolver produces carries one of these; the HTTP adapter only ever
// inspects Kind, never the wrapped cause, when deciding how to respond.
type Kind int

const (
	// KindNotFound means no file, directory, or archive entry matched the path.
	KindNotFound Kind = iota
	// KindPermissionDenied means the path was rejected before any lookup,
	// e.g. it climbs above the configured root.
	KindPermissionDenied
	// KindNotAnArchive means a path continued past a leaf that decoded
	// as ordinary bytes, not an archive.
	KindNotAnArchive
	// KindDecodeError means bytes that looked like an archive (by
	// extension or sniff) failed to parse as one.
	KindDecodeError
	// KindIoError wraps an underlying I/O failure (read, stat, open).
	KindIoError
	// KindNestedArchiveConflict means a path already resolved to a real
	// directory node is being asked to also serve as a nested archive.
	KindNestedArchiveConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindNotAnArchive:
		return "not an archive"
	case KindDecodeError:
		return "decode error"
	case KindIoError:
		return "io error"
	case KindNestedArchiveConflict:
		return "nested archive conflict"
	default:
		return "unknown error"
	}
}

// Error is the sentinel error type every cache and resolver failure is
// expressed as. Call sites use errors.Is/As against Kind rather than
// string-matching messages.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}

// NewError builds an *Error for use by collaborators outside this package
// (the resolver and the HTTP adapter) that need to report failures in the
// same vocabulary the cache itself uses.
func NewError(kind Kind, path string, cause error) error {
	return newErr(kind, path, cause)
}

// Is allows errors.Is(err, &cache.Error{Kind: cache.KindNotFound}) style
// checks by comparing Kind values whenever the target is itself a *Error;
// the target's Path and wrapped cause are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, defaulting
// to KindIoError for anything else so the HTTP layer always has a kind to
// dispatch on.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIoError
}
