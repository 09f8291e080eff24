package archive

import (
	"bytes"
	"io"
	"os"

	"github.com/nwaples/rardecode"

	"comixfs/cache"
)

// rarReader buffers every entry on open. rardecode exposes only sequential
// access (consistent with the RAR format itself), so random access by name
// is built on top the same way tarReader does.
type rarReader struct {
	byName  map[string][]byte
	entries []cache.EntryInfo
}

func openRar(pathOrName string, data []byte) (cache.ArchiveReader, error) {
	var rr *rardecode.Reader
	var closer *rardecode.ReadCloser
	var err error

	if data != nil {
		rr, err = rardecode.NewReader(bytes.NewReader(data), "")
		if err != nil {
			return nil, err
		}
	} else {
		closer, err = rardecode.OpenReader(pathOrName, "")
		if err != nil {
			return nil, err
		}
		defer closer.Close()
		rr = &closer.Reader
	}

	byName := make(map[string][]byte)
	entries := make([]cache.EntryInfo, 0)

	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.IsDir {
			continue
		}
		buf, err := io.ReadAll(rr)
		if err != nil {
			return nil, err
		}
		byName[hdr.Name] = buf
		entries = append(entries, cache.EntryInfo{Name: hdr.Name, Size: hdr.UnPackedSize})
	}

	return &rarReader{byName: byName, entries: entries}, nil
}

func (r *rarReader) List() []cache.EntryInfo { return r.entries }

func (r *rarReader) Open(name string) ([]byte, error) {
	b, ok := r.byName[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

func (r *rarReader) Close() error { return nil }
