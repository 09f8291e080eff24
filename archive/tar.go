package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"comixfs/cache"
)

// tarReader buffers every entry on open, since archive/tar only supports
// sequential access and this system needs random access by name.
type tarReader struct {
	byName  map[string][]byte
	entries []cache.EntryInfo
}

func openTar(pathOrName string, data []byte) (cache.ArchiveReader, error) {
	var raw []byte
	var err error
	if data != nil {
		raw = data
	} else {
		raw, err = os.ReadFile(pathOrName)
		if err != nil {
			return nil, err
		}
	}

	var src io.Reader = bytes.NewReader(raw)
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	byName := make(map[string][]byte)
	entries := make([]cache.EntryInfo, 0)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		buf, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		byName[hdr.Name] = buf
		entries = append(entries, cache.EntryInfo{Name: hdr.Name, Size: hdr.Size})
	}

	return &tarReader{byName: byName, entries: entries}, nil
}

func (t *tarReader) List() []cache.EntryInfo { return t.entries }

func (t *tarReader) Open(name string) ([]byte, error) {
	b, ok := t.byName[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

func (t *tarReader) Close() error { return nil }
