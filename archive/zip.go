package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"comixfs/cache"
)

type zipReader struct {
	zr      *zip.Reader
	file    *os.File
	byName  map[string]*zip.File
	entries []cache.EntryInfo
}

func openZip(pathOrName string, data []byte) (cache.ArchiveReader, error) {
	var zr *zip.Reader
	var f *os.File
	var err error

	if data != nil {
		zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
	} else {
		f, err = os.Open(pathOrName)
		if err != nil {
			return nil, err
		}
		info, statErr := f.Stat()
		if statErr != nil {
			f.Close()
			return nil, statErr
		}
		zr, err = zip.NewReader(f, info.Size())
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	byName := make(map[string]*zip.File, len(zr.File))
	entries := make([]cache.EntryInfo, 0, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		byName[zf.Name] = zf
		entries = append(entries, cache.EntryInfo{Name: zf.Name, Size: int64(zf.UncompressedSize64)})
	}

	return &zipReader{zr: zr, file: f, byName: byName, entries: entries}, nil
}

func (z *zipReader) List() []cache.EntryInfo { return z.entries }

func (z *zipReader) Open(name string) ([]byte, error) {
	zf, ok := z.byName[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (z *zipReader) Close() error {
	if z.file != nil {
		return z.file.Close()
	}
	return nil
}
