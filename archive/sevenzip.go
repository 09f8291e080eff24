package archive

import (
	"bytes"
	"io"
	"os"

	"github.com/bodgit/sevenzip"

	"comixfs/cache"
)

type sevenZipReader struct {
	rc      *sevenzip.ReadCloser
	byName  map[string]*sevenzip.File
	entries []cache.EntryInfo
}

func open7z(pathOrName string, data []byte) (cache.ArchiveReader, error) {
	var files []*sevenzip.File
	var rc *sevenzip.ReadCloser
	var err error

	if data != nil {
		r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		files = r.File
	} else {
		rc, err = sevenzip.OpenReader(pathOrName)
		if err != nil {
			return nil, err
		}
		files = rc.File
	}

	byName := make(map[string]*sevenzip.File, len(files))
	entries := make([]cache.EntryInfo, 0, len(files))
	for _, f := range files {
		info := f.FileInfo()
		if info.IsDir() {
			continue
		}
		byName[f.Name] = f
		entries = append(entries, cache.EntryInfo{Name: f.Name, Size: info.Size()})
	}

	return &sevenZipReader{rc: rc, byName: byName, entries: entries}, nil
}

func (s *sevenZipReader) List() []cache.EntryInfo { return s.entries }

func (s *sevenZipReader) Open(name string) ([]byte, error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *sevenZipReader) Close() error {
	if s.rc != nil {
		return s.rc.Close()
	}
	return nil
}
