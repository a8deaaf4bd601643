package rangeio

import (
	"fmt"
	"io"
	"os"
)

// NewFile returns a Store over the contents of the given file.
//
// Reads use positioned I/O (os.File.ReadAt) so there is no shared cursor;
// concurrent reads against the same file handle are safe. The file must remain
// open for the lifetime of the store and every section derived from it.
func NewFile(f *os.File) (Store, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf(`stat file "%s" error: %w`, f.Name(), err)
	}

	return &fileStore{f: f, size: fi.Size()}, nil
}

type fileStore struct {
	f    *os.File
	size int64
}

func (s *fileStore) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *fileStore) Size() int64 {
	return s.size
}

func (s *fileStore) Section(off, n int64) (Store, error) {
	return newSection(s, off, n)
}

func (s *fileStore) Open() io.Reader {
	return io.NewSectionReader(s.f, 0, s.size)
}
