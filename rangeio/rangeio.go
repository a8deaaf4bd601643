// Package rangeio provides bounded random access over contiguous byte sources.
//
// A Store is a fixed-extent io.ReaderAt that can derive sub-range views of itself.
// Views are themselves stores, and can be nested arbitrarily deep, which is what
// allows an archive embedded inside another archive to be read in place.
package rangeio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrOutOfRange is returned when a read or section falls outside the logical extent of a Store.
var ErrOutOfRange = errors.New("rangeio: out of range")

// Store is a contiguous byte source of known size supporting positioned reads.
//
// Implementations must be safe for concurrent ReadAt calls; none of them may share
// a read cursor. A Store does not own its backing resource: closing the backing
// file or client invalidates every store and section derived from it.
type Store interface {
	io.ReaderAt

	// Size returns the logical extent of this store in bytes.
	Size() int64

	// Section returns a view of the byte range [off, off+n) of this store.
	//
	// The view delegates reads to its parent; sections of sections are allowed.
	// Returns ErrOutOfRange if the range does not fit within this store.
	Section(off, n int64) (Store, error)

	// Open returns a sequential reader over the whole logical extent.
	//
	// Each call returns an independent reader; concurrent readers do not
	// interfere with each other or with ReadAt.
	Open() io.Reader
}

// Read returns exactly n bytes starting at off, or an error.
func Read(s Store, off, n int64) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(s, off, n), b); err != nil {
		return nil, fmt.Errorf("rangeio: read %d bytes at %d: %w", n, off, err)
	}

	return b, nil
}

// NewBytes returns a Store over the given byte slice.
//
// The slice is not copied; the caller must not mutate it afterwards.
func NewBytes(data []byte) Store {
	return bytesStore(data)
}

type bytesStore []byte

func (s bytesStore) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(s).ReadAt(p, off)
}

func (s bytesStore) Size() int64 {
	return int64(len(s))
}

func (s bytesStore) Section(off, n int64) (Store, error) {
	return newSection(s, off, n)
}

func (s bytesStore) Open() io.Reader {
	return bytes.NewReader(s)
}

// section is a bounded view into a parent store. Reads delegate upward after
// translating offsets; the parent chain is fixed at construction so no cycles
// are possible.
type section struct {
	parent Store
	off, n int64
}

func newSection(parent Store, off, n int64) (Store, error) {
	if off < 0 || n < 0 || off+n > parent.Size() {
		return nil, fmt.Errorf("rangeio: section [%d, %d+%d) of store sized %d: %w", off, off, n, parent.Size(), ErrOutOfRange)
	}

	return &section{parent: parent, off: off, n: n}, nil
}

func (s *section) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off > s.n {
		return 0, fmt.Errorf("rangeio: read at %d in section sized %d: %w", off, s.n, ErrOutOfRange)
	}

	if avail := s.n - off; int64(len(p)) > avail {
		n, err = s.parent.ReadAt(p[:avail], s.off+off)
		if err == nil {
			err = io.EOF
		}

		return n, err
	}

	return s.parent.ReadAt(p, s.off+off)
}

func (s *section) Size() int64 {
	return s.n
}

func (s *section) Section(off, n int64) (Store, error) {
	return newSection(s, off, n)
}

func (s *section) Open() io.Reader {
	return io.NewSectionReader(s, 0, s.n)
}
