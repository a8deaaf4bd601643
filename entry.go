package nestedjar

import (
	"io"
	"time"

	"github.com/nguyengg/nestedjar/rangeio"
)

// Entry is the rich view of an indexed entry: the lightweight header plus a
// reference back to the owning archive so content and nested archives can be
// materialised. Entries are synthesised fresh on each access and never written
// back into the index, so handing them out requires no locking; the cost is a
// small allocation per access.
type Entry struct {
	header  *FileHeader
	archive *Archive
}

// Name returns the entry name as indexed, including any trailing slash on directory markers.
func (e *Entry) Name() string {
	return e.header.Name.String()
}

// IsDir reports whether the entry is a directory marker.
func (e *Entry) IsDir() bool {
	return e.header.IsDir()
}

// Method returns the storage method (MethodStored or MethodDeflated).
func (e *Entry) Method() uint16 {
	return e.header.Method
}

// Size returns the declared uncompressed size.
func (e *Entry) Size() int64 {
	return int64(e.header.UncompressedSize)
}

// CompressedSize returns the exact stored payload size.
func (e *Entry) CompressedSize() int64 {
	return int64(e.header.CompressedSize)
}

// CRC32 returns the checksum of the uncompressed content.
func (e *Entry) CRC32() uint32 {
	return e.header.CRC32
}

// Modified returns the entry's modification time with the 2-second MS-DOS resolution.
func (e *Entry) Modified() time.Time {
	return e.header.Modified()
}

// Header returns the underlying lightweight header.
func (e *Entry) Header() *FileHeader {
	return e.header
}

// Data returns a bounded view of the entry's compressed payload. See Entries.Data.
func (e *Entry) Data() (rangeio.Store, error) {
	return e.archive.entries.Data(e.header)
}

// Open returns a reader over the entry's content, inflating if deflated. See Entries.Open.
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.archive.entries.Open(e.header)
}

// Nested indexes the entry's payload as an archive in its own right. See Archive.Nested.
func (e *Entry) Nested(optFns ...func(*Options)) (*Archive, error) {
	return e.archive.nested(e.header, optFns...)
}
