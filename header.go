package nestedjar

import "time"

// Storage methods this package distinguishes. The values follow the standard
// ZIP method codes; any other method is rejected at read time.
const (
	MethodStored   uint16 = 0
	MethodDeflated uint16 = 8
)

// FileHeader is the lightweight record parsed from one central directory file
// header: just enough to look an entry up and read its data. It is immutable
// once parsed; richer semantics live on Entry, which is synthesised on demand.
type FileHeader struct {
	// Name is the entry name exactly as indexed (after filtering).
	Name Name

	// Method is the storage method (MethodStored or MethodDeflated).
	Method uint16

	// ModifiedTime and ModifiedDate are the raw MS-DOS timestamp fields.
	ModifiedTime uint16
	ModifiedDate uint16

	// CRC32 of the uncompressed content.
	CRC32 uint32

	// CompressedSize is the exact byte length of the entry's stored payload.
	CompressedSize uint32

	// UncompressedSize is the declared length of the entry's content.
	UncompressedSize uint32

	// LocalHeaderOffset is where the entry's local file header begins within
	// the archive. The data offset is always re-derived from the local header
	// at this offset, never from the central directory (see Entries.Data).
	LocalHeaderOffset int64

	// CDOffset is where this record begins within the central directory region.
	CDOffset int64
}

// Modified returns the entry's modification time with the 2-second MS-DOS resolution.
func (h *FileHeader) Modified() time.Time {
	return msDosTimeToTime(h.ModifiedDate, h.ModifiedTime)
}

// IsDir reports whether the entry name denotes a directory marker.
func (h *FileHeader) IsDir() bool {
	return h.Name.isDir()
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
// See: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-dosdatetimetofiletime
//
// taken from https://go.dev/src/archive/zip/struct.go.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0, // nanoseconds

		time.UTC,
	)
}
