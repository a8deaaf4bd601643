package nestedjar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nguyengg/nestedjar/rangeio"
)

const (
	lfhSig  = 0x04034b50
	cdfhSig = 0x02014b50
	eocdSig = 0x06054b50
)

var (
	cdfhSigBytes = putUint32(cdfhSig)
	eocdSigBytes = putUint32(eocdSig)
)

func putUint32(v uint32) (b []byte) {
	b = make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// ErrNoEOCD is returned if no end-of-central-directory signature was found.
var ErrNoEOCD = errors.New("end of central directory not found; most likely not a ZIP file")

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16
	// CDDiskOffset is disk where central directory starts (or 0xffff for ZIP64).
	CDDiskOffset uint16
	// CDCountOnDisk is the number of central directory records on this disk (or 0xffff for ZIP64).
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records (or 0xffff for ZIP64).
	CDCount uint16
	// CDSize is size of central directory (bytes) (or 0xffffffff for ZIP64).
	CDSize uint32
	// CDOffset is offset of start of central directory, relative to start of archive (or 0xffffffff for ZIP64).
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	Comment string
}

// findEOCD searches the given store backwards for the EOCD record.
//
// The record sits at the very end of the archive save for a variable-length
// comment, so the search starts 22 bytes from the end and widens backwards in
// chunks until the signature is found or maxBytes have been covered.
func findEOCD(src rangeio.Store, maxBytes int64) (r EOCDRecord, err error) {
	size := src.Size()
	if size < 22 {
		return r, ErrNoEOCD
	}

	const chunkSize int64 = 16 * 1024

	limit := size
	if maxBytes > 0 && maxBytes < size {
		limit = maxBytes
	}

	for covered := int64(22); ; {
		start := size - covered
		b, err := rangeio.Read(src, start, covered)
		if err != nil {
			return r, fmt.Errorf("find EOCD: %w", err)
		}

		i := bytes.LastIndex(b, eocdSigBytes)
		for i != -1 && i+22 > len(b) {
			// a signature this close to the end cannot hold a full record.
			i = bytes.LastIndex(b[:i], eocdSigBytes)
		}
		if i != -1 {
			if r, err = unmarshalEOCDRecord(([22]byte)(b[i:i+22]), func(c []byte) (int, error) {
				return copy(c, b[i+22:]), nil
			}); err != nil {
				return r, fmt.Errorf("find EOCD: %w", err)
			}

			return r, nil
		}

		if covered >= limit {
			return r, ErrNoEOCD
		}

		covered = min(limit, covered+chunkSize)
	}
}

// unmarshalEOCDRecord decodes the 22-byte slice as an EOCDRecord.
// read will always be called to retrieve the variable-size part of the record. if there is no variable-size part, read
// will be passed an empty slice.
func unmarshalEOCDRecord(b [22]byte, read func(b []byte) (int, error)) (r EOCDRecord, err error) {
	data := &struct {
		Signature     uint32
		DiskNumber    uint16
		CDDiskOffset  uint16
		CDCountOnDisk uint16
		CDCount       uint16
		CDSize        uint32
		CDOffset      uint32
		CommentLength uint16
	}{}

	if !bytes.Equal(eocdSigBytes, b[:4]) {
		return r, fmt.Errorf("mismatched signature, got 0x%x, expected 0x%x", b[:4], eocdSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return r, fmt.Errorf("unmarshal error: %w", err)
	}

	r = EOCDRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskOffset:  data.CDDiskOffset,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
	}

	comment := make([]byte, data.CommentLength)
	switch readN, err := read(comment); {
	case err != nil:
		return r, fmt.Errorf("read variable-size data error: %w", err)
	case readN < int(data.CommentLength):
		return r, fmt.Errorf("read variable-size data error: insufficient read: needs at least %d bytes, got %d", data.CommentLength, readN)
	default:
		r.Comment = string(comment)
	}

	return r, nil
}
