package nestedjar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/nguyengg/nestedjar/rangeio"
	"github.com/valyala/bytebufferpool"
)

const (
	// DefaultMaxScanBytes is the default value of [ScanOptions.MaxBytes].
	DefaultMaxScanBytes int64 = 1 * 1024 * 1024
)

// ScanOptions customises how the central directory is scanned.
type ScanOptions struct {
	// MaxBytes can be given to limit the number of bytes scanned backwards for the EOCD record.
	//
	// By default, DefaultMaxScanBytes is used. Set this to 0 or to the store size to force scanning the whole store.
	MaxBytes int64
}

// fixedSizeCDFileHeader needs to be fixed size to work with binary.Read.
//
// https://en.wikipedia.org/wiki/ZIP_(file_format)#Central_directory_file_header_(CDFH)
type fixedSizeCDFileHeader struct {
	Signature         uint32
	CreatorVersion    uint16
	ReaderVersion     uint16
	Flags             uint16
	Method            uint16
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileNameLength    uint16
	ExtraFieldLength  uint16
	FileCommentLength uint16
	DiskNumber        uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	Offset            uint32
}

// ScanCentralDirectory scans the given store backwards for the central directory.
//
// Returns the end-of-central-directory (EOCD) record, an iterator over the central directory file headers in the order
// they appear in the directory, and any error from searching for and parsing the EOCD. The iterator is restartable;
// each range starts over from the first record.
//
// The method assumes the store contains exactly 1 well-formatted ZIP archive. All bets are off otherwise. By default,
// only the last DefaultMaxScanBytes number of bytes are scanned for the EOCD. If an EOCD is not found in this range, it
// is most likely NOT a ZIP file. A malformed or truncated directory record stops the iterator with an error; callers
// building an index from the sequence must discard partial results.
func ScanCentralDirectory(src rangeio.Store, optFns ...func(*ScanOptions)) (EOCDRecord, iter.Seq2[FileHeader, error], error) {
	opts := &ScanOptions{
		MaxBytes: DefaultMaxScanBytes,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	r, err := findEOCD(src, opts.MaxBytes)
	if err != nil {
		return r, nil, err
	}

	return r, func(yield func(FileHeader, error) bool) {
		bb := bytebufferpool.Get()
		defer bytebufferpool.Put(bb)

		var (
			buf    = make([]byte, 16*1024)
			offset = int64(r.CDOffset)
			readN  int
			err    error
		)

		for ; ; bb.Reset() {
			fh := FileHeader{}

			if readN, err = src.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
				yield(fh, fmt.Errorf("next CD file header: read error: %w", err))
				return
			} else {
				if readN >= 4 && binary.LittleEndian.Uint32(buf[:4]) == eocdSig {
					return
				}
				if readN < 46 {
					yield(fh, fmt.Errorf("next CD file header: read returns insufficient data, needs at least 46 bytes, got %d", readN))
					return
				}
				bb.B = buf[:readN]
			}

			fsfh := &fixedSizeCDFileHeader{}
			if err = binary.Read(bytes.NewReader(bb.B[:46]), binary.LittleEndian, fsfh); err != nil {
				yield(fh, fmt.Errorf("next CD file header: parse error: %w", err))
				return
			}
			if fsfh.Signature != cdfhSig {
				yield(fh, fmt.Errorf("next CD file header at %d: mismatched signature, got 0x%x, expected 0x%x", offset, fsfh.Signature, uint32(cdfhSig)))
				return
			}

			fh = FileHeader{
				Method:            fsfh.Method,
				ModifiedTime:      fsfh.ModifiedTime,
				ModifiedDate:      fsfh.ModifiedDate,
				CRC32:             fsfh.CRC32,
				CompressedSize:    fsfh.CompressedSize,
				UncompressedSize:  fsfh.UncompressedSize,
				LocalHeaderOffset: int64(fsfh.Offset),
				CDOffset:          offset,
			}

			// 46 + n + m + k is the total number of bytes needed for the record. it's extremely unlikely
			// bufSize is less than 46 + n + m + k but just in case, wipe buffer to read the variable part.
			bb.B, offset = bb.B[46:], offset+46
			n, m, k := fsfh.FileNameLength, fsfh.ExtraFieldLength, fsfh.FileCommentLength
			nmkLen := int(n) + int(m) + int(k)
			if nmkLen > bb.Len() {
				bb.B = make([]byte, nmkLen)
				if readN, err = src.ReadAt(bb.B, offset); err != nil && !errors.Is(err, io.EOF) {
					yield(fh, fmt.Errorf("next CD file header: read variable-size data: read error: %w", err))
					return
				} else if readN < nmkLen {
					yield(fh, fmt.Errorf("next CD file header: read variable-size data: read returns insufficient data, needs at least %d bytes, got %d", nmkLen, readN))
					return
				}
			}
			fh.Name = newName(bb.B[:n])
			offset += int64(nmkLen)

			if !yield(fh, nil) {
				return
			}
		}
	}, nil
}
