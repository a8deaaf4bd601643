package nestedjar

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/nguyengg/nestedjar/rangeio"
)

// newEntryReader returns a reader over the entry's content, given a store that
// spans exactly the entry's compressed payload.
//
// Stored entries are passed through unchanged; deflated entries are inflated on
// read with the declared uncompressed size enforced. A malformed compressed
// stream or a size disagreement is a read failure, never detected at index time.
func newEntryReader(data rangeio.Store, h *FileHeader) (io.ReadCloser, error) {
	switch h.Method {
	case MethodStored:
		return io.NopCloser(data.Open()), nil
	case MethodDeflated:
		return &inflateReader{
			r:         flate.NewReader(data.Open()),
			remaining: int64(h.UncompressedSize),
			name:      h.Name.String(),
		}, nil
	default:
		return nil, fmt.Errorf(`entry "%s" uses unsupported storage method %d`, h.Name.String(), h.Method)
	}
}

// inflateReader inflates an entry's payload while enforcing its declared uncompressed size.
type inflateReader struct {
	r         io.ReadCloser
	remaining int64
	name      string
}

func (r *inflateReader) Read(p []byte) (n int, err error) {
	if r.remaining <= 0 {
		// the declared size has been served in full; anything further in the
		// compressed stream means the archive lied about the size.
		var b [1]byte
		switch m, err := r.r.Read(b[:]); {
		case m > 0, err == nil:
			return 0, fmt.Errorf(`entry "%s": inflated data exceeds declared size`, r.name)
		case errors.Is(err, io.EOF):
			return 0, io.EOF
		default:
			return 0, fmt.Errorf(`entry "%s": inflate error: %w`, r.name, err)
		}
	}

	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}

	n, err = r.r.Read(p)
	r.remaining -= int64(n)

	switch {
	case err == nil, errors.Is(err, io.EOF):
		if errors.Is(err, io.EOF) && r.remaining > 0 {
			return n, fmt.Errorf(`entry "%s": inflated data ends %d bytes short of declared size`, r.name, r.remaining)
		}

		return n, err
	default:
		return n, fmt.Errorf(`entry "%s": inflate error: %w`, r.name, err)
	}
}

func (r *inflateReader) Close() error {
	return r.r.Close()
}
