package nestedjar

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/nestedjar/rangeio"
)

func deflate(t *testing.T, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	return buf.Bytes()
}

func TestEntryReaderStored(t *testing.T) {
	h := &FileHeader{Name: newName([]byte("a.txt")), Method: MethodStored, CompressedSize: 5, UncompressedSize: 5}

	r, err := newEntryReader(rangeio.NewBytes([]byte("hello")), h)
	require.NoError(t, err)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestEntryReaderDeflated(t *testing.T) {
	payload := deflate(t, "world")
	h := &FileHeader{
		Name:             newName([]byte("b.txt")),
		Method:           MethodDeflated,
		CompressedSize:   uint32(len(payload)),
		UncompressedSize: 5,
	}

	r, err := newEntryReader(rangeio.NewBytes(payload), h)
	require.NoError(t, err)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "world", string(b))
}

func TestEntryReaderSizeMismatch(t *testing.T) {
	payload := deflate(t, "this inflates to more bytes than declared")

	// declared size smaller than actual content.
	h := &FileHeader{
		Name:             newName([]byte("liar.txt")),
		Method:           MethodDeflated,
		CompressedSize:   uint32(len(payload)),
		UncompressedSize: 4,
	}

	r, err := newEntryReader(rangeio.NewBytes(payload), h)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorContains(t, err, "exceeds declared size")

	// declared size larger than actual content.
	h = &FileHeader{
		Name:             newName([]byte("short.txt")),
		Method:           MethodDeflated,
		CompressedSize:   uint32(len(payload)),
		UncompressedSize: 10_000,
	}

	r, err = newEntryReader(rangeio.NewBytes(payload), h)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorContains(t, err, "short of declared size")
}

func TestEntryReaderMalformed(t *testing.T) {
	h := &FileHeader{
		Name:             newName([]byte("junk.bin")),
		Method:           MethodDeflated,
		CompressedSize:   9,
		UncompressedSize: 100,
	}

	r, err := newEntryReader(rangeio.NewBytes([]byte("not-flate")), h)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorContains(t, err, "inflate error")
}

func TestEntryReaderUnsupportedMethod(t *testing.T) {
	h := &FileHeader{Name: newName([]byte("x.bz2")), Method: 12}

	_, err := newEntryReader(rangeio.NewBytes(nil), h)
	assert.ErrorContains(t, err, "unsupported storage method")
}
