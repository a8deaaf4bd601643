package nestedjar

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/nestedjar/rangeio"
)

type zipEntry struct {
	name    string
	method  uint16
	content string
}

// buildZip writes a ZIP archive in memory with archive/zip so that fixtures
// carry real central directories and local headers.
func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)

		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func helloWorldZip(t *testing.T) []byte {
	return buildZip(t, []zipEntry{
		{name: "a.txt", method: zip.Store, content: "hello"},
		{name: "dir/", method: zip.Store},
		{name: "dir/b.txt", method: zip.Deflate, content: "world"},
	})
}

func TestArchiveEndToEnd(t *testing.T) {
	a, err := New(rangeio.NewBytes(helloWorldZip(t)))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Contains("dir"))
	assert.True(t, a.Contains("dir/"))
	assert.False(t, a.Contains("nope.txt"))

	r, err := a.Open("a.txt")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(b))

	r, err = a.Open("dir/b.txt")
	require.NoError(t, err)
	b, err = io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "world", string(b))

	_, err = a.Open("nope.txt")
	assert.Error(t, err)
}

func TestOpenFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, os.WriteFile(path, helloWorldZip(t), 0644))

	a, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 3, a.Len())

	e := a.Entry("dir/b.txt")
	require.NotNil(t, e)
	assert.Equal(t, MethodDeflated, e.Method())
	assert.EqualValues(t, 5, e.Size())
	assert.Equal(t, crc32.ChecksumIEEE([]byte("world")), e.CRC32())

	require.NoError(t, a.Close())
}

func TestOpenNotZip(t *testing.T) {
	_, err := New(rangeio.NewBytes([]byte("this is most definitely not a zip file")))
	assert.ErrorIs(t, err, ErrNoEOCD)
}

func TestNestedArchive(t *testing.T) {
	inner := buildZip(t, []zipEntry{
		{name: "lib/util.txt", method: zip.Deflate, content: "nested content"},
	})

	outer := buildZip(t, []zipEntry{
		{name: "BOOT-INF/lib/inner.jar", method: zip.Store, content: string(inner)},
		{name: "readme.txt", method: zip.Deflate, content: "outer"},
	})

	a, err := New(rangeio.NewBytes(outer))
	require.NoError(t, err)
	defer a.Close()

	nested, err := a.Nested("BOOT-INF/lib/inner.jar")
	require.NoError(t, err)

	assert.Equal(t, 1, nested.Len())

	r, err := nested.Open("lib/util.txt")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "nested content", string(b))

	// twice-nested: a jar inside a jar inside a jar.
	outermost := buildZip(t, []zipEntry{
		{name: "middle.jar", method: zip.Store, content: string(outer)},
	})

	a2, err := New(rangeio.NewBytes(outermost))
	require.NoError(t, err)

	middle, err := a2.Nested("middle.jar")
	require.NoError(t, err)

	innermost, err := middle.Nested("BOOT-INF/lib/inner.jar")
	require.NoError(t, err)
	assert.True(t, innermost.Contains("lib/util.txt"))
}

func TestNestedArchiveRejectsDeflated(t *testing.T) {
	inner := buildZip(t, []zipEntry{
		{name: "x.txt", method: zip.Store, content: "x"},
	})
	outer := buildZip(t, []zipEntry{
		{name: "inner.jar", method: zip.Deflate, content: string(inner)},
	})

	a, err := New(rangeio.NewBytes(outer))
	require.NoError(t, err)

	_, err = a.Nested("inner.jar")
	assert.ErrorContains(t, err, "compressed")

	_, err = a.Nested("missing.jar")
	assert.ErrorContains(t, err, "no entry")
}
