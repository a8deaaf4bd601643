// Package nestedjar indexes ZIP/JAR containers in place, including archives
// nested inside other archives, without ever extracting them to disk.
//
// An Archive is opened over a rangeio.Store, its central directory scanned once
// to build an immutable in-memory index, and entry content is then read through
// bounded views into the shared backing storage. Because nothing is extracted
// and stores support positioned reads, a jar stored inside another jar is
// indexed with the exact same machinery over a sub-range view.
package nestedjar

import (
	"fmt"
	"io"
	"os"

	"github.com/nguyengg/nestedjar/rangeio"
)

// Options customises New and Open.
type Options struct {
	// Filter transforms or excludes entry names at index build time.
	//
	// By default, every discovered entry is indexed under its original name.
	Filter Filter

	// MaxScanBytes limits the backward scan for the end-of-central-directory record.
	//
	// By default, DefaultMaxScanBytes is used. Set this to 0 or to the store size to force scanning the whole store.
	MaxScanBytes int64
}

// Archive is an indexed ZIP/JAR container.
//
// Once New returns, the archive is read-only: concurrent lookups, iteration and
// entry reads from multiple goroutines are safe without external locking.
type Archive struct {
	store   rangeio.Store
	eocd    EOCDRecord
	entries *Entries
	closer  io.Closer
}

// New indexes the archive contained in the given store.
//
// The central directory is scanned exactly once on the calling goroutine; a
// malformed end record or truncated directory fails the whole construction and
// no partial index is ever returned. The store must stay usable for the
// lifetime of the archive and every nested archive derived from it.
func New(store rangeio.Store, optFns ...func(*Options)) (*Archive, error) {
	opts := &Options{
		MaxScanBytes: DefaultMaxScanBytes,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	eocd, headers, err := ScanCentralDirectory(store, func(so *ScanOptions) {
		so.MaxBytes = opts.MaxScanBytes
	})
	if err != nil {
		return nil, err
	}

	a := &Archive{store: store, eocd: eocd}
	if a.entries, err = newEntries(a, headers, opts.Filter); err != nil {
		return nil, err
	}

	return a, nil
}

// Open indexes the archive in the named file.
//
// The file is held open for positioned reads until Close is called.
func Open(path string, optFns ...func(*Options)) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf(`open archive "%s" error: %w`, path, err)
	}

	store, err := rangeio.NewFile(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	a, err := New(store, optFns...)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf(`index archive "%s" error: %w`, path, err)
	}

	a.closer = f
	return a, nil
}

// Entries returns the archive's entry index.
func (a *Archive) Entries() *Entries {
	return a.entries
}

// EOCD returns the archive's end-of-central-directory record.
func (a *Archive) EOCD() EOCDRecord {
	return a.eocd
}

// Store returns the backing byte-range storage for the whole archive.
func (a *Archive) Store() rangeio.Store {
	return a.store
}

// Len returns the number of indexed entries.
func (a *Archive) Len() int {
	return a.entries.Len()
}

// Contains reports whether an entry resolves under name (with or without a trailing slash).
func (a *Archive) Contains(name string) bool {
	return a.entries.Contains(name)
}

// Lookup returns the lightweight header indexed under name, or nil. See Entries.Lookup.
func (a *Archive) Lookup(name string) *FileHeader {
	return a.entries.Lookup(name)
}

// Entry returns the rich view of the entry indexed under name, or nil.
func (a *Archive) Entry(name string) *Entry {
	return a.entries.Entry(name)
}

// Open returns a reader over the named entry's content, or an error if no entry resolves under name.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	fh := a.entries.Lookup(name)
	if fh == nil {
		return nil, fmt.Errorf(`no entry "%s" in archive`, name)
	}

	return a.entries.Open(fh)
}

// Nested indexes the named entry's payload as an archive in its own right.
//
// The entry must be stored rather than deflated: a deflated payload is not
// randomly addressable, which is also why build tools store nested jars
// uncompressed. The nested archive reads through a sub-range view of this
// archive's storage; nothing is extracted or copied.
func (a *Archive) Nested(name string, optFns ...func(*Options)) (*Archive, error) {
	fh := a.entries.Lookup(name)
	if fh == nil {
		return nil, fmt.Errorf(`no entry "%s" in archive`, name)
	}

	return a.nested(fh, optFns...)
}

func (a *Archive) nested(fh *FileHeader, optFns ...func(*Options)) (*Archive, error) {
	if fh.Method != MethodStored {
		return nil, fmt.Errorf(`entry "%s" is compressed; only stored entries can be opened as nested archives`, fh.Name.String())
	}

	data, err := a.entries.Data(fh)
	if err != nil {
		return nil, err
	}

	nested, err := New(data, optFns...)
	if err != nil {
		return nil, fmt.Errorf(`index nested archive "%s" error: %w`, fh.Name.String(), err)
	}

	return nested, nil
}

// Close releases the backing resource if the archive owns one (that is, it was
// opened with Open). Archives created with New or Nested borrow their storage
// and their Close is a no-op; closing a parent archive invalidates the stores
// of every archive nested within it.
func (a *Archive) Close() error {
	a.entries.Clear()
	if a.closer != nil {
		return a.closer.Close()
	}

	return nil
}
