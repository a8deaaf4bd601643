package nestedjar

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"sort"

	"github.com/nguyengg/nestedjar/rangeio"
)

// localFileHeaderSize is the fixed-size prefix of a ZIP local file header.
const localFileHeaderSize = 30

// Filter transforms or excludes a discovered entry name before it is indexed.
//
// Return the (possibly rewritten) name to index the entry under, or false to
// drop the entry entirely. A typical use is stripping a nested-classpath prefix
// such as "BOOT-INF/classes/".
type Filter func(name string) (string, bool)

// Entries is the in-memory index of an archive's central directory.
//
// It is built in a single pass while the directory is scanned, then frozen: all
// later operations read an immutable snapshot, so concurrent Lookup, Contains,
// All, Data and Open calls from multiple goroutines need no locking. Entry
// details are kept in one slice in visitation order; a hash-sorted position
// table on the side gives binary-search lookup, which at tens of thousands of
// entries is considerably cheaper in memory than a map of strings.
type Entries struct {
	archive *Archive

	// headers holds the lightweight records in central directory visitation order.
	headers []FileHeader

	// byHash holds positions into headers ordered by name hash for binary search.
	byHash []int32
}

// newEntries drains the central directory sequence into a frozen index.
//
// A later record whose effective (post-filter) name collides with an earlier
// one overwrites it in place, keeping the earlier visitation slot. Any scan
// error aborts the build; no partial index is returned.
func newEntries(archive *Archive, seq iter.Seq2[FileHeader, error], filter Filter) (*Entries, error) {
	var headers []FileHeader

	// build-time only; the snapshot does not keep per-entry strings around.
	slots := make(map[string]int)

	for fh, err := range seq {
		if err != nil {
			return nil, err
		}

		if filter != nil {
			name, ok := filter(fh.Name.String())
			if !ok {
				continue
			}
			if name != fh.Name.String() {
				fh.Name = newName([]byte(name))
			}
		}

		if i, ok := slots[fh.Name.String()]; ok {
			headers[i] = fh
		} else {
			slots[fh.Name.String()] = len(headers)
			headers = append(headers, fh)
		}
	}

	byHash := make([]int32, len(headers))
	for i := range byHash {
		byHash[i] = int32(i)
	}
	sort.Slice(byHash, func(i, j int) bool {
		return headers[byHash[i]].Name.hash() < headers[byHash[j]].Name.hash()
	})

	return &Entries{archive: archive, headers: headers, byHash: byHash}, nil
}

// Len returns the number of indexed entries.
func (e *Entries) Len() int {
	return len(e.headers)
}

// All returns the entries in central directory visitation order.
//
// The sequence is restartable; each Entry is synthesised fresh at traversal time.
func (e *Entries) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for i := range e.headers {
			if !yield(&Entry{header: &e.headers[i], archive: e.archive}) {
				return
			}
		}
	}
}

// Contains reports whether Lookup by that name would succeed.
func (e *Entries) Contains(name string) bool {
	return e.Lookup(name) != nil
}

// Lookup returns the lightweight header indexed under name, or nil.
//
// The name is probed exactly as given first; on a miss, it is probed again with
// a trailing slash appended, so a directory entry stored as "dir/" resolves via
// both "dir" and "dir/". Neither probe allocates.
func (e *Entries) Lookup(name string) *FileHeader {
	if fh := e.lookup(name, noSuffix); fh != nil {
		return fh
	}
	if n := len(name); n == 0 || name[n-1] != '/' {
		return e.lookup(name, '/')
	}

	return nil
}

// Entry returns the rich view of the entry indexed under name, or nil.
func (e *Entries) Entry(name string) *Entry {
	if fh := e.Lookup(name); fh != nil {
		return &Entry{header: fh, archive: e.archive}
	}

	return nil
}

func (e *Entries) lookup(name string, suffix byte) *FileHeader {
	h := hashName(name, suffix)

	i := sort.Search(len(e.byHash), func(i int) bool {
		return e.headers[e.byHash[i]].Name.hash() >= h
	})
	for ; i < len(e.byHash); i++ {
		fh := &e.headers[e.byHash[i]]
		if fh.Name.hash() != h {
			break
		}
		if fh.Name.matches(name, suffix) {
			return fh
		}
	}

	return nil
}

// Data returns a bounded view spanning exactly the entry's compressed payload.
//
// Some producers write a different extra-field length in the local header than
// in the central directory (aspectjrt-1.7.4.jar is the known offender), so the
// local header is re-read on every call and the data offset derived from its
// own name and extra-field lengths. The central directory's redundant copies of
// those fields are never trusted for this.
func (e *Entries) Data(h *FileHeader) (rangeio.Store, error) {
	store := e.archive.store

	b, err := rangeio.Read(store, h.LocalHeaderOffset, localFileHeaderSize)
	if err != nil {
		return nil, fmt.Errorf(`entry "%s": read local file header at %d: %w`, h.Name.String(), h.LocalHeaderOffset, err)
	}
	if binary.LittleEndian.Uint32(b[:4]) != lfhSig {
		return nil, fmt.Errorf(`entry "%s": local file header at %d: mismatched signature, got 0x%x, expected 0x%x`, h.Name.String(), h.LocalHeaderOffset, binary.LittleEndian.Uint32(b[:4]), uint32(lfhSig))
	}

	nameLen := int64(binary.LittleEndian.Uint16(b[26:28]))
	extraLen := int64(binary.LittleEndian.Uint16(b[28:30]))

	data, err := store.Section(h.LocalHeaderOffset+localFileHeaderSize+nameLen+extraLen, int64(h.CompressedSize))
	if err != nil {
		return nil, fmt.Errorf(`entry "%s": %w`, h.Name.String(), err)
	}

	return data, nil
}

// Open returns a reader over the entry's content, inflating it if the entry is deflated.
func (e *Entries) Open(h *FileHeader) (io.ReadCloser, error) {
	data, err := e.Data(h)
	if err != nil {
		return nil, err
	}

	return newEntryReader(data, h)
}

// Clear is a best-effort hint to release derived state eagerly.
//
// The index keeps no derived state beyond the lightweight headers, so this is
// currently a no-op; headers already returned to callers stay valid regardless.
func (e *Entries) Clear() {}
