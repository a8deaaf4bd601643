package nestedjar

// Name is an immutable entry name held as raw bytes with a precomputed hash.
//
// Archives at the scale of tens of thousands of entries make per-lookup string
// conversion noticeable, so lookups compare a Name against a Go string (plus an
// optional single-byte suffix) directly on the raw bytes instead of materialising
// a concatenated string.
type Name struct {
	b []byte
	h uint32
}

// noSuffix is passed to matches and hashName when the probe has no trailing separator.
const noSuffix byte = 0

func newName(b []byte) Name {
	c := make([]byte, len(b))
	copy(c, b)

	return Name{b: c, h: hashName(string(c), noSuffix)}
}

// hashName hashes the raw bytes of s followed by suffix if it is not noSuffix.
//
// hashName(s, '/') must equal hashName(s+"/", noSuffix) so that directory probes
// never allocate.
func hashName(s string, suffix byte) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = 31*h + uint32(s[i])
	}
	if suffix != noSuffix {
		h = 31*h + uint32(suffix)
	}

	return h
}

// String returns the name decoded as a string.
func (n Name) String() string {
	return string(n.b)
}

// hash returns the precomputed hash of the raw bytes.
func (n Name) hash() uint32 {
	return n.h
}

// matches reports whether the raw bytes equal s followed by suffix (if not noSuffix),
// without allocating.
func (n Name) matches(s string, suffix byte) bool {
	if suffix == noSuffix {
		return string(n.b) == s
	}

	if len(n.b) != len(s)+1 || n.b[len(s)] != suffix {
		return false
	}

	return string(n.b[:len(s)]) == s
}

// equal reports whether two names hold the same raw bytes.
func (n Name) equal(o Name) bool {
	return n.h == o.h && string(n.b) == string(o.b)
}

// isDir reports whether the name denotes a directory entry by convention.
func (n Name) isDir() bool {
	return len(n.b) > 0 && n.b[len(n.b)-1] == '/'
}
