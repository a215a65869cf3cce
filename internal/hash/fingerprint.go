// Package hash groups the two unrelated hash functions the codec needs:
// a 64-bit fingerprint for integrity checks outside the wire format
// (snapshot files), and the 32-bit FNV-1a hash the
// string intern cache is specified to use for its probe key (§4.3). They
// are deliberately different algorithms for different jobs — see
// DESIGN.md for why xxhash cannot substitute for the cache's FNV-1a.
package hash

import (
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint64 computes the xxHash64 of data. Used by snapshot (cache
// warm-file integrity trailer); never used for the string-cache probe, which the spec pins to FNV-1a.
func Fingerprint64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint64String is the string-keyed variant of Fingerprint64,
// avoiding a []byte conversion allocation for callers that already have a
// string in hand.
func Fingerprint64String(data string) uint64 {
	return xxhash.Sum64String(data)
}

// FNV1a32 computes the 32-bit FNV-1a hash of data, per §4.3's string
// intern cache probe key ("a 32-bit FNV-1a hash of the candidate byte
// sequence"). Standard library hash/fnv is used rather than a third-party
// hash because the algorithm itself is mandated by the spec, not left to
// implementer choice — see DESIGN.md.
func FNV1a32(data []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(data) // hash.Hash32.Write never returns an error
	return h.Sum32()
}

// FNV1a32String is the string-keyed variant of FNV1a32.
func FNV1a32String(data string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(data))
	return h.Sum32()
}
