// Package cache implements the two decode-side caches specified in §4.3:
// a fixed-size string intern cache with match-strength displacement, and
// a dense small-integer cache. Both are owned by a codec Context rather
// than held in package-level globals, per DESIGN NOTES' "module-level
// caches → owned-by-context".
package cache

import (
	"sync/atomic"

	"github.com/gomsgpack/msgpack/internal/hash"
	"github.com/gomsgpack/msgpack/internal/wire"
	"github.com/gomsgpack/msgpack/value"
)

// DefaultStringCacheSize is the reference slot count from §4.3 ("reference
// uses 1024").
const DefaultStringCacheSize = 1024

// MaxCachedStrLen is the fixstr length ceiling (§4.3: "consulted only for
// short strings... length <= 31").
const MaxCachedStrLen = 31

// initialMatchStrength is the match-strength a freshly replaced slot
// starts at (§4.3: "reset to 3").
const initialMatchStrength = 3

type stringSlot struct {
	locked   atomic.Bool // per-slot spin lock (§4.3/§5: test-and-set, acquire/release)
	occupied bool
	val      value.Value // cached Str value, strong-reference-shared with callers
	data     []byte      // raw bytes of val, kept to avoid re-deriving from value.Value
	strength uint8
}

func (s *stringSlot) lock() {
	for !s.locked.CompareAndSwap(false, true) {
		// Busy-spin: slots are held only for the duration of a single
		// probe/replace, never across a blocking call.
	}
}

func (s *stringSlot) unlock() {
	s.locked.Store(false)
}

// StringCache is the §4.3 string intern cache. The zero value is not
// usable; construct with NewStringCache.
type StringCache struct {
	slots []stringSlot
}

// NewStringCache creates a string cache with the given slot count. size
// <= 0 uses DefaultStringCacheSize.
func NewStringCache(size int) *StringCache {
	if size <= 0 {
		size = DefaultStringCacheSize
	}
	return &StringCache{slots: make([]stringSlot, size)}
}

// slotFor reduces the FNV-1a hash of data modulo the slot count.
func (c *StringCache) slotFor(data []byte) int {
	h := hash.FNV1a32(data)
	return int(h) % len(c.slots)
}

// isASCII reports whether every byte of data is in the 7-bit ASCII range,
// used by the miss path's match-strength decrement rule (§4.3).
func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// Lookup probes the cache for data (already known to be <= MaxCachedStrLen
// bytes; callers must enforce that bound themselves per §4.3). On a hit,
// it returns the cached Value and increments the slot's match-strength
// (saturating at 255). On a miss, decode must be called by the caller to
// produce a new Value; the caller then calls Record with that value so
// the cache can apply the miss-path update (decrement, and replace+reset
// when the strength counter reaches zero).
func (c *StringCache) Lookup(data []byte) (value.Value, bool) {
	idx := c.slotFor(data)
	slot := &c.slots[idx]

	slot.lock()
	defer slot.unlock()

	if slot.occupied && len(slot.data) == len(data) && wire.MemEqual(slot.data, data) {
		if slot.strength < 255 {
			slot.strength++
		}
		return slot.val, true
	}

	return value.Value{}, false
}

// Record applies the §4.3 miss-path update for the slot that data hashes
// to: "if and only if the bytes are ASCII, decrement match-strength; when
// it reaches zero, replace the slot with the new value and reset
// match-strength to 3" (see SPEC_FULL.md §9 Open Question (a) for the
// exact ordering this resolves). decoded is the freshly decoded Value for
// data, already produced by the caller via the host's UTF-8 decoder.
func (c *StringCache) Record(data []byte, decoded value.Value) {
	idx := c.slotFor(data)
	slot := &c.slots[idx]

	slot.lock()
	defer slot.unlock()

	if !slot.occupied {
		c.replace(slot, data, decoded)
		return
	}

	if isASCII(data) {
		if slot.strength > 0 {
			slot.strength--
		}
		if slot.strength == 0 {
			c.replace(slot, data, decoded)
		}
	}
}

func (c *StringCache) replace(slot *stringSlot, data []byte, decoded value.Value) {
	owned := make([]byte, len(data))
	copy(owned, data)

	slot.occupied = true
	slot.data = owned
	slot.val = decoded
	slot.strength = initialMatchStrength
}

// Len returns the configured slot count.
func (c *StringCache) Len() int { return len(c.slots) }

// Snapshot returns a copy of every occupied slot's cached bytes, in slot
// order. Used by the snapshot package to persist a warm cache to disk.
func (c *StringCache) Snapshot() [][]byte {
	out := make([][]byte, 0, len(c.slots))
	for i := range c.slots {
		slot := &c.slots[i]
		slot.lock()
		if slot.occupied {
			data := make([]byte, len(slot.data))
			copy(data, slot.data)
			out = append(out, data)
		}
		slot.unlock()
	}
	return out
}

// Warm seeds the cache from previously snapshotted byte strings, as if
// each had just been recorded with a fresh match-strength. decode builds
// the Value the same way a live decode would; entries longer than
// MaxCachedStrLen are skipped, since a live decode would never have
// offered them to Record either.
func (c *StringCache) Warm(entries [][]byte, decode func([]byte) (value.Value, error)) error {
	for _, data := range entries {
		if len(data) > MaxCachedStrLen {
			continue
		}
		v, err := decode(data)
		if err != nil {
			return err
		}
		idx := c.slotFor(data)
		slot := &c.slots[idx]
		slot.lock()
		c.replace(slot, data, v)
		slot.unlock()
	}
	return nil
}
