package cache

import "github.com/gomsgpack/msgpack/value"

// §4.3 small-integer cache window: "reference uses N=128, P=1023 plus
// zero" — a contiguous range [-128, 1023].
const (
	DefaultIntCacheMin = -128
	DefaultIntCacheMax = 1023
)

// IntCache is a dense preallocated array of Value objects covering a
// contiguous integer range. It is built once per Context and is
// read-only after construction, so it needs no locking (§4.3: "read-only
// after initialization; shared freely").
type IntCache struct {
	min    int64
	values []value.Value
}

// NewIntCache builds a cache covering [min, max] inclusive. Panics if
// max < min, matching the precondition every caller in this module
// satisfies at construction time.
func NewIntCache(min, max int64) *IntCache {
	if max < min {
		panic("cache: NewIntCache requires max >= min")
	}
	n := max - min + 1
	values := make([]value.Value, n)
	for i := range values {
		values[i] = value.Int(min + int64(i))
	}
	return &IntCache{min: min, values: values}
}

// NewDefaultIntCache builds the reference-sized cache from §4.3.
func NewDefaultIntCache() *IntCache {
	return NewIntCache(DefaultIntCacheMin, DefaultIntCacheMax)
}

// Lookup returns the shared Value for i if it falls within the cache's
// range, and false otherwise (the decoder must construct a fresh Value
// for out-of-range integers).
func (c *IntCache) Lookup(i int64) (value.Value, bool) {
	if i < c.min {
		return value.Value{}, false
	}
	idx := i - c.min
	if idx >= int64(len(c.values)) {
		return value.Value{}, false
	}
	return c.values[idx], true
}
