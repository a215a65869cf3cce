package cache

import (
	"testing"

	"github.com/gomsgpack/msgpack/value"
)

func TestStringCacheHitAfterRecord(t *testing.T) {
	c := NewStringCache(16)
	data := []byte("hello")

	if _, ok := c.Lookup(data); ok {
		t.Fatalf("expected miss before Record")
	}

	decoded := value.Str("hello")
	c.Record(data, decoded)

	got, ok := c.Lookup(data)
	if !ok {
		t.Fatalf("expected hit after Record")
	}
	if got.Str() != "hello" {
		t.Fatalf("got %q", got.Str())
	}
}

func TestStringCacheReplacementAfterStrengthZero(t *testing.T) {
	c := NewStringCache(16)
	a := []byte("alpha")
	c.Record(a, value.Str("alpha"))

	idx := c.slotFor(a)
	slot := &c.slots[idx]
	slot.strength = 1 // one more ASCII miss on this slot should replace it

	other := []byte("zz-different-key-same-slot")
	// Force the new key into the same slot directly to exercise the
	// replace-at-zero path deterministically (slot assignment in
	// production depends on the hash, which we bypass here).
	c.slots[idx] = *slot
	slot.strength = 1
	c.replace(slot, a, value.Str("alpha")) // reset baseline to strength=3, occupied

	slot.strength = 1
	// Simulate one ASCII miss that should decrement to zero and replace.
	if isASCII(other) {
		slot.strength--
	}
	if slot.strength == 0 {
		c.replace(slot, other, value.Str(string(other)))
	}

	if slot.strength != initialMatchStrength {
		t.Fatalf("expected replace to reset strength to %d, got %d", initialMatchStrength, slot.strength)
	}
	if string(slot.data) != string(other) {
		t.Fatalf("expected slot to hold replaced key")
	}
}

func TestStringCacheBeyondFixstrIsCallerResponsibility(t *testing.T) {
	// The cache itself doesn't enforce the 31-byte bound (§4.3 says the
	// decoder only *consults* it for fixstr-range strings); verify it
	// still functions correctly for a long key so the boundary is purely
	// a decoder-side policy decision, not a cache invariant.
	c := NewStringCache(16)
	long := make([]byte, 64)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	c.Record(long, value.Str(string(long)))
	got, ok := c.Lookup(long)
	if !ok || got.Str() != string(long) {
		t.Fatalf("long-key round trip failed")
	}
}

func TestIntCacheRangeAndOutOfRange(t *testing.T) {
	c := NewDefaultIntCache()

	if v, ok := c.Lookup(0); !ok || v.Int() != 0 {
		t.Fatalf("Lookup(0) = %v,%v", v, ok)
	}
	if v, ok := c.Lookup(DefaultIntCacheMin); !ok || v.Int() != DefaultIntCacheMin {
		t.Fatalf("Lookup(min) failed: %v,%v", v, ok)
	}
	if v, ok := c.Lookup(DefaultIntCacheMax); !ok || v.Int() != DefaultIntCacheMax {
		t.Fatalf("Lookup(max) failed: %v,%v", v, ok)
	}
	if _, ok := c.Lookup(DefaultIntCacheMin - 1); ok {
		t.Fatalf("Lookup(min-1) should miss")
	}
	if _, ok := c.Lookup(DefaultIntCacheMax + 1); ok {
		t.Fatalf("Lookup(max+1) should miss")
	}
}

func TestIntCacheSharedReference(t *testing.T) {
	c := NewDefaultIntCache()
	a, _ := c.Lookup(42)
	b, _ := c.Lookup(42)
	if !value.Equal(a, b) {
		t.Fatalf("expected equal cached values")
	}
}
