// Package ext implements the user-extension-type subsystem (§4.7): a
// type-keyed encode table and a 256-slot tag-indexed decode table, plus
// the process-wide default registry explicit registries override.
package ext

import (
	"reflect"
	"sync"

	"github.com/gomsgpack/msgpack/value"
)

// EncodeFunc encodes a registered Go value into its ext payload bytes.
// The value passed in is always the concrete type the entry was
// registered against.
type EncodeFunc func(v any) ([]byte, error)

// EncodeAnyFunc is a per-entry normalizer: given an arbitrary Go value of
// some other concrete type, it reports whether that value can be treated
// as this entry's registered type and, if so, returns the fully-resolved
// Value to encode. This is the §4.7/§9 Open Question (e) substitute for
// "walks the value's parent-type chain": Go has no runtime parent-type
// chain for arbitrary structs, so a wrapper type's own entry supplies the
// normalization instead of the registry walking one implicitly.
type EncodeAnyFunc func(v any) (value.Value, bool)

// DecodeFunc decodes an ext payload into a value.Value. payload is either
// an owned copy or a zero-copy view over the decoder's current buffer
// slice, depending on the registry's PassMemoryView flag (§4.7); the
// borrow, if any, ends when DecodeFunc returns (SPEC_FULL.md §4.7/DESIGN
// NOTES "Zero-copy decode view"). The callback's return value becomes the
// decoded value with no further type check (§4.7) — since value.Value is
// a closed tagged union in Go, that contract is expressed by letting the
// callback build whatever Value shape it wants (often value.Ext for a
// simple round-trip, or any other Kind for a richer extension type).
type DecodeFunc func(tag int8, payload []byte) (value.Value, error)

// encodeEntry is keyed by the registered Go type's reflect.Type.
type encodeEntry struct {
	tag       int8
	encode    EncodeFunc
	encodeAny EncodeAnyFunc
}

// Registry holds the encode-by-type and decode-by-tag tables described in
// §3 ("Extensions registry entities") and §4.7. The zero value is not
// usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	encodeByType map[reflect.Type]encodeEntry
	decodeByTag  [256]DecodeFunc // index = tag + 128

	// PassMemoryView mirrors §3's "pass-memoryview" flag: when true,
	// decode callbacks receive a zero-copy view over the decoder's
	// buffer slice; when false, they receive an owned copy.
	PassMemoryView bool
}

// New creates an empty registry. passMemoryView sets the PassMemoryView
// flag at construction time (it may also be set directly afterward).
func New(passMemoryView bool) *Registry {
	return &Registry{
		encodeByType:   make(map[reflect.Type]encodeEntry),
		PassMemoryView: passMemoryView,
	}
}

func tagIndex(tag int8) int { return int(tag) + 128 }

// Add registers both the encode and decode sides for tag id against the
// concrete type of sample (sample is only used to obtain its
// reflect.Type; its value is otherwise ignored).
func (r *Registry) Add(tag int8, sample any, enc EncodeFunc, dec DecodeFunc) {
	r.AddEncode(sample, tag, enc)
	r.AddDecode(tag, dec)
}

// AddEncode registers the encode side: the encoder, upon reaching a value
// of sample's concrete type, writes the ext header with tag id and the
// bytes enc returns (§4.7). Keys are unique by type — registering the
// same type again overwrites the previous entry, matching §3's "keys
// unique" (a map naturally dedups; no separate collision tracking is
// needed, see DESIGN.md).
func (r *Registry) AddEncode(sample any, tag int8, enc EncodeFunc) {
	typ := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.encodeByType[typ] = encodeEntry{tag: tag, encode: enc}
}

// AddEncodeAny registers an encode-side entry exactly like AddEncode, plus
// a normalizer hook tried (via ResolveEncodeAny) against a value whose
// concrete type has no direct registration of its own — a caller's
// wrapper type claiming compatibility with sample's type registers its
// own normalizer this way rather than the registry walking a type chain
// for it (§9 Open Question (e)).
func (r *Registry) AddEncodeAny(sample any, tag int8, enc EncodeFunc, normalize EncodeAnyFunc) {
	typ := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.encodeByType[typ] = encodeEntry{tag: tag, encode: enc, encodeAny: normalize}
}

// AddDecode registers the decode side: tag indexes a 256-slot array
// (idx = tag + 128); a present slot's callback is invoked when the
// decoder reads that ext tag id (§4.7).
func (r *Registry) AddDecode(tag int8, dec DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decodeByTag[tagIndex(tag)] = dec
}

// RemoveEncode removes the encode entry keyed by sample's type. Per §4.7,
// remove does not fail on an absent entry.
func (r *Registry) RemoveEncode(sample any) {
	typ := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.encodeByType, typ)
}

// RemoveDecode clears the decode slot for tag. Per §4.7, remove does not
// fail on an absent entry.
func (r *Registry) RemoveDecode(tag int8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decodeByTag[tagIndex(tag)] = nil
}

// Clear removes every encode and decode entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encodeByType = make(map[reflect.Type]encodeEntry)
	for i := range r.decodeByTag {
		r.decodeByTag[i] = nil
	}
}

// LookupEncode walks the type of v (§4.7: "the encoder... selects the
// first registered entry"). Go has no runtime parent-type chain for
// arbitrary structs, so this is a single lookup against v's concrete
// type; a caller whose own wrapper types need normalization to a
// registered concrete type should register an EncodeAnyFunc via
// AddEncodeAny instead, consulted by ResolveEncodeAny (§9 Open Question
// (e)).
func (r *Registry) LookupEncode(v any) (tag int8, enc EncodeFunc, ok bool) {
	typ := reflect.TypeOf(v)

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, found := r.encodeByType[typ]
	if !found {
		return 0, nil, false
	}
	return entry.tag, entry.encode, true
}

// ResolveEncodeAny is the fallback for a value whose concrete type has no
// direct LookupEncode match: it tries every entry's EncodeAnyFunc (in the
// unspecified order a map iteration gives; a hook should only claim
// values it actually recognizes) and returns the first Value one
// resolves. Used by the root package's Encode before it gives up on an
// unregistered type.
func (r *Registry) ResolveEncodeAny(v any) (value.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.encodeByType {
		if entry.encodeAny == nil {
			continue
		}
		if resolved, ok := entry.encodeAny(v); ok {
			return resolved, true
		}
	}
	return value.Value{}, false
}

// LookupDecode returns the decode callback registered for tag, if any.
func (r *Registry) LookupDecode(tag int8) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dec := r.decodeByTag[tagIndex(tag)]
	return dec, dec != nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide default registry (§4.7: "A global
// default registry exists per process; its lifetime is the process").
// Call sites that omit an explicit registry receive this one.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New(false)
	})
	return defaultReg
}
