package msgpack

import (
	"fmt"

	"github.com/gomsgpack/msgpack/codec"
	"github.com/gomsgpack/msgpack/ext"
	"github.com/gomsgpack/msgpack/filestream"
	"github.com/gomsgpack/msgpack/stream"
	"github.com/gomsgpack/msgpack/value"
)

// Option configures a Context at construction time, shared across
// Encode, Decode, NewStream, and NewFileStream.
type Option = codec.Option

// WithRegistry overrides the extensions registry used for this call
// (defaults to DefaultRegistry()).
func WithRegistry(r *ext.Registry) Option { return codec.WithRegistry(r) }

// WithStrictKeys turns on strict-keys mode: only Str keys are accepted
// or produced for maps.
func WithStrictKeys(strict bool) Option { return codec.WithStrictKeys(strict) }

// WithStringCacheSize overrides the decode-side string cache's slot
// count (default 1024).
func WithStringCacheSize(size int) Option { return codec.WithStringCacheSize(size) }

// WithChunkSize overrides a FileStream's refill buffer size (default
// 16384). Ignored by Encode, Decode, and NewStream.
func WithChunkSize(size int) Option { return codec.WithChunkSize(size) }

// WithOffset sets a FileStream's starting read offset into its file.
// Ignored by Encode, Decode, and NewStream.
func WithOffset(offset int64) Option { return codec.WithOffset(offset) }

// DefaultRegistry returns the process-wide default extensions registry.
// Call sites that omit WithRegistry use this one.
func DefaultRegistry() *ext.Registry { return ext.Default() }

// Encode serializes v to MessagePack bytes using a pooled Context built
// from opts. v is usually a value.Value; a value.Sequence or
// value.Mapping is copied into an Array or Map; any other Go type is
// resolved through the Context's registry (§4.5 dispatch step 12) — a
// direct lookup against v's concrete type, then the registered
// EncodeAnyFunc normalizers, since Go has no runtime parent-type chain to
// walk (§9 Open Question (e)). A value that neither resolves fails with
// ErrType.
func Encode(v any, opts ...Option) ([]byte, error) {
	ctx, err := codec.AcquireContext(opts...)
	if err != nil {
		return nil, err
	}
	defer codec.ReleaseContext(ctx)

	resolved, err := toValue(ctx, v)
	if err != nil {
		return nil, err
	}
	return codec.Encode(ctx, resolved)
}

// toValue passes a value.Value through unchanged; accepts a caller's own
// ordered container type that satisfies value.Sequence or value.Mapping
// without requiring it be copied into a []value.Value/[]value.MapEntry
// first (SPEC_FULL.md §3 "subtype-tolerance"); and otherwise resolves v
// via the Context's registry: first a direct lookup against v's concrete
// type, then — if that misses — every entry's EncodeAnyFunc normalizer,
// for a wrapper type claiming compatibility with a registered type (§9
// Open Question (e)).
func toValue(ctx *codec.Context, v any) (value.Value, error) {
	if mv, ok := v.(value.Value); ok {
		return mv, nil
	}

	if seq, ok := v.(value.Sequence); ok {
		items := make([]value.Value, seq.Len())
		for i := range items {
			items[i] = seq.At(i)
		}
		return value.Array(items), nil
	}

	if m, ok := v.(value.Mapping); ok {
		entries := make([]value.MapEntry, m.Len())
		for i := range entries {
			k, val := m.At(i)
			entries[i] = value.MapEntry{Key: k, Val: val}
		}
		return value.Map(entries), nil
	}

	if tag, enc, ok := ctx.Registry.LookupEncode(v); ok {
		payload, err := enc(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.Ext(tag, payload), nil
	}

	if resolved, ok := ctx.Registry.ResolveEncodeAny(v); ok {
		return resolved, nil
	}

	return value.Value{}, fmt.Errorf("%w: no registered extension for %T", codec.ErrType, v)
}

// Decode consumes exactly one MessagePack value from data using a
// pooled Context built from opts.
func Decode(data []byte, opts ...Option) (value.Value, error) {
	ctx, err := codec.AcquireContext(opts...)
	if err != nil {
		return value.Value{}, err
	}
	defer codec.ReleaseContext(ctx)

	return codec.Decode(ctx, data)
}

// NewStream builds a Stream: one Context, safe for concurrent callers,
// for repeated encode/decode calls that should share caches and
// adaptive-size statistics.
func NewStream(opts ...Option) (*stream.Stream, error) {
	return stream.New(opts...)
}

// NewFileStream opens (creating if needed) an append-only MessagePack
// file for encoding, and a chunked decode source for reading it back.
func NewFileStream(path string, opts ...Option) (*filestream.FileStream, error) {
	return filestream.New(path, opts...)
}
