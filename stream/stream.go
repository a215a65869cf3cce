// Package stream provides a stateful wrapper around one-shot encode and
// decode calls: a single Stream instance serializes concurrent callers
// behind a mutex and keeps one codec.Context alive across calls, so the
// adaptive-size stats and caches warm up and stay warm for the life of
// the stream (§4.8's "Thread-safety: a single stream instance is
// serialized by an internal flag... callers must use one instance per
// thread" — here realized as a genuine mutex rather than a
// documentation-only contract).
package stream

import (
	"sync"

	"github.com/gomsgpack/msgpack/codec"
	"github.com/gomsgpack/msgpack/value"
)

// Stream serializes repeated Encode/Decode calls against one codec.Context.
// The zero value is not usable; construct with New.
type Stream struct {
	mu  sync.Mutex
	ctx *codec.Context
}

// New builds a Stream with a fresh Context configured by opts.
func New(opts ...codec.Option) (*Stream, error) {
	ctx, err := codec.NewContext(opts...)
	if err != nil {
		return nil, err
	}
	return &Stream{ctx: ctx}, nil
}

// Encode serializes v using the stream's Context, updating its adaptive
// stats on success for the next call.
func (s *Stream) Encode(v value.Value) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.Encode(s.ctx, v)
}

// Decode consumes exactly one value from data using the stream's
// Context. Per §4.6, any residual bytes in data fail with "ended early" —
// callers decoding a concatenation of multiple messages should use
// filestream.FileStream instead, which tracks a read offset across calls.
func (s *Stream) Decode(data []byte) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.Decode(s.ctx, data)
}
