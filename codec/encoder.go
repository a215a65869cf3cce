package codec

import (
	"fmt"
	"unicode/utf8"

	"github.com/gomsgpack/msgpack/format"
	"github.com/gomsgpack/msgpack/internal/pool"
	"github.com/gomsgpack/msgpack/internal/wire"
	"github.com/gomsgpack/msgpack/value"
)

// encoderState is the cursor threaded through a single recursive encode
// call: the output buffer, the Context it was born from, and the current
// recursion depth. Mirrors the teacher's encoderState cursor-struct idiom
// of carrying mutable traversal state as receiver fields rather than
// function parameters that grow with every nested call.
type encoderState struct {
	ctx   *Context
	buf   *pool.ByteBuffer
	depth int

	itemCount int // top-level container element count, for AdaptiveStats.Observe
}

// Encode encodes v into a freshly allocated byte slice using ctx's
// registry and strict-keys setting. The working buffer is drawn from
// the package's shared encode-buffer pool rather than allocated fresh
// (§3/§4.4: "the encode buffer [is] owned by a Context" in spirit — a
// one-shot call has no Context-lifetime buffer of its own to reuse, so
// it borrows from the pool instead and returns it before returning).
// Its initial size is grown to ctx.Stats' estimate per §4.4, and
// ctx.Stats is updated on success. Only the final, exactly-sized
// result slice escapes to the caller; the pooled buffer itself never
// does.
func Encode(ctx *Context, v value.Value) ([]byte, error) {
	initial := ctx.Stats.InitialSize(topLevelItemCount(v))

	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)
	buf.Grow(initial)

	st := &encoderState{ctx: ctx, buf: buf}
	if err := st.encodeValue(v); err != nil {
		return nil, err
	}

	ctx.Stats.Observe(buf.Len(), st.itemCount)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// topLevelItemCount returns the element count used to seed the initial
// buffer size (§4.4: "N" for containers, else the call is non-container
// and only extra_avg applies).
func topLevelItemCount(v value.Value) int {
	switch v.Kind() {
	case value.KindArray:
		return len(v.Array())
	case value.KindMap:
		return len(v.Map())
	default:
		return 0
	}
}

// encodeValue dispatches per §4.5's exact type-dispatch order. Earlier
// match wins. Value is a closed tagged union, so step 12's "anything
// else -> extensions" has no case here: a caller's arbitrary Go type is
// resolved through the registry into a KindExt value by the root
// package's Encode before this function ever sees it (§4.7's
// encode-by-type lookup happens one layer up, where the concrete Go type
// is still visible).
func (st *encoderState) encodeValue(v value.Value) error {
	switch v.Kind() {
	case value.KindStr:
		return st.encodeStr(v.Str())
	case value.KindInt:
		return st.encodeInt(v)
	case value.KindUint:
		return st.encodeInt(v)
	case value.KindFloat:
		return st.encodeFloat(v.Float())
	case value.KindMap:
		return st.encodeMap(v.Map())
	case value.KindBool:
		return st.encodeBool(v.Bool())
	case value.KindArray:
		return st.encodeArray(v.Array())
	case value.KindNil:
		return st.encodeNil()
	case value.KindBin:
		return st.encodeBin(v.Bin())
	case value.KindExt:
		return st.encodeExt(v.ExtTag(), v.ExtPayload())
	default:
		return fmt.Errorf("%w: value of kind %s has no encoding", ErrType, v.Kind())
	}
}

// encodeStr implements §4.5.a. A string that is not valid UTF-8 fails
// with ErrType.
func (st *encoderState) encodeStr(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in string", ErrType)
	}
	n := len(s)
	width, ok := format.StrWidth(n)
	if !ok {
		return fmt.Errorf("%w: string length %d exceeds format limit", ErrSize, n)
	}

	switch width {
	case format.WidthFix:
		st.buf.MustWrite([]byte{format.FixstrMask | byte(n)})
	case format.Width8:
		st.buf.MustWrite([]byte{format.TagStr8, byte(n)})
	case format.Width16:
		st.buf.MustWrite([]byte{format.TagStr16})
		st.buf.B = wire.PutUint16(st.buf.B, uint16(n))
	case format.Width32:
		st.buf.MustWrite([]byte{format.TagStr32})
		st.buf.B = wire.PutUint32(st.buf.B, uint32(n))
	}
	st.buf.MustWrite([]byte(s))
	return nil
}

// encodeInt implements §4.5.b: smallest unsigned encoding for
// non-negative values, smallest signed encoding for negative values.
func (st *encoderState) encodeInt(v value.Value) error {
	if v.Kind() == value.KindUint || !v.IsNegative() {
		u := v.Uint()
		switch format.UintWidth(u) {
		case 0:
			st.buf.MustWrite([]byte{byte(u)})
		case 8:
			st.buf.MustWrite([]byte{format.TagUint8, byte(u)})
		case 16:
			st.buf.MustWrite([]byte{format.TagUint16})
			st.buf.B = wire.PutUint16(st.buf.B, uint16(u))
		case 32:
			st.buf.MustWrite([]byte{format.TagUint32})
			st.buf.B = wire.PutUint32(st.buf.B, uint32(u))
		default:
			st.buf.MustWrite([]byte{format.TagUint64})
			st.buf.B = wire.PutUint64(st.buf.B, u)
		}
		return nil
	}

	i := v.Int()
	switch format.IntWidth(i) {
	case 0:
		st.buf.MustWrite([]byte{byte(int8(i))})
	case 8:
		st.buf.MustWrite([]byte{format.TagInt8, byte(int8(i))})
	case 16:
		st.buf.MustWrite([]byte{format.TagInt16})
		st.buf.B = wire.PutUint16(st.buf.B, uint16(int16(i)))
	case 32:
		st.buf.MustWrite([]byte{format.TagInt32})
		st.buf.B = wire.PutUint32(st.buf.B, uint32(int32(i)))
	default:
		st.buf.MustWrite([]byte{format.TagInt64})
		st.buf.B = wire.PutUint64(st.buf.B, uint64(i))
	}
	return nil
}

// encodeFloat implements §4.5.c: the library never emits float32.
func (st *encoderState) encodeFloat(f float64) error {
	st.buf.MustWrite([]byte{format.TagFloat64})
	st.buf.B = wire.PutFloat64(st.buf.B, f)
	return nil
}

// encodeBin implements §4.5.d.
func (st *encoderState) encodeBin(b []byte) error {
	n := len(b)
	width, ok := format.BinWidth(n)
	if !ok {
		return fmt.Errorf("%w: bin length %d exceeds format limit", ErrSize, n)
	}

	switch width {
	case format.Width8:
		st.buf.MustWrite([]byte{format.TagBin8, byte(n)})
	case format.Width16:
		st.buf.MustWrite([]byte{format.TagBin16})
		st.buf.B = wire.PutUint16(st.buf.B, uint16(n))
	case format.Width32:
		st.buf.MustWrite([]byte{format.TagBin32})
		st.buf.B = wire.PutUint32(st.buf.B, uint32(n))
	}
	st.buf.MustWrite(b)
	return nil
}

// encodeBool/encodeNil implement §4.5.e: single-byte tags.
func (st *encoderState) encodeBool(b bool) error {
	if b {
		st.buf.MustWrite([]byte{format.TagTrue})
	} else {
		st.buf.MustWrite([]byte{format.TagFalse})
	}
	return nil
}

func (st *encoderState) encodeNil() error {
	st.buf.MustWrite([]byte{format.TagNil})
	return nil
}

// encodeArray implements §4.5.f: recursion-bounded traversal emitting the
// smallest array tag, then each element in order.
func (st *encoderState) encodeArray(items []value.Value) error {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > maxRecursionDepth {
		return fmt.Errorf("%w: depth %d exceeds limit %d", ErrRecursion, st.depth, maxRecursionDepth)
	}

	n := len(items)
	width, ok := format.ArrayWidth(n)
	if !ok {
		return fmt.Errorf("%w: array length %d exceeds format limit", ErrSize, n)
	}
	if st.depth == 1 {
		st.itemCount = n
	}

	switch width {
	case format.WidthFix:
		st.buf.MustWrite([]byte{format.FixarrayMask | byte(n)})
	case format.Width16:
		st.buf.MustWrite([]byte{format.TagArray16})
		st.buf.B = wire.PutUint16(st.buf.B, uint16(n))
	case format.Width32:
		st.buf.MustWrite([]byte{format.TagArray32})
		st.buf.B = wire.PutUint32(st.buf.B, uint32(n))
	}

	for _, item := range items {
		if err := st.encodeValue(item); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap implements §4.5.g: same recursion discipline as arrays, plus
// the strict-keys check, preserving the host slice's iteration order.
func (st *encoderState) encodeMap(entries []value.MapEntry) error {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > maxRecursionDepth {
		return fmt.Errorf("%w: depth %d exceeds limit %d", ErrRecursion, st.depth, maxRecursionDepth)
	}

	n := len(entries)
	width, ok := format.MapWidth(n)
	if !ok {
		return fmt.Errorf("%w: map length %d exceeds format limit", ErrSize, n)
	}
	if st.depth == 1 {
		st.itemCount = n
	}

	if st.ctx.StrictKeys {
		for _, e := range entries {
			if e.Key.Kind() != value.KindStr {
				return fmt.Errorf("%w: strict-keys requires Str keys, got %s", ErrType, e.Key.Kind())
			}
		}
	}

	switch width {
	case format.WidthFix:
		st.buf.MustWrite([]byte{format.FixmapMask | byte(n)})
	case format.Width16:
		st.buf.MustWrite([]byte{format.TagMap16})
		st.buf.B = wire.PutUint16(st.buf.B, uint16(n))
	case format.Width32:
		st.buf.MustWrite([]byte{format.TagMap32})
		st.buf.B = wire.PutUint32(st.buf.B, uint32(n))
	}

	for _, e := range entries {
		if err := st.encodeValue(e.Key); err != nil {
			return err
		}
		if err := st.encodeValue(e.Val); err != nil {
			return err
		}
	}
	return nil
}

// encodeExt implements §4.7's encode-side header writing: the same
// length-shape ladder as §4.5.a plus the five fixed-length ext forms.
func (st *encoderState) encodeExt(tag int8, payload []byte) error {
	n := len(payload)
	width, fixedLen, ok := format.ExtWidth(n)
	if !ok {
		return fmt.Errorf("%w: ext payload length %d exceeds format limit", ErrSize, n)
	}

	if width == format.WidthFix {
		fixTag, fixErr := fixextTag(fixedLen)
		if fixErr != nil {
			return fixErr
		}
		st.buf.MustWrite([]byte{fixTag, byte(tag)})
	} else {
		switch width {
		case format.Width8:
			st.buf.MustWrite([]byte{format.TagExt8, byte(n)})
		case format.Width16:
			st.buf.MustWrite([]byte{format.TagExt16})
			st.buf.B = wire.PutUint16(st.buf.B, uint16(n))
		case format.Width32:
			st.buf.MustWrite([]byte{format.TagExt32})
			st.buf.B = wire.PutUint32(st.buf.B, uint32(n))
		}
		st.buf.MustWrite([]byte{byte(tag)})
	}

	st.buf.MustWrite(payload)
	return nil
}

func fixextTag(n int) (byte, error) {
	switch n {
	case 1:
		return format.TagFixext1, nil
	case 2:
		return format.TagFixext2, nil
	case 4:
		return format.TagFixext4, nil
	case 8:
		return format.TagFixext8, nil
	case 16:
		return format.TagFixext16, nil
	default:
		return 0, fmt.Errorf("%w: %d is not a valid fixext length", ErrFormat, n)
	}
}

