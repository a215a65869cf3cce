package codec

import (
	"fmt"
	"unicode/utf8"

	"github.com/gomsgpack/msgpack/format"
	"github.com/gomsgpack/msgpack/internal/cache"
	"github.com/gomsgpack/msgpack/internal/wire"
	"github.com/gomsgpack/msgpack/value"
)

// Refiller is the overread hook a chunked byte source (the file stream,
// §4.8) implements. When the decoder needs need more bytes than remain
// in buf from off, it calls Refill, which may move the unread tail,
// grow its own buffer, and read more from its underlying source. It
// returns the buffer and offset to resume decoding from.
type Refiller interface {
	Refill(buf []byte, off, need int) (newBuf []byte, newOff int, err error)
}

// decoderState is the cursor threaded through a single recursive decode
// call, mirroring encoderState's role on the encode side.
type decoderState struct {
	ctx    *Context
	buf    []byte
	pos    int
	depth  int
	source Refiller
}

// Decode consumes exactly one MessagePack value from data using ctx's
// registry, strict-keys setting, and caches. Per §4.6, any bytes left
// over after a successful decode fail with "ended early."
func Decode(ctx *Context, data []byte) (value.Value, error) {
	st := &decoderState{ctx: ctx, buf: data}

	v, err := st.decodeValue()
	if err != nil {
		return value.Value{}, err
	}
	if st.pos != len(st.buf) {
		return value.Value{}, formatErrorf("ended early: %d byte(s) remain after decode", len(st.buf)-st.pos)
	}
	return v, nil
}

// DecodeFrom decodes exactly one value starting at pos in buf, consulting
// source on overread instead of failing outright. It does not require
// the buffer be fully consumed (a chunked source holds more than one
// message). It returns the (possibly grown/shifted) buffer and the
// position just past the decoded value, for the caller to resume from
// on its next call. Used by the filestream package.
func DecodeFrom(ctx *Context, buf []byte, pos int, source Refiller) (value.Value, []byte, int, error) {
	st := &decoderState{ctx: ctx, buf: buf, pos: pos, source: source}

	v, err := st.decodeValue()
	if err != nil {
		return value.Value{}, st.buf, st.pos, err
	}
	return v, st.buf, st.pos, nil
}

// ensure guarantees at least need bytes are available from st.pos,
// refilling via st.source on overread (§4.6 "overread policy").
func (st *decoderState) ensure(need int) error {
	if st.pos+need <= len(st.buf) {
		return nil
	}
	if st.source == nil {
		return formatErrorf("overread: need %d byte(s), have %d", need, len(st.buf)-st.pos)
	}

	newBuf, newOff, err := st.source.Refill(st.buf, st.pos, need)
	if err != nil {
		return err
	}
	st.buf = newBuf
	st.pos = newOff
	if st.pos+need > len(st.buf) {
		return formatErrorf("overread: need %d byte(s), have %d after refill", need, len(st.buf)-st.pos)
	}
	return nil
}

func (st *decoderState) readByte() (byte, error) {
	if err := st.ensure(1); err != nil {
		return 0, err
	}
	b := st.buf[st.pos]
	st.pos++
	return b, nil
}

func (st *decoderState) readN(n int) ([]byte, error) {
	if err := st.ensure(n); err != nil {
		return nil, err
	}
	b := st.buf[st.pos : st.pos+n]
	st.pos += n
	return b, nil
}

// decodeValue implements §4.6's lead-byte dispatch: fixsize vs. varlen by
// the top three bits, then a switch within each family.
func (st *decoderState) decodeValue() (value.Value, error) {
	lead, err := st.readByte()
	if err != nil {
		return value.Value{}, err
	}

	if lead>>5 != 0b110 {
		return st.decodeFixsize(lead)
	}
	return st.decodeVarlen(lead)
}

func (st *decoderState) decodeFixsize(lead byte) (value.Value, error) {
	switch {
	case lead < 0x80: // 0xxxxxxx fixpos
		return st.cachedInt(int64(lead)), nil
	case lead >= 0xE0: // 111xxxxx fixneg, sign-extend low 5 bits
		return st.cachedInt(int64(int8(lead))), nil
	case lead&0xE0 == format.FixstrMask: // 101xxxxx fixstr
		return st.decodeStr(int(lead & 0x1F))
	case lead&0xF0 == format.FixarrayMask: // 1001xxxx
		return st.decodeArray(int(lead & 0x0F))
	case lead&0xF0 == format.FixmapMask: // 1000xxxx
		return st.decodeMap(int(lead & 0x0F))
	default:
		return value.Value{}, formatErrorf("unreachable fixsize lead byte 0x%02X", lead)
	}
}

func (st *decoderState) decodeVarlen(lead byte) (value.Value, error) {
	switch lead {
	case format.TagNil:
		return value.Nil(), nil
	case format.TagFalse:
		return value.Bool(false), nil
	case format.TagTrue:
		return value.Bool(true), nil

	case format.TagBin8:
		return st.decodeBinWithLen(1)
	case format.TagBin16:
		return st.decodeBinWithLen(2)
	case format.TagBin32:
		return st.decodeBinWithLen(4)

	case format.TagExt8:
		return st.decodeExtWithLen(1)
	case format.TagExt16:
		return st.decodeExtWithLen(2)
	case format.TagExt32:
		return st.decodeExtWithLen(4)

	case format.TagFloat32:
		b, err := st.readN(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(wire.ReadFloat32(b)), nil
	case format.TagFloat64:
		b, err := st.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(wire.ReadFloat64(b)), nil

	case format.TagUint8:
		b, err := st.readByte()
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(b)), nil
	case format.TagUint16:
		b, err := st.readN(2)
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(wire.ReadUint16(b))), nil
	case format.TagUint32:
		b, err := st.readN(4)
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(wire.ReadUint32(b))), nil
	case format.TagUint64:
		b, err := st.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		u := wire.ReadUint64(b)
		if u > 1<<63-1 {
			return value.Uint(u), nil
		}
		return st.cachedInt(int64(u)), nil

	case format.TagInt8:
		b, err := st.readByte()
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(int8(b))), nil
	case format.TagInt16:
		b, err := st.readN(2)
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(int16(wire.ReadUint16(b)))), nil
	case format.TagInt32:
		b, err := st.readN(4)
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(int32(wire.ReadUint32(b)))), nil
	case format.TagInt64:
		b, err := st.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return st.cachedInt(int64(wire.ReadUint64(b))), nil

	case format.TagFixext1:
		return st.decodeFixext(1)
	case format.TagFixext2:
		return st.decodeFixext(2)
	case format.TagFixext4:
		return st.decodeFixext(4)
	case format.TagFixext8:
		return st.decodeFixext(8)
	case format.TagFixext16:
		return st.decodeFixext(16)

	case format.TagStr8:
		return st.decodeStrWithLen(1)
	case format.TagStr16:
		return st.decodeStrWithLen(2)
	case format.TagStr32:
		return st.decodeStrWithLen(4)

	case format.TagArray16:
		n, err := st.readLen(2)
		if err != nil {
			return value.Value{}, err
		}
		return st.decodeArray(n)
	case format.TagArray32:
		n, err := st.readLen(4)
		if err != nil {
			return value.Value{}, err
		}
		return st.decodeArray(n)

	case format.TagMap16:
		n, err := st.readLen(2)
		if err != nil {
			return value.Value{}, err
		}
		return st.decodeMap(n)
	case format.TagMap32:
		n, err := st.readLen(4)
		if err != nil {
			return value.Value{}, err
		}
		return st.decodeMap(n)

	default:
		return value.Value{}, formatErrorf("unknown lead byte 0x%02X", lead)
	}
}

// readLen reads an n-byte (2 or 4) big-endian length prefix.
func (st *decoderState) readLen(n int) (int, error) {
	b, err := st.readN(n)
	if err != nil {
		return 0, err
	}
	switch n {
	case 2:
		return int(wire.ReadUint16(b)), nil
	case 4:
		return int(wire.ReadUint32(b)), nil
	default:
		return 0, formatErrorf("unsupported length width %d", n)
	}
}

// cachedInt consults the int cache for i, falling back to a fresh Int.
func (st *decoderState) cachedInt(i int64) value.Value {
	if v, ok := st.ctx.IntCache.Lookup(i); ok {
		return v
	}
	return value.Int(i)
}

// decodeStr decodes a fixstr of length n, consulting the string cache
// (§4.3: "consulted only for short strings... length <= 31").
func (st *decoderState) decodeStr(n int) (value.Value, error) {
	b, err := st.readN(n)
	if err != nil {
		return value.Value{}, err
	}

	if n <= cache.MaxCachedStrLen {
		if v, ok := st.ctx.StringCache.Lookup(b); ok {
			return v, nil
		}
		v, verr := decodedStrValue(b)
		if verr != nil {
			return value.Value{}, verr
		}
		st.ctx.StringCache.Record(b, v)
		return v, nil
	}

	return decodedStrValue(b)
}

// decodeStrWithLen reads an n-byte length prefix (1, 2, or 4) then the
// string payload. Per §4.6, str8/16/32 forms are only ever emitted for
// lengths outside the fixstr range by a conforming encoder, but a
// decoder must still honor the cache boundary purely by length, not by
// which form was used on the wire.
func (st *decoderState) decodeStrWithLen(lenWidth int) (value.Value, error) {
	var n int
	var err error
	if lenWidth == 1 {
		b, rerr := st.readByte()
		if rerr != nil {
			return value.Value{}, rerr
		}
		n = int(b)
	} else {
		n, err = st.readLen(lenWidth)
		if err != nil {
			return value.Value{}, err
		}
	}
	return st.decodeStr(n)
}

func decodedStrValue(b []byte) (value.Value, error) {
	if !utf8.Valid(b) {
		return value.Value{}, formatErrorf("invalid UTF-8 in decoded string")
	}
	return value.Str(string(b)), nil
}

func (st *decoderState) decodeBinWithLen(lenWidth int) (value.Value, error) {
	n, err := st.readLen(lenWidth)
	if err != nil {
		return value.Value{}, err
	}
	b, err := st.readN(n)
	if err != nil {
		return value.Value{}, err
	}
	owned := make([]byte, n)
	copy(owned, b)
	return value.Bin(owned), nil
}

// decodeArray implements §4.6's array path: recursion-bounded, then n
// recursive decodes.
func (st *decoderState) decodeArray(n int) (value.Value, error) {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > maxRecursionDepth {
		return value.Value{}, fmt.Errorf("%w: depth %d exceeds limit %d", ErrRecursion, st.depth, maxRecursionDepth)
	}

	items := make([]value.Value, n)
	for i := 0; i < n; i++ {
		v, err := st.decodeValue()
		if err != nil {
			return value.Value{}, err
		}
		items[i] = v
	}
	return value.Array(items), nil
}

// decodeMap implements §4.6's map path, applying the strict-keys
// restriction when ctx.StrictKeys is set.
func (st *decoderState) decodeMap(n int) (value.Value, error) {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > maxRecursionDepth {
		return value.Value{}, fmt.Errorf("%w: depth %d exceeds limit %d", ErrRecursion, st.depth, maxRecursionDepth)
	}

	entries := make([]value.MapEntry, n)
	for i := 0; i < n; i++ {
		k, err := st.decodeValue()
		if err != nil {
			return value.Value{}, err
		}
		if st.ctx.StrictKeys && k.Kind() != value.KindStr {
			return value.Value{}, fmt.Errorf("%w: strict-keys requires Str keys, got %s", ErrType, k.Kind())
		}
		v, err := st.decodeValue()
		if err != nil {
			return value.Value{}, err
		}
		entries[i] = value.MapEntry{Key: k, Val: v}
	}
	return value.Map(entries), nil
}

// decodeFixext reads a fixed-length ext form: one tag byte then n
// payload bytes.
func (st *decoderState) decodeFixext(n int) (value.Value, error) {
	tagByte, err := st.readByte()
	if err != nil {
		return value.Value{}, err
	}
	payload, err := st.readN(n)
	if err != nil {
		return value.Value{}, err
	}
	return st.resolveExt(int8(tagByte), payload)
}

// decodeExtWithLen reads an n-byte length prefix, then the tag byte and
// payload (general small/medium/large ext forms).
func (st *decoderState) decodeExtWithLen(lenWidth int) (value.Value, error) {
	var n int
	var err error
	if lenWidth == 1 {
		b, rerr := st.readByte()
		if rerr != nil {
			return value.Value{}, rerr
		}
		n = int(b)
	} else {
		n, err = st.readLen(lenWidth)
		if err != nil {
			return value.Value{}, err
		}
	}
	tagByte, err := st.readByte()
	if err != nil {
		return value.Value{}, err
	}
	payload, err := st.readN(n)
	if err != nil {
		return value.Value{}, err
	}
	return st.resolveExt(int8(tagByte), payload)
}

// resolveExt implements §4.7's decode side: tag id indexes the 256-slot
// callback array; a missing slot fails with ErrExtDecoder. The callback
// receives an owned copy or a zero-copy view per the registry's
// PassMemoryView flag; the view's lifetime ends when the callback
// returns (§9 DESIGN NOTES "Zero-copy decode view").
func (st *decoderState) resolveExt(tag int8, payload []byte) (value.Value, error) {
	dec, ok := st.ctx.Registry.LookupDecode(tag)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: tag %d", ErrExtDecoder, tag)
	}

	view := payload
	if !st.ctx.Registry.PassMemoryView {
		view = make([]byte, len(payload))
		copy(view, payload)
	}

	decoded, err := dec(tag, view)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %v", ErrExtDecoder, err)
	}
	return decoded, nil
}
