package msgpack_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msgpack "github.com/gomsgpack/msgpack"
	"github.com/gomsgpack/msgpack/ext"
	"github.com/gomsgpack/msgpack/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []value.Value{
		value.Nil(),
		value.Bool(true),
		value.Int(-42),
		value.Uint(7),
		value.Float(3.5),
		value.Str("hello"),
		value.Bin([]byte{1, 2, 3}),
		value.Array([]value.Value{value.Int(1), value.Str("two")}),
		value.Map([]value.MapEntry{{Key: value.Str("k"), Val: value.Int(1)}}),
	}

	for _, v := range cases {
		data, err := msgpack.Encode(v)
		require.NoError(t, err)

		decoded, err := msgpack.Decode(data)
		require.NoError(t, err)
		assert.True(t, value.Equal(v, decoded), "round trip mismatch for %v", v)
	}
}

func TestEncodeRejectsTrailingBytesOnDecode(t *testing.T) {
	data, err := msgpack.Encode(value.Int(1))
	require.NoError(t, err)

	_, err = msgpack.Decode(append(data, 0xFF))
	assert.Error(t, err)
}

func TestEncodeWithStrictKeys(t *testing.T) {
	v := value.Map([]value.MapEntry{{Key: value.Int(1), Val: value.Str("x")}})
	_, err := msgpack.Encode(v, msgpack.WithStrictKeys(true))
	assert.Error(t, err)
}

func TestEncodeResolvesArbitraryTypeThroughRegistry(t *testing.T) {
	type point struct{ X, Y int32 }

	reg := ext.New(false)
	reg.Add(1, point{},
		func(v any) ([]byte, error) {
			p := v.(point)
			b := make([]byte, 8)
			binary.BigEndian.PutUint32(b[0:4], uint32(p.X))
			binary.BigEndian.PutUint32(b[4:8], uint32(p.Y))
			return b, nil
		},
		func(tag int8, payload []byte) (value.Value, error) {
			return value.Ext(tag, payload), nil
		},
	)

	data, err := msgpack.Encode(point{X: 1, Y: 2}, msgpack.WithRegistry(reg))
	require.NoError(t, err)

	decoded, err := msgpack.Decode(data, msgpack.WithRegistry(reg))
	require.NoError(t, err)
	require.Equal(t, value.KindExt, decoded.Kind())
	assert.Equal(t, int8(1), decoded.ExtTag())
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(decoded.ExtPayload()[0:4]))
}

func TestEncodeUnregisteredTypeFails(t *testing.T) {
	type unregistered struct{ A int }
	_, err := msgpack.Encode(unregistered{A: 1})
	assert.Error(t, err)
}

// TestEncodeResolvesWrapperTypeThroughEncodeAny registers a point entry
// under its own concrete type, plus an EncodeAnyFunc normalizer that
// recognizes a distinct wrapper type as "close enough" to re-express as
// the same ext. A value of the wrapper's type has no direct LookupEncode
// match, so Encode must fall through to ResolveEncodeAny to succeed.
func TestEncodeResolvesWrapperTypeThroughEncodeAny(t *testing.T) {
	type point struct{ X, Y int32 }
	type namedPoint struct {
		Name string
		X, Y int32
	}

	encodePoint := func(v any) ([]byte, error) {
		p := v.(point)
		b := make([]byte, 8)
		binary.BigEndian.PutUint32(b[0:4], uint32(p.X))
		binary.BigEndian.PutUint32(b[4:8], uint32(p.Y))
		return b, nil
	}

	reg := ext.New(false)
	reg.AddEncodeAny(point{}, 9, encodePoint, func(v any) (value.Value, bool) {
		np, ok := v.(namedPoint)
		if !ok {
			return value.Value{}, false
		}
		payload, err := encodePoint(point{X: np.X, Y: np.Y})
		if err != nil {
			return value.Value{}, false
		}
		return value.Ext(9, payload), true
	})

	data, err := msgpack.Encode(namedPoint{Name: "origin", X: 3, Y: 4}, msgpack.WithRegistry(reg))
	require.NoError(t, err)

	decoded, err := msgpack.Decode(data, msgpack.WithRegistry(reg))
	require.NoError(t, err)
	require.Equal(t, value.KindExt, decoded.Kind())
	assert.Equal(t, int8(9), decoded.ExtTag())
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(decoded.ExtPayload()[0:4]))
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(decoded.ExtPayload()[4:8]))
}

// intSequence is a caller-owned ordered container type satisfying
// value.Sequence directly, without first being copied into a []value.Value.
type intSequence []int

func (s intSequence) Len() int          { return len(s) }
func (s intSequence) At(i int) value.Value { return value.Int(int64(s[i])) }

// labelMapping is a caller-owned ordered map type satisfying value.Mapping.
type labelMapping []string

func (m labelMapping) Len() int { return len(m) }
func (m labelMapping) At(i int) (value.Value, value.Value) {
	return value.Int(int64(i)), value.Str(m[i])
}

func TestEncodeAcceptsCallerSequenceAndMapping(t *testing.T) {
	data, err := msgpack.Encode(intSequence{1, 2, 3})
	require.NoError(t, err)

	decoded, err := msgpack.Decode(data)
	require.NoError(t, err)
	want := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	assert.True(t, value.Equal(want, decoded))

	data, err = msgpack.Encode(labelMapping{"a", "b"})
	require.NoError(t, err)

	decoded, err = msgpack.Decode(data)
	require.NoError(t, err)
	wantMap := value.Map([]value.MapEntry{
		{Key: value.Int(0), Val: value.Str("a")},
		{Key: value.Int(1), Val: value.Str("b")},
	})
	assert.True(t, value.Equal(wantMap, decoded))
}

func TestNewStreamRoundTripsRepeatedStrings(t *testing.T) {
	s, err := msgpack.NewStream()
	require.NoError(t, err)

	for _, name := range []string{"alpha", "beta", "alpha"} {
		data, err := s.Encode(value.Str(name))
		require.NoError(t, err)

		decoded, err := s.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, name, decoded.Str())
	}
}

func TestNewFileStreamRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round.msgpack")
	fs, err := msgpack.NewFileStream(path, msgpack.WithChunkSize(64))
	require.NoError(t, err)

	values := []value.Value{value.Int(10), value.Str("file"), value.Bool(false)}
	for _, v := range values {
		require.NoError(t, fs.Encode(v))
	}

	for _, want := range values {
		got, err := fs.Decode()
		require.NoError(t, err)
		assert.True(t, value.Equal(want, got))
	}
	require.NoError(t, fs.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	assert.Same(t, msgpack.DefaultRegistry(), msgpack.DefaultRegistry())
}
