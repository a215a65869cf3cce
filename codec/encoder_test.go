package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomsgpack/msgpack/value"
)

func mustEncode(t *testing.T, v value.Value, opts ...Option) []byte {
	t.Helper()
	ctx, err := NewContext(opts...)
	require.NoError(t, err)
	b, err := Encode(ctx, v)
	require.NoError(t, err)
	return b
}

func TestEncodeLiteralScenarios(t *testing.T) {
	cases := []struct {
		name string
		v    value.Value
		want []byte
	}{
		{"nil", value.Nil(), []byte{0xC0}},
		{"true", value.Bool(true), []byte{0xC3}},
		{"false", value.Bool(false), []byte{0xC2}},
		{"zero", value.Int(0), []byte{0x00}},
		{"127", value.Int(127), []byte{0x7F}},
		{"128", value.Int(128), []byte{0xCC, 0x80}},
		{"-1", value.Int(-1), []byte{0xFF}},
		{"-32", value.Int(-32), []byte{0xE0}},
		{"-33", value.Int(-33), []byte{0xD0, 0xDF}},
		{"hello", value.Str("Hello"), []byte{0xA5, 0x48, 0x65, 0x6C, 0x6C, 0x6F}},
		{"array123", value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}), []byte{0x93, 0x01, 0x02, 0x03}},
		{"mapA1", value.Map([]value.MapEntry{{Key: value.Str("a"), Val: value.Int(1)}}), []byte{0x81, 0xA1, 0x61, 0x01}},
		{"float1.5", value.Float(1.5), []byte{0xCB, 0x3F, 0xF8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustEncode(t, tc.v)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeExtLiteralScenarios(t *testing.T) {
	got := mustEncode(t, value.Ext(7, []byte{0xDE, 0xAD}))
	assert.Equal(t, []byte{0xD5, 0x07, 0xDE, 0xAD}, got)

	got = mustEncode(t, value.Ext(7, []byte{0xDE, 0xAD, 0xBE}))
	assert.Equal(t, []byte{0xC7, 0x03, 0x07, 0xDE, 0xAD, 0xBE}, got)
}

func TestEncodeMinimalityUint(t *testing.T) {
	cases := []struct {
		i    int64
		want int
	}{
		{0, 1}, {127, 1}, {128, 2}, {255, 2}, {256, 3}, {65535, 3}, {65536, 5},
	}
	for _, tc := range cases {
		got := mustEncode(t, value.Int(tc.i))
		assert.Equal(t, tc.want, len(got), "encoded length for %d", tc.i)
	}
}

func TestEncodeOverflowBoundaries(t *testing.T) {
	ctx, err := NewContext()
	require.NoError(t, err)

	// 2^64-1 succeeds as uint64.
	_, err = Encode(ctx, value.Uint(^uint64(0)))
	require.NoError(t, err)

	// -2^63 succeeds as int64.
	_, err = Encode(ctx, value.Int(-1<<63))
	require.NoError(t, err)
}

func TestEncodeRecursionBound(t *testing.T) {
	ctx, err := NewContext()
	require.NoError(t, err)

	// 1000 succeeds.
	v := value.Int(0)
	for i := 0; i < 1000; i++ {
		v = value.Array([]value.Value{v})
	}
	_, err = Encode(ctx, v)
	require.NoError(t, err)

	// 1001 fails with a recursion error.
	v = value.Array([]value.Value{v})
	_, err = Encode(ctx, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursion))
}

func TestEncodeStrictKeysRejectsNonStrKey(t *testing.T) {
	ctx, err := NewContext(WithStrictKeys(true))
	require.NoError(t, err)

	m := value.Map([]value.MapEntry{{Key: value.Int(1), Val: value.Str("x")}})
	_, err = Encode(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrType))
}

func TestEncodeNegativeUsesFixnegThenNarrowestInt8(t *testing.T) {
	got := mustEncode(t, value.Int(-33))
	require.Len(t, got, 2)
	assert.Equal(t, byte(0xD0), got[0])
}
