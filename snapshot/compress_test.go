package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecsRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")

	codecs := map[string]Codec{
		"noop": NewNoOpCodec(),
		"zstd": NewZstdCodec(),
		"s2":   NewS2Codec(),
		"lz4":  NewLZ4Codec(),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			compressed, err := c.Compress(data)
			require.NoError(t, err)

			got, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestCodecsHandleEmptyInput(t *testing.T) {
	codecs := []Codec{NewNoOpCodec(), NewZstdCodec(), NewS2Codec(), NewLZ4Codec()}
	for _, c := range codecs {
		compressed, err := c.Compress(nil)
		require.NoError(t, err)
		got, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestCreateCodec(t *testing.T) {
	for _, tt := range []struct {
		typ  CompressionType
		want Codec
	}{
		{CompressionNone, NewNoOpCodec()},
		{CompressionZstd, NewZstdCodec()},
		{CompressionS2, NewS2Codec()},
		{CompressionLZ4, NewLZ4Codec()},
	} {
		got, err := CreateCodec(tt.typ)
		require.NoError(t, err)
		assert.IsType(t, tt.want, got)
	}

	_, err := CreateCodec(CompressionType(0xFF))
	assert.Error(t, err)
}

func TestCompressionTypeString(t *testing.T) {
	assert.Equal(t, "Zstd", CompressionZstd.String())
	assert.Equal(t, "Unknown", CompressionType(0xFF).String())
}
