package snapshot

import "fmt"

// Compressor compresses a snapshot payload before it is written to disk.
//
// Memory management:
//   - Returned slice is owned by the caller; NoOpCodec returns the input
//     slice itself, the other codecs a newly allocated one
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor. It validates the data format and
// returns an error if the data is corrupted or uses an incompatible
// format.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec builds a Codec for compressionType.
func CreateCodec(compressionType CompressionType) (Codec, error) {
	switch compressionType {
	case CompressionNone:
		return NewNoOpCodec(), nil
	case CompressionZstd:
		return NewZstdCodec(), nil
	case CompressionS2:
		return NewS2Codec(), nil
	case CompressionLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("snapshot: invalid compression type: %s", compressionType)
	}
}
