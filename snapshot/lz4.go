package snapshot

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse; the type
// maintains internal state that benefits from not being rebuilt per call.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec favors fast decompression over compression ratio, a reasonable
// default when a snapshot is loaded far more often than it's saved.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

func NewLZ4Codec() LZ4Codec { return LZ4Codec{} }

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// Decompress grows its scratch buffer geometrically until UncompressBlock
// stops reporting a short buffer; a snapshot payload's original size is
// not stored independently of this retry loop.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}
			return nil, err
		}
		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
