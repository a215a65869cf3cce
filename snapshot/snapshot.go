package snapshot

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gomsgpack/msgpack/internal/cache"
	"github.com/gomsgpack/msgpack/internal/hash"
	"github.com/gomsgpack/msgpack/internal/options"
	"github.com/gomsgpack/msgpack/value"
)

var magic = [4]byte{'M', 'P', 'S', 'C'}

const fileVersion byte = 1

const headerLen = 4 + 1 + 1 + 4 // magic + version + compression + payloadLen
const trailerLen = 8            // xxhash64 fingerprint

type config struct {
	codec Codec
}

// Option configures Save or Load.
type Option = options.Option[*config]

// WithCodec overrides the compression codec (default Zstd for Save; Load
// always uses the codec named in the file's own header).
func WithCodec(c Codec) Option {
	return options.NoError(func(cfg *config) { cfg.codec = c })
}

func compressionTypeOf(c Codec) (CompressionType, error) {
	switch c.(type) {
	case NoOpCodec:
		return CompressionNone, nil
	case ZstdCodec:
		return CompressionZstd, nil
	case S2Codec:
		return CompressionS2, nil
	case LZ4Codec:
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("snapshot: unrecognized codec type %T, cannot record its compression tag", c)
	}
}

// Save writes sc's currently cached strings to path, compressed with the
// configured codec (default ZstdCodec) and guarded by a trailing
// fingerprint.
func Save(path string, sc *cache.StringCache, opts ...Option) error {
	cfg := &config{codec: NewZstdCodec()}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	compressionType, err := compressionTypeOf(cfg.codec)
	if err != nil {
		return err
	}

	payload := encodeEntries(sc.Snapshot())
	compressed, err := cfg.codec.Compress(payload)
	if err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}

	out := make([]byte, 0, headerLen+len(compressed)+trailerLen)
	out = append(out, magic[:]...)
	out = append(out, fileVersion, byte(compressionType))
	out = binary.BigEndian.AppendUint32(out, uint32(len(compressed)))
	out = append(out, compressed...)

	fp := hash.Fingerprint64(out)
	out = binary.BigEndian.AppendUint64(out, fp)

	return os.WriteFile(path, out, 0o644)
}

// Load reads a file written by Save and warms sc with its entries. The
// codec named in the file's own header is used for decompression;
// Load takes no options.
func Load(path string, sc *cache.StringCache) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(raw) < headerLen+trailerLen {
		return fmt.Errorf("snapshot: %s: truncated file (%d bytes)", path, len(raw))
	}

	body := raw[:len(raw)-trailerLen]
	wantFP := binary.BigEndian.Uint64(raw[len(raw)-trailerLen:])
	if gotFP := hash.Fingerprint64(body); gotFP != wantFP {
		return fmt.Errorf("snapshot: %s: fingerprint mismatch (corrupted or truncated)", path)
	}

	if [4]byte(body[:4]) != magic {
		return fmt.Errorf("snapshot: %s: bad magic", path)
	}
	if body[4] != fileVersion {
		return fmt.Errorf("snapshot: %s: unsupported version %d", path, body[4])
	}

	codec, err := CreateCodec(CompressionType(body[5]))
	if err != nil {
		return fmt.Errorf("snapshot: %s: %w", path, err)
	}

	payloadLen := binary.BigEndian.Uint32(body[6:10])
	compressed := body[10:]
	if uint32(len(compressed)) != payloadLen {
		return fmt.Errorf("snapshot: %s: payload length mismatch: header says %d, have %d", path, payloadLen, len(compressed))
	}

	payload, err := codec.Decompress(compressed)
	if err != nil {
		return fmt.Errorf("snapshot: %s: decompress: %w", path, err)
	}

	entries, err := decodeEntries(payload)
	if err != nil {
		return fmt.Errorf("snapshot: %s: %w", path, err)
	}

	return sc.Warm(entries, func(b []byte) (value.Value, error) {
		return value.Str(string(b)), nil
	})
}

// encodeEntries packs entries as a sequence of (2-byte big-endian length,
// bytes) pairs. Entries are bounded by MaxCachedStrLen (31), so a 2-byte
// length prefix never truncates.
func encodeEntries(entries [][]byte) []byte {
	size := 0
	for _, e := range entries {
		size += 2 + len(e)
	}
	out := make([]byte, 0, size)
	for _, e := range entries {
		out = binary.BigEndian.AppendUint16(out, uint16(len(e)))
		out = append(out, e...)
	}
	return out
}

func decodeEntries(payload []byte) ([][]byte, error) {
	var entries [][]byte
	pos := 0
	for pos < len(payload) {
		if pos+2 > len(payload) {
			return nil, fmt.Errorf("truncated entry length prefix at offset %d", pos)
		}
		n := int(binary.BigEndian.Uint16(payload[pos : pos+2]))
		pos += 2
		if pos+n > len(payload) {
			return nil, fmt.Errorf("truncated entry payload at offset %d (need %d byte(s))", pos, n)
		}
		entries = append(entries, payload[pos:pos+n])
		pos += n
	}
	return entries, nil
}
