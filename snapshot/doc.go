// Package snapshot persists and restores a warm string-intern cache
// (§4.3) across process restarts.
//
// A snapshot file is not part of the MessagePack wire format: it never
// appears inside an encode/decode call, and its layout is private to
// this package. It exists purely so a long-running process that has
// built up useful cache state doesn't have to re-learn it from scratch
// after a restart.
//
// # Compression
//
// The cached entries are compressed before being written, using the same
// Compressor/Decompressor abstraction the wider ecosystem uses for
// payload compression:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// Four implementations are available: NoOp (no compression), Zstd (best
// ratio), S2 (balanced), and LZ4 (fastest decompression). Snapshot files
// are typically small and written rarely, so Zstd is the default; callers
// with tighter latency budgets can pass WithCodec(snapshot.NewS2Codec())
// or similar to Save. Load takes no codec option: it uses the codec
// named in the file's header.
//
// # Format
//
// magic(4) | version(1) | compression(1) | payloadLen(4, BE) | payload |
// fingerprint(8, BE, xxhash64 of everything before it)
//
// payload is the compressed form of a simple length-prefixed entry list:
// for each cached string, a 2-byte big-endian length followed by its raw
// bytes. The fingerprint trailer guards against truncated or corrupted
// files; Load refuses to warm a cache from a file that fails the check.
package snapshot
