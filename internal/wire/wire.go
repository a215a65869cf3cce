// Package wire provides the big-endian scalar read/write primitives the
// encoder and decoder build on (§4.2). MessagePack mandates network byte
// order unconditionally, so unlike the teacher's pluggable EndianEngine
// abstraction (see endian.EndianEngine in the pack), this package is
// hard-wired to encoding/binary.BigEndian — a single fixed order is the
// correct simplification here, not a gap.
package wire

import (
	"encoding/binary"
	"math"
)

// PutUint16 appends the big-endian encoding of v to buf.
func PutUint16(buf []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(buf, v)
}

// PutUint32 appends the big-endian encoding of v to buf.
func PutUint32(buf []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(buf, v)
}

// PutUint64 appends the big-endian encoding of v to buf.
func PutUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// PutFloat64 appends the big-endian IEEE-754 encoding of v to buf. The
// codec never emits float32 (§4.2): encode always widens to float64.
func PutFloat64(buf []byte, v float64) []byte {
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
}

// ReadUint16 reads a big-endian uint16 from the first 2 bytes of b.
// Callers must ensure len(b) >= 2.
func ReadUint16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// ReadUint32 reads a big-endian uint32 from the first 4 bytes of b.
func ReadUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// ReadUint64 reads a big-endian uint64 from the first 8 bytes of b.
func ReadUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// ReadFloat32 reads a big-endian IEEE-754 single-precision float and
// promotes it to float64, per §4.2/§6 ("float32 values are promoted").
func ReadFloat32(b []byte) float64 {
	return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
}

// ReadFloat64 reads a big-endian IEEE-754 double-precision float.
func ReadFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// MemEqual compares a and b using a tiered strategy (8 bytes, then 4, then
// byte-wise) to accelerate the common case of short fixed-length buffers,
// as used by the string-cache probe (§4.2). Callers must ensure
// len(a) == len(b) before calling; MemEqual itself only checks content.
func MemEqual(a, b []byte) bool {
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		if binary.BigEndian.Uint64(a[i:i+8]) != binary.BigEndian.Uint64(b[i:i+8]) {
			return false
		}
	}
	for ; i+4 <= n; i += 4 {
		if binary.BigEndian.Uint32(a[i:i+4]) != binary.BigEndian.Uint32(b[i:i+4]) {
			return false
		}
	}
	for ; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
