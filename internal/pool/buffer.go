// Package pool provides the growable encode buffer and the byte slice
// pool used by the file stream, plus the adaptive-size
// statistics that seed a new buffer's initial allocation (§4.4).
package pool

import (
	"io"
	"sync"
)

// Size floors mandated by §4.4: these prevent thrashing at start-up and
// after an average underflows toward zero.
const (
	MinExtraAvg = 64
	MinItemAvg  = 6

	// EncodeBufferDefaultSize is the capacity of each new buffer the
	// encode-buffer pool creates; Encode then grows it to the
	// AdaptiveStats estimate if that is larger.
	EncodeBufferDefaultSize = 256
	// EncodeBufferMaxThreshold bounds how large a pooled buffer may grow
	// before Put discards it rather than retaining it, to avoid a single
	// oversized message inflating the pool's steady-state memory.
	EncodeBufferMaxThreshold = 1024 * 1024 // 1MiB
)

// ByteBuffer is a growable output buffer. It implements the encoder's
// §4.4 growth-on-demand rule: "(used + needed) * 1.5" when a write would
// overflow current capacity.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial size.
func NewByteBuffer(initialSize int) *ByteBuffer {
	if initialSize < 0 {
		initialSize = 0
	}
	return &ByteBuffer{
		B: make([]byte, 0, initialSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory
// for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	if cap(bb.B)-len(bb.B) < len(data) {
		bb.Grow(len(data))
	}
	bb.B = append(bb.B, data...)
}

// Slice returns a slice of the buffer from start to end. Panics if the
// indices are out of bounds.
func (bb *ByteBuffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(bb.B) {
		panic("Slice: invalid indices")
	}

	return bb.B[start:end]
}

// SetLength sets the length of the buffer to n. Panics if n is negative
// or greater than the capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Extend extends the buffer by n bytes if there is sufficient capacity.
func (bb *ByteBuffer) Extend(n int) bool {
	curLen := len(bb.B)
	if cap(bb.B)-curLen < n {
		return false
	}

	bb.B = bb.B[:curLen+n]

	return true
}

// ExtendOrGrow extends the buffer by n bytes, growing it if necessary.
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	start := len(bb.B)
	bb.Grow(n)
	bb.B = bb.B[:start+n]
}

// Grow ensures the buffer can hold needed more bytes without
// reallocating, per §4.4's growth-on-demand rule: when capacity would be
// exceeded, reallocate to (used + needed) * 1.5.
func (bb *ByteBuffer) Grow(needed int) {
	available := cap(bb.B) - len(bb.B)
	if available >= needed {
		return
	}

	newCap := int((float64(len(bb.B)+needed) * 1.5))
	if newCap < len(bb.B)+needed {
		newCap = len(bb.B) + needed
	}

	newBuf := make([]byte, len(bb.B), newCap)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as
// needed. Implements io.Writer so a ByteBuffer can be passed directly to
// encoding helpers that want a Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.MustWrite(data)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations across
// one-shot Encode calls. It uses sync.Pool internally and discards
// buffers above maxThreshold rather than retaining them, to bound
// steady-state memory after an outlier-sized message.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the
// specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var encodeBufferPool = NewByteBufferPool(EncodeBufferDefaultSize, EncodeBufferMaxThreshold)

// GetEncodeBuffer retrieves a ByteBuffer from the default encode-buffer pool.
func GetEncodeBuffer() *ByteBuffer {
	return encodeBufferPool.Get()
}

// PutEncodeBuffer returns a ByteBuffer to the default encode-buffer pool.
func PutEncodeBuffer(bb *ByteBuffer) {
	encodeBufferPool.Put(bb)
}
