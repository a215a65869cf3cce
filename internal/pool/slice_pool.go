package pool

import "sync"

// byteSlicePool pools []byte slices for reuse. Ported from the teacher's
// typed-slice-pool idiom (int64/float64/string slices reused across
// columnar transforms); here a single []byte pool backs the file-stream
// refill buffer's tail-copy step (§4.8), a scratch slice that's fully
// consumed (copied into the grown buffer) before the call returns. The
// extension decode path's owned-copy mode (§4.7) deliberately does not
// draw from this pool: its copy is handed to the caller inside the
// decoded Value and can outlive the decode call, so pooling it would
// return the backing array to other callers while still referenced. The
// teacher's int64/float64/string variants have no analogue in this
// domain (no columnar transform here) and were not ported — see
// DESIGN.md.
var byteSlicePool = sync.Pool{
	New: func() any { return &[]byte{} },
}

// GetByteSlice retrieves and resizes a []byte slice from the pool.
//
// The returned slice has length equal to size. If the pooled slice has
// insufficient capacity, a new slice is allocated. The caller must call
// the returned cleanup function (typically via defer) to return the
// slice to the pool.
func GetByteSlice(size int) ([]byte, func()) {
	ptr, _ := byteSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { byteSlicePool.Put(ptr) }
}
