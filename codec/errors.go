// Package codec implements the encoder and decoder: recursive traversal
// of value.Value in both directions, the §4.5/§4.6 dispatch ladders, and
// the Context that threads the extensions registry, strict-keys flag,
// caches, and adaptive-size stats through a single encode or decode call.
package codec

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, one per §7 error kind. Call sites wrap these with
// %w to add the failing detail, mirroring the teacher's errs convention.
var (
	ErrFormat    = errors.New("codec: format error")
	ErrSize      = errors.New("codec: size limit exceeded")
	ErrOverflow  = errors.New("codec: integer overflow")
	ErrRecursion = errors.New("codec: recursion limit exceeded")
	ErrType      = errors.New("codec: unsupported or invalid type")
	ErrExtDecoder = errors.New("codec: no decoder registered for ext tag")
	ErrExtShape  = errors.New("codec: ext encode callback returned wrong shape")
	ErrOS        = errors.New("codec: OS error")
	ErrMemory    = errors.New("codec: allocation failure")
)

// FormatError carries the one-line reason §7 requires for decode-side
// format failures (which header was invalid, or that data ended early).
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("codec: format error: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// FileError carries the path and byte offset §7 requires for file-stream
// OS errors. Err is always constructed with "%w: ..." against ErrOS at the
// call site, so Unwrap (which returns Err, not ErrOS directly) still lets
// errors.Is(err, codec.ErrOS) succeed by continuing one level further, the
// same two-hop chain FormatError would have if it carried a wrapped cause
// instead of a bare reason string.
type FileError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("codec: file error at %s (offset %d): %v", e.Path, e.Offset, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
