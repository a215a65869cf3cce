package filestream

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomsgpack/msgpack/codec"
	"github.com/gomsgpack/msgpack/value"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "stream.msgpack")
}

func TestFileStreamEncodeDecodeRoundTrip(t *testing.T) {
	fs, err := New(tempPath(t))
	require.NoError(t, err)
	defer fs.Close()

	want := []value.Value{
		value.Int(1),
		value.Str("hello"),
		value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}),
	}
	for _, v := range want {
		require.NoError(t, fs.Encode(v))
	}

	for _, w := range want {
		got, derr := fs.Decode()
		require.NoError(t, derr)
		assert.True(t, value.Equal(w, got))
	}

	_, err = fs.Decode()
	assert.True(t, errors.Is(err, io.EOF))
}

// TestFileStreamRefillAcrossSmallChunks exercises §8's streaming-refill
// property: a chunk size far smaller than any one encoded value forces
// every decode to cross at least one Refill call.
func TestFileStreamRefillAcrossSmallChunks(t *testing.T) {
	path := tempPath(t)

	writer, err := New(path)
	require.NoError(t, err)

	items := make([]value.Value, 50)
	for i := range items {
		items[i] = value.Str("this is a moderately sized string payload")
	}
	for _, v := range items {
		require.NoError(t, writer.Encode(v))
	}
	require.NoError(t, writer.Close())

	reader, err := New(path, codec.WithChunkSize(8))
	require.NoError(t, err)
	defer reader.Close()

	for _, want := range items {
		got, derr := reader.Decode()
		require.NoError(t, derr)
		assert.True(t, value.Equal(want, got))
	}

	_, err = reader.Decode()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestFileStreamWithOffsetSkipsLeadingBytes(t *testing.T) {
	path := tempPath(t)

	writer, err := New(path)
	require.NoError(t, err)
	require.NoError(t, writer.Encode(value.Int(111)))
	skipLen, err := writer.f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.NoError(t, writer.Encode(value.Int(222)))
	require.NoError(t, writer.Close())

	reader, err := New(path, codec.WithOffset(skipLen))
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.Decode()
	require.NoError(t, err)
	assert.Equal(t, int64(222), got.Int())
}

// shortWriteFile wraps a real *os.File but truncates the next N writes to
// fewer bytes than requested, so tests can force FileStream.Encode's
// rollback branch deterministically rather than relying on platform-
// specific resource-limit tricks.
type shortWriteFile struct {
	*os.File
	shortOn     int // which Write call (1-indexed) is made short
	callNum     int
	shortLen    int  // bytes actually written on the short call
	truncateErr error // if set, Truncate fails with this instead of delegating
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	f.callNum++
	if f.callNum != f.shortOn {
		return f.File.Write(p)
	}
	if f.shortLen >= len(p) {
		return f.File.Write(p)
	}
	return f.File.Write(p[:f.shortLen])
}

func (f *shortWriteFile) Truncate(size int64) error {
	if f.truncateErr != nil {
		return f.truncateErr
	}
	return f.File.Truncate(size)
}

// TestFileStreamRollsBackOnSimulatedShortWrite exercises §8's rollback
// property: a write that lands fewer bytes than requested is truncated
// back to the file's pre-write length, and the reported error chains to
// ErrOS.
func TestFileStreamRollsBackOnSimulatedShortWrite(t *testing.T) {
	path := tempPath(t)

	fs, err := New(path)
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.Encode(value.Str("first")))
	preLen, err := fs.f.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	raw := fs.f.(*os.File)
	fs.f = &shortWriteFile{File: raw, shortOn: 1, shortLen: 2}

	err = fs.Encode(value.Str("second, a longer payload than the short write allows"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrOS))

	var fileErr *codec.FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, preLen, fileErr.Offset)

	postLen, err := raw.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, preLen, postLen, "short write must be rolled back to the pre-write length")
}

// TestFileStreamRollbackFailureSurfacesBothErrors exercises the branch
// where the rollback Truncate itself fails after a short write: both the
// write failure and the truncate failure are folded into one FileError
// that still chains to ErrOS.
func TestFileStreamRollbackFailureSurfacesBothErrors(t *testing.T) {
	path := tempPath(t)

	fs, err := New(path)
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.Encode(value.Str("first")))

	raw := fs.f.(*os.File)
	fs.f = &shortWriteFile{File: raw, shortOn: 1, shortLen: 2, truncateErr: errors.New("simulated truncate failure")}

	err = fs.Encode(value.Str("second, a longer payload than the short write allows"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrOS))

	var fileErr *codec.FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Contains(t, fileErr.Error(), "rollback truncate also failed")
}

func TestFileStreamDecodeEmptyFileReturnsEOF(t *testing.T) {
	fs, err := New(tempPath(t))
	require.NoError(t, err)
	defer fs.Close()

	_, err = fs.Decode()
	assert.True(t, errors.Is(err, io.EOF))
}
