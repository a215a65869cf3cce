package snapshot

// NoOpCodec bypasses compression entirely, returning the input unchanged.
// Useful for tests and for hosts where the snapshot file is already small
// enough that compression overhead isn't worth paying.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

func NewNoOpCodec() NoOpCodec { return NoOpCodec{} }

func (NoOpCodec) Compress(data []byte) ([]byte, error) { return data, nil }

func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
