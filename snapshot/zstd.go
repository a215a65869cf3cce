package snapshot

// ZstdCodec gives the best compression ratio of the four; it's the
// default Save uses when the caller doesn't pick a codec explicitly.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

func NewZstdCodec() ZstdCodec { return ZstdCodec{} }
