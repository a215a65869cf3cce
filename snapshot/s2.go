package snapshot

import "github.com/klauspost/compress/s2"

// S2Codec balances compression ratio and speed.
type S2Codec struct{}

var _ Codec = S2Codec{}

func NewS2Codec() S2Codec { return S2Codec{} }

func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, data), nil
}

func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Decode(nil, data)
}
