// Package msgpack implements the MessagePack binary serialization
// format: a lead-byte-dispatched encoding with fixsize forms for small
// values and varlen forms (8/16/32-bit lengths) for everything else, an
// extensions mechanism for application-defined types, a string-interning
// decode cache, and a chunked file stream for data that doesn't fit in
// memory.
//
// # Usage
//
// Encode and Decode are the one-shot entry points; each draws a pooled
// codec.Context so repeated calls from the same goroutine tend to reuse
// warm caches without the caller managing one explicitly:
//
//	data, err := msgpack.Encode(value.Str("hello"))
//	v, err := msgpack.Decode(data)
//
// NewStream serializes concurrent callers onto one long-lived Context,
// useful when many encode/decode calls share a connection or session:
//
//	s, err := msgpack.NewStream()
//	data, err := s.Encode(value.Int(42))
//
// NewFileStream appends encoded values to a file and decodes them back
// out of a bounded refill buffer, for payloads that outgrow memory:
//
//	fs, err := msgpack.NewFileStream("records.msgpack")
//	err = fs.Encode(value.Array(items))
//
// Values produced and consumed by all three are value.Value, a closed
// tagged union covering every MessagePack type (nil, bool, int, uint,
// float, str, bin, array, map, ext).
package msgpack
