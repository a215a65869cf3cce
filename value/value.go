// Package value defines the dynamically-typed value tree the codec converts
// to and from the MessagePack wire format.
//
// Value is a tagged union: exactly one of its fields is meaningful for a
// given Kind. Callers build values with the New* constructors below rather
// than populating the struct directly, since the struct layout is free to
// change.
package value

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindStr
	KindBin
	KindArray
	KindMap
	KindExt
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBin:
		return "bin"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExt:
		return "ext"
	default:
		return "unknown"
	}
}

// MapEntry is one key/value pair of a Map value. Order is preserved for
// round-trip fidelity; no uniqueness check is performed beyond what the
// caller's own container provides.
type MapEntry struct {
	Key Value
	Val Value
}

// Value is the tagged sum the encoder consumes and the decoder produces.
//
// Int covers the signed 64-bit range; Uint covers the unsigned 64-bit range
// that does not fit in a signed int64 (MessagePack distinguishes the two
// families on the wire per §4.5.b). A decoded small positive integer is
// always represented as Int so callers see one family for values that fit
// both; Uint is only populated for magnitudes above math.MaxInt64.
type Value struct {
	kind Kind

	i   int64
	u   uint64
	f   float64
	b   bool
	str string
	bin []byte

	arr []Value
	m   []MapEntry

	extTag int8
	extBin []byte
}

// Kind reports which variant is populated.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the Nil variant.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Nil returns the Nil value.
func Nil() Value { return Value{kind: KindNil} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Bool returns the underlying bool. Panics if Kind is not KindBool.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic(fmt.Sprintf("value: Bool() called on %s value", v.kind))
	}
	return v.b
}

// Int returns a signed-integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Int returns the underlying int64. Valid for both KindInt and KindUint
// (the latter only if it fits); panics otherwise.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return int64(v.u) //nolint:gosec
	default:
		panic(fmt.Sprintf("value: Int() called on %s value", v.kind))
	}
}

// Uint returns an unsigned-integer value. Use for magnitudes that do not
// fit in int64 (i.e. > math.MaxInt64); smaller non-negative values are
// conventionally represented with Int instead, though either constructor
// produces a value the encoder can emit correctly.
func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }

// Uint returns the underlying uint64. Panics if Kind is not KindUint or
// KindInt with a non-negative value.
func (v Value) Uint() uint64 {
	switch v.kind {
	case KindUint:
		return v.u
	case KindInt:
		if v.i < 0 {
			panic("value: Uint() called on a negative Int value")
		}
		return uint64(v.i)
	default:
		panic(fmt.Sprintf("value: Uint() called on %s value", v.kind))
	}
}

// IsNegative reports whether an Int/Uint value is negative.
func (v Value) IsNegative() bool {
	return v.kind == KindInt && v.i < 0
}

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Float returns the underlying float64. Panics if Kind is not KindFloat.
func (v Value) Float() float64 {
	if v.kind != KindFloat {
		panic(fmt.Sprintf("value: Float() called on %s value", v.kind))
	}
	return v.f
}

// Str returns a Str value. s must be valid UTF-8 to encode successfully;
// the constructor itself does not validate (validation happens at encode
// time per §3's invariant).
func Str(s string) Value { return Value{kind: KindStr, str: s} }

// Str returns the underlying string. Panics if Kind is not KindStr.
func (v Value) Str() string {
	if v.kind != KindStr {
		panic(fmt.Sprintf("value: Str() called on %s value", v.kind))
	}
	return v.str
}

// Bin returns a Bin (opaque byte sequence) value. The slice is not copied;
// callers must not mutate it after passing ownership to a Value that will
// be encoded concurrently with other use of the slice.
func Bin(b []byte) Value { return Value{kind: KindBin, bin: b} }

// Bin returns the underlying byte slice. Panics if Kind is not KindBin.
func (v Value) Bin() []byte {
	if v.kind != KindBin {
		panic(fmt.Sprintf("value: Bin() called on %s value", v.kind))
	}
	return v.bin
}

// Array returns an Array value from a concrete slice.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Array returns the underlying slice. Panics if Kind is not KindArray.
func (v Value) Array() []Value {
	if v.kind != KindArray {
		panic(fmt.Sprintf("value: Array() called on %s value", v.kind))
	}
	return v.arr
}

// Map returns a Map value from a concrete ordered entry slice.
func Map(entries []MapEntry) Value { return Value{kind: KindMap, m: entries} }

// Map returns the underlying entries. Panics if Kind is not KindMap.
func (v Value) Map() []MapEntry {
	if v.kind != KindMap {
		panic(fmt.Sprintf("value: Map() called on %s value", v.kind))
	}
	return v.m
}

// Ext returns an Ext value: a signed 8-bit tag plus opaque payload. Payload
// may be zero-length (permitted at the format level; see §3 invariants and
// SPEC_FULL.md §9 Open Question (c)).
func Ext(tag int8, payload []byte) Value {
	return Value{kind: KindExt, extTag: tag, extBin: payload}
}

// ExtTag returns the Ext tag id. Panics if Kind is not KindExt.
func (v Value) ExtTag() int8 {
	if v.kind != KindExt {
		panic(fmt.Sprintf("value: ExtTag() called on %s value", v.kind))
	}
	return v.extTag
}

// ExtPayload returns the Ext payload. Panics if Kind is not KindExt.
func (v Value) ExtPayload() []byte {
	if v.kind != KindExt {
		panic(fmt.Sprintf("value: ExtPayload() called on %s value", v.kind))
	}
	return v.extBin
}

// Sequence is the capability interface a caller's own ordered container
// type can implement to be encoded as an Array without first being copied
// into a []Value. See SPEC_FULL.md §3 / DESIGN NOTES "subtype-tolerance".
type Sequence interface {
	Len() int
	At(i int) Value
}

// Mapping is the capability interface a caller's own ordered map type can
// implement to be encoded as a Map without first being copied into a
// []MapEntry.
type Mapping interface {
	Len() int
	At(i int) (Value, Value)
}

// sliceSequence adapts a []Value to Sequence.
type sliceSequence []Value

func (s sliceSequence) Len() int        { return len(s) }
func (s sliceSequence) At(i int) Value  { return s[i] }

// AsSequence wraps a plain []Value slice as a Sequence.
func AsSequence(items []Value) Sequence { return sliceSequence(items) }

// sliceMapping adapts a []MapEntry to Mapping.
type sliceMapping []MapEntry

func (m sliceMapping) Len() int { return len(m) }
func (m sliceMapping) At(i int) (Value, Value) {
	e := m[i]
	return e.Key, e.Val
}

// AsMapping wraps a plain []MapEntry slice as a Mapping.
func AsMapping(entries []MapEntry) Mapping { return sliceMapping(entries) }

// Equal reports deep structural equality, preserving map insertion order
// and integer sign, per §8 property 1 (round-trip).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Int/Uint both represent the Int domain on the wire; compare by value.
		if (a.kind == KindInt || a.kind == KindUint) && (b.kind == KindInt || b.kind == KindUint) {
			return intEqual(a, b)
		}
		return false
	}

	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt, KindUint:
		return intEqual(a, b)
	case KindFloat:
		return a.f == b.f
	case KindStr:
		return a.str == b.str
	case KindBin:
		return bytesEqual(a.bin, b.bin)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for i := range a.m {
			if !Equal(a.m[i].Key, b.m[i].Key) || !Equal(a.m[i].Val, b.m[i].Val) {
				return false
			}
		}
		return true
	case KindExt:
		return a.extTag == b.extTag && bytesEqual(a.extBin, b.extBin)
	default:
		return false
	}
}

func intEqual(a, b Value) bool {
	av, aNeg := intMagnitude(a)
	bv, bNeg := intMagnitude(b)
	return aNeg == bNeg && av == bv
}

// intMagnitude returns the absolute magnitude as uint64 and whether the
// value is negative, regardless of whether it is stored as Int or Uint.
func intMagnitude(v Value) (uint64, bool) {
	switch v.kind {
	case KindInt:
		if v.i < 0 {
			return uint64(-v.i), true //nolint:gosec
		}
		return uint64(v.i), false
	case KindUint:
		return v.u, false
	default:
		return 0, false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
