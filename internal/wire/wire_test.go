package wire

import "testing"

func TestPutReadRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutUint16(buf, 0xBEEF)
	buf = PutUint32(buf, 0xDEADBEEF)
	buf = PutUint64(buf, 0x0102030405060708)
	buf = PutFloat64(buf, 1.5)

	if got := ReadUint16(buf[0:2]); got != 0xBEEF {
		t.Errorf("ReadUint16 = %x", got)
	}
	if got := ReadUint32(buf[2:6]); got != 0xDEADBEEF {
		t.Errorf("ReadUint32 = %x", got)
	}
	if got := ReadUint64(buf[6:14]); got != 0x0102030405060708 {
		t.Errorf("ReadUint64 = %x", got)
	}
	if got := ReadFloat64(buf[14:22]); got != 1.5 {
		t.Errorf("ReadFloat64 = %v", got)
	}
}

func TestFloat64WireBytes(t *testing.T) {
	buf := PutFloat64(nil, 1.5)
	want := []byte{0x3F, 0xF8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if len(buf) != 8 {
		t.Fatalf("len = %d", len(buf))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %x, want %x", i, buf[i], want[i])
		}
	}
}

func TestMemEqual(t *testing.T) {
	cases := []struct {
		a, b []byte
		want bool
	}{
		{[]byte("hello"), []byte("hello"), true},
		{[]byte("hello"), []byte("hellp"), false},
		{[]byte("12345678"), []byte("12345678"), true},
		{[]byte("123456789"), []byte("12345678a"), false},
		{[]byte(""), []byte(""), true},
	}
	for _, c := range cases {
		if got := MemEqual(c.a, c.b); got != c.want {
			t.Errorf("MemEqual(%q,%q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestReadFloat32Promotion(t *testing.T) {
	// 1.5f32 big-endian: 0x3FC00000
	buf := []byte{0x3F, 0xC0, 0x00, 0x00}
	if got := ReadFloat32(buf); got != 1.5 {
		t.Errorf("ReadFloat32 = %v, want 1.5", got)
	}
}
