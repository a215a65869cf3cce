package format

import "testing"

func TestUintWidth(t *testing.T) {
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 0},
		{127, 0},
		{128, 8},
		{255, 8},
		{256, 16},
		{65535, 16},
		{65536, 32},
		{4294967295, 32},
		{4294967296, 64},
	}
	for _, c := range cases {
		if got := UintWidth(c.v); got != c.want {
			t.Errorf("UintWidth(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestIntWidth(t *testing.T) {
	cases := []struct {
		v    int64
		want int
	}{
		{-1, 0},
		{-32, 0},
		{-33, 8},
		{-128, 8},
		{-129, 16},
		{-32768, 16},
		{-32769, 32},
		{-1 << 31, 32},
		{-(1 << 31) - 1, 64},
	}
	for _, c := range cases {
		if got := IntWidth(c.v); got != c.want {
			t.Errorf("IntWidth(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestStrWidth(t *testing.T) {
	if w, ok := StrWidth(31); !ok || w != WidthFix {
		t.Errorf("StrWidth(31) = %v,%v want WidthFix,true", w, ok)
	}
	if w, ok := StrWidth(32); !ok || w != Width8 {
		t.Errorf("StrWidth(32) = %v,%v want Width8,true", w, ok)
	}
	if _, ok := StrWidth(1 << 32); ok {
		t.Errorf("StrWidth(2^32) should fail")
	}
}

func TestExtWidth(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16} {
		w, fixedLen, ok := ExtWidth(n)
		if !ok || w != WidthFix || fixedLen != n {
			t.Errorf("ExtWidth(%d) = %v,%v,%v", n, w, fixedLen, ok)
		}
	}
	w, _, ok := ExtWidth(3)
	if !ok || w != Width8 {
		t.Errorf("ExtWidth(3) = %v,%v want Width8,true", w, ok)
	}
}
