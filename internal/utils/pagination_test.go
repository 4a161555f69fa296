package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 20, 20},
		{"3", 1, 3},
		{"-2", 1, -2},
		{"0050", 20, 50},
		{"ten", 20, 20},
		{" 5", 20, 20}, // no trimming
		{"999999999999999999999999", 20, 20},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(0, 1, 100); got != 1 {
		t.Fatalf("low: got %d", got)
	}
	if got := Clamp(500, 1, 100); got != 100 {
		t.Fatalf("high: got %d", got)
	}
	if got := Clamp(42, 1, 100); got != 42 {
		t.Fatalf("inside: got %d", got)
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Fatalf("Offset(1,20)=%d", got)
	}
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("Offset(3,20)=%d", got)
	}
	if got := Offset(0, 20); got != 0 {
		t.Fatalf("Offset(0,20)=%d", got)
	}

	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d,%d)=%d; want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
