package common

import "testing"

func TestOrUnknown(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "Unknown"},
		{"   ", "Unknown"},
		{"Shape of You", "Shape of You"},
		{"  Ed   Sheeran ", "Ed Sheeran"},
	}
	for _, tc := range cases {
		if got := OrUnknown(tc.raw); got != tc.want {
			t.Errorf("OrUnknown(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestMillisToSeconds(t *testing.T) {
	cases := []struct {
		millis int64
		want   int
	}{
		{0, 0},
		{-100, 0},
		{999, 0},
		{1000, 1},
		{233712, 233},
	}
	for _, tc := range cases {
		if got := MillisToSeconds(tc.millis); got != tc.want {
			t.Errorf("MillisToSeconds(%d) = %d, want %d", tc.millis, got, tc.want)
		}
	}
}

func TestClampSeconds(t *testing.T) {
	if got := ClampSeconds(-1); got != 0 {
		t.Fatalf("ClampSeconds(-1) = %d", got)
	}
	if got := ClampSeconds(42); got != 42 {
		t.Fatalf("ClampSeconds(42) = %d", got)
	}
}
