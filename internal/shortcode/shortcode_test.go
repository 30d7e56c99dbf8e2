package shortcode

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, "0"},
		{"single digit", 5, "5"},
		{"ten is a", 10, "a"},
		{"thirty-five is z", 35, "z"},
		{"thirty-six is A", 36, "A"},
		{"sixty-one is Z", 61, "Z"},
		{"sixty-two rolls over", 62, "10"},
		{"large number", 12345, "3d7"},
		{"million", 1000000, "4c92"},
		{"realistic id", 123456789, "8m0Kx"},
		{"negative uses magnitude", -62, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Fatalf("Encode(%d) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode_MinInt64DoesNotPanic(t *testing.T) {
	got := Encode(math.MinInt64)
	if got == "" || !IsValid(got) {
		t.Fatalf("Encode(MinInt64) = %q", got)
	}
	if got == Encode(math.MaxInt64) {
		t.Fatalf("MinInt64 magnitude must differ from MaxInt64")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"a", 10},
		{"Z", 61},
		{"10", 62},
		{"3d7", 12345},
		{"4c92", 1000000},
		{"8m0Kx", 123456789},
		{"00a", 10},
	}
	for _, tt := range tests {
		got, err := Decode(tt.in)
		if err != nil {
			t.Fatalf("Decode(%q) err: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Decode(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"dash", "ab-c"},
		{"space", "a b"},
		{"pending sentinel", "~abc"},
		{"non ascii", "é"},
		{"overflow", strings.Repeat("Z", 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Fatalf("Decode(%q) err = %v; want ErrInvalidEncoding", tt.in, err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []int64{0, 1, 61, 62, 3843, 3844, 1 << 31, 1<<53 + 7, math.MaxInt64}
	for n := int64(0); n < 5000; n += 7 {
		values = append(values, n)
	}
	for _, n := range values {
		got, err := Decode(Encode(n))
		if err != nil {
			t.Fatalf("Decode(Encode(%d)) err: %v", n, err)
		}
		if got != n {
			t.Fatalf("round trip %d -> %q -> %d", n, Encode(n), got)
		}
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("") {
		t.Fatalf("empty must be invalid")
	}
	for _, s := range []string{"0", "abc", "XyZ09"} {
		if !IsValid(s) {
			t.Fatalf("IsValid(%q) = false", s)
		}
	}
	for _, s := range []string{"a-b", "~pending", "a/b", "a.b"} {
		if IsValid(s) {
			t.Fatalf("IsValid(%q) = true", s)
		}
	}
}
