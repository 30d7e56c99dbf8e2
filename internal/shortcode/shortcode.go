// Package shortcode converts numeric record identifiers into compact base62
// aliases and back. The alphabet is digits, then lowercase, then uppercase,
// so index i of Alphabet is the digit value i.
package shortcode

import (
	"errors"
	"fmt"
	"math"
)

// Alphabet is the ordered digit set used for every short code.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(Alphabet))

// ErrInvalidEncoding is returned by Decode for empty input, characters outside
// Alphabet, or values that do not fit an int64 identifier.
var ErrInvalidEncoding = errors.New("invalid short code")

// reverse maps an ASCII byte to its digit value, or -1.
var reverse = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// Encode renders n in base62, most significant digit first, without padding.
// Encode(0) is "0". Negative values are encoded by magnitude.
func Encode(n int64) string {
	var u uint64
	if n < 0 {
		// -MinInt64 overflows int64 but not uint64.
		u = uint64(-(n + 1)) + 1
	} else {
		u = uint64(n)
	}
	if u == 0 {
		return string(Alphabet[0])
	}

	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = Alphabet[u%base]
		u /= base
	}
	return string(buf[i:])
}

// Decode parses a base62 string produced by Encode. Leading zero digits are
// accepted, so "00a" decodes to 10.
func Decode(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidEncoding
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d := reverse[s[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w: unexpected character %q at %d", ErrInvalidEncoding, s[i], i)
		}
		if n > (math.MaxInt64-uint64(d))/base {
			return 0, fmt.Errorf("%w: value overflows int64", ErrInvalidEncoding)
		}
		n = n*base + uint64(d)
	}
	return int64(n), nil
}

// IsValid reports whether s is non-empty and made only of Alphabet characters.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if reverse[s[i]] < 0 {
			return false
		}
	}
	return true
}
