// internal/publicid/publicid.go
package publicid

import (
	"crypto/rand"
)

const (
	// Alphabet is the set of characters a public identifier is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Length is the fixed length of a public identifier.
	Length = 12
)

// bytes at or above this value are rejected so every character keeps the same
// probability (252 = 7 * 36).
const rejectAbove = 256 - (256 % len(Alphabet))

// Generate returns a fresh public identifier: Length characters, each drawn
// independently and uniformly from Alphabet. It never fails; if the system
// randomness source is unavailable crypto/rand panics, as the process cannot
// continue safely without it.
func Generate() string {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			panic("publicid: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out)
}

// Valid reports whether s has the shape of a generated identifier.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
