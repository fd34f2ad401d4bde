// Package joincode generates the short codes participants type to join
// a session. The alphabet omits ambiguous characters (0/O, 1/I/L).
package joincode

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const DefaultLength = 6

// New returns a random join code of the given length.
func New(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
