package qwen

import (
	"crypto/rand"
	"fmt"
)

// The queue identifies a submit/poll pair by a short alphanumeric
// session hash; the service treats it as opaque.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// TokenGenerator produces the session token binding one submission to
// its event stream. Substituting it through Config makes token
// generation deterministic in tests.
type TokenGenerator func(length int) (string, error)

// NewSessionToken returns a fresh random token of the given length
// drawn from the lowercase-alphanumeric alphabet.
func NewSessionToken(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidTokenLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
