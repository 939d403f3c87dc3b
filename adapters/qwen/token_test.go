package qwen

import (
	"errors"
	"strings"
	"testing"
)

func TestNewSessionToken_Length(t *testing.T) {
	for _, length := range []int{1, 9, 32, 100} {
		token, err := NewSessionToken(length)
		if err != nil {
			t.Fatalf("NewSessionToken(%d) error = %v", length, err)
		}
		if len(token) != length {
			t.Errorf("NewSessionToken(%d) returned %d characters", length, len(token))
		}
	}
}

func TestNewSessionToken_Alphabet(t *testing.T) {
	token, err := NewSessionToken(200)
	if err != nil {
		t.Fatalf("NewSessionToken error = %v", err)
	}

	for _, r := range token {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Errorf("Token contains %q, outside the alphabet", r)
		}
	}
}

func TestNewSessionToken_InvalidLength(t *testing.T) {
	for _, length := range []int{0, -1, -100} {
		_, err := NewSessionToken(length)
		if !errors.Is(err, ErrInvalidTokenLength) {
			t.Errorf("NewSessionToken(%d) error = %v, want ErrInvalidTokenLength", length, err)
		}
	}
}

func TestNewSessionToken_IndependentAcrossCalls(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewSessionToken(9)
		if err != nil {
			t.Fatalf("NewSessionToken error = %v", err)
		}
		if seen[token] {
			t.Fatalf("Token %q repeated within 100 generations", token)
		}
		seen[token] = true
	}
}
