package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes is the activation token entropy when none is configured.
const DefaultTokenBytes = 16

// TokenGenerator produces opaque single-use activation tokens from a
// cryptographically secure source. There is no weak-randomness fallback.
type TokenGenerator struct {
	bytes int
}

// NewTokenGenerator constructs a generator producing hex tokens of
// byteLength random bytes.
func NewTokenGenerator(byteLength int) *TokenGenerator {
	if byteLength <= 0 {
		byteLength = DefaultTokenBytes
	}
	return &TokenGenerator{bytes: byteLength}
}

// Generate returns a fresh hex-encoded token.
func (g *TokenGenerator) Generate() (string, error) {
	buf := make([]byte, g.bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
