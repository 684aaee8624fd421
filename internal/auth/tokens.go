package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NewEmailToken returns a random single-use token for invitation and reset
// links, and the hash under which it is stored. Only the hash is persisted.
func NewEmailToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashEmailToken(token), nil
}

// HashEmailToken hashes a token received from a link for lookup.
func HashEmailToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
