package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateNonce returns length random bytes, hex encoded.
func GenerateNonce(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
