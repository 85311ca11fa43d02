package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomHex returns length random bytes encoded as hex.
func GenerateRandomHex(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
