package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GeneratePassword returns a random hex password of 2*n characters, used when
// seeding the first admin operator without an explicit password.
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
