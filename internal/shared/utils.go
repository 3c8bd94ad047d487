// Package shared provides small helpers for generating random secrets and
// wiping sensitive buffers.
package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// SecretKeySize is the number of random bytes behind a generated signing
// secret or verification token.
const SecretKeySize = 32

// MakeRandHexString returns size random bytes encoded as hex, so the
// result is 2*size characters long.
//
//	s, err := MakeRandHexString(SecretKeySize) // 64 hex characters
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b. Used for passwords read from the terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
