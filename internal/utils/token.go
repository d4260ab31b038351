package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of the raw bytes
)

// SessionTokenBytes is the amount of entropy in a session token (256 bits).
const SessionTokenBytes = 32

// NewSessionToken returns an opaque bearer token built from
// cryptographically secure random bytes.
func NewSessionToken() (string, error) {
	return randomHex(SessionTokenBytes)
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.  If the random number generator
// fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
