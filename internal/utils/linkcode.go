package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// linkCodeBytes sized so codes are 32 hex characters: unguessable and not
// derivable from ids or timestamps.  The code is the public security
// boundary, since submitting through a link requires no authentication.
const linkCodeBytes = 16

// NewLinkCode returns a cryptographically random hex code for embedding
// in a public form URL.
func NewLinkCode() (string, error) {
	return randomHex(linkCodeBytes)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
