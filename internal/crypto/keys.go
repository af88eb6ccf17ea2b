// Package crypto provides the key derivation and symmetric cipher used to
// protect values persisted to local storage.
package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinIterations is the lowest accepted PBKDF2 iteration count.
	MinIterations = 100
	// DefaultIterations is used when no count is configured.
	DefaultIterations = 100

	keyLen = 32 // AES-256
)

// DeriveKey derives a 256-bit key from the device identifier using
// PBKDF2-HMAC-SHA256. The identifier serves as both password and salt; it
// is already high-entropy and per-install, and the key must be
// re-derivable from the identifier alone because it is never stored.
func DeriveKey(identifier string, iterations int) ([]byte, error) {
	if identifier == "" {
		return nil, fmt.Errorf("derive key: empty identifier")
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("derive key: %d iterations below minimum %d", iterations, MinIterations)
	}
	return pbkdf2.Key([]byte(identifier), []byte(identifier), iterations, keyLen, sha256.New), nil
}
