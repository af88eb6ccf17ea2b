package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrDecryptionFailed reports that stored ciphertext could not be
// decrypted: malformed encoding, truncation, or authentication failure.
// Callers treat it as "no remembered value", never as a fatal error.
var ErrDecryptionFailed = errors.New("decryption failed")

// Cipher encrypts and decrypts opaque strings with AES-256-GCM.
// Ciphertext is framed as nonce||sealed and rendered as lowercase hex so
// it can be stored in a plain string key-value store.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher around the given 256-bit key.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString encrypts plaintext under a fresh random nonce and returns
// the hex-encoded result.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// DecryptString decrypts a hex-encoded ciphertext produced by
// EncryptString. Any malformed or tampered input yields
// ErrDecryptionFailed.
func (c *Cipher) DecryptString(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plain), nil
}
