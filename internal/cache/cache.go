// Package cache persists the remembered login identity and secret for
// passive re-authentication. The identity is stored in plaintext; the
// secret is encrypted with a key derived from the device identifier.
package cache

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vaultfill/vaultfill/internal/crypto"
)

// Store keys for the remembered login values.
const (
	rememberedIdentityKey = "remembered_email"
	rememberedSecretKey   = "remembered_password"
)

// KeyValueStore defines the persistence operations required by the
// credential cache. Implementations must provide durable writes.
type KeyValueStore interface {
	// Get returns the stored value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set durably stores value under key.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Cache is the credential cache. The encryption key is re-derived from the
// device identifier on first use and held only for the lifetime of this
// instance; it is never persisted.
type Cache struct {
	store      KeyValueStore
	deviceID   string
	iterations int
	log        *zap.Logger

	mu     sync.Mutex
	cipher *crypto.Cipher
}

// New constructs a Cache over the given store. deviceID is the device
// identifier used as key material; iterations is the PBKDF2 iteration
// count (crypto.DefaultIterations when zero).
func New(store KeyValueStore, deviceID string, iterations int, log *zap.Logger) *Cache {
	if iterations == 0 {
		iterations = crypto.DefaultIterations
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, deviceID: deviceID, iterations: iterations, log: log}
}

// getCipher lazily derives the encryption key and builds the cipher,
// caching it within this instance only.
func (c *Cache) getCipher() (*crypto.Cipher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cipher != nil {
		return c.cipher, nil
	}
	key, err := crypto.DeriveKey(c.deviceID, c.iterations)
	if err != nil {
		return nil, fmt.Errorf("derive cache key: %w", err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("build cache cipher: %w", err)
	}
	c.cipher = cipher
	return cipher, nil
}

// RememberedIdentity returns the remembered login identity, if any.
// Store read failures are logged and reported as absence.
func (c *Cache) RememberedIdentity() (string, bool) {
	v, ok, err := c.store.Get(rememberedIdentityKey)
	if err != nil {
		c.log.Error("failed to read remembered identity", zap.Error(err))
		return "", false
	}
	return v, ok
}

// SetRememberedIdentity stores the remembered identity; nil clears it.
// Write failures propagate so the caller knows "remember me" did not
// persist.
func (c *Cache) SetRememberedIdentity(identity *string) error {
	if identity == nil {
		return c.store.Delete(rememberedIdentityKey)
	}
	return c.store.Set(rememberedIdentityKey, *identity)
}

// RememberedSecret returns the remembered secret, if any. Any decryption
// failure is treated as absence: local cache corruption must never break
// the login flow.
func (c *Cache) RememberedSecret() (string, bool) {
	encoded, ok, err := c.store.Get(rememberedSecretKey)
	if err != nil {
		c.log.Error("failed to read remembered secret", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	cipher, err := c.getCipher()
	if err != nil {
		c.log.Error("failed to prepare cipher for remembered secret", zap.Error(err))
		return "", false
	}
	plain, err := cipher.DecryptString(encoded)
	if err != nil {
		c.log.Error("failed to decrypt remembered secret, treating as absent", zap.Error(err))
		return "", false
	}
	return plain, true
}

// SetRememberedSecret encrypts and stores the remembered secret; nil
// clears it.
func (c *Cache) SetRememberedSecret(secret *string) error {
	if secret == nil {
		return c.store.Delete(rememberedSecretKey)
	}
	cipher, err := c.getCipher()
	if err != nil {
		return err
	}
	encoded, err := cipher.EncryptString(*secret)
	if err != nil {
		return fmt.Errorf("encrypt remembered secret: %w", err)
	}
	return c.store.Set(rememberedSecretKey, encoded)
}

// SetRememberedIdentityAndSecret sets both remembered values together.
// Callers must not remember a secret without an identity; the store may
// still hold a secret without an identity from earlier state, which
// readers treat as unusable.
func (c *Cache) SetRememberedIdentityAndSecret(identity, secret *string) error {
	if err := c.SetRememberedIdentity(identity); err != nil {
		return err
	}
	return c.SetRememberedSecret(secret)
}
