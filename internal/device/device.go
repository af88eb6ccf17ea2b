// Package device derives the stable, application-scoped device identifier
// used as local encryption key material and as the vault-protocol device
// fingerprint.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrIdentityUnavailable is returned when the platform-stable identifier
// cannot be read. There is no retry path: without it neither the local
// encryption key nor the protocol fingerprint can be computed.
var ErrIdentityUnavailable = errors.New("device identity unavailable")

// Source provides the platform-stable identifier the device identity is
// derived from.
type Source interface {
	// MachineID returns the raw platform identifier, stable for the
	// lifetime of the install.
	MachineID() (string, error)
}

// Identifier derives the device identifier from the source's machine ID and
// the hosting application's namespace. Two applications on one device get
// distinct identifiers because the namespace participates in the hash.
// Deterministic: identical inputs always produce the identical identifier.
func Identifier(src Source, namespace string) (string, error) {
	id, err := src.MachineID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty machine id", ErrIdentityUnavailable)
	}
	sum := sha256.Sum256([]byte(namespace + "-" + id))
	return hex.EncodeToString(sum[:]), nil
}

// FileSource reads the machine ID from the first readable path in Paths.
type FileSource struct {
	Paths []string
}

// NewFileSource returns a FileSource over the conventional Linux
// machine-id locations.
func NewFileSource() *FileSource {
	return &FileSource{Paths: []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}}
}

// MachineID returns the first non-empty machine-id file content.
func (f *FileSource) MachineID() (string, error) {
	var lastErr error
	for _, p := range f.Paths {
		b, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		id := strings.TrimSpace(string(b))
		if id != "" {
			return id, nil
		}
		lastErr = fmt.Errorf("machine id file %s is empty", p)
	}
	if lastErr == nil {
		lastErr = errors.New("no machine id paths configured")
	}
	return "", lastErr
}
