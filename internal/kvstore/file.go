// Package kvstore provides durable key-value string stores backing the
// credential cache: a JSON file for single-user CLI use and a PostgreSQL
// table for hosted agents.
package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists its entries as a JSON object in a single file.
// Every write rewrites the file, so writes are durable once Set returns.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFileStore opens (or creates) the store at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	b, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &fs.values); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}
	return nil
}

func (fs *FileStore) save() error {
	b, err := json.Marshal(fs.values)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	// Stored values include ciphertext; keep the file owner-only.
	if err := os.WriteFile(fs.path, b, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the backing file.
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	return fs.save()
}

// Delete removes key and rewrites the backing file.
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.values[key]; !ok {
		return nil
	}
	delete(fs.values, key)
	return fs.save()
}
