// Package credstore provides durable key/value storage for session
// credentials. Each key is stored as its own file under the config
// directory, mode 0600. An absent key is not an error: it means "no
// session".
package credstore

import (
	"os"
	"path/filepath"
	"strings"

	"taskcli/internal/apperr"
)

const (
	// KeyToken is the stored session token key.
	KeyToken = "token"

	// KeyUser is the stored user record key (JSON).
	KeyUser = "user"
)

// Store persists credential entries under a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily
// on the first Set.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Set writes a value for key, creating the directory if needed.
func (s *Store) Set(key, value string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return apperr.Wrap(apperr.Storage, "create credential directory", err)
	}
	if err := os.WriteFile(s.path(key), []byte(value), 0600); err != nil {
		return apperr.Wrap(apperr.Storage, "write "+key, err)
	}
	return nil
}

// Get returns the value for key. An absent key yields ("", false, nil).
func (s *Store) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.Storage, "read "+key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// RemoveAll deletes the given keys. Missing keys are tolerated.
func (s *Store) RemoveAll(keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			return apperr.Wrap(apperr.Storage, "remove "+key, err)
		}
	}
	return nil
}
