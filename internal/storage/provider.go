// Package storage persists serialized documents under string keys.
package storage

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotExist is returned by Get when no document is stored under a key.
var ErrNotExist = errors.New("storage: document does not exist")

// Driver names.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Provider is the interface for document persistence.
type Provider interface {
	// Get returns the document stored under key, or ErrNotExist.
	Get(key string) ([]byte, error)
	// Put atomically replaces the document stored under key.
	Put(key string, data []byte) error
	// Delete removes the document stored under key. Missing keys are not an error.
	Delete(key string) error
	// Close releases the provider's resources.
	Close() error
}

// Open returns the provider for driver rooted at path: a directory for the
// fs driver, a database file for the sqlite driver.
func Open(driver, path string) (Provider, error) {
	switch driver {
	case DriverFS, "":
		return NewFS(path)
	case DriverSQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

// ValidKey reports whether key can be used with every driver.
func ValidKey(key string) bool {
	return keyRe.MatchString(key)
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}
