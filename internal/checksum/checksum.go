// Package checksum fingerprints persisted documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tracker remembers the digest of the last document a process wrote or read,
// so a change notification for that same content can be told apart from an
// external edit.
type Tracker struct {
	mu   sync.Mutex
	last string
}

// Record stores the digest of data.
func (t *Tracker) Record(data []byte) {
	s := Sum(data)
	t.mu.Lock()
	t.last = s
	t.mu.Unlock()
}

// Changed reports whether data differs from the last recorded document.
func (t *Tracker) Changed(data []byte) bool {
	s := Sum(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	return s != t.last
}
