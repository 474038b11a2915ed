// Package testutil provides shared test helpers for storage and clocks.
package testutil

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/storage"
)

// ErrInjected is returned by MemStore.Put while failures are switched on.
var ErrInjected = errors.New("testutil: injected write failure")

// TestFS creates a temporary data directory with an fs storage provider.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestSQLite creates a temporary SQLite storage provider that is
// automatically closed.
func TestSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "notegraph-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MemStore is an in-memory storage.Provider whose writes can be made to fail.
type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	fail bool
	puts int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Get implements storage.Provider.
func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[key]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return append([]byte(nil), d...), nil
}

// Put implements storage.Provider.
func (m *MemStore) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrInjected
	}
	m.docs[key] = append([]byte(nil), data...)
	m.puts++
	return nil
}

// Delete implements storage.Provider.
func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// Close implements storage.Provider.
func (m *MemStore) Close() error { return nil }

// FailWrites makes every subsequent Put fail until called with false.
func (m *MemStore) FailWrites(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// Puts returns the number of successful writes.
func (m *MemStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
