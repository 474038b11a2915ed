package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestPutAndGet(t *testing.T) {
	s := tempStore(t)
	content := []byte(`{"notes":[]}`)
	if err := s.Put("notes", content); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "notes.json")); err != nil {
		t.Errorf("expected notes.json on disk: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("absent"); !errors.Is(err, ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Put("del", []byte("bye"))
	if err := s.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("del"); !errors.Is(err, ErrNotExist) {
		t.Error("expected ErrNotExist reading deleted document")
	}
	if err := s.Delete("del"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	s := tempStore(t)

	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
		"",
		".hidden",
	}
	for _, k := range cases {
		if _, err := s.Get(k); err == nil {
			t.Errorf("expected error for key %q", k)
		}
		if err := s.Put(k, []byte("x")); err == nil {
			t.Errorf("expected error for put to %q", k)
		}
	}
}

func TestAtomicPutNoCorruption(t *testing.T) {
	s := tempStore(t)
	_ = s.Put("atomic", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Put("atomic", updated); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ := s.Get("atomic")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".notegraph-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected directory %s to exist", dir)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "notegraph-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("tape", t.TempDir()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
