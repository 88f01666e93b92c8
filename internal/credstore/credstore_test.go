package credstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"taskcli/internal/credstore"
)

func TestSetGet(t *testing.T) {
	s := credstore.New(t.TempDir())

	if err := s.Set(credstore.KeyToken, "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(credstore.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected token to be present")
	}
	if got != "t1" {
		t.Errorf("expected %q, got %q", "t1", got)
	}
}

func TestGetAbsentKey(t *testing.T) {
	s := credstore.New(t.TempDir())

	got, ok, err := s.Get(credstore.KeyUser)
	if err != nil {
		t.Fatalf("absent key must not be an error, got %v", err)
	}
	if ok {
		t.Error("expected absent key")
	}
	if got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
}

func TestSetCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "taskcli")
	s := credstore.New(dir)

	if err := s.Set(credstore.KeyToken, "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); err != nil {
		t.Errorf("token file not created: %v", err)
	}
}

func TestTokenFileMode(t *testing.T) {
	dir := t.TempDir()
	s := credstore.New(dir)

	if err := s.Set(credstore.KeyToken, "secret"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "token"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestRemoveAll(t *testing.T) {
	s := credstore.New(t.TempDir())

	if err := s.Set(credstore.KeyToken, "t1"); err != nil {
		t.Fatalf("Set token: %v", err)
	}
	if err := s.Set(credstore.KeyUser, `{"id":"42"}`); err != nil {
		t.Fatalf("Set user: %v", err)
	}

	if err := s.RemoveAll(credstore.KeyToken, credstore.KeyUser); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	if s.Has(credstore.KeyToken) || s.Has(credstore.KeyUser) {
		t.Error("expected both keys removed")
	}
}

func TestRemoveAllMissingKeys(t *testing.T) {
	s := credstore.New(t.TempDir())

	// Removing keys that were never set must succeed.
	if err := s.RemoveAll(credstore.KeyToken, credstore.KeyUser); err != nil {
		t.Fatalf("RemoveAll on empty store: %v", err)
	}
}
