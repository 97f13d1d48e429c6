package users

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndVerify(t *testing.T) {
	store := newTestStore(t)

	user, err := store.Create("alice", "s3cret")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Errorf("Unexpected user: %+v", user)
	}

	t.Run("CorrectPassword", func(t *testing.T) {
		verified, err := store.Verify("alice", "s3cret")
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if verified.Username != "alice" {
			t.Errorf("Expected alice, got %s", verified.Username)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		if _, err := store.Verify("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		if _, err := store.Verify("bob", "whatever"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		if _, err := store.Create("alice", "another"); err == nil {
			t.Error("Expected error for duplicate username")
		}
	})
}

func TestPasswordsAreHashed(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create("carol", "plaintext"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var hash string
	err := store.db.QueryRow(`SELECT password_hash FROM users WHERE username = ?`, "carol").Scan(&hash)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if hash == "plaintext" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("Password not stored as bcrypt hash: %s", hash)
	}
}

func TestSeedDefaultAdmin(t *testing.T) {
	store := newTestStore(t)

	if err := store.SeedDefaultAdmin(); err != nil {
		t.Fatalf("SeedDefaultAdmin failed: %v", err)
	}
	if _, err := store.Verify("admin", "admin123"); err != nil {
		t.Errorf("Default admin not usable: %v", err)
	}

	// Idempotent on restart.
	if err := store.SeedDefaultAdmin(); err != nil {
		t.Errorf("Second seed should be a no-op: %v", err)
	}
}
