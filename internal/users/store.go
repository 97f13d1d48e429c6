package users

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/embedmcp/embed-mcp/internal/logger"
)

var log = logger.ForComponent("users")

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Store manages user accounts in SQLite. Passwords are stored as bcrypt
// hashes, never in recoverable form.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create users dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create adds a user, hashing the password with bcrypt. Existing usernames
// are rejected by the unique constraint.
func (s *Store) Create(username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		INSERT INTO users (username, password_hash) VALUES (?, ?)
	`, username, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get user id: %w", err)
	}

	return &User{ID: id, Username: username}, nil
}

// Verify checks a username/password pair against the stored bcrypt hash.
func (s *Store) Verify(username, password string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user User
	var hash string
	var created sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &hash, &created)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if created.Valid {
		user.CreatedAt = created.Time
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// SeedDefaultAdmin creates the admin account on first run. Existing admin
// users are left untouched.
func (s *Store) SeedDefaultAdmin() error {
	s.mu.RLock()
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, "admin").Scan(&count)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.Create("admin", "admin123"); err != nil {
		return err
	}
	log.Info("seeded default admin user")
	return nil
}
