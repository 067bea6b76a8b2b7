package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// StoredUser is a logged-in profile bound to a Telegram account.
type StoredUser struct {
	TelegramID  int64
	User        material.User
	LastUpdated time.Time
}

// UserStore persists the profile of each logged-in chat user.
type UserStore interface {
	GetUser(telegramID int64) (*StoredUser, error)
	SaveUser(telegramID int64, user material.User) error
	DeleteUser(telegramID int64) error
	CountUsers() (int, error)
}

// Store is everything the application persists locally.
type Store interface {
	UserStore

	// Credential methods (values are encrypted at rest)
	SetAPIKey(key string) error
	GetAPIKey() (string, error)

	// Analysis cache methods
	GetAnalysisCache(kind, key string) ([]byte, error)
	SetAnalysisCache(kind, key string, payload []byte) error
	PruneAnalysisCache(olderThan time.Duration) (int64, error)

	// Watch methods
	CreateWatch(userID int64, query string) (*Watch, error)
	GetWatchesByUser(userID int64) ([]Watch, error)
	GetAllWatches() ([]Watch, error)
	DeleteWatch(id string, userID int64) error
	CountWatchesByUser(userID int64) (int, error)
	WatchExistsForQuery(userID int64, query string) (bool, error)
	GetSeenItemIDs(watchID string) (map[string]bool, error)
	MarkItemsSeenBatch(watchID string, itemIDs []string) error
	PruneOldSeenItems(olderThan time.Duration) (int64, error)

	Close() error
}

// SQLiteStore implements Store using SQLite with encrypted credentials.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
// The encryptionKey is used to encrypt/decrypt stored credentials.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// WAL mode and busy timeout for concurrent readers; foreign keys are
	// per-connection so they go in the DSN.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	usersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		telegram_id INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		last_updated DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(usersQuery); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	credentialsQuery := `
	CREATE TABLE IF NOT EXISTS credentials (
		name TEXT PRIMARY KEY,
		encrypted_value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(credentialsQuery); err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}

	analysisCacheQuery := `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		kind TEXT NOT NULL,
		input_hash TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (kind, input_hash)
	);
	`
	if _, err := s.db.Exec(analysisCacheQuery); err != nil {
		return fmt.Errorf("failed to create analysis_cache table: %w", err)
	}

	watchesQuery := `
	CREATE TABLE IF NOT EXISTS watches (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		query TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(watchesQuery); err != nil {
		return fmt.Errorf("failed to create watches table: %w", err)
	}

	watchSeenItemsQuery := `
	CREATE TABLE IF NOT EXISTS watch_seen_items (
		watch_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		seen_at INTEGER NOT NULL,
		PRIMARY KEY (watch_id, item_id),
		FOREIGN KEY (watch_id) REFERENCES watches(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(watchSeenItemsQuery); err != nil {
		return fmt.Errorf("failed to create watch_seen_items table: %w", err)
	}

	return nil
}

// GetUser retrieves a user profile by Telegram user ID.
// Returns nil, nil if the user is not logged in.
func (s *SQLiteStore) GetUser(telegramID int64) (*StoredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored StoredUser
	var role string
	err := s.db.QueryRow(
		"SELECT user_id, name, email, role, last_updated FROM users WHERE telegram_id = ?",
		telegramID,
	).Scan(&stored.User.ID, &stored.User.Name, &stored.User.Email, &role, &stored.LastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	stored.TelegramID = telegramID
	stored.User.Role = material.Role(role)
	return &stored, nil
}

// SaveUser stores or replaces the profile for a Telegram user.
func (s *SQLiteStore) SaveUser(telegramID int64, user material.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO users (telegram_id, user_id, name, email, role, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			last_updated = excluded.last_updated
	`, telegramID, user.ID, user.Name, user.Email, string(user.Role), time.Now())

	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes the profile for a Telegram user.
func (s *SQLiteStore) DeleteUser(telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM users WHERE telegram_id = ?", telegramID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// CountUsers returns the number of logged-in users.
func (s *SQLiteStore) CountUsers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
