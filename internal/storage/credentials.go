package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const credentialGeminiAPIKey = "gemini_api_key"

// SetAPIKey encrypts and stores the model API key, replacing any previous one.
func (s *SQLiteStore) SetAPIKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt([]byte(key), s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO credentials (name, encrypted_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			updated_at = excluded.updated_at
	`, credentialGeminiAPIKey, encrypted, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

// GetAPIKey returns the stored model API key, or "" if none was set.
func (s *SQLiteStore) GetAPIKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encrypted string
	err := s.db.QueryRow(
		"SELECT encrypted_value FROM credentials WHERE name = ?",
		credentialGeminiAPIKey,
	).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query api key: %w", err)
	}

	key, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt api key: %w", err)
	}
	return string(key), nil
}

// CredentialStore is the part of Store that holds the model API key.
type CredentialStore interface {
	GetAPIKey() (string, error)
}

// KeySource resolves the model API key at call time. A key stored in the
// database wins over the environment variable.
type KeySource struct {
	store  CredentialStore
	envVar string
}

// NewKeySource creates a KeySource reading from store, then from envVar.
func NewKeySource(store CredentialStore, envVar string) *KeySource {
	return &KeySource{store: store, envVar: envVar}
}

// APIKey returns the current key.
func (k *KeySource) APIKey(ctx context.Context) (string, error) {
	if k.store != nil {
		key, err := k.store.GetAPIKey()
		if err != nil {
			log.Warn().Err(err).Msg("failed to read stored api key, using environment")
		} else if key != "" {
			return key, nil
		}
	}
	return os.Getenv(k.envVar), nil
}
