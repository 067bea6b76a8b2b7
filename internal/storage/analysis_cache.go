package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// GetAnalysisCache returns a cached model answer.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetAnalysisCache(kind, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM analysis_cache WHERE kind = ? AND input_hash = ?",
		kind, key,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}
	return payload, nil
}

// SetAnalysisCache stores a model answer in the cache.
func (s *SQLiteStore) SetAnalysisCache(kind, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO analysis_cache (kind, input_hash, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, input_hash) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, kind, key, payload, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to cache analysis result: %w", err)
	}
	return nil
}

// PruneAnalysisCache removes cache entries older than the given duration.
func (s *SQLiteStore) PruneAnalysisCache(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := s.db.Exec(`DELETE FROM analysis_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis cache: %w", err)
	}

	return result.RowsAffected()
}
