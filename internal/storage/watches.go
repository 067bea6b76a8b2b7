package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrWatchNotFound is returned when a watch does not exist or belongs to
// another user.
var ErrWatchNotFound = errors.New("watch not found")

// Watch is a material alert: a saved catalog search whose new matches are
// pushed to the user.
type Watch struct {
	ID        string
	UserID    int64
	Query     string // As typed by the user
	CreatedAt time.Time
}

const watchColumns = `id, user_id, query, created_at`

// CreateWatch saves a new alert for a user.
func (s *SQLiteStore) CreateWatch(userID int64, query string) (*Watch, error) {
	w := &Watch{
		ID:        uuid.NewString(),
		UserID:    userID,
		Query:     strings.TrimSpace(query),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT INTO watches (`+watchColumns+`) VALUES (?, ?, ?, ?)`,
		w.ID, w.UserID, w.Query, w.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create watch: %w", err)
	}
	return w, nil
}

// GetWatchesByUser returns a user's alerts, newest first.
func (s *SQLiteStore) GetWatchesByUser(userID int64) ([]Watch, error) {
	return s.queryWatches(`WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// GetAllWatches returns every alert, for the polling loop.
func (s *SQLiteStore) GetAllWatches() ([]Watch, error) {
	return s.queryWatches(`ORDER BY created_at`)
}

func (s *SQLiteStore) queryWatches(where string, args ...any) ([]Watch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT `+watchColumns+` FROM watches `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}
	defer rows.Close()

	var watches []Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(&w.ID, &w.UserID, &w.Query, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

// DeleteWatch removes one of the user's alerts. Seen markers go with it
// through the foreign key.
func (s *SQLiteStore) DeleteWatch(id string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM watches WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete watch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWatchNotFound
	}
	return nil
}

// CountWatchesByUser returns how many alerts a user has.
func (s *SQLiteStore) CountWatchesByUser(userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM watches WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count watches: %w", err)
	}
	return n, nil
}

// WatchExistsForQuery reports whether the user already has an alert for the
// query. Case and surrounding spaces are ignored, like catalog search.
func (s *SQLiteStore) WatchExistsForQuery(userID int64, query string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM watches WHERE user_id = ? AND query = ? COLLATE NOCASE)`,
		userID, strings.TrimSpace(query),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check watch exists: %w", err)
	}
	return exists, nil
}

// GetSeenItemIDs returns the catalog items already reported for a watch.
func (s *SQLiteStore) GetSeenItemIDs(watchID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT item_id FROM watch_seen_items WHERE watch_id = ?`, watchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

// MarkItemsSeenBatch records catalog items as reported for a watch.
// Items already marked keep their original timestamp.
func (s *SQLiteStore) MarkItemsSeenBatch(watchID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	now := time.Now().Unix()
	args := make([]any, 0, len(itemIDs)*3)
	for _, id := range itemIDs {
		args = append(args, watchID, id, now)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("(?, ?, ?), ", len(itemIDs)), ", ")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO watch_seen_items (watch_id, item_id, seen_at) VALUES `+placeholders,
		args...,
	); err != nil {
		return fmt.Errorf("failed to mark %d items seen: %w", len(itemIDs), err)
	}
	return nil
}

// PruneOldSeenItems drops seen markers older than olderThan.
func (s *SQLiteStore) PruneOldSeenItems(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM watch_seen_items WHERE seen_at < ?`, time.Now().Add(-olderThan).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune seen items: %w", err)
	}
	return res.RowsAffected()
}
