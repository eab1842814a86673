package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveAnalysis replaces the user's last analysis with content (raw JSON)
func (s *Store) SaveAnalysis(ctx context.Context, userID int64, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (user_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		userID, string(content), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// LastAnalysis returns the user's last analysis.
// Returns nil, nil if the user has none.
func (s *Store) LastAnalysis(ctx context.Context, userID int64) ([]byte, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM analyses WHERE user_id = ?`, userID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return []byte(content), nil
}

// CachedAnalysis returns a cached provider response no older than maxAge.
// Returns nil, nil on a miss.
func (s *Store) CachedAnalysis(ctx context.Context, key string, maxAge time.Duration) ([]byte, error) {
	var (
		response  string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT response, created_at FROM analysis_cache WHERE cache_key = ?`, key,
	).Scan(&response, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached analysis: %w", err)
	}
	if maxAge > 0 && s.now().Sub(fromMillis(createdAt)) > maxAge {
		return nil, nil
	}
	return []byte(response), nil
}

// CacheAnalysis stores a provider response under key
func (s *Store) CacheAnalysis(ctx context.Context, key string, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (cache_key, response, created_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET response = excluded.response, created_at = excluded.created_at`,
		key, string(response), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

// PruneAnalysisCache drops cache entries older than maxAge
func (s *Store) PruneAnalysisCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE created_at < ?`, toMillis(s.now().Add(-maxAge)))
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis cache: %w", err)
	}
	return res.RowsAffected()
}
