package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")

	got, err := s.LastAnalysis(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveAnalysis(ctx, u.ID, []byte(`{"v":1}`)))
	require.NoError(t, s.SaveAnalysis(ctx, u.ID, []byte(`{"v":2}`)))

	got, err = s.LastAnalysis(ctx, u.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))
}

func TestAnalysisCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	miss, err := s.CachedAnalysis(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, s.CacheAnalysis(ctx, "k", []byte(`{"ok":true}`)))

	hit, err := s.CachedAnalysis(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(hit))

	now = now.Add(2 * time.Hour)
	stale, err := s.CachedAnalysis(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, stale)

	n, err := s.PruneAnalysisCache(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
