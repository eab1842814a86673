package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixClock makes the store's clock return successive instants one second apart
func fixClock(s *Store, start time.Time) {
	next := start
	s.now = func() time.Time {
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func createUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &models.User{Name: "Leitor", Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "  Ana@Example.com ")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Nil(t, u.LastSeenAt)

	_, err := s.CreateUser(ctx, &models.User{Name: "Other", Email: "ANA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.GetUserByEmail(ctx, "ana@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRoleAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "a@example.com")
	createUser(t, s, "b@example.com")

	u, err := s.SetRole(ctx, "B@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = s.SetRole(ctx, "missing@example.com", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	total, err := s.CountUsers(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	admins, err := s.CountUsers(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)
}

func TestTouchLastSeen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	a := createUser(t, s, "a@example.com")
	b := createUser(t, s, "b@example.com")
	require.NoError(t, s.TouchLastSeen(ctx, a.ID, now))
	require.NoError(t, s.TouchLastSeen(ctx, b.ID, now.Add(-10*time.Minute)))

	active, err := s.CountActiveSince(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	got, err := s.GetUser(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenAt)
	assert.True(t, now.Equal(*got.LastSeenAt))
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")

	name := " Ana Clara "
	got, err := s.UpdateProfile(ctx, u.ID, ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", got.Name)
	assert.Empty(t, got.PhotoURL)

	photo := "https://example.com/a.png"
	got, err = s.UpdateProfile(ctx, u.ID, ProfilePatch{PhotoURL: &photo})
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", got.Name)
	assert.Equal(t, photo, got.PhotoURL)

	_, err = s.UpdateProfile(ctx, 999, ProfilePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	fixClock(s, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	createUser(t, s, "first@example.com")
	createUser(t, s, "second@example.com")

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "second@example.com", users[0].Email)
}
