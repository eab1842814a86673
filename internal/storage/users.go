package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

const userColumns = `id, name, email, password_hash, role, photo_url, created_at, last_seen_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		createdAt int64
		lastSeen  sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PhotoURL, &createdAt, &lastSeen); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	if lastSeen.Valid {
		t := fromMillis(lastSeen.Int64)
		u.LastSeenAt = &t
	}
	return &u, nil
}

// NormalizeEmail is the form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts u and returns the stored row.
// A second account with the same email fails with ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, photo_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(u.Name), NormalizeEmail(u.Email), u.PasswordHash, role, u.PhotoURL, toMillis(s.now()),
	)
	s.mu.Unlock()
	if isUniqueConstraintErr(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser looks a user up by id
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email, ignoring case
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns every account, newest first
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetRole changes the role of the account with the given email
func (s *Store) SetRole(ctx context.Context, email, role string) (*models.User, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, role, NormalizeEmail(email))
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByEmail(ctx, email)
}

// ProfilePatch holds the profile fields a user may change; nil fields are kept
type ProfilePatch struct {
	Name     *string
	PhotoURL *string
}

// UpdateProfile applies p to the user and returns the stored row
func (s *Store) UpdateProfile(ctx context.Context, id int64, p ProfilePatch) (*models.User, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*p.Name))
	}
	if p.PhotoURL != nil {
		sets = append(sets, "photo_url = ?")
		args = append(args, *p.PhotoURL)
	}
	if len(sets) == 0 {
		return s.GetUser(ctx, id)
	}
	args = append(args, id)

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// TouchLastSeen records activity for the user
func (s *Store) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_seen_at = ? WHERE id = ?`, toMillis(at), id); err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

// CountUsers counts accounts; an empty role counts all of them
func (s *Store) CountUsers(ctx context.Context, role string) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountActiveSince counts users seen at or after since
func (s *Store) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_seen_at >= ?`, toMillis(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return n, nil
}
