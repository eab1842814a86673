// Package auth handles accounts, passwords and JWT sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
	"github.com/bibliotek-ia/bibliotek/internal/validation"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of storage the auth layer needs
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error
}

// Service registers and logs in users
type Service struct {
	store  UserStore
	tokens *JWTManager
}

// NewService returns an auth service
func NewService(store UserStore, tokens *JWTManager) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register creates a regular user account and opens a session for it
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, error) {
	u, err := s.CreateUser(ctx, req, models.RoleUser)
	if err != nil {
		return nil, err
	}
	slog.Info("User registered", "user_id", u.ID)
	return s.session(u)
}

// CreateUser creates an account with the given role without opening a session
func (s *Service) CreateUser(ctx context.Context, req models.RegisterRequest, role string) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.store.CreateUser(ctx, &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
}

// Login checks credentials and opens a session
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.TouchLastSeen(ctx, u.ID, time.Now()); err != nil {
		slog.Warn("Failed to record login", "user_id", u.ID, "err", err)
	}
	return s.session(u)
}

// Me returns the account behind a set of claims
func (s *Service) Me(ctx context.Context, claims *Claims) (*models.User, error) {
	return s.store.GetUser(ctx, claims.UserID)
}

func (s *Service) session(u *models.User) (*models.Session, error) {
	token, expires, err := s.tokens.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.Session{User: u, Token: token, ExpiresAt: expires}, nil
}
