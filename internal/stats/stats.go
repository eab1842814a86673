// Package stats computes the admin dashboard figures.
package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

// ActiveWindow is how recently a user must have been seen to count as active
const ActiveWindow = 5 * time.Minute

const (
	topLimit  = 5
	yearLimit = 10
)

// Store is the subset of storage the statistics read from
type Store interface {
	CountUsers(ctx context.Context, role string) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	TopBookValues(ctx context.Context, field storage.BookField, limit int) ([]models.GroupCount, error)
}

// Service answers admin statistics queries
type Service struct {
	store Store
	now   func() time.Time
}

// NewService returns a Service reading from store
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// General counts users, admins and users active in the last five minutes
func (s *Service) General(ctx context.Context) (*models.GeneralStats, error) {
	var out models.GeneralStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalUsers, err = s.store.CountUsers(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		out.TotalAdmins, err = s.store.CountUsers(ctx, models.RoleAdmin)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveNow, err = s.store.CountActiveSince(ctx, s.now().Add(-ActiveWindow))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return &out, nil
}

// Books aggregates every library by genre, author, publication year and title
func (s *Service) Books(ctx context.Context) (*models.BookStats, error) {
	var out models.BookStats
	g, ctx := errgroup.WithContext(ctx)

	queries := []struct {
		field storage.BookField
		limit int
		dst   *[]models.GroupCount
	}{
		{storage.FieldGenre, topLimit, &out.TopGenres},
		{storage.FieldAuthor, topLimit, &out.TopAuthors},
		{storage.FieldPublicationYear, yearLimit, &out.BooksByYear},
		{storage.FieldTitle, topLimit, &out.TopBooks},
	}
	for _, q := range queries {
		g.Go(func() error {
			rows, err := s.store.TopBookValues(ctx, q.field, q.limit)
			if err != nil {
				return err
			}
			*q.dst = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute book stats: %w", err)
	}
	return &out, nil
}

// Users lists every account, newest first
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
