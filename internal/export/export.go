package export

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

// Store is the subset of storage used to move libraries in and out
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListBooks(ctx context.Context, userID int64) ([]models.Book, error)
	AddBook(ctx context.Context, userID int64, b models.Book) (*models.Book, error)
}

// ImportResult counts what an import did
type ImportResult struct {
	Added   int
	Skipped int
	Invalid int
}

// Service exports and imports user libraries
type Service struct {
	store Store
	now   func() time.Time
}

// NewService returns a Service backed by store
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Export writes the library of the user with the given email to path.
// It returns the number of books written.
func (s *Service) Export(ctx context.Context, email, path string, format Format) (int, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to find user %s: %w", email, err)
	}

	books, err := s.store.ListBooks(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	lib := Library{
		Owner:      user.Email,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Books:      make([]Record, 0, len(books)),
	}
	for _, b := range books {
		lib.Books = append(lib.Books, FromBook(b))
	}

	if err := WriteFile(path, format, lib); err != nil {
		return 0, err
	}
	slog.Info("Exported library", "email", user.Email, "path", path, "format", format, "books", len(books))
	return len(books), nil
}

// Import adds the books in path to the user's library.
// Books already in the library are skipped; invalid rows are counted and skipped.
func (s *Service) Import(ctx context.Context, email, path string) (*ImportResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}

	records, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	var res ImportResult
	for i, r := range records {
		b := r.Book()
		if b.Status == "" {
			b.Status = models.StatusUnread
		}
		if err := validation.Struct(b); err != nil || !b.Status.Valid() {
			slog.Warn("Skipping invalid record", "row", i+1, "title", b.Title, "err", err)
			res.Invalid++
			continue
		}

		_, err := s.store.AddBook(ctx, user.ID, b)
		if errors.Is(err, storage.ErrDuplicateBook) {
			res.Skipped++
			continue
		}
		if err != nil {
			return &res, fmt.Errorf("failed to import %q: %w", b.Title, err)
		}
		res.Added++
	}

	slog.Info("Imported library", "email", user.Email, "path", path,
		"added", res.Added, "skipped", res.Skipped, "invalid", res.Invalid)
	return &res, nil
}
