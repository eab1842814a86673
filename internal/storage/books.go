package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bibliotek-ia/bibliotek/internal/match"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

const bookColumns = `id, title, author, description, genre, recommendation_reason, rating, status, thumbnail, publication_year, created_at`

func scanBook(row rowScanner) (*models.Book, error) {
	var (
		b         models.Book
		status    string
		year      sql.NullString
		createdAt int64
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Genre, &b.RecommendationReason,
		&b.Rating, &status, &b.Thumbnail, &year, &createdAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.ReadingStatus(status)
	b.PublicationYear = year.String
	b.CreatedAt = fromMillis(createdAt)
	return &b, nil
}

// ListBooks returns the user's library, newest first
func (s *Store) ListBooks(ctx context.Context, userID int64) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// GetBook returns one of the user's books
func (s *Store) GetBook(ctx context.Context, userID, id int64) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book %d: %w", id, err)
	}
	return b, nil
}

// AddBook stores b in the user's library and returns the stored row.
// The same title and author, compared loosely, can only be added once.
func (s *Store) AddBook(ctx context.Context, userID int64, b models.Book) (*models.Book, error) {
	status := b.Status
	if status == "" {
		status = models.StatusUnread
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (user_id, title, author, description, genre, recommendation_reason,
			rating, status, thumbnail, publication_year, title_key, author_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, strings.TrimSpace(b.Title), strings.TrimSpace(b.Author), b.Description, b.Genre,
		b.RecommendationReason, b.Rating, string(status), b.Thumbnail, nullString(b.PublicationYear),
		match.Normalize(b.Title), match.Normalize(b.Author), toMillis(s.now()),
	)
	s.mu.Unlock()
	if isUniqueConstraintErr(err) {
		return nil, ErrDuplicateBook
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read book id: %w", err)
	}
	return s.GetBook(ctx, userID, id)
}

// UpdateBook applies the non-nil fields of p and returns the stored row
func (s *Store) UpdateBook(ctx context.Context, userID, id int64, p models.BookPatch) (*models.Book, error) {
	var (
		sets []string
		args []any
	)
	if p.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *p.Rating)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		return s.GetBook(ctx, userID, id)
	}
	args = append(args, id, userID)

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update book %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetBook(ctx, userID, id)
}

// DeleteBook removes one of the user's books
func (s *Store) DeleteBook(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ? AND user_id = ?`, id, userID)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to delete book %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
