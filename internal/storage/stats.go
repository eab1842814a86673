package storage

import (
	"context"
	"fmt"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// BookField names a books column that can be grouped for statistics
type BookField string

const (
	FieldGenre           BookField = "genre"
	FieldAuthor          BookField = "author"
	FieldTitle           BookField = "title"
	FieldPublicationYear BookField = "publication_year"
)

func (f BookField) valid() bool {
	switch f {
	case FieldGenre, FieldAuthor, FieldTitle, FieldPublicationYear:
		return true
	}
	return false
}

// TopBookValues groups every library by field and returns the limit most
// frequent non-empty values, by count descending then value ascending
func (s *Store) TopBookValues(ctx context.Context, field BookField, limit int) ([]models.GroupCount, error) {
	if !field.valid() {
		return nil, fmt.Errorf("unsupported stats field: %s", field)
	}

	col := string(field)
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS n FROM books
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		GROUP BY %[1]s
		ORDER BY n DESC, %[1]s ASC
		LIMIT ?`, col)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to group books by %s: %w", col, err)
	}
	defer rows.Close()

	out := []models.GroupCount{}
	for rows.Next() {
		var gc models.GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", col, err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}
