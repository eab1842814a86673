// Package export writes and reads a user's library as YAML, JSONL or Parquet.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// Format is a library file format
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts a format name as given on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "jsonl", "json":
		return FormatJSONL, nil
	case "parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unsupported format: %s (supported: yaml, jsonl, parquet)", name)
}

// FormatFromPath detects the format from the file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".json":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unsupported file format: %s (supported: .yaml, .jsonl, .parquet)", ext)
}

// Record is one book as it appears in an export file
type Record struct {
	Title                string `json:"title" yaml:"title" parquet:"title"`
	Author               string `json:"author" yaml:"author" parquet:"author"`
	Description          string `json:"description,omitempty" yaml:"description,omitempty" parquet:"description"`
	Genre                string `json:"genre,omitempty" yaml:"genre,omitempty" parquet:"genre"`
	RecommendationReason string `json:"recommendationReason,omitempty" yaml:"recommendation_reason,omitempty" parquet:"recommendation_reason"`
	Rating               int32  `json:"rating" yaml:"rating" parquet:"rating"`
	Status               string `json:"status" yaml:"status" parquet:"status"`
	Thumbnail            string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty" parquet:"thumbnail"`
	PublicationYear      string `json:"publicationYear,omitempty" yaml:"publication_year,omitempty" parquet:"publication_year"`
	CreatedAt            string `json:"createdAt,omitempty" yaml:"created_at,omitempty" parquet:"created_at"`
}

// FromBook converts a stored book to a Record
func FromBook(b models.Book) Record {
	r := Record{
		Title:                b.Title,
		Author:               b.Author,
		Description:          b.Description,
		Genre:                b.Genre,
		RecommendationReason: b.RecommendationReason,
		Rating:               int32(b.Rating),
		Status:               string(b.Status),
		Thumbnail:            b.Thumbnail,
		PublicationYear:      b.PublicationYear,
	}
	if !b.CreatedAt.IsZero() {
		r.CreatedAt = b.CreatedAt.UTC().Format(time.RFC3339)
	}
	return r
}

// Book converts a Record back to a book ready to be added to a library
func (r Record) Book() models.Book {
	return models.Book{
		Title:                strings.TrimSpace(r.Title),
		Author:               strings.TrimSpace(r.Author),
		Description:          r.Description,
		Genre:                r.Genre,
		RecommendationReason: r.RecommendationReason,
		Rating:               int(r.Rating),
		Status:               models.ReadingStatus(r.Status),
		Thumbnail:            r.Thumbnail,
		PublicationYear:      r.PublicationYear,
	}
}

// Library is the YAML document layout
type Library struct {
	Owner      string   `yaml:"owner"`
	ExportedAt string   `yaml:"exported_at"`
	Books      []Record `yaml:"books"`
}
