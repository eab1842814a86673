// Package catalog looks up books and covers in the Google Books catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

// Defaults for fields the catalog leaves empty
const (
	UnknownAuthor    = "Autor Desconhecido"
	NoDescription    = "Sem descrição disponível."
	DefaultGenre     = "Geral"
	searchMaxResults = 12
)

// ErrEmptyQuery is returned when a search has nothing to look for
var ErrEmptyQuery = errors.New("query is required")

// Options configure the catalog client
type Options struct {
	APIKey  string
	Timeout time.Duration
	// Endpoint overrides the Google Books base URL
	Endpoint string
}

// Client queries Google Books
type Client struct {
	svc     *books.Service
	timeout time.Duration
}

// New returns a catalog client. An empty API key uses the anonymous quota.
func New(ctx context.Context, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	} else {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := books.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}
	return &Client{svc: svc, timeout: timeout}, nil
}

// Search returns up to 12 books matching q, most relevant first
func (c *Client) Search(ctx context.Context, q string) ([]models.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	vols, err := c.list(ctx, q, searchMaxResults)
	if err != nil {
		return nil, err
	}

	out := make([]models.Book, 0, len(vols))
	for _, v := range vols {
		if v.VolumeInfo == nil || v.VolumeInfo.Title == "" {
			continue
		}
		out = append(out, toBook(v.VolumeInfo))
	}
	return out, nil
}

// Cover returns a cover image URL for the book, falling back to a placeholder
func (c *Client) Cover(ctx context.Context, title, author string) string {
	q := "intitle:" + strings.TrimSpace(title)
	if a := strings.TrimSpace(author); a != "" {
		q += " inauthor:" + a
	}

	vols, err := c.list(ctx, q, 1)
	if err != nil {
		slog.Warn("Cover lookup failed", "title", title, "err", err)
		return PlaceholderCover(title)
	}
	for _, v := range vols {
		if v.VolumeInfo == nil {
			continue
		}
		if thumb := thumbnail(v.VolumeInfo.ImageLinks); thumb != "" {
			return thumb
		}
	}
	return PlaceholderCover(title)
}

// PlaceholderCover is a stable stock image seeded by the title
func PlaceholderCover(title string) string {
	seed := strings.Join(strings.Fields(title), "")
	if seed == "" {
		seed = "book"
	}
	return "https://picsum.photos/seed/" + url.PathEscape(seed) + "/300/450"
}

func (c *Client) list(ctx context.Context, q string, limit int64) ([]*books.Volume, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Volumes.List(q).
		MaxResults(limit).
		PrintType("books").
		OrderBy("relevance").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search google books: %w", err)
	}
	return resp.Items, nil
}

func toBook(info *books.VolumeVolumeInfo) models.Book {
	b := models.Book{
		Title:       info.Title,
		Author:      UnknownAuthor,
		Description: NoDescription,
		Genre:       DefaultGenre,
		Thumbnail:   thumbnail(info.ImageLinks),
		Status:      models.StatusUnread,
	}
	if len(info.Authors) > 0 && info.Authors[0] != "" {
		b.Author = info.Authors[0]
	}
	if info.Description != "" {
		b.Description = info.Description
	}
	if len(info.Categories) > 0 && info.Categories[0] != "" {
		b.Genre = info.Categories[0]
	}
	if len(info.PublishedDate) >= 4 {
		b.PublicationYear = info.PublishedDate[:4]
	}
	return b
}

func thumbnail(links *books.VolumeVolumeInfoImageLinks) string {
	if links == nil {
		return ""
	}
	thumb := links.Thumbnail
	if thumb == "" {
		thumb = links.SmallThumbnail
	}
	return strings.Replace(thumb, "http://", "https://", 1)
}
