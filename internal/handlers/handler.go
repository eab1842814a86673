// Package handlers serves the bibliotek JSON API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibliotek-ia/bibliotek/internal/analysis"
	"github.com/bibliotek-ia/bibliotek/internal/auth"
	"github.com/bibliotek-ia/bibliotek/internal/catalog"
	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/respond"
	"github.com/bibliotek-ia/bibliotek/internal/stats"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
	"github.com/bibliotek-ia/bibliotek/internal/validation"
)

// Store is the persistence the handlers use directly
type Store interface {
	ListBooks(ctx context.Context, userID int64) ([]models.Book, error)
	AddBook(ctx context.Context, userID int64, b models.Book) (*models.Book, error)
	UpdateBook(ctx context.Context, userID, id int64, p models.BookPatch) (*models.Book, error)
	DeleteBook(ctx context.Context, userID, id int64) error
	SaveAnalysis(ctx context.Context, userID int64, content []byte) error
	LastAnalysis(ctx context.Context, userID int64) ([]byte, error)
	UpdateProfile(ctx context.Context, id int64, p storage.ProfilePatch) (*models.User, error)
}

// Catalog looks books up in an external catalog
type Catalog interface {
	Search(ctx context.Context, q string) ([]models.Book, error)
	Cover(ctx context.Context, title, author string) string
}

// Deps wires a Handler
type Deps struct {
	Auth     *auth.Service
	Store    Store
	Analyzer analysis.Analyzer
	Catalog  Catalog
	Stats    *stats.Service
	// MaxUploadBytes caps the analyze request body
	MaxUploadBytes int64
}

type Handler struct {
	auth           *auth.Service
	store          Store
	analyzer       analysis.Analyzer
	catalog        Catalog
	stats          *stats.Service
	maxUploadBytes int64
}

func New(d Deps) *Handler {
	limit := d.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	return &Handler{
		auth:           d.Auth,
		store:          d.Store,
		analyzer:       d.Analyzer,
		catalog:        d.Catalog,
		stats:          d.Stats,
		maxUploadBytes: limit,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	respond.JSON(w, status, data)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	}
	respond.Error(w, code, message)
}

// decode reads and validates a JSON body, writing the error response on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := respond.Decode(r, v); err != nil {
		h.fail(w, r, err)
		return false
	}
	if err := validation.Struct(v); err != nil {
		h.fail(w, r, err)
		return false
	}
	return true
}

// fail maps an error to its HTTP response
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		valErr      *validation.Error
		maxErr      *http.MaxBytesError
		reqErr      *analysis.RequestError
		upstreamErr *analysis.UpstreamError
	)

	switch {
	case errors.As(err, &valErr):
		respond.ErrorDetails(w, http.StatusBadRequest, valErr.Error(), valErr.Fields)
	case errors.As(err, &maxErr):
		h.writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, respond.ErrEmptyBody):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &reqErr):
		h.writeError(w, reqErr.Error(), http.StatusBadRequest)
	case errors.As(err, &upstreamErr):
		h.writeError(w, upstreamErr.Body, upstreamErr.Status)
	case errors.Is(err, analysis.ErrUnavailable):
		h.writeError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.writeError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, storage.ErrEmailTaken):
		h.writeError(w, "email already registered", http.StatusBadRequest)
	case errors.Is(err, storage.ErrDuplicateBook):
		h.writeError(w, "book already in library", http.StatusConflict)
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, "not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrEmptyQuery):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, respond.ErrInvalidJSON):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// caller returns the authenticated user's claims; routes behind Authenticate always have them
func caller(r *http.Request) *auth.Claims {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return claims
}
