package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func TestBooksRequireAuth(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookLifecycle(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	token := ts.register("ana@example.com")

	rec := ts.do(http.MethodGet, "/api/books", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/books", token, models.Book{Title: "Duna", Author: "Frank Herbert", Genre: "Ficção Científica"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added models.Book
	decodeBody(t, rec, &added)
	assert.NotZero(t, added.ID)
	assert.Equal(t, models.StatusUnread, added.Status)
	assert.Equal(t, 0, added.Rating)

	rec = ts.do(http.MethodPost, "/api/books", token, models.Book{Title: "  DUNA ", Author: "frank herbert"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	path := fmt.Sprintf("/api/books/%d", added.ID)
	rec = ts.do(http.MethodPut, path, token, `{"rating":5,"status":"read"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Book
	decodeBody(t, rec, &updated)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, models.StatusRead, updated.Status)
	assert.Equal(t, "Duna", updated.Title)

	rec = ts.do(http.MethodGet, "/api/books", token, nil)
	var list []models.Book
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Rating)

	rec = ts.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = ts.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "book not found", errorOf(t, rec))
}

func TestUpdateBookValidation(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	token := ts.register("ana@example.com")

	rec := ts.do(http.MethodPost, "/api/books", token, models.Book{Title: "Duna"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var b models.Book
	decodeBody(t, rec, &b)
	path := fmt.Sprintf("/api/books/%d", b.ID)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"rating too high", path, `{"rating":6}`, http.StatusBadRequest},
		{"negative rating", path, `{"rating":-1}`, http.StatusBadRequest},
		{"bad status", path, `{"status":"abandoned"}`, http.StatusBadRequest},
		{"empty patch", path, `{}`, http.StatusBadRequest},
		{"non numeric id", "/api/books/duna", `{"rating":3}`, http.StatusBadRequest},
		{"zero id", "/api/books/0", `{"rating":3}`, http.StatusBadRequest},
		{"unknown id", "/api/books/9999", `{"rating":3}`, http.StatusNotFound},
		{"description only", path, `{"description":"Especiaria"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPut, tt.path, token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAddBookValidation(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	token := ts.register("ana@example.com")

	rec := ts.do(http.MethodPost, "/api/books", token, `{"author":"Sem Título"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "title is required")

	rec = ts.do(http.MethodPost, "/api/books", token, `{"title":"Duna","status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooksAreScopedToTheCaller(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	ana := ts.register("ana@example.com")
	bruno := ts.register("bruno@example.com")

	rec := ts.do(http.MethodPost, "/api/books", ana, models.Book{Title: "Duna"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var b models.Book
	decodeBody(t, rec, &b)

	rec = ts.do(http.MethodGet, "/api/books", bruno, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", b.ID), bruno, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The same title is fine in another library
	rec = ts.do(http.MethodPost, "/api/books", bruno, models.Book{Title: "Duna"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSearchAndCover(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	ts.catalog.results = []models.Book{{Title: "Duna", Author: "Frank Herbert"}}

	rec := ts.do(http.MethodGet, "/api/books/search?q=duna", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.Book
	decodeBody(t, rec, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Frank Herbert", found[0].Author)

	rec = ts.do(http.MethodGet, "/api/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books/cover?title=O+Hobbit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"thumbnail":"https://picsum.photos/seed/OHobbit/300/450"}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/books/cover", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
