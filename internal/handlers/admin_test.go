package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	userToken := ts.register("ana@example.com")
	adminToken := ts.register("chefe@example.com")

	rec := ts.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Promotion applies to the existing token
	_, err := ts.store.SetRole(context.Background(), "chefe@example.com", models.RoleAdmin)
	require.NoError(t, err)

	rec = ts.do(http.MethodPost, "/api/books", userToken, models.Book{Title: "Duna", Author: "Frank Herbert", Genre: "Ficção Científica"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var general models.GeneralStats
	decodeBody(t, rec, &general)
	assert.Equal(t, 2, general.TotalUsers)
	assert.Equal(t, 1, general.TotalAdmins)
	assert.Equal(t, 2, general.ActiveNow)

	rec = ts.do(http.MethodGet, "/api/admin/book-stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var books models.BookStats
	decodeBody(t, rec, &books)
	assert.Equal(t, []models.GroupCount{{Value: "Ficção Científica", Count: 1}}, books.TopGenres)
	assert.Equal(t, []models.GroupCount{{Value: "Duna", Count: 1}}, books.TopBooks)
	assert.Empty(t, books.BooksByYear)

	rec = ts.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decodeBody(t, rec, &users)
	assert.Len(t, users, 2)

	rec = ts.do(http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", errorOf(t, rec))
}
