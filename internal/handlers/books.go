package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.ListBooks(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, books)
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var b models.Book
	if !h.decode(w, r, &b) {
		return
	}
	if b.Status != "" && !b.Status.Valid() {
		h.writeError(w, "invalid status", http.StatusBadRequest)
		return
	}

	stored, err := h.store.AddBook(r.Context(), caller(r).UserID, b)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	var patch models.BookPatch
	if !h.decode(w, r, &patch) {
		return
	}
	if patch.Empty() {
		h.writeError(w, "nothing to update", http.StatusBadRequest)
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		h.writeError(w, "invalid status", http.StatusBadRequest)
		return
	}

	stored, err := h.store.UpdateBook(r.Context(), caller(r).UserID, id, patch)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteBook(r.Context(), caller(r).UserID, id)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleSearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, books)
}

func (h *Handler) HandleCover(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		h.writeError(w, "title is required", http.StatusBadRequest)
		return
	}
	url := h.catalog.Cover(r.Context(), title, r.URL.Query().Get("author"))
	h.writeJSON(w, http.StatusOK, map[string]string{"thumbnail": url})
}

func (h *Handler) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "invalid book id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
