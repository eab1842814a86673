package handlers

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

type saveAnalysisRequest struct {
	Analysis json.RawMessage `json:"analysis"`
}

func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.LastAnalysis(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if raw == nil {
		h.writeJSON(w, http.StatusOK, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, json.RawMessage(raw))
}

func (h *Handler) HandleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req saveAnalysisRequest
	if !h.decode(w, r, &req) {
		return
	}
	trimmed := bytes.TrimSpace(req.Analysis)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		h.writeError(w, "analysis is required", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveAnalysis(r.Context(), caller(r).UserID, trimmed); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Analysis saved successfully"})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == nil && req.PhotoURL == nil {
		h.writeError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	u, err := h.store.UpdateProfile(r.Context(), caller(r).UserID, storage.ProfilePatch{
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}
