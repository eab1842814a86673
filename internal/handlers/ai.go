package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/bibliotek-ia/bibliotek/internal/analysis"
	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func (h *Handler) HandleGenres(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, genres.List())
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req models.AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	claims := caller(r)
	resp, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		var reqErr *analysis.RequestError
		var upstreamErr *analysis.UpstreamError
		if !errors.As(err, &reqErr) && !errors.As(err, &upstreamErr) && !errors.Is(err, analysis.ErrUnavailable) {
			slog.Error("AI proxy error", "user_id", claims.UserID, "err", err)
			h.writeError(w, "Failed to communicate with AI service", http.StatusBadGateway)
			return
		}
		h.fail(w, r, err)
		return
	}

	if !resp.Failed() {
		h.saveAnalysis(r, claims.UserID, resp)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) saveAnalysis(r *http.Request, userID int64, resp *models.RecommendationResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("Failed to encode analysis", "user_id", userID, "err", err)
		return
	}
	if err := h.store.SaveAnalysis(r.Context(), userID, raw); err != nil {
		slog.Warn("Failed to save last analysis", "user_id", userID, "err", err)
	}
}

func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if !h.decode(w, r, &req) {
		return
	}

	text, err := h.analyzer.Compare(r.Context(), req.BookA, req.BookB)
	if err != nil {
		var upstreamErr *analysis.UpstreamError
		if errors.As(err, &upstreamErr) || errors.Is(err, analysis.ErrUnavailable) {
			h.fail(w, r, err)
			return
		}
		slog.Error("Comparison failed", "err", err)
		h.writeError(w, "Failed to compare books", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"comparison": text})
}
