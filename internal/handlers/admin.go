package handlers

import "net/http"

func (h *Handler) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.General(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) HandleAdminBookStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Books(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) HandleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.stats.Users(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}
