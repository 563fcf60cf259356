package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

type usersResponse struct {
	Users []app.UserSummary `json:"users"`
	Total int               `json:"total"`
}

type pendingResponse struct {
	Answers []app.PendingAnswerItem `json:"answers"`
	Total   int                     `json:"total"`
}

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, total, err := h.service.ListStudents(r.Context(), principal(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users, Total: total})
}

func (h *Handler) adminSetDifficulty(w http.ResponseWriter, r *http.Request) {
	var req domain.DifficultySettings
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := h.service.SetDifficulty(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) adminUserResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.UserResults(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) adminPendingAnswers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.service.PendingAnswers(r.Context(), principal(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{Answers: items, Total: total})
}

func (h *Handler) adminGradeAnswer(w http.ResponseWriter, r *http.Request) {
	var req app.GradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	graded, err := h.service.GradeAnswer(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graded)
}
