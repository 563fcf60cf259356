package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quiz-session-service/internal/domain"
)

func (h *Handler) getMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.service.Mode(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mode)
}

func (h *Handler) setMode(w http.ResponseWriter, r *http.Request) {
	var req domain.ModeState
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := h.service.SetMode(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mode)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.Category
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func filterFrom(r *http.Request) domain.QuestionFilter {
	q := r.URL.Query()
	f := domain.QuestionFilter{
		CategoryID: q.Get("categoryId"),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Type:       domain.QuestionType(q.Get("type")),
	}
	if raw := q.Get("categoryIds"); raw != "" {
		f.CategoryIDs = strings.Split(raw, ",")
	}
	return f
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.service.ListQuestions(r.Context(), principal(r), filterFrom(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) adminListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.service.AdminListQuestions(r.Context(), principal(r), filterFrom(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) adminCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req domain.Question
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.service.CreateQuestion(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) adminGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.AdminGetQuestion(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
