package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-session-service/internal/app"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	view, err := h.service.CreateSession(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSession(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// submitAnswer answers 200 for scored answers and 202 for answers awaiting review.
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req app.AnswerPayload
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := h.service.SubmitAnswer(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if outcome.Pending != nil {
		writeJSON(w, http.StatusAccepted, outcome.Pending)
		return
	}
	writeJSON(w, http.StatusOK, outcome.Scored)
}

func (h *Handler) submitSession(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SubmitSession(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Results(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
