package http

import (
	"net/http"

	"quiz-session-service/internal/domain"
)

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// githubLogin starts the mock OAuth flow by pointing at the callback.
func (h *Handler) githubLogin(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Redirect to GitHub OAuth",
		"mockLoginUrl": scheme + "://" + r.Host + "/api/auth/github/callback?code=mock_code",
	})
}

// githubCallback signs in the first student.
func (h *Handler) githubCallback(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FirstStudent(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// logout is stateless: tokens simply expire.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
