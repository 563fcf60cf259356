package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"quiz-session-service/internal/domain"
)

type errorBody struct {
	Error   domain.Kind `json:"error"`
	Message string      `json:"message"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps err onto its status. Internal errors are logged and never echoed to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal server error"
	}
	writeJSON(w, statusFor(kind), errorBody{Error: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// decodeJSON reads the request body into dst, rejecting malformed input as a bad request.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", domain.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}
