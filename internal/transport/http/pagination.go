package http

import (
	"fmt"
	"net/http"
	"strconv"

	"quiz-session-service/internal/domain"
)

func pageFrom(r *http.Request) (domain.Page, error) {
	var page domain.Page
	var err error
	if page.Limit, err = intParam(r, "limit"); err != nil {
		return page, err
	}
	if page.Offset, err = intParam(r, "offset"); err != nil {
		return page, err
	}
	return page, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, name)
	}
	return n, nil
}
