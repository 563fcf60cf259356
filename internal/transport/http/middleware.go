package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quiz-session-service/internal/auth"
	"quiz-session-service/internal/domain"
)

type ctxKey int

const principalKey ctxKey = iota

// UserLookup resolves the account behind a token.
type UserLookup interface {
	CurrentUser(ctx context.Context, p domain.Principal) (domain.User, error)
}

// Authenticator turns bearer tokens into principals.
type Authenticator struct {
	tokens *auth.TokenService
	users  UserLookup
}

func NewAuthenticator(tokens *auth.TokenService, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return a.require(false, next)
}

// RequireWithQuery also accepts the token as a ?token= query parameter, for browser websockets.
func (a *Authenticator) RequireWithQuery(next http.Handler) http.Handler {
	return a.require(true, next)
}

func (a *Authenticator) require(allowQuery bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" && allowQuery {
			raw = r.URL.Query().Get("token")
		}
		if raw == "" {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		p, err := a.authenticate(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// authenticate verifies raw and takes the role from the stored user rather than the token.
func (a *Authenticator) authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return domain.Principal{}, err
	}
	u, err := a.users.CurrentUser(ctx, domain.Principal{UserID: claims.UserID, Role: claims.Role})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: u.ID, Role: u.Role}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// PrincipalFrom returns the caller stored by the authenticator.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

func principal(r *http.Request) domain.Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}
