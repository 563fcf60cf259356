package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-session-service/internal/domain"
)

// DefaultTTL matches the lifetime of tokens issued by the mock login.
const DefaultTTL = 7 * 24 * time.Hour

// Claims is the payload of a bearer token.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	hmac   []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{hmac: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for u.
func (s *TokenService) Issue(u domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmac)
}

// Parse verifies raw and returns its claims. Any failure maps to domain.ErrUnauthorized.
func (s *TokenService) Parse(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no user id", domain.ErrUnauthorized)
	}
	return claims, nil
}
