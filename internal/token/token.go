package token

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// LoginTokenTTL is the lifetime of tokens issued on login.
	LoginTokenTTL = 48 * time.Hour
	// UpsertTokenTTL is the lifetime of tokens issued alongside a user upsert.
	UpsertTokenTTL = 24 * time.Hour
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second
)

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid access token")

// Service issues and verifies HS256 access tokens using a process-wide
// secret. Tokens are stateless; there is no revocation or refresh.
type Service struct {
	secret []byte
	leeway time.Duration
}

// New creates a token service. An empty secret is rejected so signing can
// never silently fall back to a default key.
func New(secret string) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("access token secret is required")
	}
	return &Service{
		secret: []byte(secret),
		leeway: DefaultLeeway,
	}, nil
}

// Issue signs the given claims plus iat/exp with the process secret.
func (s *Service) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := time.Now().UTC()
	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}
	mapClaims["iat"] = now.Unix()
	mapClaims["exp"] = now.Add(ttl).Unix()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return t.SignedString(s.secret)
}

// Verify validates signature and expiry and returns the decoded claims.
func (s *Service) Verify(token string) (map[string]any, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EmailClaim extracts the email claim from decoded claims.
func EmailClaim(claims map[string]any) (string, bool) {
	email, ok := claims["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", false
	}
	return email, true
}

// BearerToken extracts a bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
