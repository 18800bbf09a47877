package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Verifies session tokens minted by the identity provider. The subject claim
// is the opaque identity that usage and rate limits are keyed on.
type AuthService struct {
	jwtSecret []byte
	issuer    string
}

func NewAuthService(secret, issuer string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		issuer:    issuer,
	}
}

// Validates a JWT token and returns its subject
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", apperr.New(apperr.KindUnauthenticated, "auth.validate", "token verification is not configured", nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return "", apperr.New(apperr.KindUnauthenticated, "auth.validate", "Invalid or expired token", err)
	}
	if !token.Valid {
		return "", apperr.New(apperr.KindUnauthenticated, "auth.validate", "Invalid or expired token", errors.New("invalid token"))
	}
	if claims.Subject == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "auth.validate", "Token has no subject", nil)
	}

	return claims.Subject, nil
}

// Signs a token for subject. Used by local tooling and tests; production
// tokens come from the identity provider.
func (s *AuthService) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}
