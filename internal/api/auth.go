package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsContextKey = contextKey("claims")

// Claims represents the JWT payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// generateToken creates a new JWT for a user.
func (s *Server) generateToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

var errNoToken = errors.New("missing authentication token")

// parseRequestToken reads the bearer token or the token cookie and
// validates it.
func (s *Server) parseRequestToken(r *http.Request) (*Claims, error) {
	var tokenString string
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenString == "" {
		if cookie, err := r.Cookie("token"); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return nil, errNoToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// requireAuth rejects requests without a valid token and attaches the
// claims to the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.parseRequestToken(r)
		if errors.Is(err, errNoToken) {
			respondError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid authentication token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getClaims extracts the claims set by requireAuth.
func getClaims(r *http.Request) *Claims {
	if c, ok := r.Context().Value(claimsContextKey).(*Claims); ok {
		return c
	}
	return &Claims{}
}

// optionalEmail returns the caller's email when a valid token is present.
func (s *Server) optionalEmail(r *http.Request) string {
	claims, err := s.parseRequestToken(r)
	if err != nil {
		return ""
	}
	return claims.Email
}
