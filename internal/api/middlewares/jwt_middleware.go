package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markdave123-py/Penpal/internal/services"
)

// DeviceHeader identifies a guest device when no bearer token is sent.
const DeviceHeader = "X-Device-ID"

// IssueToken signs a token carrying userID.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is empty")
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token claims")
	}
	return userID, nil
}

// Identity resolves who the request acts for: a signed-in user from the
// bearer token, or a guest from the device header. A bad token is rejected
// rather than downgraded to guest.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id services.Identity

			if auth := r.Header.Get("Authorization"); auth != "" {
				if !strings.HasPrefix(auth, "Bearer ") {
					http.Error(w, "missing or invalid token", http.StatusUnauthorized)
					return
				}
				userID, err := parseToken(secret, strings.TrimPrefix(auth, "Bearer "))
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				id = services.UserIdentity(userID)
			} else if device := strings.TrimSpace(r.Header.Get(DeviceHeader)); device != "" {
				id = services.GuestIdentity(device)
			} else {
				http.Error(w, "missing token or device id", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(services.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireUser rejects guests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := services.IdentityFrom(r.Context())
		if !ok || !id.Authenticated {
			http.Error(w, "sign in required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
