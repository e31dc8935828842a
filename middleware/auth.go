package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"petopia-api/utils"

	"github.com/sirupsen/logrus"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// ClaimsFromContext returns the claims attached by Authenticator
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// WithClaims attaches claims to ctx
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// Authenticator verifies bearer tokens
type Authenticator struct {
	tokens  *utils.TokenManager
	revoker utils.TokenRevoker
	log     *logrus.Logger
}

func NewAuthenticator(tokens *utils.TokenManager, revoker utils.TokenRevoker, log *logrus.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, log: log}
}

// Handler verifies JWT tokens and attaches user information to the context.
// A missing token is 401, a token that fails verification is 403.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeMessage(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeMessage(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		claims, err := a.tokens.ParseJWT(parts[1])
		if err != nil {
			writeMessage(w, http.StatusForbidden, "Invalid token")
			return
		}

		revoked, err := a.revoker.IsRevoked(r.Context(), claims.Id)
		if err != nil {
			Entry(r.Context(), a.log).WithError(err).Error("revocation lookup failed")
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if revoked {
			writeMessage(w, http.StatusForbidden, "Token has been revoked")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !claims.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
