package server

import (
	"context"
	"net/http"
	"strings"

	"melodex/apperr"
	"melodex/core/auth"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// AuthMiddleware checks for a valid bearer token and stores its claims in the
// request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, apperr.New(apperr.KindUnauthorized, "authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, apperr.New(apperr.KindUnauthorized, "invalid authorization header format"))
			return
		}

		claims, err := h.verifier.VerifyToken(parts[1])
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireAuthor rejects callers whose token does not carry the author role.
// Runs after AuthMiddleware.
func (h *APIHandler) RequireAuthor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromContext(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if claims.Role != auth.RoleAuthor {
			writeJSON(w, http.StatusForbidden, apiResponse{
				Success: false,
				Message: "author role required",
				Kind:    string(apperr.KindUnauthorized),
			})
			return
		}
		next.ServeHTTP(w, r)
	}
}

// claimsFromContext extracts the verified claims set by AuthMiddleware.
func claimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil, apperr.New(apperr.KindUnauthorized, "not authenticated")
	}
	return claims, nil
}
