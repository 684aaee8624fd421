package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for storing the authenticated identity.
const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the identity from the context.
// Returns the zero identity if not found, which fails Validate.
func IdentityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

// UserLookup is the part of the store RequireAuth needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// RequireAuth returns a middleware that validates bearer tokens.
// It extracts the token from the Authorization header, validates it, checks
// the user still belongs to the token's family and adds the identity to the
// request context.
func RequireAuth(jwtManager *auth.JWTManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, auth.ErrMissingToken)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				unauthorized(w, err)
				return
			}

			// Members can be removed while their token is still valid.
			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				slog.Error("Failed to look up token user", "user_id", claims.UserID, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
				return
			}
			if user == nil || user.FamilyID != claims.FamilyID {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
}
