package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth/v5"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/service"
)

type contextKeyAuth string

const (
	// AdminKey is the context key for the authenticated admin.
	AdminKey contextKeyAuth = "auth_admin"
)

// Guard rejection messages.
const (
	MsgNoToken       = "Not authorized, no token"
	MsgInvalidToken  = "Not authorized, invalid token"
	MsgTokenExpired  = "Not authorized, token expired"
	MsgAdminNotFound = "Not authorized, admin not found"
	MsgNotAuthorized = "Not authorized"
)

// TokenAuthenticator verifies bearer tokens and resolves the account they
// name. *service.AuthService satisfies it.
type TokenAuthenticator interface {
	VerifyToken(token string) (*service.Claims, error)
	ResolveAdmin(ctx context.Context, claims *service.Claims) (*model.Admin, error)
}

// Authenticate returns an HTTP middleware that admits only requests
// carrying a valid bearer token for an existing admin:
//
//  1. No "Authorization: Bearer <token>" header: 401 no token.
//  2. Token fails verification: 401 invalid token or token expired.
//  3. Account named by the id claim is gone: 401 admin not found.
//
// On success the admin, without its password hash, is attached to the
// request context. The account is looked up on every request, so a deleted
// admin is locked out even while its tokens are unexpired.
func Authenticate(auth TokenAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(jwtauth.TokenFromHeader(r))
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, MsgNoToken)
				return
			}

			claims, err := auth.VerifyToken(token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrTokenExpired):
					writeAuthError(w, http.StatusUnauthorized, MsgTokenExpired)
				case errors.Is(err, service.ErrTokenInvalid):
					logger.Debug("rejected bearer token", "error", err, "request_id", GetRequestID(r.Context()))
					writeAuthError(w, http.StatusUnauthorized, MsgInvalidToken)
				default:
					logger.Error("token verification failed", "error", err, "request_id", GetRequestID(r.Context()))
					writeAuthError(w, http.StatusUnauthorized, MsgNotAuthorized)
				}
				return
			}

			admin, err := auth.ResolveAdmin(r.Context(), claims)
			if err != nil {
				if errors.Is(err, config.ErrNotFound) {
					writeAuthError(w, http.StatusUnauthorized, MsgAdminNotFound)
					return
				}
				logger.Error("admin lookup failed", "error", err, "request_id", GetRequestID(r.Context()))
				writeAuthError(w, http.StatusUnauthorized, MsgNotAuthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the authenticated admin from the context.
// Returns nil if no admin is present (i.e., unauthenticated request).
func GetAdmin(ctx context.Context) *model.Admin {
	if a, ok := ctx.Value(AdminKey).(*model.Admin); ok {
		return a
	}
	return nil
}

// WithAdmin returns a copy of ctx carrying admin.
func WithAdmin(ctx context.Context, admin *model.Admin) context.Context {
	return context.WithValue(ctx, AdminKey, admin)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Success: false, Message: message})
}
